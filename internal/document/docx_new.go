package document

import (
	"archive/zip"
	"fmt"
	"time"
)

// New creates an empty document package with Title and Heading styles.
func New() (*Document, error) {
	contentTypes, err := marshalPart(&ContentTypes{
		Namespace: ContentTypesNamespace,
		Defaults: []Default{
			{Extension: "rels", ContentType: ContentTypeRelationships},
			{Extension: "xml", ContentType: ContentTypeXML},
		},
		Overrides: []Override{
			{PartName: "/" + DefaultDocumentPart, ContentType: ContentTypeMainDocument},
			{PartName: "/" + StylesPart, ContentType: ContentTypeStyles},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build content types: %w", err)
	}

	packageRels, err := marshalPart(&Relationships{
		Namespace: PackageRelsNamespace,
		Relationships: []Relationship{
			{ID: "rId1", Type: RelTypeOfficeDocument, Target: DefaultDocumentPart},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build package relationships: %w", err)
	}

	documentRels, err := marshalPart(&Relationships{
		Namespace: PackageRelsNamespace,
		Relationships: []Relationship{
			{ID: "rId1", Type: RelTypeStyles, Target: "styles.xml"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build document relationships: %w", err)
	}

	now := time.Now()
	pkg := &Package{mainPart: DefaultDocumentPart}
	for _, part := range []struct {
		name string
		data []byte
	}{
		{ContentTypesPart, contentTypes},
		{PackageRelsPart, packageRels},
		{DefaultDocumentPart, []byte(blankDocumentXML)},
		{DocumentRelsPart, documentRels},
		{StylesPart, []byte(stylesXML)},
	} {
		pkg.parts = append(pkg.parts, &Part{Name: part.name, Method: zip.Deflate, Modified: now, Data: part.data})
	}

	return fromPackage(pkg)
}
