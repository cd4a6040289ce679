package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"
)

// Part is one file of an OPC package.
type Part struct {
	Name     string
	Method   uint16
	Modified time.Time
	Data     []byte
}

// Package is a DOCX zip archive held in memory.
type Package struct {
	parts    []*Part
	mainPart string
}

// OpenPackage reads a DOCX file into memory. The file handle is released
// before returning.
func OpenPackage(filePath string) (*Package, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read DOCX: %w", err)
	}
	return ReadPackage(bytes.NewReader(data), int64(len(data)))
}

// ReadPackage reads a DOCX archive from r.
func ReadPackage(r io.ReaderAt, size int64) (*Package, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read DOCX: %w", err)
	}

	pkg := &Package{}
	for _, file := range zipReader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		data, err := readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
		pkg.parts = append(pkg.parts, &Part{
			Name:     file.Name,
			Method:   file.Method,
			Modified: file.Modified,
			Data:     data,
		})
	}

	mainPart, err := pkg.resolveMainPart()
	if err != nil {
		return nil, err
	}
	pkg.mainPart = mainPart
	return pkg, nil
}

// readZipFile extracts a single file from ZIP
func readZipFile(file *zip.File) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// resolveMainPart follows _rels/.rels to the main document part.
func (p *Package) resolveMainPart() (string, error) {
	if rels := p.Part(PackageRelsPart); rels != nil {
		var r Relationships
		if err := xml.Unmarshal(rels.Data, &r); err == nil {
			if rel, ok := r.Find(RelTypeOfficeDocument); ok {
				name := strings.TrimPrefix(path.Clean("/"+rel.Target), "/")
				if p.Part(name) != nil {
					return name, nil
				}
			}
		}
	}
	if p.Part(DefaultDocumentPart) != nil {
		return DefaultDocumentPart, nil
	}
	return "", fmt.Errorf("main document part not found in archive")
}

// Part returns the named part or nil.
func (p *Package) Part(name string) *Part {
	for _, part := range p.parts {
		if part.Name == name {
			return part
		}
	}
	return nil
}

// SetPart replaces or adds a part.
func (p *Package) SetPart(name string, data []byte) {
	if part := p.Part(name); part != nil {
		part.Data = data
		return
	}
	p.parts = append(p.parts, &Part{Name: name, Method: zip.Deflate, Modified: time.Now(), Data: data})
}

// MainPart returns the name of the main document part.
func (p *Package) MainPart() string {
	return p.mainPart
}

// Write re-zips every part in its original order.
func (p *Package) Write(output io.Writer) error {
	zipWriter := zip.NewWriter(output)

	for _, part := range p.parts {
		header := &zip.FileHeader{
			Name:     part.Name,
			Method:   part.Method,
			Modified: part.Modified,
		}
		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			zipWriter.Close()
			return fmt.Errorf("failed to add %s: %w", part.Name, err)
		}
		if _, err := writer.Write(part.Data); err != nil {
			zipWriter.Close()
			return fmt.Errorf("failed to write %s: %w", part.Name, err)
		}
	}

	return zipWriter.Close()
}
