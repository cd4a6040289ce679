// Package document is a small WordprocessingML (DOCX) document model: an
// ordered sequence of body paragraphs and tables of rows of cells, each
// paragraph exposing its text, its properties and its formatted runs.
//
// A Document is not safe for concurrent use.
package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Document is an opened DOCX package with its main part parsed.
type Document struct {
	pkg  *Package
	tree *Node
	body *Node
	ns   string
}

// Open reads and parses a DOCX file.
func Open(filePath string) (*Document, error) {
	pkg, err := OpenPackage(filePath)
	if err != nil {
		return nil, err
	}
	return fromPackage(pkg)
}

// Read parses a DOCX archive from r.
func Read(r io.ReaderAt, size int64) (*Document, error) {
	pkg, err := ReadPackage(r, size)
	if err != nil {
		return nil, err
	}
	return fromPackage(pkg)
}

func fromPackage(pkg *Package) (*Document, error) {
	part := pkg.Part(pkg.MainPart())
	tree, err := ParseXML(bytes.NewReader(part.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", part.Name, err)
	}

	root := tree.Root()
	if !root.Is("document") {
		return nil, fmt.Errorf("%s: root element is not a document", part.Name)
	}
	body := root.Child("body")
	if body == nil {
		return nil, fmt.Errorf("%s: document has no body", part.Name)
	}

	return &Document{
		pkg:  pkg,
		tree: tree,
		body: body,
		ns:   wordPrefix(root),
	}, nil
}

// wordPrefix finds the prefix bound to the main WordprocessingML namespace.
func wordPrefix(root *Node) string {
	for _, a := range root.Attrs {
		if a.Value == WordprocessingMLNamespace && isNamespaceDecl(a.Name) {
			return localName(a.Name)
		}
	}
	if i := strings.IndexByte(root.Name, ':'); i >= 0 {
		return root.Name[:i]
	}
	return defaultWordNamespace
}

// Save writes the document to filePath, closing the file on every path.
func (d *Document) Save(filePath string) (err error) {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filePath, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return d.Write(f)
}

// Write serialises the document package to w.
func (d *Document) Write(w io.Writer) error {
	data, err := d.tree.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialise document: %w", err)
	}
	d.pkg.SetPart(d.pkg.MainPart(), data)
	return d.pkg.Write(w)
}

// Paragraphs returns the paragraphs that are direct children of the body.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, n := range d.body.ChildrenNamed("p") {
		out = append(out, &Paragraph{node: n, ns: d.ns})
	}
	return out
}

// Tables returns the tables that are direct children of the body.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, n := range d.body.ChildrenNamed("tbl") {
		out = append(out, &Table{node: n, ns: d.ns})
	}
	return out
}

// AddParagraph appends a paragraph with the given text and optional style id.
func (d *Document) AddParagraph(text, style string) *Paragraph {
	p := &Paragraph{node: NewElement(qualify(d.ns, "p")), ns: d.ns}
	if style != "" {
		p.SetStyle(style)
	}
	if text != "" {
		p.AddRun(text)
	}
	d.insertBlock(p.node)
	return p
}

// AddHeading appends a heading; level 0 uses the Title style.
func (d *Document) AddHeading(text string, level int) *Paragraph {
	style := "Title"
	if level > 0 {
		style = "Heading" + strconv.Itoa(level)
	}
	return d.AddParagraph(text, style)
}

// AddPageBreak appends a paragraph holding a single page break.
func (d *Document) AddPageBreak() *Paragraph {
	p := d.AddParagraph("", "")
	run := NewElement(qualify(d.ns, "r"))
	run.Append(NewElement(qualify(d.ns, "br"), Attr{Name: qualify(d.ns, "type"), Value: "page"}))
	p.node.Append(run)
	return p
}

// insertBlock adds a block element before the trailing section properties.
func (d *Document) insertBlock(n *Node) {
	for i := len(d.body.Children) - 1; i >= 0; i-- {
		c := d.body.Children[i]
		if c.Kind != ElementNode {
			continue
		}
		if c.Is("sectPr") {
			d.body.InsertAt(i, n)
			return
		}
		break
	}
	d.body.Append(n)
}

// Paragraph wraps a w:p element.
type Paragraph struct {
	node *Node
	ns   string
}

// Node exposes the underlying element.
func (p *Paragraph) Node() *Node {
	return p.node
}

// Properties returns the w:pPr element or nil.
func (p *Paragraph) Properties() *Node {
	return p.node.Child("pPr")
}

func (p *Paragraph) ensureProperties() *Node {
	if pPr := p.Properties(); pPr != nil {
		return pPr
	}
	pPr := NewElement(qualify(p.ns, "pPr"))
	p.node.InsertAt(0, pPr)
	return pPr
}

// Style returns the paragraph style id.
func (p *Paragraph) Style() string {
	if pPr := p.Properties(); pPr != nil {
		if s := pPr.Child("pStyle"); s != nil {
			v, _ := s.Attr("val")
			return v
		}
	}
	return ""
}

// SetStyle sets the paragraph style id.
func (p *Paragraph) SetStyle(style string) {
	s := p.ensureProperties().ensureChild(p.ns, "pStyle", pPrOrder)
	s.SetAttr(qualify(p.ns, "val"), style)
}

// Runs returns the runs that are direct children of the paragraph.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	for _, n := range p.node.ChildrenNamed("r") {
		out = append(out, &Run{node: n, ns: p.ns})
	}
	return out
}

// FirstRun returns the first run of the paragraph, looking into hyperlinks
// and other inline containers when there is no direct run.
func (p *Paragraph) FirstRun() *Run {
	if runs := p.Runs(); len(runs) > 0 {
		return runs[0]
	}
	var found *Node
	walkContent(p.node, func(n *Node) bool {
		if n.Is("r") {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return &Run{node: found, ns: p.ns}
}

// Clear removes all content except the paragraph properties.
func (p *Paragraph) Clear() {
	kept := p.node.Children[:0]
	for _, c := range p.node.Children {
		if c.Is("pPr") {
			kept = append(kept, c)
		}
	}
	p.node.Children = kept
}

// AddRun appends an unformatted run.
func (p *Paragraph) AddRun(text string) *Run {
	n := renderRun(p.ns, nil, text)
	p.node.Append(n)
	return &Run{node: n, ns: p.ns}
}

// SetTextPreservingFormat replaces the paragraph content with text while
// keeping its properties and the formatting of its first run. Attributes
// that could not be carried over are returned as warnings.
func (p *Paragraph) SetTextPreservingFormat(text string) []FormatWarning {
	snapshot := CaptureFormat(p)
	p.Clear()
	run, warnings := snapshot.RenderRun(p.ns, text)
	p.node.Append(run)
	return append(warnings, snapshot.Paragraph.apply(p)...)
}

// Run wraps a w:r element.
type Run struct {
	node *Node
	ns   string
}

// Node exposes the underlying element.
func (r *Run) Node() *Node {
	return r.node
}

// Format reads the run properties.
func (r *Run) Format() RunFormat {
	return captureRunFormat(r.node.Child("rPr"))
}

// SetBold sets or clears bold.
func (r *Run) SetBold(on bool) {
	r.setToggle("b", on)
}

// SetItalic sets or clears italic.
func (r *Run) SetItalic(on bool) {
	r.setToggle("i", on)
}

func (r *Run) setToggle(local string, on bool) {
	rPr := r.node.Child("rPr")
	if rPr == nil {
		rPr = NewElement(qualify(r.ns, "rPr"))
		r.node.InsertAt(0, rPr)
	}
	setToggleProp(rPr, r.ns, local, on)
}

// Table wraps a w:tbl element.
type Table struct {
	node *Node
	ns   string
}

// Rows returns the table rows.
func (t *Table) Rows() []*Row {
	var out []*Row
	for _, n := range t.node.ChildrenNamed("tr") {
		out = append(out, &Row{node: n, ns: t.ns})
	}
	return out
}

// Row wraps a w:tr element.
type Row struct {
	node *Node
	ns   string
}

// Cells returns the row cells.
func (r *Row) Cells() []*Cell {
	var out []*Cell
	for _, n := range r.node.ChildrenNamed("tc") {
		out = append(out, &Cell{node: n, ns: r.ns})
	}
	return out
}

// Cell wraps a w:tc element.
type Cell struct {
	node *Node
	ns   string
}

// Paragraphs returns the paragraphs of the cell.
func (c *Cell) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, n := range c.node.ChildrenNamed("p") {
		out = append(out, &Paragraph{node: n, ns: c.ns})
	}
	return out
}

// Text joins the cell paragraphs with newlines.
func (c *Cell) Text() string {
	paras := c.Paragraphs()
	var buf bytes.Buffer
	for i, p := range paras {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(p.Text())
	}
	return buf.String()
}

// KeepFirstParagraph removes every paragraph of the cell except the first and
// returns how many were removed.
func (c *Cell) KeepFirstParagraph() int {
	paras := c.Paragraphs()
	removed := 0
	for i := len(paras) - 1; i > 0; i-- {
		if c.node.Remove(paras[i].node) {
			removed++
		}
	}
	return removed
}
