package document

import (
	"strings"
)

// skipContent lists inline elements whose text is not part of the paragraph
// text (drawings, text boxes, alternate content, field instructions).
var skipContent = map[string]bool{
	"pPr":               true,
	"rPr":               true,
	"drawing":           true,
	"pict":              true,
	"object":            true,
	"AlternateContent":  true,
	"instrText":         true,
	"delText":           true,
	"footnoteReference": true,
}

// walkContent visits the inline content of n depth first. fn returns false
// to stop the walk.
func walkContent(n *Node, fn func(*Node) bool) bool {
	for _, c := range n.Children {
		if c.Kind != ElementNode || skipContent[c.Local()] {
			continue
		}
		if !fn(c) {
			return false
		}
		if !walkContent(c, fn) {
			return false
		}
	}
	return true
}

// Text returns the paragraph text; tabs and line breaks map to "\t" and "\n".
func (p *Paragraph) Text() string {
	var sb strings.Builder
	walkContent(p.node, func(n *Node) bool {
		appendRunContent(&sb, n)
		return true
	})
	return sb.String()
}

// Text returns the text of the run.
func (r *Run) Text() string {
	var sb strings.Builder
	walkContent(r.node, func(n *Node) bool {
		appendRunContent(&sb, n)
		return true
	})
	return sb.String()
}

func appendRunContent(sb *strings.Builder, n *Node) {
	switch n.Local() {
	case "t":
		for _, c := range n.Children {
			if c.Kind == TextNode {
				sb.WriteString(c.Data)
			}
		}
	case "tab":
		sb.WriteByte('\t')
	case "br", "cr":
		sb.WriteByte('\n')
	}
}

// ExtractText joins the text of every non-blank body paragraph with sep.
func (d *Document) ExtractText(sep string) string {
	var texts []string
	for _, p := range d.Paragraphs() {
		text := p.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
	}
	return strings.Join(texts, sep)
}
