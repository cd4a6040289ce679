package document

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// NodeKind identifies what a Node holds.
type NodeKind int

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	ProcInstNode
	CommentNode
	DirectiveNode
)

// Attr is an attribute with its name kept exactly as written (e.g. "w:val", "xmlns:w").
type Attr struct {
	Name  string
	Value string
}

// Node is a minimal XML tree node. Element and attribute names keep their
// original prefixes so parts round-trip with the namespace declarations
// Word expects (mc:Ignorable refers to prefixes by name).
type Node struct {
	Kind     NodeKind
	Name     string
	Attrs    []Attr
	Children []*Node
	Data     string
}

// NewElement creates an element node.
func NewElement(name string, attrs ...Attr) *Node {
	return &Node{Kind: ElementNode, Name: name, Attrs: attrs}
}

// NewText creates a character data node.
func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

// Local returns the element name without its prefix.
func (n *Node) Local() string {
	return localName(n.Name)
}

// Is reports whether n is an element with the given local name.
func (n *Node) Is(local string) bool {
	return n != nil && n.Kind == ElementNode && n.Local() == local
}

// Attr returns the value of the first attribute whose local name matches.
// Namespace declarations are never matched.
func (n *Node) Attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if isNamespaceDecl(a.Name) {
			continue
		}
		if localName(a.Name) == local {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets (or adds) an attribute using its qualified name.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attrs {
		if a.Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Child returns the first element child with the given local name.
func (n *Node) Child(local string) *Node {
	for _, c := range n.Children {
		if c.Is(local) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every element child with the given local name.
func (n *Node) ChildrenNamed(local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Is(local) {
			out = append(out, c)
		}
	}
	return out
}

// Append adds children at the end.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Index returns the position of child c, or -1.
func (n *Node) Index(c *Node) int {
	for i, child := range n.Children {
		if child == c {
			return i
		}
	}
	return -1
}

// InsertAt inserts c at position i.
func (n *Node) InsertAt(i int, c *Node) {
	if i < 0 || i >= len(n.Children) {
		n.Children = append(n.Children, c)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// Remove detaches child c and reports whether it was found.
func (n *Node) Remove(c *Node) bool {
	i := n.Index(c)
	if i < 0 {
		return false
	}
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	return true
}

// ensureChild returns the child with the given local name, creating it at
// the position dictated by order when it does not exist yet.
func (n *Node) ensureChild(prefix, local string, order []string) *Node {
	if c := n.Child(local); c != nil {
		return c
	}
	c := NewElement(qualify(prefix, local))
	rank := indexOf(order, local)
	for i, existing := range n.Children {
		if existing.Kind != ElementNode {
			continue
		}
		if r := indexOf(order, existing.Local()); rank >= 0 && r > rank {
			n.InsertAt(i, c)
			return c
		}
	}
	n.Append(c)
	return c
}

// ParseXML parses an XML part into a tree rooted at a DocumentNode.
func ParseXML(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	root := &Node{Kind: DocumentNode}
	stack := []*Node{root}

	for {
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		parent := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			el := NewElement(qualifiedName(t.Name))
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{Name: qualifiedName(a.Name), Value: a.Value})
			}
			parent.Append(el)
			stack = append(stack, el)
		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 1 || parent.Name != name {
				return nil, fmt.Errorf("unexpected end element </%s>", name)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			parent.Append(NewText(string(t)))
		case xml.ProcInst:
			parent.Append(&Node{Kind: ProcInstNode, Name: t.Target, Data: string(t.Inst)})
		case xml.Comment:
			parent.Append(&Node{Kind: CommentNode, Data: string(t)})
		case xml.Directive:
			parent.Append(&Node{Kind: DirectiveNode, Data: string(t)})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].Name)
	}
	return root, nil
}

// Root returns the first element child of a DocumentNode.
func (n *Node) Root() *Node {
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			return c
		}
	}
	return nil
}

// Marshal serialises the tree.
func (n *Node) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *Node) error {
	switch n.Kind {
	case DocumentNode:
		for _, c := range n.Children {
			if err := writeNode(buf, c); err != nil {
				return err
			}
		}
	case TextNode:
		escapeString(buf, n.Data, false)
	case ProcInstNode:
		buf.WriteString("<?" + n.Name)
		if n.Data != "" {
			buf.WriteString(" " + n.Data)
		}
		buf.WriteString("?>")
	case CommentNode:
		buf.WriteString("<!--" + n.Data + "-->")
	case DirectiveNode:
		buf.WriteString("<!" + n.Data + ">")
	case ElementNode:
		buf.WriteString("<" + n.Name)
		for _, a := range n.Attrs {
			buf.WriteString(" " + a.Name + `="`)
			escapeString(buf, a.Value, true)
			buf.WriteByte('"')
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return nil
		}
		buf.WriteByte('>')
		for _, c := range n.Children {
			if err := writeNode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteString("</" + n.Name + ">")
	}
	return nil
}

// escapeString escapes XML special characters. Newlines and tabs in
// character data are written as is; the whitespace after the prolog must
// not become a character reference. Attribute values escape them.
func escapeString(buf *bytes.Buffer, s string, attr bool) {
	for _, r := range s {
		switch {
		case r == '&':
			buf.WriteString("&amp;")
		case r == '<':
			buf.WriteString("&lt;")
		case r == '>':
			buf.WriteString("&gt;")
		case attr && r == '"':
			buf.WriteString("&quot;")
		case attr && r == '\n':
			buf.WriteString("&#xA;")
		case attr && r == '\t':
			buf.WriteString("&#x9;")
		case r == '\r':
			buf.WriteString("&#xD;")
		case !validXMLChar(r):
			buf.WriteRune('\uFFFD')
		default:
			buf.WriteRune(r)
		}
	}
}

func validXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}

func qualifiedName(name xml.Name) string {
	return qualify(name.Space, name.Local)
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func localName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func isNamespaceDecl(name string) bool {
	return name == "xmlns" || strings.HasPrefix(name, "xmlns:")
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
