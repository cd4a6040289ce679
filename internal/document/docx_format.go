package document

import (
	"fmt"
	"strconv"
	"strings"
)

// ParagraphFormat is the paragraph-level part of a FormatSnapshot. Spacing
// and indentation values are in twentieths of a point, as stored in the file.
type ParagraphFormat struct {
	Style           string `json:"style,omitempty"`
	Alignment       string `json:"alignment,omitempty"`
	SpaceBefore     string `json:"space_before,omitempty"`
	SpaceAfter      string `json:"space_after,omitempty"`
	LineSpacing     string `json:"line_spacing,omitempty"`
	LineRule        string `json:"line_rule,omitempty"`
	FirstLineIndent string `json:"first_line_indent,omitempty"`
	HangingIndent   string `json:"hanging_indent,omitempty"`
	LeftIndent      string `json:"left_indent,omitempty"`
	RightIndent     string `json:"right_indent,omitempty"`
}

// RunFormat is the character formatting of a run. Size is in half-points.
// Bold and Italic are nil when the run does not set them.
type RunFormat struct {
	FontName     string `json:"font_name,omitempty"`
	FontHAnsi    string `json:"font_hansi,omitempty"`
	FontEastAsia string `json:"font_east_asia,omitempty"`
	FontCS       string `json:"font_cs,omitempty"`
	Size         string `json:"size,omitempty"`
	Bold         *bool  `json:"bold,omitempty"`
	Italic       *bool  `json:"italic,omitempty"`
	Underline    string `json:"underline,omitempty"`
	Color        string `json:"color,omitempty"`
	Highlight    string `json:"highlight,omitempty"`
}

// SizePoints returns the font size in points.
func (f RunFormat) SizePoints() (float64, bool) {
	half, err := strconv.Atoi(f.Size)
	if err != nil || half <= 0 {
		return 0, false
	}
	return float64(half) / 2, true
}

// IsZero reports whether no attribute is set.
func (f RunFormat) IsZero() bool {
	return f == RunFormat{}
}

// FormatSnapshot is the style state captured from a paragraph before its
// text is replaced. Run is nil when the paragraph had no run.
type FormatSnapshot struct {
	Paragraph ParagraphFormat `json:"paragraph"`
	Run       *RunFormat      `json:"run,omitempty"`
}

// FormatWarning reports an attribute that could not be reapplied.
type FormatWarning struct {
	Attribute string
	Value     string
	Reason    string
}

func (w FormatWarning) Error() string {
	return fmt.Sprintf("cannot apply %s=%q: %s", w.Attribute, w.Value, w.Reason)
}

// CaptureFormat snapshots the paragraph properties and the first run's font.
func CaptureFormat(p *Paragraph) FormatSnapshot {
	snapshot := FormatSnapshot{Paragraph: captureParagraphFormat(p.Properties())}
	if run := p.FirstRun(); run != nil {
		rf := run.Format()
		snapshot.Run = &rf
	}
	return snapshot
}

func captureParagraphFormat(pPr *Node) ParagraphFormat {
	var f ParagraphFormat
	if pPr == nil {
		return f
	}
	if s := pPr.Child("pStyle"); s != nil {
		f.Style, _ = s.Attr("val")
	}
	if jc := pPr.Child("jc"); jc != nil {
		f.Alignment, _ = jc.Attr("val")
	}
	if sp := pPr.Child("spacing"); sp != nil {
		f.SpaceBefore, _ = sp.Attr("before")
		f.SpaceAfter, _ = sp.Attr("after")
		f.LineSpacing, _ = sp.Attr("line")
		f.LineRule, _ = sp.Attr("lineRule")
	}
	if ind := pPr.Child("ind"); ind != nil {
		f.FirstLineIndent, _ = ind.Attr("firstLine")
		f.HangingIndent, _ = ind.Attr("hanging")
		f.LeftIndent = firstAttr(ind, "left", "start")
		f.RightIndent = firstAttr(ind, "right", "end")
	}
	return f
}

func captureRunFormat(rPr *Node) RunFormat {
	var f RunFormat
	if rPr == nil {
		return f
	}
	if fonts := rPr.Child("rFonts"); fonts != nil {
		f.FontName, _ = fonts.Attr("ascii")
		f.FontHAnsi, _ = fonts.Attr("hAnsi")
		f.FontEastAsia, _ = fonts.Attr("eastAsia")
		f.FontCS, _ = fonts.Attr("cs")
	}
	if sz := rPr.Child("sz"); sz != nil {
		f.Size, _ = sz.Attr("val")
	}
	f.Bold = toggleValue(rPr.Child("b"))
	f.Italic = toggleValue(rPr.Child("i"))
	if u := rPr.Child("u"); u != nil {
		if v, ok := u.Attr("val"); ok {
			f.Underline = v
		} else {
			f.Underline = "single"
		}
	}
	if c := rPr.Child("color"); c != nil {
		f.Color, _ = c.Attr("val")
	}
	if h := rPr.Child("highlight"); h != nil {
		f.Highlight, _ = h.Attr("val")
	}
	return f
}

// toggleValue reads an ST_OnOff property element.
func toggleValue(n *Node) *bool {
	if n == nil {
		return nil
	}
	on := true
	if v, ok := n.Attr("val"); ok {
		switch strings.ToLower(v) {
		case "0", "false", "off":
			on = false
		}
	}
	return &on
}

// RenderRun builds a single run holding text with the snapshot's character
// formatting. It does not touch any document.
func (s FormatSnapshot) RenderRun(ns, text string) (*Node, []FormatWarning) {
	if s.Run == nil {
		return renderRun(ns, nil, text), nil
	}
	rPr, warnings := s.Run.render(ns)
	return renderRun(ns, rPr, text), warnings
}

// render builds a w:rPr element, skipping invalid attributes.
func (f RunFormat) render(ns string) (*Node, []FormatWarning) {
	if f.IsZero() {
		return nil, nil
	}
	var warnings []FormatWarning
	rPr := NewElement(qualify(ns, "rPr"))

	var fontAttrs []Attr
	for _, fa := range []struct{ local, value string }{
		{"ascii", f.FontName}, {"hAnsi", f.FontHAnsi}, {"eastAsia", f.FontEastAsia}, {"cs", f.FontCS},
	} {
		if fa.value != "" {
			fontAttrs = append(fontAttrs, Attr{Name: qualify(ns, fa.local), Value: fa.value})
		}
	}
	if len(fontAttrs) > 0 {
		rPr.Append(NewElement(qualify(ns, "rFonts"), fontAttrs...))
	}
	if f.Bold != nil {
		setToggleProp(rPr, ns, "b", *f.Bold)
	}
	if f.Italic != nil {
		setToggleProp(rPr, ns, "i", *f.Italic)
	}
	if f.Color != "" {
		if validColor(f.Color) {
			rPr.ensureChild(ns, "color", rPrOrder).SetAttr(qualify(ns, "val"), f.Color)
		} else {
			warnings = append(warnings, FormatWarning{Attribute: "color", Value: f.Color, Reason: "not a hex RGB value"})
		}
	}
	if f.Size != "" {
		if _, ok := f.SizePoints(); ok {
			rPr.ensureChild(ns, "sz", rPrOrder).SetAttr(qualify(ns, "val"), f.Size)
		} else {
			warnings = append(warnings, FormatWarning{Attribute: "size", Value: f.Size, Reason: "not a positive half-point count"})
		}
	}
	if f.Highlight != "" {
		if validHighlights[f.Highlight] {
			rPr.ensureChild(ns, "highlight", rPrOrder).SetAttr(qualify(ns, "val"), f.Highlight)
		} else {
			warnings = append(warnings, FormatWarning{Attribute: "highlight", Value: f.Highlight, Reason: "unknown highlight color"})
		}
	}
	if f.Underline != "" {
		rPr.ensureChild(ns, "u", rPrOrder).SetAttr(qualify(ns, "val"), f.Underline)
	}

	if len(rPr.Children) == 0 {
		return nil, warnings
	}
	return rPr, warnings
}

// apply writes the captured paragraph attributes back onto the paragraph
// properties, skipping values that are not valid.
func (f ParagraphFormat) apply(p *Paragraph) []FormatWarning {
	if f == (ParagraphFormat{}) {
		return nil
	}
	var warnings []FormatWarning
	ns := p.ns
	pPr := p.ensureProperties()
	val := qualify(ns, "val")

	if f.Style != "" {
		pPr.ensureChild(ns, "pStyle", pPrOrder).SetAttr(val, f.Style)
	}
	if f.Alignment != "" {
		if validAlignments[f.Alignment] {
			pPr.ensureChild(ns, "jc", pPrOrder).SetAttr(val, f.Alignment)
		} else {
			warnings = append(warnings, FormatWarning{Attribute: "alignment", Value: f.Alignment, Reason: "unknown alignment"})
		}
	}

	spacing := []struct {
		attr, value string
		signed      bool
	}{
		{"before", f.SpaceBefore, false},
		{"after", f.SpaceAfter, false},
		{"line", f.LineSpacing, true},
	}
	for _, sp := range spacing {
		if sp.value == "" {
			continue
		}
		if !validTwips(sp.value, sp.signed) {
			warnings = append(warnings, FormatWarning{Attribute: "spacing." + sp.attr, Value: sp.value, Reason: "not a twips value"})
			continue
		}
		pPr.ensureChild(ns, "spacing", pPrOrder).SetAttr(qualify(ns, sp.attr), sp.value)
	}
	if f.LineRule != "" {
		if validLineRules[f.LineRule] {
			pPr.ensureChild(ns, "spacing", pPrOrder).SetAttr(qualify(ns, "lineRule"), f.LineRule)
		} else {
			warnings = append(warnings, FormatWarning{Attribute: "spacing.lineRule", Value: f.LineRule, Reason: "unknown line rule"})
		}
	}

	indents := []struct {
		names []string
		value string
	}{
		{[]string{"firstLine"}, f.FirstLineIndent},
		{[]string{"hanging"}, f.HangingIndent},
		{[]string{"left", "start"}, f.LeftIndent},
		{[]string{"right", "end"}, f.RightIndent},
	}
	for _, in := range indents {
		if in.value == "" {
			continue
		}
		if !validTwips(in.value, true) {
			warnings = append(warnings, FormatWarning{Attribute: "ind." + in.names[0], Value: in.value, Reason: "not a twips value"})
			continue
		}
		ind := pPr.ensureChild(ns, "ind", pPrOrder)
		ind.SetAttr(existingAttrName(ind, ns, in.names), in.value)
	}
	return warnings
}

// renderRun builds a w:r holding text; newlines become breaks and tabs
// become tab elements.
func renderRun(ns string, rPr *Node, text string) *Node {
	run := NewElement(qualify(ns, "r"))
	if rPr != nil {
		run.Append(rPr)
	}

	var buf strings.Builder
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		t := NewElement(qualify(ns, "t"), Attr{Name: "xml:space", Value: "preserve"})
		t.Append(NewText(buf.String()))
		run.Append(t)
		buf.Reset()
	}
	for _, r := range text {
		switch r {
		case '\n':
			flush()
			run.Append(NewElement(qualify(ns, "br")))
		case '\t':
			flush()
			run.Append(NewElement(qualify(ns, "tab")))
		case '\r':
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return run
}

// setToggleProp writes an ST_OnOff element into rPr.
func setToggleProp(rPr *Node, ns, local string, on bool) {
	el := rPr.ensureChild(ns, local, rPrOrder)
	el.Attrs = nil
	if !on {
		el.SetAttr(qualify(ns, "val"), "0")
	}
}

func firstAttr(n *Node, locals ...string) string {
	for _, l := range locals {
		if v, ok := n.Attr(l); ok {
			return v
		}
	}
	return ""
}

// existingAttrName picks the attribute name already used on n among the
// candidates, or the first candidate.
func existingAttrName(n *Node, ns string, candidates []string) string {
	for _, c := range candidates {
		for _, a := range n.Attrs {
			if !isNamespaceDecl(a.Name) && localName(a.Name) == c {
				return a.Name
			}
		}
	}
	return qualify(ns, candidates[0])
}

func validTwips(v string, signed bool) bool {
	n, err := strconv.Atoi(v)
	if err != nil {
		return false
	}
	return signed || n >= 0
}

func validColor(v string) bool {
	if v == "auto" {
		return true
	}
	if len(v) != 6 {
		return false
	}
	_, err := strconv.ParseUint(v, 16, 32)
	return err == nil
}
