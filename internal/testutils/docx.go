package testutils

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

	documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:w14="http://schemas.microsoft.com/office/word/2010/wordml" xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006" mc:Ignorable="w14"><w:body>`

	documentTail = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`
)

// BuildDocx 用给定的 w:body 内容生成一个最小的 DOCX 包
func BuildDocx(t testing.TB, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, data string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/document.xml", documentHead + body + documentTail},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			t.Fatalf("create %s: %v", part.name, err)
		}
		if _, err := w.Write([]byte(part.data)); err != nil {
			t.Fatalf("write %s: %v", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// WriteDocx 把 BuildDocx 的结果写到 dir/name 并返回路径
func WriteDocx(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildDocx(t, body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Paragraph 生成一个简单段落，style 为空时不写 pStyle
func Paragraph(style, text string) string {
	var sb strings.Builder
	sb.WriteString("<w:p>")
	if style != "" {
		fmt.Fprintf(&sb, `<w:pPr><w:pStyle w:val="%s"/></w:pPr>`, style)
	}
	if text != "" {
		fmt.Fprintf(&sb, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, escape(text))
	}
	sb.WriteString("</w:p>")
	return sb.String()
}

// FormattedParagraph 生成带段落和字符格式的段落
func FormattedParagraph(pPr, rPr, text string) string {
	return fmt.Sprintf(`<w:p><w:pPr>%s</w:pPr><w:r><w:rPr>%s</w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`,
		pPr, rPr, escape(text))
}

// Table 生成一个表格，每个单元格是若干段落文本
func Table(rows ...[][]string) string {
	var sb strings.Builder
	sb.WriteString("<w:tbl><w:tblPr><w:tblW w:w=\"0\" w:type=\"auto\"/></w:tblPr>")
	for _, row := range rows {
		sb.WriteString("<w:tr>")
		for _, cell := range row {
			sb.WriteString("<w:tc>")
			if len(cell) == 0 {
				sb.WriteString("<w:p/>")
			}
			for _, text := range cell {
				sb.WriteString(Paragraph("", text))
			}
			sb.WriteString("</w:tc>")
		}
		sb.WriteString("</w:tr>")
	}
	sb.WriteString("</w:tbl>")
	return sb.String()
}

// SubstantiveText 生成 n 个互不相同的、能通过分类过滤的段落，用空行连接
func SubstantiveText(n int) string {
	paras := make([]string, n)
	for i := range paras {
		paras[i] = SubstantiveParagraph(i)
	}
	return strings.Join(paras, "\n\n")
}

// SubstantiveParagraph 返回第 i 个测试段落
func SubstantiveParagraph(i int) string {
	return fmt.Sprintf("Paragraph %02d of the journal discusses the experiment with sufficient detail.", i)
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
