package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
	"github.com/nerdneilsfield/jurnal-converter/internal/pipeline"
	"github.com/nerdneilsfield/jurnal-converter/internal/stats"
)

// previewWidth 表格中内容预览的最大显示宽度
const previewWidth = 60

// sectionsView 是 sections 子命令的输出
type sectionsView struct {
	Input      string             `json:"input" yaml:"input"`
	Metadata   journal.Metadata   `json:"metadata" yaml:"metadata"`
	Paragraphs int                `json:"paragraphs" yaml:"paragraphs"`
	Policy     string             `json:"policy" yaml:"policy"`
	Sections   journal.SectionMap `json:"sections" yaml:"sections"`
}

// printOutput 按格式输出结果
func printOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "table":
		return printTable(w, v)
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

func printTable(w io.Writer, v interface{}) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	switch v := v.(type) {
	case *pipeline.Result:
		t.AppendHeader(table.Row{"Field", "Value"})
		appendResultRows(t, v)
	case []*pipeline.Result:
		t.AppendHeader(table.Row{"#", "Status", "Output", "Mode", "Replacements", "Detail"})
		for i, res := range v {
			status, detail := "ok", res.RunID
			if !res.Success {
				status, detail = "failed", res.Error
			}
			t.AppendRow(table.Row{i + 1, status, res.OutputPath, res.TemplateMode, res.Replacements, preview(detail)})
		}
	case *sectionsView:
		t.SetTitle(preview(v.Metadata.Title))
		t.AppendHeader(table.Row{"Section", "Words", "Preview"})
		for _, s := range append(append([]journal.Section{}, journal.NamedSections...), journal.SectionFullContent) {
			content := v.Sections.Get(s)
			t.AppendRow(table.Row{string(s), len(strings.Fields(content)), preview(content)})
		}
		t.AppendFooter(table.Row{"policy", v.Policy, fmt.Sprintf("%d paragraphs, authors: %s", v.Paragraphs, v.Metadata.Authors)})
	default:
		return fmt.Errorf("no table layout for %T", v)
	}

	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignLeft}})
	t.Render()
	return nil
}

func appendResultRows(t table.Writer, res *pipeline.Result) {
	if !res.Success {
		t.AppendRow(table.Row{"success", false})
		t.AppendRow(table.Row{"error", res.Error})
		if res.RunID != "" {
			t.AppendRow(table.Row{"run_id", res.RunID})
		}
		return
	}

	t.AppendRow(table.Row{"success", true})
	t.AppendRow(table.Row{"output_path", res.OutputPath})
	if res.Metadata != nil {
		t.AppendRow(table.Row{"title", preview(res.Metadata.Title)})
		t.AppendRow(table.Row{"authors", preview(res.Metadata.Authors)})
	}
	t.AppendRow(table.Row{"file_size", stats.FormatBytes(res.FileSize)})
	t.AppendRow(table.Row{"paragraphs_processed", res.ParagraphsProcessed})
	t.AppendRow(table.Row{"text_length", res.TextLength})
	t.AppendRow(table.Row{"template_mode", res.TemplateMode})
	t.AppendRow(table.Row{"replacements", res.Replacements})
	t.AppendRow(table.Row{"fallback_appended", res.FallbackAppended})
	t.AppendRow(table.Row{"formatting_preserved", res.FormattingPreserved})
	t.AppendRow(table.Row{"run_id", res.RunID})
}

// preview 压成单行并按显示宽度截断
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, previewWidth, "…")
}
