package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/jurnal-converter/internal/document"
	"github.com/nerdneilsfield/jurnal-converter/internal/testutils"
)

// isolate 隔离家目录、工作目录和统计文件
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("JURNAL_STATS_PATH", filepath.Join(dir, "stats.json"))
	t.Setenv("JURNAL_LOG_LEVEL", "warn")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

// execute 运行命令并返回标准输出
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test", "abc123", "today")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeJournal(t *testing.T, dir, name string, n int) string {
	t.Helper()
	var body strings.Builder
	for i := 0; i < n; i++ {
		body.WriteString(testutils.Paragraph("", testutils.SubstantiveParagraph(i)))
	}
	return testutils.WriteDocx(t, dir, name, body.String())
}

func writeTemplate(t *testing.T, dir string) string {
	t.Helper()
	return testutils.WriteDocx(t, dir, "template.docx",
		testutils.Paragraph("Title", "{{title}}")+
			testutils.Paragraph("", "{{abstract}}"))
}

func decode(t *testing.T, out string) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	return got
}

func TestMissingArguments(t *testing.T) {
	isolate(t)

	for _, args := range [][]string{nil, {"a.pdf"}, {"a.pdf", "t.docx"}} {
		out, err := execute(t, args...)
		assert.ErrorIs(t, err, ErrReported)
		assert.Equal(t, `{"success":false,"error":"Usage: jurnal <journal_path> <template_path> <output_path>"}`+"\n", out)
	}
}

func TestConvert(t *testing.T) {
	dir := isolate(t)
	input := writeJournal(t, dir, "journal.docx", 6)
	output := filepath.Join(dir, "out", "result.docx")

	out, err := execute(t, input, writeTemplate(t, dir), output)
	require.NoError(t, err, out)

	got := decode(t, out)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, output, got["output_path"])
	assert.Equal(t, float64(6), got["paragraphs_processed"])
	assert.Equal(t, "rewrite", got["template_mode"])

	doc, err := document.Open(output)
	require.NoError(t, err)
	assert.Equal(t, testutils.SubstantiveParagraph(0), doc.Paragraphs()[0].Text())

	// 运行记录写入了统计文件
	statsOut, err := execute(t, "stats", "--output", "json")
	require.NoError(t, err)
	assert.Equal(t, float64(1), decode(t, statsOut)["total_runs"])
}

func TestConvertFailure(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "--no-stats", filepath.Join(dir, "absent.pdf"), writeTemplate(t, dir), filepath.Join(dir, "o.docx"))
	assert.ErrorIs(t, err, ErrReported)

	got := decode(t, out)
	assert.Equal(t, false, got["success"])
	assert.Contains(t, got["error"], "Journal file not found")
	assert.NotEmpty(t, got["traceback"])

	_, statErr := os.Stat(filepath.Join(dir, "stats.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOutputFormats(t *testing.T) {
	dir := isolate(t)
	input := writeJournal(t, dir, "journal.docx", 3)
	tmpl := writeTemplate(t, dir)

	out, err := execute(t, "-o", "yaml", input, tmpl, filepath.Join(dir, "a.docx"))
	require.NoError(t, err)
	assert.Contains(t, out, "success: true")
	assert.Contains(t, out, "template_mode: rewrite")

	out, err = execute(t, "-o", "table", input, tmpl, filepath.Join(dir, "b.docx"))
	require.NoError(t, err)
	assert.Contains(t, out, "paragraphs_processed")

	_, err = execute(t, "-o", "xml", input, tmpl, filepath.Join(dir, "c.docx"))
	assert.Error(t, err)
}

func TestBatch(t *testing.T) {
	dir := isolate(t)
	writeJournal(t, dir, "a.docx", 4)
	writeJournal(t, dir, "b.docx", 8)
	writeTemplate(t, dir)

	t.Run("Runs Every Job", func(t *testing.T) {
		manifest := filepath.Join(dir, "jobs.yaml")
		require.NoError(t, os.WriteFile(manifest, []byte(`jobs:
  - input: a.docx
    template: template.docx
    output: out/a.docx
  - input: b.docx
    template: template.docx
    output: out/b.docx
  - input: missing.pdf
    template: template.docx
    output: out/c.docx
`), 0o644))

		out, err := execute(t, "batch", "-c", "2", manifest)
		assert.ErrorIs(t, err, ErrReported)

		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(out), &got), out)
		require.Len(t, got, 3)
		assert.Equal(t, true, got[0]["success"])
		assert.Equal(t, float64(4), got[0]["paragraphs_processed"])
		assert.Equal(t, true, got[1]["success"])
		assert.Equal(t, false, got[2]["success"])

		assert.FileExists(t, filepath.Join(dir, "out", "a.docx"))
		assert.FileExists(t, filepath.Join(dir, "out", "b.docx"))
	})

	t.Run("Plain List Manifest", func(t *testing.T) {
		manifest := filepath.Join(dir, "list.yaml")
		require.NoError(t, os.WriteFile(manifest, []byte(`- input: a.docx
  template: template.docx
  output: list/a.docx
`), 0o644))

		_, err := execute(t, "batch", manifest)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "list", "a.docx"))
	})

	t.Run("Progress On Stderr", func(t *testing.T) {
		manifest := filepath.Join(dir, "progress.yaml")
		require.NoError(t, os.WriteFile(manifest, []byte(`- input: a.docx
  template: template.docx
  output: progress/a.docx
`), 0o644))

		cmd := NewRootCommand("test", "abc123", "today")
		var stdout, stderr bytes.Buffer
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs([]string{"batch", "--progress", manifest})
		require.NoError(t, cmd.Execute())

		var got []map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &got), stdout.String())
		require.Len(t, got, 1)
		assert.Contains(t, stderr.String(), "[1/1] 100.0%")
		assert.Contains(t, stderr.String(), "succeeded")
	})

	t.Run("Duplicate Outputs Rejected", func(t *testing.T) {
		manifest := filepath.Join(dir, "dup.yaml")
		require.NoError(t, os.WriteFile(manifest, []byte(`jobs:
  - {input: a.docx, template: template.docx, output: dup/x.docx}
  - {input: b.docx, template: template.docx, output: dup/../dup/x.docx}
`), 0o644))

		_, err := execute(t, "batch", manifest)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same output")
		assert.NoDirExists(t, filepath.Join(dir, "dup"))
	})
}

func TestSectionsAndApply(t *testing.T) {
	dir := isolate(t)
	input := writeJournal(t, dir, "journal.docx", 12)

	out, err := execute(t, "sections", input)
	require.NoError(t, err)
	got := decode(t, out)
	assert.Equal(t, "windows", got["policy"])
	assert.Equal(t, float64(12), got["paragraphs"])

	md := filepath.Join(dir, "export", "sections.md")
	_, err = execute(t, "--lang", "id", "sections", "--markdown", md, input)
	require.NoError(t, err)
	data, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Pendahuluan")

	edited := strings.Replace(string(data),
		"## Abstrak\n\n"+testutils.SubstantiveParagraph(0), "## Abstrak\n\nEdited abstract.", 1)
	require.NotEqual(t, string(data), edited)
	require.NoError(t, os.WriteFile(md, []byte(edited), 0o644))

	output := filepath.Join(dir, "applied.docx")
	out, err = execute(t, "apply", md, writeTemplate(t, dir), output)
	require.NoError(t, err, out)

	doc, err := document.Open(output)
	require.NoError(t, err)
	paras := doc.Paragraphs()
	assert.Equal(t, testutils.SubstantiveParagraph(0), paras[0].Text())
	assert.True(t, strings.HasPrefix(paras[1].Text(), "Edited abstract."), paras[1].Text())
}

func TestStatsCommand(t *testing.T) {
	dir := isolate(t)
	input := writeJournal(t, dir, "journal.docx", 3)
	for i := 0; i < 2; i++ {
		_, err := execute(t, input, writeTemplate(t, dir), filepath.Join(dir, fmt.Sprintf("%d.docx", i)))
		require.NoError(t, err)
	}

	out, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversion Statistics Overview")

	export := filepath.Join(dir, "export", "stats.yaml")
	_, err = execute(t, "stats", "--export", export)
	require.NoError(t, err)
	data, err := os.ReadFile(export)
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_runs: 2")

	out, err = execute(t, "stats", "--reset")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")

	_, err = execute(t, "stats", "--reset", "--yes")
	require.NoError(t, err)
	out, err = execute(t, "stats", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, float64(0), decode(t, out)["total_runs"])
}

func TestConfigCommand(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "conf", "jurnal.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err)
	_, err = execute(t, "config", "init", "--force", path)
	require.NoError(t, err)

	out, err = execute(t, "--config", path, "--lang", "id", "config", "show")
	require.NoError(t, err)
	got := decode(t, out)
	assert.Equal(t, "id", got["language"])
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "commit abc123")
}
