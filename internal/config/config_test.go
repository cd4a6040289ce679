package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Explicit File", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "jurnal.yaml", "language: id\nbatch_concurrency: 8\noutput_format: yaml\n")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, LanguageIndonesian, cfg.Language)
		assert.Equal(t, 8, cfg.BatchConcurrency)
		assert.Equal(t, "yaml", cfg.OutputFormat)
		// 未设置的字段使用默认值
		assert.Equal(t, "info", cfg.LogLevel)
		assert.True(t, cfg.StatsEnabled)
	})

	t.Run("Environment Overrides File", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "jurnal.yaml", "language: en\n")
		t.Setenv("JURNAL_LANGUAGE", "id")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, LanguageIndonesian, cfg.Language)
	})

	t.Run("Invalid Value", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "jurnal.yaml", "output_format: xml\n")

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("Missing Explicit File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "jurnal.yaml")

	cfg := NewDefaultConfig()
	cfg.Language = LanguageIndonesian
	cfg.BatchConcurrency = 2
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, LanguageIndonesian, loaded.Language)
	assert.Equal(t, 2, loaded.BatchConcurrency)
}

func TestValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Language = "fr"
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.BatchConcurrency = 0
	assert.Error(t, cfg.Validate())
}

func TestLabels(t *testing.T) {
	t.Run("Built In", func(t *testing.T) {
		assert.Equal(t, "Abstract", LabelsFor(LanguageEnglish).Section(journal.SectionAbstract))
		assert.Equal(t, "Pembahasan", LabelsFor(LanguageIndonesian).Section(journal.SectionDiscussion))
		assert.Equal(t, "Title", LabelsFor("unknown").Title)
	})

	t.Run("No File", func(t *testing.T) {
		labels, err := LoadLabels("", LanguageIndonesian)
		require.NoError(t, err)
		assert.Equal(t, IndonesianLabels(), labels)
	})

	t.Run("Override File", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "labels.toml", `
language = "id"

[labels]
abstract = "Ringkasan"
full_content = "Teks Lengkap"
`)
		labels, err := LoadLabels(path, LanguageEnglish)
		require.NoError(t, err)
		assert.Equal(t, "Ringkasan", labels.Abstract)
		assert.Equal(t, "Teks Lengkap", labels.FullContent)
		assert.Equal(t, "Pendahuluan", labels.Introduction)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadLabels(filepath.Join(t.TempDir(), "none.toml"), LanguageEnglish)
		assert.Error(t, err)
	})

	t.Run("Bad TOML", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "labels.toml", "[labels\n")
		_, err := LoadLabels(path, LanguageEnglish)
		assert.Error(t, err)
	})
}
