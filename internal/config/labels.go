package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
)

const (
	LanguageEnglish    = "en"
	LanguageIndonesian = "id"
)

// Labels 是生成文档和导出 Markdown 时使用的标题文字
type Labels struct {
	Title        string `toml:"title" yaml:"title"`
	Authors      string `toml:"authors" yaml:"authors"`
	Abstract     string `toml:"abstract" yaml:"abstract"`
	Introduction string `toml:"introduction" yaml:"introduction"`
	Method       string `toml:"method" yaml:"method"`
	Result       string `toml:"result" yaml:"result"`
	Discussion   string `toml:"discussion" yaml:"discussion"`
	Conclusion   string `toml:"conclusion" yaml:"conclusion"`
	FullContent  string `toml:"full_content" yaml:"full_content"`
	Content      string `toml:"content" yaml:"content"`
	// Extracted 是模板没有占位符时追加内容的标题
	Extracted string `toml:"extracted" yaml:"extracted"`
}

// labelsFile TOML 文件格式: [labels] 表加可选的 language 基础语言
type labelsFile struct {
	Language string `toml:"language"`
	Labels   Labels `toml:"labels"`
}

// EnglishLabels 默认英文标签
func EnglishLabels() Labels {
	return Labels{
		Title:        "Title",
		Authors:      "Authors",
		Abstract:     "Abstract",
		Introduction: "Introduction",
		Method:       "Method",
		Result:       "Result",
		Discussion:   "Discussion",
		Conclusion:   "Conclusion",
		FullContent:  "Full Content",
		Content:      "Content",
		Extracted:    "EXTRACTED JOURNAL CONTENT",
	}
}

// IndonesianLabels 印尼语标签
func IndonesianLabels() Labels {
	return Labels{
		Title:        "Judul",
		Authors:      "Penulis",
		Abstract:     "Abstrak",
		Introduction: "Pendahuluan",
		Method:       "Metode",
		Result:       "Hasil",
		Discussion:   "Pembahasan",
		Conclusion:   "Kesimpulan",
		FullContent:  "Konten Lengkap",
		Content:      "Konten",
		Extracted:    "KONTEN JURNAL YANG DIEKSTRAK",
	}
}

// LabelsFor 返回语言对应的内置标签，未知语言回退到英文
func LabelsFor(language string) Labels {
	if language == LanguageIndonesian {
		return IndonesianLabels()
	}
	return EnglishLabels()
}

// Section 返回某个分节的标题
func (l Labels) Section(s journal.Section) string {
	switch s {
	case journal.SectionAbstract:
		return l.Abstract
	case journal.SectionIntroduction:
		return l.Introduction
	case journal.SectionMethod:
		return l.Method
	case journal.SectionResult:
		return l.Result
	case journal.SectionDiscussion:
		return l.Discussion
	case journal.SectionConclusion:
		return l.Conclusion
	case journal.SectionFullContent:
		return l.FullContent
	}
	return string(s)
}

// merge 用 override 中的非空字段覆盖 l
func (l Labels) merge(override Labels) Labels {
	pick := func(base, o string) string {
		if o != "" {
			return o
		}
		return base
	}
	return Labels{
		Title:        pick(l.Title, override.Title),
		Authors:      pick(l.Authors, override.Authors),
		Abstract:     pick(l.Abstract, override.Abstract),
		Introduction: pick(l.Introduction, override.Introduction),
		Method:       pick(l.Method, override.Method),
		Result:       pick(l.Result, override.Result),
		Discussion:   pick(l.Discussion, override.Discussion),
		Conclusion:   pick(l.Conclusion, override.Conclusion),
		FullContent:  pick(l.FullContent, override.FullContent),
		Content:      pick(l.Content, override.Content),
		Extracted:    pick(l.Extracted, override.Extracted),
	}
}

// LoadLabels 从 TOML 文件加载标签，未设置的字段使用 language 的内置标签
func LoadLabels(path, language string) (Labels, error) {
	base := LabelsFor(language)
	if path == "" {
		return base, nil
	}

	// check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Labels{}, fmt.Errorf("labels file not found: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Labels{}, fmt.Errorf("failed to read labels file: %w", err)
	}

	var file labelsFile
	if err := toml.Unmarshal(content, &file); err != nil {
		return Labels{}, fmt.Errorf("failed to unmarshal labels: %w", err)
	}
	if file.Language != "" {
		base = LabelsFor(file.Language)
	}
	return base.merge(file.Labels), nil
}

// Labels 返回配置对应的标签
func (c *Config) Labels() (Labels, error) {
	return LoadLabels(c.LabelsFile, c.Language)
}
