package stats

import (
	"time"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// StatisticsDB 统计数据库结构
type StatisticsDB struct {
	Version     string    `json:"version" yaml:"version"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`

	// 总体统计
	TotalRuns         int64         `json:"total_runs" yaml:"total_runs"`
	TotalFailures     int64         `json:"total_failures" yaml:"total_failures"`
	TotalFallbacks    int64         `json:"total_fallbacks" yaml:"total_fallbacks"`
	TotalReplacements int64         `json:"total_replacements" yaml:"total_replacements"`
	TotalCharacters   int64         `json:"total_characters" yaml:"total_characters"`
	TotalParagraphs   int64         `json:"total_paragraphs" yaml:"total_paragraphs"`
	TotalDuration     time.Duration `json:"total_duration" yaml:"total_duration"`

	// 输入格式统计（pdf / docx / 其他）
	FormatStats map[string]*FormatStats `json:"format_stats" yaml:"format_stats"`

	// 最近的运行记录
	RecentRuns []*RunRecord `json:"recent_runs" yaml:"recent_runs"`

	// 性能统计
	PerformanceStats PerformanceStatistics `json:"performance_stats" yaml:"performance_stats"`
}

// FormatStats 输入格式统计
type FormatStats struct {
	Format          string        `json:"format" yaml:"format"`
	RunCount        int64         `json:"run_count" yaml:"run_count"`
	CharacterCount  int64         `json:"character_count" yaml:"character_count"`
	AverageLength   int64         `json:"average_length" yaml:"average_length"`
	AverageDuration time.Duration `json:"average_duration" yaml:"average_duration"`
	SuccessRate     float64       `json:"success_rate" yaml:"success_rate"`
	LastUsed        time.Time     `json:"last_used" yaml:"last_used"`
}

// RunRecord 一次转换的记录
type RunRecord struct {
	ID           string    `json:"id" yaml:"id"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	InputFile    string    `json:"input_file" yaml:"input_file"`
	TemplateFile string    `json:"template_file" yaml:"template_file"`
	OutputFile   string    `json:"output_file" yaml:"output_file"`
	Format       string    `json:"format" yaml:"format"`
	TemplateMode string    `json:"template_mode" yaml:"template_mode"` // rewrite / assemble

	// 统计信息
	Paragraphs       int           `json:"paragraphs" yaml:"paragraphs"`
	CharacterCount   int           `json:"character_count" yaml:"character_count"`
	Replacements     int           `json:"replacements" yaml:"replacements"`
	FallbackAppended bool          `json:"fallback_appended" yaml:"fallback_appended"`
	OutputSize       int64         `json:"output_size" yaml:"output_size"`
	Duration         time.Duration `json:"duration" yaml:"duration"`
	Status           string        `json:"status" yaml:"status"`

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// Failed 判断记录是否失败
func (r *RunRecord) Failed() bool {
	return r.Status == StatusFailed
}

// PerformanceStatistics 性能统计
type PerformanceStatistics struct {
	AverageSpeed float64       `json:"average_speed" yaml:"average_speed"` // 字符/秒
	FastestRun   time.Duration `json:"fastest_run" yaml:"fastest_run"`
	SlowestRun   time.Duration `json:"slowest_run" yaml:"slowest_run"`
}
