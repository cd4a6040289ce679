package stats

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
)

const maxPathWidth = 40

// Visualizer 统计数据可视化器
type Visualizer struct {
	db  *Database
	out io.Writer
}

// NewVisualizer 创建可视化器
func NewVisualizer(db *Database, out io.Writer) *Visualizer {
	return &Visualizer{db: db, out: out}
}

// ShowOverview 显示总览
func (v *Visualizer) ShowOverview() {
	stats := v.db.GetStats()

	// 标题
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintln(v.out, "📊 Conversion Statistics Overview")
	title.Fprintln(v.out, strings.Repeat("=", 50))

	// 总体统计
	fmt.Fprintln(v.out)
	v.printSection("🎯 Overall Statistics", [][]string{
		{"Total Runs", formatNumber(stats.TotalRuns)},
		{"Failed Runs", formatNumber(stats.TotalFailures)},
		{"Fallback Appends", formatNumber(stats.TotalFallbacks)},
		{"Placeholders Replaced", formatNumber(stats.TotalReplacements)},
		{"Characters Extracted", formatNumber(stats.TotalCharacters)},
		{"Paragraphs Segmented", formatNumber(stats.TotalParagraphs)},
		{"Total Duration", formatDuration(stats.TotalDuration)},
		{"Database Created", formatTime(stats.CreatedAt)},
		{"Last Updated", formatTime(stats.LastUpdated)},
	})

	// 性能统计
	fmt.Fprintln(v.out)
	v.printSection("⚡ Performance Statistics", [][]string{
		{"Avg Speed", fmt.Sprintf("%.2f chars/sec", stats.PerformanceStats.AverageSpeed)},
		{"Fastest Run", formatDuration(stats.PerformanceStats.FastestRun)},
		{"Slowest Run", formatDuration(stats.PerformanceStats.SlowestRun)},
	})
}

// ShowFormatStats 显示格式统计
func (v *Visualizer) ShowFormatStats() {
	stats := v.db.GetStats()

	title := color.New(color.FgGreen, color.Bold)
	title.Fprintln(v.out, "📄 Input Format Statistics")
	title.Fprintln(v.out, strings.Repeat("=", 50))

	if len(stats.FormatStats) == 0 {
		fmt.Fprintln(v.out, "No format data available.")
		return
	}

	// 按运行次数排序
	formats := make([]*FormatStats, 0, len(stats.FormatStats))
	for _, format := range stats.FormatStats {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool {
		if formats[i].RunCount == formats[j].RunCount {
			return formats[i].Format < formats[j].Format
		}
		return formats[i].RunCount > formats[j].RunCount
	})

	tw := table.NewWriter()
	tw.SetOutputMirror(v.out)
	tw.AppendHeader(table.Row{"Format", "Runs", "Characters", "Avg Length", "Success", "Avg Duration", "Last Used"})
	for _, format := range formats {
		tw.AppendRow(table.Row{
			strings.ToUpper(format.Format),
			formatNumber(format.RunCount),
			formatNumber(format.CharacterCount),
			formatNumber(format.AverageLength),
			fmt.Sprintf("%.1f%%", format.SuccessRate*100),
			formatDuration(format.AverageDuration),
			formatTime(format.LastUsed),
		})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

// ShowRecentRuns 显示最近的运行
func (v *Visualizer) ShowRecentRuns(limit int) {
	records := v.db.GetRecentRuns(limit)

	title := color.New(color.FgBlue, color.Bold)
	title.Fprintf(v.out, "🕒 Recent Runs (Last %d)\n", len(records))
	title.Fprintln(v.out, strings.Repeat("=", 50))

	if len(records) == 0 {
		fmt.Fprintln(v.out, "No recent runs found.")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(v.out)
	tw.AppendHeader(table.Row{"", "Time", "Input", "Output", "Mode", "Paragraphs", "Replaced", "Duration"})
	for _, record := range records {
		status := "✅"
		if record.Failed() {
			status = "❌"
		} else if record.FallbackAppended {
			status = "⚠️"
		}
		tw.AppendRow(table.Row{
			status,
			formatTime(record.Timestamp),
			truncatePath(record.InputFile),
			truncatePath(record.OutputFile),
			record.TemplateMode,
			record.Paragraphs,
			record.Replacements,
			formatDuration(record.Duration),
		})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()

	// 打印失败原因
	errorColor := color.New(color.FgRed)
	for _, record := range records {
		if record.ErrorMessage != "" {
			errorColor.Fprintf(v.out, "  ❌ %s: %s\n", filepath.Base(record.InputFile), record.ErrorMessage)
		}
	}
}

// printSection 打印一个统计部分
func (v *Visualizer) printSection(title string, data [][]string) {
	sectionColor := color.New(color.FgYellow, color.Bold)
	sectionColor.Fprintf(v.out, "%s\n", title)

	// 计算最大标签长度
	maxLabelLen := 0
	for _, row := range data {
		if w := runewidth.StringWidth(row[0]); w > maxLabelLen {
			maxLabelLen = w
		}
	}

	labelColor := color.New(color.FgCyan)
	valueColor := color.New(color.FgWhite, color.Bold)

	// 打印数据
	for _, row := range data {
		label := "  " + runewidth.FillRight(row[0], maxLabelLen)
		labelColor.Fprintf(v.out, "%s: ", label)
		valueColor.Fprintln(v.out, row[1])
	}
}

// 辅助函数

// truncatePath 按显示宽度截断路径，保留文件名一端
func truncatePath(path string) string {
	if runewidth.StringWidth(path) <= maxPathWidth {
		return path
	}
	base := filepath.Base(path)
	if runewidth.StringWidth(base) >= maxPathWidth {
		return runewidth.Truncate(base, maxPathWidth, "…")
	}
	return "…" + string(filepath.Separator) + base
}

// formatNumber 格式化数字（添加千位分隔符）
func formatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(char)
	}
	return result.String()
}

// formatBytes 格式化字节数
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// FormatBytes 导出给 CLI 使用
func FormatBytes(bytes int64) string {
	return formatBytes(bytes)
}

// formatDuration 格式化持续时间
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1e6)
	}

	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}

	return fmt.Sprintf("%.1fh", d.Hours())
}

// formatTime 格式化时间
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}

	now := time.Now()
	if t.Year() == now.Year() && t.Month() == now.Month() && t.Day() == now.Day() {
		return t.Format("15:04:05")
	}

	if t.Year() == now.Year() {
		return t.Format("Jan 02 15:04")
	}

	return t.Format("2006-01-02 15:04")
}
