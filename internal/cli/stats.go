package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nerdneilsfield/jurnal-converter/internal/stats"
)

var (
	// stats 命令的标志
	recentLimit int
	exportPath  string
	resetStats  bool
	assumeYes   bool
	showFormats bool
)

// NewStatsCommand 创建 stats 命令
func NewStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "View the conversion history",
		Long: `View statistics about past conversions:
- Overall totals (runs, failures, fallbacks, replacements)
- Input format statistics
- Recent run history

Examples:
  # Show overview and recent runs
  jurnal stats

  # Show the last 20 runs
  jurnal stats --recent 20

  # Show input format statistics
  jurnal stats --formats

  # Export statistics (JSON, or YAML for .yaml/.yml)
  jurnal stats --export stats.json

  # Reset all statistics
  jurnal stats --reset`,
		Args: cobra.NoArgs,
		RunE: runStatsCommand,
	}

	statsCmd.Flags().IntVar(&recentLimit, "recent", 10, "number of recent runs to show")
	statsCmd.Flags().BoolVar(&showFormats, "formats", false, "show only input format statistics")
	statsCmd.Flags().StringVar(&exportPath, "export", "", "export statistics to a file")
	statsCmd.Flags().BoolVar(&resetStats, "reset", false, "reset all statistics (asks for confirmation)")
	statsCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")

	return statsCmd
}

// runStatsCommand 执行 stats 命令
func runStatsCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	db, err := stats.NewDatabase(cfg.StatsPath, log)
	if err != nil {
		return fmt.Errorf("failed to initialize statistics database: %w", err)
	}

	if resetStats {
		return handleStatsReset(cmd, db, log)
	}
	if exportPath != "" {
		return handleStatsExport(cmd, db, exportPath)
	}

	out := cmd.OutOrStdout()
	// 只有显式指定 --output json/yaml 时才输出原始数据
	if cmd.Flags().Changed("output") && cfg.OutputFormat != "table" {
		return printOutput(out, cfg.OutputFormat, db.GetStats())
	}

	visualizer := stats.NewVisualizer(db, out)
	if showFormats {
		visualizer.ShowFormatStats()
		return nil
	}

	// 默认显示概览和最近运行
	visualizer.ShowOverview()
	fmt.Fprintln(out)
	visualizer.ShowRecentRuns(recentLimit)
	return nil
}

// handleStatsReset 处理统计重置
func handleStatsReset(cmd *cobra.Command, db *stats.Database, log *zap.Logger) error {
	out := cmd.OutOrStdout()
	if !assumeYes {
		fmt.Fprint(out, "Are you sure you want to reset all statistics? This cannot be undone. (y/N): ")
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Statistics reset cancelled.")
			return nil
		}
	}

	if err := db.Reset(); err != nil {
		return fmt.Errorf("failed to reset statistics: %w", err)
	}
	fmt.Fprintln(out, "Statistics have been reset.")
	log.Info("statistics reset", zap.String("path", db.Path()))
	return nil
}

// handleStatsExport 处理统计导出
func handleStatsExport(cmd *cobra.Command, db *stats.Database, path string) error {
	data, err := marshalStats(db.GetStats(), path)
	if err != nil {
		return fmt.Errorf("failed to marshal statistics: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Statistics exported to: %s\n", path)
	return nil
}

// marshalStats 按扩展名序列化统计数据
func marshalStats(data *stats.StatisticsDB, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(data)
	default:
		return json.MarshalIndent(data, "", "  ")
	}
}
