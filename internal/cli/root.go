package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/jurnal-converter/internal/config"
	"github.com/nerdneilsfield/jurnal-converter/internal/extract"
	"github.com/nerdneilsfield/jurnal-converter/internal/logger"
	"github.com/nerdneilsfield/jurnal-converter/internal/pipeline"
	"github.com/nerdneilsfield/jurnal-converter/internal/stats"
)

// UsageMessage is the error of the envelope printed for missing arguments.
const UsageMessage = "Usage: jurnal <journal_path> <template_path> <output_path>"

// ErrReported marks a failure whose envelope has already been printed.
var ErrReported = errors.New("failure reported")

var (
	// 命令行标志变量
	cfgFile      string
	debugMode    bool
	quietMode    bool
	language     string
	labelsFile   string
	outputFormat string
	noStats      bool
)

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jurnal [flags] <journal_path> <template_path> <output_path>",
		Short: "Fill journal templates with content extracted from PDF and DOCX journals",
		Long: `jurnal extracts the text of a journal (PDF or DOCX), detects its title and
authors, splits the body into positional sections and writes it into a
template.

A DOCX template is rewritten in place: placeholders such as {{title}},
{{abstract}} or {{kesimpulan}} are replaced while each paragraph keeps its
formatting. Any other template gets a freshly assembled document.

The result is printed as a JSON envelope (or yaml / table with --output).`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConvert,
	}

	addGlobalFlags(rootCmd)

	// 添加子命令
	rootCmd.AddCommand(NewBatchCommand())
	rootCmd.AddCommand(NewSectionsCommand())
	rootCmd.AddCommand(NewApplyCommand())
	rootCmd.AddCommand(NewStatsCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// addGlobalFlags 添加全局标志
func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.jurnal.yaml or ./.jurnal.yaml)")
	flags.BoolVar(&debugMode, "debug", false, "enable debug logging")
	flags.BoolVarP(&quietMode, "quiet", "q", false, "only log warnings and errors")
	flags.StringVar(&language, "lang", "", "label language: en or id")
	flags.StringVar(&labelsFile, "labels", "", "TOML file overriding section labels")
	flags.StringVarP(&outputFormat, "output", "o", "", "result format: json, yaml or table")
	flags.BoolVar(&noStats, "no-stats", false, "do not record the run history")
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) < 3 {
		format := outputFormat
		if format == "" {
			format = "json"
		}
		if err := printOutput(cmd.OutOrStdout(), format, pipeline.UsageError(UsageMessage)); err != nil {
			return err
		}
		return ErrReported
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	res := a.processor.Run(cmd.Context(), pipeline.Request{
		InputPath:    args[0],
		TemplatePath: args[1],
		OutputPath:   args[2],
	})
	if err := printOutput(cmd.OutOrStdout(), a.cfg.OutputFormat, res); err != nil {
		return err
	}
	if !res.Success {
		return ErrReported
	}
	return nil
}

// app 是一次命令执行所需的全部组件
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	labels    config.Labels
	history   *stats.Database
	processor *pipeline.Processor
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	labels, err := cfg.Labels()
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	var history *stats.Database
	if cfg.StatsEnabled {
		history, err = stats.NewDatabase(cfg.StatsPath, log)
		if err != nil {
			log.Warn("run history disabled", zap.String("path", cfg.StatsPath), zap.Error(err))
			history = nil
		}
	}

	registry := extract.NewRegistry(log, extract.Options{NormalizeUnicode: cfg.NormalizeUnicode})
	return &app{
		cfg:       cfg,
		log:       log,
		labels:    labels,
		history:   history,
		processor: pipeline.NewProcessor(log, registry, labels, history),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// loadConfig 加载配置，并用命令行参数覆盖
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug = debugMode
	}
	if flags.Changed("quiet") && quietMode {
		cfg.LogLevel = "warn"
	}
	if flags.Changed("lang") {
		cfg.Language = language
	}
	if flags.Changed("labels") {
		cfg.LabelsFile = labelsFile
	}
	if flags.Changed("output") {
		cfg.OutputFormat = outputFormat
	}
	if flags.Changed("no-stats") {
		cfg.StatsEnabled = !noStats
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	opts := logger.Options{
		Debug:    cfg.Debug || cfg.LogLevel == "debug",
		Quiet:    cfg.LogLevel == "warn" || cfg.LogLevel == "error",
		Encoding: cfg.LogFormat,
	}
	if cfg.LogFile != "" {
		opts.OutputPaths = []string{"stderr", cfg.LogFile}
	}
	return logger.NewLoggerWithOptions(opts)
}
