package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/nerdneilsfield/jurnal-converter/internal/pipeline"
	"github.com/nerdneilsfield/jurnal-converter/internal/progress"
)

var (
	batchConcurrency int
	batchProgress    bool
)

// batchManifest 批量任务清单，也接受顶层直接是任务列表的写法
type batchManifest struct {
	Jobs []pipeline.Request `yaml:"jobs"`
}

// NewBatchCommand 创建 batch 命令
func NewBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Convert several journals listed in a YAML manifest",
		Long: `Convert several journals concurrently. The manifest lists one job per entry;
relative paths are resolved against the manifest's directory:

  jobs:
    - input: papers/a.pdf
      template: templates/journal.docx
      output: out/a.docx
    - input: papers/b.docx
      template: templates/journal.docx
      output: out/b.docx

Two jobs may not write the same output file. One envelope is printed per job.`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}
	cmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "parallel jobs (default from config)")
	cmd.Flags().BoolVar(&batchProgress, "progress", false, "print per-job progress and a summary table to stderr")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	jobs, err := loadManifest(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	limit := a.cfg.BatchConcurrency
	if batchConcurrency > 0 {
		limit = batchConcurrency
	}
	a.log.Info("starting batch", zap.Int("jobs", len(jobs)), zap.Int("concurrency", limit))

	inputs := make([]string, len(jobs))
	for i, job := range jobs {
		inputs[i] = job.InputPath
	}
	// 进度行只在 --progress 时写到 stderr，stdout 保持为纯结果
	var progressOut io.Writer
	if batchProgress {
		progressOut = cmd.ErrOrStderr()
	}
	tracker := progress.NewTracker(a.log, inputs, progressOut)

	results := make([]*pipeline.Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			tracker.Start(i)
			results[i] = a.processor.Run(cmd.Context(), job)
			tracker.Finish(i, results[i].Error)
			return nil
		})
	}
	_ = g.Wait()

	if batchProgress {
		tracker.Summary(cmd.ErrOrStderr())
	}

	if err := printOutput(cmd.OutOrStdout(), a.cfg.OutputFormat, results); err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	a.log.Info("batch finished", zap.Int("succeeded", len(jobs)-failed), zap.Int("failed", failed))
	if failed > 0 {
		return ErrReported
	}
	return nil
}

// loadManifest 读取并校验批量清单
func loadManifest(path string) ([]pipeline.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m batchManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		// 顶层是列表时再试一次
		var list []pipeline.Request
		if listErr := yaml.Unmarshal(data, &list); listErr != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
		m.Jobs = list
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s has no jobs", path)
	}

	base := filepath.Dir(path)
	seen := make(map[string]int, len(m.Jobs))
	for i := range m.Jobs {
		job := &m.Jobs[i]
		if job.InputPath == "" || job.TemplatePath == "" || job.OutputPath == "" {
			return nil, fmt.Errorf("job %d: input, template and output are required", i+1)
		}
		job.InputPath = resolve(base, job.InputPath)
		job.TemplatePath = resolve(base, job.TemplatePath)
		job.OutputPath = resolve(base, job.OutputPath)

		key := job.OutputPath
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("jobs %d and %d write the same output %s", prev, i+1, job.OutputPath)
		}
		seen[key] = i + 1
	}
	return m.Jobs, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
