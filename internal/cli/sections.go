package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/jurnal-converter/internal/export"
	"github.com/nerdneilsfield/jurnal-converter/internal/journal"
	"github.com/nerdneilsfield/jurnal-converter/internal/pipeline"
)

var markdownPath string

// NewSectionsCommand 创建 sections 命令
func NewSectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sections <journal_path>",
		Short: "Show the detected metadata and sections of a journal",
		Long: `Extract and classify a journal without writing a document.

With --markdown the sections are exported as an editable Markdown file
(use "-" for stdout). Edit it and feed it back with "jurnal apply".`,
		Args: cobra.ExactArgs(1),
		RunE: runSections,
	}
	cmd.Flags().StringVarP(&markdownPath, "markdown", "m", "", "write a Markdown export to this path (- for stdout)")
	return cmd
}

func runSections(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	analysis, err := a.processor.Analyze(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if markdownPath != "" {
		return writeMarkdown(cmd, a, analysis)
	}

	return printOutput(cmd.OutOrStdout(), a.cfg.OutputFormat, &sectionsView{
		Input:      args[0],
		Metadata:   analysis.Metadata,
		Paragraphs: len(analysis.Paragraphs),
		Policy:     journal.PolicyFor(len(journal.Substantive(analysis.Paragraphs))).String(),
		Sections:   analysis.Sections,
	})
}

func writeMarkdown(cmd *cobra.Command, a *app, analysis *pipeline.Analysis) error {
	data, err := export.RenderMarkdown(analysis.Metadata, analysis.Sections, a.labels)
	if err != nil {
		return err
	}
	if markdownPath == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(markdownPath), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(markdownPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	a.log.Info("sections exported", zap.String("path", markdownPath))
	return nil
}
