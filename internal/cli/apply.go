package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerdneilsfield/jurnal-converter/internal/export"
	"github.com/nerdneilsfield/jurnal-converter/internal/pipeline"
)

// NewApplyCommand 创建 apply 命令
func NewApplyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <sections.md> <template_path> <output_path>",
		Short: "Fill a template from a (hand edited) Markdown sections export",
		Args:  cobra.ExactArgs(3),
		RunE:  runApply,
	}
}

func runApply(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read sections: %w", err)
	}
	meta, sections, err := export.ParseMarkdown(src, a.labels)
	if err != nil {
		return err
	}

	res := a.processor.RunWithSections(cmd.Context(), meta, sections, pipeline.Request{
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
