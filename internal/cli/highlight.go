package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"resumegap/internal/common"
	"resumegap/internal/diff"
	"resumegap/internal/types"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight [original-file] [updated-file]",
	Short: "Mark the words added between two versions of a text",
	Long: `Compare two plain text files word by word and print the second with every
added word wrapped in **bold** markers. Removed words are dropped.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		format, err := common.ResolveOutputFormat(highlightConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		highlightConfig.OutputFormat = format
		return nil
	},
	RunE: runHighlight,
}

var highlightConfig common.CommandConfig

func init() {
	highlightCmd.Flags().StringVarP(&highlightConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	highlightCmd.Flags().StringVar(&highlightConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = highlightCmd.RegisterFlagCompletionFunc("format", formatCompletion)
}

func runHighlight(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	cmdConfig := highlightConfig
	cmdConfig.MaxFileSize = cfg.Extract.MaxFileSize
	cmdConfig.Stdout = cmd.OutOrStdout()

	err := common.RunFileCommand(cmd.Context(), logger, cmdConfig, args,
		func(_ context.Context, files []common.InputFile) (types.HighlightResult, error) {
			return highlightTexts(files[0].Text(), files[1].Text()), nil
		})
	if err != nil {
		return fmt.Errorf("failed to highlight changes: %w", err)
	}
	return nil
}

func highlightTexts(original, updated string) types.HighlightResult {
	ins, del := diff.Stats(diff.Changes(original, updated))
	return types.HighlightResult{
		Original:    original,
		Updated:     updated,
		Highlighted: diff.Highlight(original, updated),
		Insertions:  ins,
		Deletions:   del,
	}
}
