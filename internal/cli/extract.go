package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"resumegap/internal/common"
)

var extractCmd = &cobra.Command{
	Use:   "extract [document]",
	Short: "Extract text and formatting from a resume document",
	Long: `Extract the plain text and the styled text runs of a docx, pptx or pdf
document. Formatting is only reported for docx and pptx files.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		format, err := common.ResolveOutputFormat(extractConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		extractConfig.OutputFormat = format
		return nil
	},
	RunE: runExtract,
}

var extractConfig common.CommandConfig

func init() {
	extractCmd.Flags().StringVarP(&extractConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().StringVar(&extractConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = extractCmd.RegisterFlagCompletionFunc("format", formatCompletion)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	om, err := newObservability(cfg, false)
	if err != nil {
		return err
	}
	defer shutdownObservability(om, logger)

	extractor := newExtractor(cfg, om, logger)

	cmdConfig := extractConfig
	cmdConfig.MaxFileSize = cfg.Extract.MaxFileSize
	cmdConfig.DocumentFormats = extractor.Formats()
	cmdConfig.Stdout = cmd.OutOrStdout()

	err = common.RunFileCommand(cmd.Context(), logger, cmdConfig, args,
		func(ctx context.Context, files []common.InputFile) (any, error) {
			doc := files[0]
			result, err := extractor.Extract(ctx, doc.Name, doc.Data)
			if err != nil {
				return nil, err
			}
			logger.Info("Document extracted",
				"file", doc.Name,
				"file_type", result.FileType,
				"segments", len(result.Formatting))
			return result, nil
		})
	if err != nil {
		return fmt.Errorf("failed to extract document: %w", err)
	}
	return nil
}
