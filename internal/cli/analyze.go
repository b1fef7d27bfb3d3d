package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"resumegap/internal/common"
	"resumegap/internal/errors"
	"resumegap/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file]",
	Short: "Compare a resume with a job listing and highlight suggested additions",
	Long: `Analyze a resume against the job listing at --job-url.

The pipeline:
- extracts the text and formatting of the resume (docx, pptx or pdf)
- downloads the listing and extracts the job description
- lists the job requirements
- identifies the gaps between the resume and the requirements
- rewrites the resume, marking every added word in **bold**

With --full the intermediate requirements and gap analysis are printed too.
Failures are reported in the result's "error" field.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		format, err := common.ResolveOutputFormat(analyzeConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		analyzeConfig.OutputFormat = format
		if strings.TrimSpace(analyzeJobURL) == "" {
			return fmt.Errorf("--job-url is required")
		}
		return nil
	},
	RunE: runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeJobURL string
	analyzeFull   bool
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeJobURL, "job-url", "", "URL of the job listing (required)")
	analyzeCmd.Flags().BoolVar(&analyzeFull, "full", false, "Include requirements and gap analysis in the output")
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = analyzeCmd.RegisterFlagCompletionFunc("format", formatCompletion)
}

func formatCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg := getConfigFromContext(cmd.Context())
	return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	c, err := newComponents(cfg, logger, false)
	if err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}
	defer c.Close()

	cmdConfig := analyzeConfig
	cmdConfig.MaxFileSize = cfg.Extract.MaxFileSize
	cmdConfig.DocumentFormats = c.extractor.Formats()
	cmdConfig.Stdout = cmd.OutOrStdout()

	var failed bool
	err = common.RunFileCommand(cmd.Context(), logger, cmdConfig, args,
		func(ctx context.Context, files []common.InputFile) (any, error) {
			resume := files[0]
			logger.Info("Starting resume analysis",
				"file", resume.Name,
				"job_url", analyzeJobURL,
				"output_format", cmdConfig.OutputFormat)

			if !analyzeFull {
				result := c.pipeline.Run(ctx, resume.Name, resume.Data, analyzeJobURL)
				failed = result.Failed()
				return result, nil
			}

			state, err := c.pipeline.Analyze(ctx, resume.Name, resume.Data, analyzeJobURL)
			if err != nil {
				failed = true
				return types.AnalysisResult{Error: errors.UserMessage(err)}, nil
			}
			return state, nil
		})
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	if failed {
		return fmt.Errorf("analysis did not complete")
	}

	logger.Info("Resume analysis completed successfully")
	return nil
}
