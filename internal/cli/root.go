package cli

import (
	"context"

	"github.com/spf13/cobra"

	"resumegap/internal/config"
	"resumegap/internal/errors"
)

type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumegap",
	Short: "Find the gaps between a resume and a job listing",
	Long: `Resumegap reads a resume (docx, pptx or pdf), retrieves a job listing
from its URL and uses a language model to extract the job requirements,
identify where the resume falls short and produce a revised resume with the
additions highlighted.`,
	SilenceUsage: true,
}

// Execute runs the root command with cfg and logger available to every
// subcommand through the context.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context")
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(highlightCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
