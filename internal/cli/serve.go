package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"resumegap/internal/config"
	"resumegap/internal/server"
)

// multipartOverhead is the allowance for form fields and part headers on top
// of the largest accepted resume.
const multipartOverhead = 1 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume analysis",
	Long: `Start an HTTP server that provides REST API endpoints for resume analysis.

Available endpoints:
- POST /analyze: Multipart upload of a resume plus a job_url field
- POST /extract: Multipart upload of a resume, returns text and formatting
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info`,
	RunE: runServe,
}

var (
	serveHost string
	servePort string
)

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}

	c, err := newComponents(cfg, logger, true)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	defer c.Close()

	var promptWatcher *config.PromptWatcher
	if cfg.AI.PromptWatch.Enabled {
		promptWatcher = config.NewPromptWatcher(cfg, logger)
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Extract.MaxFileSize + multipartOverhead,
		RateLimit:      &cfg.Server.RateLimit,
	}
	deps := server.Dependencies{
		Analyzer:      c.pipeline,
		Extractor:     c.extractor,
		Models:        c.ai,
		Observability: c.om,
		PromptWatcher: promptWatcher,
	}
	return server.NewServer(cfg, serverCfg, deps, logger).Start()
}
