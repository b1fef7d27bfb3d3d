package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"resumegap/internal/config"
)

const shutdownTimeout = 30 * time.Second

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled. Background watchers are started first
// and stopped during shutdown.
func (s *Server) Run(ctx context.Context) error {
	httpServer := s.setupHTTPServer()

	s.startWatchers()
	s.displayServerInfo()

	serverErrors := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.stopWatchers()
		s.cleanupRateLimiter()
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		s.Logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(httpServer)
	}
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.ReadTimeout,
		WriteTimeout:      s.WriteTimeout,
		IdleTimeout:       s.IdleTimeout,
	}
}

// startWatchers starts prompt hot reload and Vault key rotation when
// configured. Failures are logged and the server keeps its startup state.
func (s *Server) startWatchers() {
	if s.promptWatcher != nil {
		if err := s.promptWatcher.Start(); err != nil {
			s.Logger.LogError(err, "Failed to start prompt watcher")
		}
	}

	if s.keyWatcher == nil {
		s.keyWatcher = s.newKeyWatcher()
	}
	if s.keyWatcher != nil {
		if err := s.keyWatcher.Start(); err != nil {
			s.Logger.LogError(err, "Failed to start Vault API key watcher")
		}
	}
}

// newKeyWatcher returns a watcher for the Vault API key secret, or nil when
// Vault, the secret path or the refresh interval is not configured.
func (s *Server) newKeyWatcher() *VaultWatcher {
	if s.AppConfig == nil {
		return nil
	}
	vc := s.AppConfig.Vault
	if !vc.Enabled || vc.Secrets.APIKeys == "" || vc.APIKeyRefresh <= 0 {
		return nil
	}
	client, err := config.NewVaultClient(vc, s.Logger)
	if err != nil {
		s.Logger.LogError(err, "Failed to create Vault client for API key rotation")
		return nil
	}
	return NewVaultWatcher(client, vc.Secrets.APIKeys, vc.APIKeyRefresh, s.SetAPIKeys, s.Logger)
}

func (s *Server) stopWatchers() {
	if s.promptWatcher != nil {
		if err := s.promptWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop prompt watcher")
		}
	}
	if s.keyWatcher != nil {
		if err := s.keyWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop Vault API key watcher")
		}
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.stopWatchers()
	s.cleanupRateLimiter()

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// cleanupRateLimiter cleans up the rate limiter resources
func (s *Server) cleanupRateLimiter() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}
}
