package server

import (
	"context"
	"sync"
	"time"

	"resumegap/internal/ai"
	"resumegap/internal/config"
	apperrors "resumegap/internal/errors"
	"resumegap/internal/observability"
	"resumegap/internal/types"
)

// Analyzer runs the full resume analysis for one upload.
type Analyzer interface {
	Analyze(ctx context.Context, fileName string, data []byte, jobURL string) (types.PipelineState, error)
}

// Extractor pulls text and formatting out of an uploaded document.
type Extractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (*types.ExtractionResult, error)
}

// ModelReporter exposes generation backend health.
type ModelReporter interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
	Stats() map[string]any
}

// ErrorResponse is returned for requests rejected before the pipeline runs.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config

	apiKeys *keySet

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Logger *apperrors.Logger

	analyzer      Analyzer
	extractor     Extractor
	models        ModelReporter
	om            *observability.ObservabilityManager
	promptWatcher *config.PromptWatcher
	keyWatcher    *VaultWatcher
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// Dependencies are the collaborators a Server routes requests to.
type Dependencies struct {
	Analyzer      Analyzer
	Extractor     Extractor
	Models        ModelReporter
	Observability *observability.ObservabilityManager
	PromptWatcher *config.PromptWatcher
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *apperrors.Logger) *Server {
	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		apiKeys:        newKeySet(cfg.APIKeys),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		analyzer:       deps.Analyzer,
		extractor:      deps.Extractor,
		models:         deps.Models,
		om:             deps.Observability,
		promptWatcher:  deps.PromptWatcher,
	}
}

// SetAPIKeys replaces the accepted API keys. Safe for concurrent use.
func (s *Server) SetAPIKeys(keys []string) {
	s.apiKeys.replace(keys)
}

// keySet is the set of accepted API keys, swappable at runtime.
type keySet struct {
	mu   sync.RWMutex
	keys map[string]bool
}

func newKeySet(keys []string) *keySet {
	ks := &keySet{}
	ks.replace(keys)
	return ks
}

func (ks *keySet) replace(keys []string) {
	m := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			m[key] = true
		}
	}
	ks.mu.Lock()
	ks.keys = m
	ks.mu.Unlock()
}

func (ks *keySet) has(key string) bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.keys[key]
}

func (ks *keySet) len() int {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return len(ks.keys)
}
