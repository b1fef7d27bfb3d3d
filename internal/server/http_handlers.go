package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

const defaultHealthCheckTimeout = 10 * time.Second

func (s *Server) healthCheckTimeout() time.Duration {
	if s.AppConfig != nil {
		if t := s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout; t > 0 {
			return t
		}
		if t := s.AppConfig.Observability.HealthCheck.Timeout; t > 0 {
			return t
		}
	}
	return defaultHealthCheckTimeout
}

// healthHandler reports model availability and breaker state. It answers
// 503 when the model cannot be reached.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "resumegap",
		"version": s.Version,
	}
	status := http.StatusOK

	if s.models != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.healthCheckTimeout())
		defer cancel()

		info := s.models.GetModelInfo(ctx)
		response["ai_model"] = info
		response["circuit_breakers"] = s.models.Stats()
		if info == nil || !info.Available {
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	if s.promptWatcher != nil {
		response["prompt_watcher"] = map[string]any{"running": s.promptWatcher.IsRunning()}
	}
	if s.keyWatcher != nil {
		response["api_key_watcher"] = s.keyWatcher.Status()
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	serverStats := map[string]any{
		"max_request_size_bytes": s.MaxRequestSize,
		"api_keys_configured":    s.apiKeys.len(),
	}
	if f, ok := s.extractor.(interface{ Formats() []string }); ok {
		serverStats["document_formats"] = f.Formats()
	}

	response := map[string]any{
		"service": "resumegap",
		"version": s.Version,
		"server":  serverStats,
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.models != nil {
		response["circuit_breakers"] = s.models.Stats()
	}
	if s.AppConfig != nil {
		response["prompts"] = map[string]any{
			"files_loaded": s.AppConfig.LoadedPrompts().Len(),
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// writeJSON writes v as the JSON body with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: error, Message: message})
}
