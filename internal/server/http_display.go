package server

import (
	"fmt"
	"io"
	"os"

	"resumegap/internal/utils"
)

// displayServerInfo prints the endpoint list and the active protections.
func (s *Server) displayServerInfo() {
	s.writeServerInfo(os.Stdout)
}

func (s *Server) writeServerInfo(w io.Writer) {
	for _, line := range s.serverInfoLines() {
		fmt.Fprintln(w, line)
	}
}

func (s *Server) serverInfoLines() []string {
	lines := []string{
		"Endpoints:",
		"  POST /analyze  multipart: resume file, job_url field",
		"  POST /extract  multipart: resume file",
		"  GET  /health",
		"  GET  /stats",
	}

	if n := s.apiKeys.len(); n > 0 {
		lines = append(lines, fmt.Sprintf("API keys: %d configured (send X-API-Key or Authorization: Bearer)", n))
	} else {
		lines = append(lines, "API keys: none configured, /analyze and /extract are open to anyone")
	}

	if s.MaxRequestSize > 0 {
		lines = append(lines, "Upload limit: "+utils.FormatFileSize(s.MaxRequestSize))
	} else {
		lines = append(lines, "Upload limit: none")
	}

	if s.RateLimit == nil || !s.RateLimit.Enabled {
		return append(lines, "Rate limit: off")
	}
	scope := "per IP"
	switch {
	case s.RateLimit.ByAPIKey && s.RateLimit.ByIP:
		scope = "per API key, then per IP"
	case s.RateLimit.ByAPIKey:
		scope = "per API key"
	}
	return append(lines, fmt.Sprintf("Rate limit: %d/min, burst %d, %s",
		s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity, scope))
}
