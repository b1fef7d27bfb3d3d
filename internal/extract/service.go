package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"resumegap/internal/config"
	"resumegap/internal/errors"
	"resumegap/internal/types"
)

// Service persists uploaded documents to a work directory, runs the matching
// extractor and removes the temporary copy afterwards.
type Service struct {
	registry *Registry
	workDir  string
	attempts int
	backoff  time.Duration
	logger   *errors.Logger

	remove           func(string) error
	sleep            func(time.Duration)
	onCleanupFailure func(path string, err error)
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry replaces the default docx/pptx/pdf registry.
func WithRegistry(r *Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithRemover overrides the function used to delete temp files.
func WithRemover(remove func(string) error) Option {
	return func(s *Service) { s.remove = remove }
}

// WithCleanupHook is called once when a temp file could not be deleted after
// every attempt.
func WithCleanupHook(hook func(path string, err error)) Option {
	return func(s *Service) { s.onCleanupFailure = hook }
}

func withSleep(sleep func(time.Duration)) Option {
	return func(s *Service) { s.sleep = sleep }
}

func NewService(cfg config.ExtractConfig, logger *errors.Logger, opts ...Option) *Service {
	s := &Service{
		registry: NewRegistry(),
		workDir:  cfg.WorkDir,
		attempts: max(cfg.RemoveAttempts, 1),
		backoff:  cfg.RemoveBackoff,
		logger:   logger,
		remove:   os.Remove,
		sleep:    time.Sleep,
	}
	if s.workDir == "" {
		s.workDir = filepath.Join(os.TempDir(), "resumegap")
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileType returns the lowercase extension of name without the leading dot.
func FileType(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Formats lists the file types the service can extract.
func (s *Service) Formats() []string {
	return s.registry.Formats()
}

// Extract returns the text and formatting of the uploaded document. The text
// is trimmed at both ends. Unsupported types and documents without text are
// reported as extraction errors.
func (s *Service) Extract(ctx context.Context, fileName string, data []byte) (*types.ExtractionResult, error) {
	fileType := FileType(fileName)

	ctx, span := otel.Tracer("resumegap.extract").Start(ctx, "extract."+fileType)
	defer span.End()
	span.SetAttributes(
		attribute.String("document.type", fileType),
		attribute.Int("document.size", len(data)),
	)

	result := &types.ExtractionResult{FileName: fileName, FileType: fileType, Formatting: []types.FormattingSegment{}}

	if err := ctx.Err(); err != nil {
		return result, errors.NewExtractionError(errors.ErrCodeExtractionFailed, "extraction cancelled", err)
	}

	extractor, err := s.registry.Get(fileType)
	if err != nil {
		span.SetStatus(codes.Error, "unsupported format")
		return result, errors.NewExtractionError(errors.ErrCodeUnsupportedFormat, "unsupported file type", err).
			WithContext("file_type", fileType)
	}

	path, err := s.writeTemp(fileName, fileType, data)
	if err != nil {
		span.RecordError(err)
		return result, errors.NewExtractionError(errors.ErrCodeFileNotReadable, "failed to persist upload", err)
	}
	defer s.removeWithRetry(path)

	text, formatting, err := extractSafely(extractor, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return result, errors.NewExtractionError(errors.ErrCodeExtractionFailed, "failed to extract document", err).
			WithContext("file_type", fileType)
	}

	result.Text = strings.TrimSpace(text)
	if formatting != nil {
		result.Formatting = formatting
	}
	span.SetAttributes(
		attribute.Int("document.text_length", len(result.Text)),
		attribute.Int("document.segments", len(result.Formatting)),
	)

	if result.Text == "" {
		return result, errors.NewExtractionError(errors.ErrCodeEmptyDocument, "document contains no text", nil).
			WithContext("file_type", fileType)
	}

	s.logger.Debug("Document extracted",
		"file_type", fileType,
		"text_length", len(result.Text),
		"segments", len(result.Formatting))

	return result, nil
}

// extractSafely converts a parser panic on malformed input into an error.
func extractSafely(e Extractor, path string) (text string, formatting []types.FormattingSegment, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed document: %v", r)
		}
	}()
	return e.Extract(path)
}

func (s *Service) writeTemp(fileName, fileType string, data []byte) (string, error) {
	if err := os.MkdirAll(s.workDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" || base == "." {
		base = "upload"
	}
	path := filepath.Join(s.workDir, fmt.Sprintf("%s-%s.%s", base, uuid.NewString(), fileType))

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// removeWithRetry deletes path, retrying with a fixed backoff. A file that
// is already gone counts as removed. Final failure is logged, never returned.
func (s *Service) removeWithRetry(path string) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := s.remove(path)
		if err == nil || os.IsNotExist(err) {
			if attempt > 1 {
				s.logger.Debug("Temp file removed after retry", "path", path, "attempt", attempt)
			}
			return
		}
		lastErr = err
		if attempt < s.attempts {
			s.sleep(s.backoff)
		}
	}

	cleanupErr := errors.NewCleanupError(errors.ErrCodeCleanupFailed, "failed to remove temp file", lastErr).
		WithContext("path", path).
		WithContext("attempts", s.attempts)
	s.logger.Warn("Temp file cleanup failed",
		"path", path,
		"attempts", s.attempts,
		"error", cleanupErr.Error())
	if s.onCleanupFailure != nil {
		s.onCleanupFailure(path, lastErr)
	}
}
