package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := stderrors.New("connection refused")

	withCause := NewFetchError(ErrCodeFetchFailed, "request failed", cause)
	assert.Equal(t, "FETCH_FAILED: request failed (caused by: connection refused)", withCause.Error())
	assert.ErrorIs(t, withCause, cause)

	plain := NewExtractionError(ErrCodeUnsupportedFormat, "no extractor for txt", nil)
	assert.Equal(t, "UNSUPPORTED_FORMAT: no extractor for txt", plain.Error())
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"extraction", NewExtractionError(ErrCodeEmptyDocument, "empty", nil), MsgExtractionFailed},
		{"fetch", NewFetchError(ErrCodeFetchStatus, "404", nil), MsgFetchFailed},
		{"generation", NewGenerationError(ErrCodeGenerationFailed, "boom", nil), MsgGenerationFailed},
		{"wrapped fetch", fmt.Errorf("stage: %w", NewFetchError(ErrCodeFetchFailed, "x", nil)), MsgFetchFailed},
		{"plain error", stderrors.New("other"), MsgGenerationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, UserMessage(tt.err))
		})
	}
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewGenerationError(ErrCodeGenerationFailed, "x", nil))
	assert.True(t, IsType(err, ErrorTypeGeneration))
	assert.False(t, IsType(err, ErrorTypeFetch))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeFetch))
}

func TestLogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelDebug)

	err := NewGenerationError(ErrCodeGenerationFailed, "stage failed", stderrors.New("quota")).
		WithContext("stage", "AnalyzeGaps")
	logger.LogError(err, "pipeline failed", "request_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pipeline failed", entry["msg"])
	assert.Equal(t, "generation", entry["error_type"])
	assert.Equal(t, "GENERATION_FAILED", entry["error_code"])
	assert.Equal(t, "quota", entry["cause"])
	assert.Equal(t, "AnalyzeGaps", entry["stage"])
	assert.Equal(t, "abc", entry["request_id"])
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = New("verbose")
	assert.Error(t, err)
}
