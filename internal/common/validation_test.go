package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "text", format: "text", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{
			name:          "unknown format",
			format:        "xml",
			supported:     supported,
			expectedError: "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:          "case sensitive",
			format:        "JSON",
			supported:     supported,
			expectedError: "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:          "empty format",
			format:        "",
			supported:     supported,
			expectedError: "unsupported output format ''. Supported formats: [json text markdown]",
		},
		{name: "no restriction configured", format: "xml", supported: nil},
		{
			name:          "single supported format",
			format:        "text",
			supported:     []string{"json"},
			expectedError: "unsupported output format 'text'. Supported formats: [json]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedError, err.Error())
		})
	}
}

func TestResolveOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	format, err := ResolveOutputFormat("markdown", "text", supported)
	require.NoError(t, err)
	assert.Equal(t, "markdown", format)

	format, err = ResolveOutputFormat("", "text", supported)
	require.NoError(t, err)
	assert.Equal(t, "text", format)

	format, err = ResolveOutputFormat("", "", supported)
	require.NoError(t, err)
	assert.Equal(t, "json", format)

	_, err = ResolveOutputFormat("yaml", "text", supported)
	assert.Error(t, err)
}

func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
