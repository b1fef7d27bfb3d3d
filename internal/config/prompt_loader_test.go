package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadPromptsFromFiles(t *testing.T) {
	dir := t.TempDir()
	gapsFile := writePrompt(t, dir, "gaps.md", "  Custom gaps %s vs %s\n")

	cfg := &Config{
		AI: AIConfig{
			Prompts: PromptConfig{
				GapsFile:     gapsFile,
				Gaps:         "inline gaps",
				Requirements: "inline requirements %s",
			},
		},
	}

	require.NoError(t, cfg.loadPromptsFromFiles())

	assert.Equal(t, "Custom gaps %s vs %s", cfg.Prompt(PromptGaps), "file content wins over inline")
	assert.Equal(t, "inline requirements %s", cfg.Prompt(PromptRequirements))
	assert.Equal(t, "", cfg.Prompt(PromptRewrite), "unset prompt falls back to built-in")
	assert.Equal(t, gapsFile, cfg.AI.Prompts.GapsFile, "file path is preserved")
}

func TestLoadPromptFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadPromptFromFile(filepath.Join(dir, "missing.md"), PromptRewrite)
	assert.ErrorContains(t, err, "not found")

	empty := writePrompt(t, dir, "empty.md", "   \n\t")
	_, err = loadPromptFromFile(empty, PromptRewrite)
	assert.ErrorContains(t, err, "is empty")
}

func TestValidatePromptFiles(t *testing.T) {
	dir := t.TempDir()
	valid := writePrompt(t, dir, "valid.md", "Valid content")

	tests := []struct {
		name      string
		prompts   PromptConfig
		expectErr bool
	}{
		{name: "no files", prompts: PromptConfig{}},
		{name: "existing file", prompts: PromptConfig{RewriteFile: valid}},
		{name: "missing file", prompts: PromptConfig{RewriteFile: filepath.Join(dir, "nope.md")}, expectErr: true},
		{
			name:      "one good one missing",
			prompts:   PromptConfig{SystemFile: valid, JobDescriptionFile: filepath.Join(dir, "gone.md")},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AI: AIConfig{Prompts: tt.prompts}}
			err := cfg.validatePromptFiles()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReloadPromptFilesKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	rewriteFile := writePrompt(t, dir, "rewrite.md", "first version")

	cfg := &Config{AI: AIConfig{Prompts: PromptConfig{RewriteFile: rewriteFile}}}
	require.NoError(t, cfg.loadPromptsFromFiles())
	assert.Equal(t, "first version", cfg.Prompt(PromptRewrite))

	require.NoError(t, os.WriteFile(rewriteFile, []byte("second version"), 0600))
	require.NoError(t, cfg.ReloadPromptFiles())
	assert.Equal(t, "second version", cfg.Prompt(PromptRewrite))

	require.NoError(t, os.WriteFile(rewriteFile, []byte(""), 0600))
	assert.Error(t, cfg.ReloadPromptFiles())
	assert.Equal(t, "second version", cfg.Prompt(PromptRewrite))
}

func TestPromptFilesAreAbsolute(t *testing.T) {
	cfg := &Config{AI: AIConfig{Prompts: PromptConfig{GapsFile: "prompts/gaps.md"}}}
	files := cfg.PromptFiles()
	require.Len(t, files, 1)
	assert.True(t, filepath.IsAbs(files[0]))
}
