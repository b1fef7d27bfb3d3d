package config

import (
	stderrors "errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	store := c.LoadedPrompts()
	for _, b := range c.promptBindings() {
		if b.file == "" {
			continue
		}
		content, err := loadPromptFromFile(b.file, b.name)
		if err != nil {
			return err
		}
		store.Set(b.name, content)
	}

	c.logPromptLoadingSummary()
	return nil
}

// ReloadPromptFiles re-reads every configured prompt file. A file that fails
// to load keeps its previous content; all failures are returned joined.
func (c *Config) ReloadPromptFiles() error {
	store := c.LoadedPrompts()
	var errs []error
	for _, b := range c.promptBindings() {
		if b.file == "" {
			continue
		}
		content, err := loadPromptFromFile(b.file, b.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		store.Set(b.name, content)
	}
	return stderrors.Join(errs...)
}

// PromptFiles lists the absolute paths of all configured prompt files.
func (c *Config) PromptFiles() []string {
	var files []string
	for _, b := range c.promptBindings() {
		if b.file == "" {
			continue
		}
		if abs, err := filepath.Abs(b.file); err == nil {
			files = append(files, abs)
		} else {
			files = append(files, b.file)
		}
	}
	return files
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, name string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", name, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s prompt file not found: %s", name, absPath)
		}
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", name, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", name, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s prompt from file: %s (%d characters)",
		name, absPath, len(trimmed))

	return trimmed, nil
}

// validatePromptFiles validates that prompt files exist before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	for _, b := range c.promptBindings() {
		if b.file == "" {
			continue
		}

		absPath, err := filepath.Abs(b.file)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s prompt: %s", b.name, b.file))
			continue
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s prompt file not found: %s", b.name, absPath))
		}
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}

func (c *Config) logPromptLoadingSummary() {
	log.Println("[CONFIG] === Custom Prompt Loading Summary ===")

	count := 0
	for _, b := range c.promptBindings() {
		switch {
		case b.file != "":
			log.Printf("[CONFIG] %s prompt: loaded from file", b.name)
			count++
		case b.inline != "":
			log.Printf("[CONFIG] %s prompt: inline config", b.name)
			count++
		}
	}

	if count == 0 {
		log.Println("[CONFIG] No custom prompts configured - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts: %d", count)
	}

	log.Println("[CONFIG] ==========================================")
}
