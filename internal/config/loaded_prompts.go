package config

import (
	"maps"
	"sync"
)

// Prompt template names.
const (
	PromptSystem         = "system"
	PromptJobDescription = "jobDescription"
	PromptRequirements   = "requirements"
	PromptGaps           = "gaps"
	PromptRewrite        = "rewrite"
)

// PromptStore holds prompt templates loaded from files. It is safe for
// concurrent use so the prompt watcher can swap templates while requests run.
type PromptStore struct {
	mu      sync.RWMutex
	prompts map[string]string
}

func NewPromptStore() *PromptStore {
	return &PromptStore{prompts: make(map[string]string)}
}

func (s *PromptStore) Set(name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[name] = content
}

func (s *PromptStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.prompts[name]
	return content, ok
}

// Snapshot returns a copy of every loaded template.
func (s *PromptStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.prompts)
}

func (s *PromptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prompts)
}

// LoadedPrompts returns the store of file-backed prompt templates.
func (c *Config) LoadedPrompts() *PromptStore {
	if c.prompts == nil {
		c.prompts = NewPromptStore()
	}
	return c.prompts
}

// Prompt returns the configured template for name. File content takes
// precedence over the inline value. An empty string means "use the built-in".
func (c *Config) Prompt(name string) string {
	if c.prompts != nil {
		if content, ok := c.prompts.Get(name); ok {
			return content
		}
	}
	for _, b := range c.promptBindings() {
		if b.name == name {
			return b.inline
		}
	}
	return ""
}

type promptBinding struct {
	name   string
	inline string
	file   string
}

func (c *Config) promptBindings() []promptBinding {
	p := c.AI.Prompts
	return []promptBinding{
		{PromptSystem, p.System, p.SystemFile},
		{PromptJobDescription, p.JobDescription, p.JobDescriptionFile},
		{PromptRequirements, p.Requirements, p.RequirementsFile},
		{PromptGaps, p.Gaps, p.GapsFile},
		{PromptRewrite, p.Rewrite, p.RewriteFile},
	}
}
