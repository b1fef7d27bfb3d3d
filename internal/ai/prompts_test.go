package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"resumegap/internal/config"
)

type promptMap map[string]string

func (m promptMap) Prompt(name string) string { return m[name] }

func TestResolvePrompts(t *testing.T) {
	t.Run("nil source uses defaults", func(t *testing.T) {
		assert.Equal(t, DefaultPrompts, ResolvePrompts(nil))
	})

	t.Run("configured templates override", func(t *testing.T) {
		p := ResolvePrompts(promptMap{
			config.PromptSystem: "You are a recruiter.",
			config.PromptGaps:   "R=%s J=%s",
		})
		assert.Equal(t, "You are a recruiter.", p.System)
		assert.Equal(t, "R=%s J=%s", p.Gaps)
		assert.Equal(t, DefaultPrompts.Requirements, p.Requirements)
		assert.Equal(t, DefaultPrompts.Rewrite, p.Rewrite)
	})

	t.Run("config file content wins over inline", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.AI.Prompts.Requirements = "inline %s"
		cfg.LoadedPrompts().Set(config.PromptRequirements, "from file %s")

		assert.Equal(t, "from file %s", ResolvePrompts(cfg).Requirements)
	})
}

func TestBuildPrompts(t *testing.T) {
	p := DefaultPrompts

	jd := p.BuildJobDescription("Senior Go Engineer. Kubernetes required.")
	assert.True(t, strings.HasPrefix(jd, "Extract the job description from the following webpage text."))
	assert.Contains(t, jd, "Webpage Content:\nSenior Go Engineer. Kubernetes required.\n\nExtracted Job Description:")

	assert.Equal(t,
		"Extract key skills, responsibilities, and qualifications from the following job description:\nGo, Kubernetes",
		p.BuildRequirements("Go, Kubernetes"))

	gaps := p.BuildGaps("Built web apps using Python", "Go, Kubernetes")
	assert.Contains(t, gaps, "Resume:\nBuilt web apps using Python\nJob Requirements:\nGo, Kubernetes")

	rewrite := p.BuildRewrite("Built web apps using Python", "Missing Go")
	assert.Contains(t, rewrite, "Resume:\nBuilt web apps using Python\nIdentified Gaps:\nMissing Go\n")
	assert.True(t, strings.HasSuffix(rewrite, "Return only the modified text against original resume"))
}
