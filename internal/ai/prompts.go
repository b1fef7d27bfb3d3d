package ai

import (
	"fmt"

	"resumegap/internal/config"
)

// Prompts holds the templates used across the pipeline. Each user template
// is a fmt format string; the placeholders are filled in the order listed
// on the corresponding Build method.
type Prompts struct {
	System         string
	JobDescription string
	Requirements   string
	Gaps           string
	Rewrite        string
}

// DefaultPrompts are the built-in templates. The system instruction is empty
// by default so the model only sees the user prompt.
var DefaultPrompts = Prompts{
	JobDescription: `Extract the job description from the following webpage text. Focus only on the responsibilities, qualifications, and skills mentioned for the role. Ignore navigation menus, company descriptions, and unrelated content. Show each skill or requirement on a new line.

Webpage Content:
%s

Extracted Job Description:`,

	Requirements: `Extract key skills, responsibilities, and qualifications from the following job description:
%s`,

	Gaps: `Compare the given resume with the extracted job requirements and identify missing skills, experience gaps, and areas of improvement.
Resume:
%s
Job Requirements:
%s`,

	Rewrite: `Modify the resume below to align with the job requirements while keeping it truthful and professional. Highlight missing skills and reframe experience to better match the role.
Resume:
%s
Identified Gaps:
%s
Where possible, subtly incorporate missing but relevant skills into existing experience sections. Return only the modified text against original resume`,
}

// PromptSource yields configured templates by name, or "" when the built-in
// default should be used. *config.Config satisfies it.
type PromptSource interface {
	Prompt(name string) string
}

var _ PromptSource = (*config.Config)(nil)

// ResolvePrompts overlays configured templates on the defaults. It is cheap
// enough to call per request so hot reloaded files take effect immediately.
func ResolvePrompts(src PromptSource) Prompts {
	p := DefaultPrompts
	if src == nil {
		return p
	}
	p.System = resolvePrompt(src.Prompt(config.PromptSystem), DefaultPrompts.System)
	p.JobDescription = resolvePrompt(src.Prompt(config.PromptJobDescription), DefaultPrompts.JobDescription)
	p.Requirements = resolvePrompt(src.Prompt(config.PromptRequirements), DefaultPrompts.Requirements)
	p.Gaps = resolvePrompt(src.Prompt(config.PromptGaps), DefaultPrompts.Gaps)
	p.Rewrite = resolvePrompt(src.Prompt(config.PromptRewrite), DefaultPrompts.Rewrite)
	return p
}

func resolvePrompt(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// BuildJobDescription fills the template with visible page text.
func (p Prompts) BuildJobDescription(pageText string) string {
	return fmt.Sprintf(p.JobDescription, pageText)
}

// BuildRequirements fills the template with the job description.
func (p Prompts) BuildRequirements(jobDescription string) string {
	return fmt.Sprintf(p.Requirements, jobDescription)
}

// BuildGaps fills the template with the resume, then the requirements.
func (p Prompts) BuildGaps(resume, requirements string) string {
	return fmt.Sprintf(p.Gaps, resume, requirements)
}

// BuildRewrite fills the template with the resume, then the gaps.
func (p Prompts) BuildRewrite(resume, gaps string) string {
	return fmt.Sprintf(p.Rewrite, resume, gaps)
}
