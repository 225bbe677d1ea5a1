// Package prompt composes provider prompts from action templates.
package prompt

import (
	"fmt"
	"strings"

	"inkwell/internal/actions"
)

// MaxContentChars caps the user content embedded in a prompt. Longer
// input is truncated silently; the truncated text is also what gets
// persisted as the record input.
const MaxContentChars = 1200

// DefaultTone is used when the caller supplies no tone.
const DefaultTone = "Professional"

// Truncate returns at most MaxContentChars characters of content,
// always a prefix of the original.
func Truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxContentChars {
		return content
	}
	return string(runes[:MaxContentChars])
}

// Build produces the final provider prompt: template, tone, content, in
// that fixed order. Pure; identical inputs yield identical output.
func Build(def actions.Definition, tone, content string) string {
	tone = strings.TrimSpace(tone)
	if tone == "" {
		tone = DefaultTone
	}
	return fmt.Sprintf("%s\n\nTone: %s\n\nContent:\n%s", def.Template, tone, Truncate(content))
}

// MaxResumeChars caps resume text embedded in a resume-score prompt.
const MaxResumeChars = 4000

// DefaultRole is the target role assumed when the caller supplies none.
const DefaultRole = "Software Developer"

// TruncateResume returns at most MaxResumeChars characters of text.
func TruncateResume(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxResumeChars {
		return text
	}
	return string(runes[:MaxResumeChars])
}

// BuildResume composes the structured resume-score prompt. The role
// parameter fills the tone/role slot of the template.
func BuildResume(def actions.Definition, role, resumeText string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		role = DefaultRole
	}
	return fmt.Sprintf("%s\n\nTarget role: %s\n\nResume Content:\n%s", def.Template, role, TruncateResume(resumeText))
}
