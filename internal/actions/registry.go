// Package actions holds the compiled-in registry of content
// transformation actions. The set is fixed at build time; there is no
// dynamic registration.
package actions

import "errors"

// Action identifiers accepted by the content endpoints.
const (
	Rewrite     = "rewrite"
	Expand      = "expand"
	Shorten     = "shorten"
	Article     = "article"
	SEOContent  = "seo-content"
	ResumeScore = "resume-score"
)

var ErrUnknownAction = errors.New("unknown action")

// Definition pairs an action with its fixed prompt instruction and the
// user-facing success message. Structured actions expect a JSON object
// in the provider output instead of plain text.
type Definition struct {
	ID         string
	Template   string
	Message    string
	Structured bool
}

var registry = map[string]Definition{
	Rewrite: {
		ID: Rewrite,
		Template: `You are a professional content editor.
Rewrite the user-provided content to improve clarity, grammar, and tone.
Keep the original meaning intact.
Return plain text only.
Do not include explanations, headings, or extra content.`,
		Message: "Content rewritten successfully",
	},
	Expand: {
		ID: Expand,
		Template: `You are a professional content editor.
Expand the user-provided content with relevant details.
Maintain a professional and natural tone.
Return plain text only.`,
		Message: "Content expanded successfully",
	},
	Shorten: {
		ID: Shorten,
		Template: `You are a professional content editor.
Shorten the user-provided content while preserving the core meaning.
Remove redundant and unnecessary words.
Return plain text only.`,
		Message: "Content shortened successfully",
	},
	Article: {
		ID: Article,
		Template: `You are a professional content writer and article creator.
Generate a well-structured, informative, and engaging article on the given topic.
Include a clear introduction, body, and conclusion.
Use subheadings if necessary and provide examples to explain points.
Maintain a professional tone.
Return plain text only, do not include explanations about your writing process or extra commentary.`,
		Message: "Article generated successfully",
	},
	SEOContent: {
		ID: SEOContent,
		Template: `You are an SEO content specialist.
Analyze the user provided article and generate the following:

1. An SEO optimized title (max 50 characters)
2. List of relevant SEO keywords (comma-separated)
3. A meta description (max 150 characters)

Return the output strictly in the following format:

SEO Title:
SEO Keywords:
Meta description:

Return plain text only. Do not include explanation or extra content.`,
		Message: "SEO content generated successfully",
	},
	ResumeScore: {
		ID: ResumeScore,
		Template: `Analyze the resume below as an ATS expert for the given target role.

Return STRICT JSON ONLY in this format:
{
  "score": number,
  "match_percentage": number,
  "strengths": [],
  "weaknesses": [],
  "improvements": [],
  "ats_tips": []
}`,
		Message:    "Resume analyzed successfully",
		Structured: true,
	},
}

// Resolve looks up an action by exact identifier.
func Resolve(id string) (Definition, error) {
	def, ok := registry[id]
	if !ok {
		return Definition{}, ErrUnknownAction
	}
	return def, nil
}

// All returns every registered action in a stable order.
func All() []Definition {
	out := make([]Definition, 0, len(registry))
	for _, id := range []string{Rewrite, Expand, Shorten, Article, SEOContent, ResumeScore} {
		out = append(out, registry[id])
	}
	return out
}
