package llm

import (
	_ "embed"
	"strings"
)

const (
	PromptKeywordsV1        = "keywords_v1"
	PromptResumeTargetedV1  = "resume_targeted_v1"
	PromptResumeGeneralV1   = "resume_general_v1"
	systemPromptExtraction  = "You extract hiring keywords from job postings. Respond with JSON only. No markdown."
	systemPromptResumeWrite = "You are a resume writing engine. Respond with JSON only. No markdown. Output must match the schema exactly."
)

var (
	//go:embed prompts/keywords_v1.txt
	promptKeywordsV1 string
	//go:embed prompts/resume_targeted_v1.txt
	promptResumeTargetedV1 string
	//go:embed prompts/resume_general_v1.txt
	promptResumeGeneralV1 string
)

// Prompt is a versioned prompt template.
type Prompt struct {
	ID       string
	System   string
	Template string
}

// PromptByID returns the prompt and whether the id was recognized.
func PromptByID(id string) (Prompt, bool) {
	switch strings.TrimSpace(id) {
	case PromptKeywordsV1:
		return Prompt{ID: PromptKeywordsV1, System: systemPromptExtraction, Template: promptKeywordsV1}, true
	case PromptResumeTargetedV1:
		return Prompt{ID: PromptResumeTargetedV1, System: systemPromptResumeWrite, Template: promptResumeTargetedV1}, true
	case PromptResumeGeneralV1:
		return Prompt{ID: PromptResumeGeneralV1, System: systemPromptResumeWrite, Template: promptResumeGeneralV1}, true
	default:
		return Prompt{}, false
	}
}

// Render substitutes {{KEY}} placeholders. Unknown placeholders are left as is.
func (p Prompt) Render(vars map[string]string) string {
	if len(vars) == 0 {
		return p.Template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(p.Template)
}

// Request builds a completion request from the rendered template.
func (p Prompt) Request(vars map[string]string) Request {
	return Request{PromptID: p.ID, System: p.System, User: p.Render(vars)}
}
