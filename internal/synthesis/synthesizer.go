package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"resume-builder/internal/llm"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/resume/model"
)

// ErrSynthesisFailed wraps every failure to produce valid resume content.
var ErrSynthesisFailed = errors.New("synthesis failed")

// Input is everything the synthesizer needs for one document.
type Input struct {
	Mode           model.Mode
	ExperienceText string
	TargetPosting  string
	Keywords       []string
	ProfileHints   *model.ProfileHints
	PersonalInfo   *model.PersonalInfo
}

// Synthesizer produces structured resume content with an LLM.
type Synthesizer struct {
	LLM llm.Client
}

func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{LLM: client}
}

// Synthesize renders the mode's prompt, validates the model output against
// the content schema and applies the caller's personal info override.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (model.Content, error) {
	if s.LLM == nil {
		return model.Content{}, fmt.Errorf("%w: no llm client configured", ErrSynthesisFailed)
	}
	req := BuildRequest(in)

	raw, err := s.LLM.Complete(ctx, req)
	if err != nil {
		return model.Content{}, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}

	content, err := Decode(raw)
	if err != nil {
		telemetry.Warn("synthesis.invalid_output", map[string]any{
			"prompt_id":  req.PromptID,
			"error":      err.Error(),
			"output_len": len(raw),
		})
		return model.Content{}, fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	return content.WithPersonalInfo(in.PersonalInfo), nil
}

// BuildRequest selects and renders the prompt for in.Mode.
func BuildRequest(in Input) llm.Request {
	id := llm.PromptResumeGeneralV1
	if in.Mode == model.ModeTargeted {
		id = llm.PromptResumeTargetedV1
	}
	prompt, _ := llm.PromptByID(id)

	keywords := "none"
	if len(in.Keywords) > 0 {
		keywords = strings.Join(in.Keywords, ", ")
	}
	return prompt.Request(map[string]string{
		"EXPERIENCE":     strings.TrimSpace(in.ExperienceText),
		"TARGET_POSTING": strings.TrimSpace(in.TargetPosting),
		"KEYWORDS":       keywords,
		"PROFILE_HINTS":  formatHints(in.ProfileHints, in.PersonalInfo),
		"SCHEMA":         SchemaJSON(),
	})
}

// Decode cleans raw model output, validates it against the schema and
// decodes it into Content.
func Decode(raw string) (model.Content, error) {
	doc := llm.CleanJSON(raw)
	if doc == "" || !strings.HasPrefix(doc, "{") {
		return model.Content{}, errors.New("output is not a JSON object")
	}
	if err := ValidateDocument(doc); err != nil {
		return model.Content{}, err
	}
	var content model.Content
	if err := json.Unmarshal([]byte(doc), &content); err != nil {
		return model.Content{}, fmt.Errorf("decode content: %w", err)
	}
	if err := content.Validate(); err != nil {
		return model.Content{}, err
	}
	return content, nil
}

func formatHints(h *model.ProfileHints, p *model.PersonalInfo) string {
	var lines []string
	if p != nil && strings.TrimSpace(p.FullName) != "" {
		lines = append(lines, "Name: "+strings.TrimSpace(p.FullName))
	}
	if !h.IsZero() {
		if v := strings.TrimSpace(h.Title); v != "" {
			lines = append(lines, "Desired title: "+v)
		}
		if len(h.Industries) > 0 {
			lines = append(lines, "Industries: "+strings.Join(h.Industries, ", "))
		}
		if v := strings.TrimSpace(h.ExperienceLevel); v != "" {
			lines = append(lines, "Experience level: "+v)
		}
		if v := strings.TrimSpace(h.Objective); v != "" {
			lines = append(lines, "Objective: "+v)
		}
	}
	if len(lines) == 0 {
		return "none"
	}
	return strings.Join(lines, "\n")
}
