package model

import "strings"

// Mode selects how a resume is generated.
type Mode string

const (
	// ModeTargeted tailors the resume to one job posting and scores it.
	ModeTargeted Mode = "targeted"
	// ModeGeneral produces a broadly applicable resume with a fixed score.
	ModeGeneral Mode = "general"
)

// ParseMode normalizes raw into a Mode. An empty value resolves to targeted
// when a target posting is present and general otherwise.
func ParseMode(raw string, hasTargetPosting bool) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		if hasTargetPosting {
			return ModeTargeted, true
		}
		return ModeGeneral, true
	case string(ModeTargeted), "targeted_resume", "job":
		return ModeTargeted, true
	case string(ModeGeneral), "general_resume":
		return ModeGeneral, true
	default:
		return "", false
	}
}

// ProfileHints steer general-mode generation.
type ProfileHints struct {
	Title           string   `json:"title,omitempty"`
	Industries      []string `json:"industries,omitempty"`
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
	Objective       string   `json:"objective,omitempty"`
}

// IsZero reports whether no hint was provided.
func (h *ProfileHints) IsZero() bool {
	return h == nil || (strings.TrimSpace(h.Title) == "" && len(h.Industries) == 0 &&
		strings.TrimSpace(h.ExperienceLevel) == "" && strings.TrimSpace(h.Objective) == "")
}
