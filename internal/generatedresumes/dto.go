package generatedresumes

import (
	"time"

	"resume-builder/resume/model"
)

type summaryResponse struct {
	ID              string     `json:"id"`
	Type            model.Mode `json:"type"`
	TemplateID      string     `json:"templateId"`
	Title           string     `json:"title"`
	ATSScore        int        `json:"atsScore"`
	KeywordsMatched *int       `json:"keywordsMatched"`
	KeywordsTotal   *int       `json:"keywordsTotal"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type resumeResponse struct {
	summaryResponse
	Content   model.Content `json:"content"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func toSummary(r GeneratedResume) summaryResponse {
	return summaryResponse{
		ID:              r.ID,
		Type:            r.Type,
		TemplateID:      r.TemplateID,
		Title:           r.Title,
		ATSScore:        r.ATSScore,
		KeywordsMatched: r.KeywordsMatched,
		KeywordsTotal:   r.KeywordsTotal,
		CreatedAt:       r.CreatedAt,
	}
}

func toResponse(r GeneratedResume) resumeResponse {
	return resumeResponse{
		summaryResponse: toSummary(r),
		Content:         r.Content,
		UpdatedAt:       r.UpdatedAt,
	}
}
