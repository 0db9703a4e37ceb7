package generation

import (
	"resume-builder/internal/credits"
	"resume-builder/resume/model"
)

// generateBody is the JSON body of both generate routes. Multipart requests
// carry the same fields as form values, with profileHints and personalInfo
// JSON-encoded.
type generateBody struct {
	Mode           string              `json:"mode"`
	ExperienceText string              `json:"experienceText"`
	TargetPosting  string              `json:"targetPosting"`
	JobPosting     string              `json:"jobPosting"`
	TemplateID     string              `json:"templateId"`
	Title          string              `json:"title"`
	ProfileHints   *model.ProfileHints `json:"profileHints"`
	PersonalInfo   *model.PersonalInfo `json:"personalInfo"`
	Content        *model.Content      `json:"content"`
}

func (b generateBody) posting() string {
	if b.TargetPosting != "" {
		return b.TargetPosting
	}
	return b.JobPosting
}

type scoreResponse struct {
	ATSScore        int      `json:"atsScore"`
	KeywordsMatched *int     `json:"keywordsMatched"`
	KeywordsTotal   *int     `json:"keywordsTotal"`
	MatchedKeywords []string `json:"matchedKeywords"`
	MissingKeywords []string `json:"missingKeywords"`
}

type generateResponse struct {
	Success                   bool          `json:"success"`
	ResumeID                  string        `json:"resumeId"`
	Type                      model.Mode    `json:"type"`
	TemplateID                string        `json:"templateId"`
	Title                     string        `json:"title"`
	Content                   model.Content `json:"content"`
	Score                     scoreResponse `json:"score"`
	CreditsRemaining          *int          `json:"creditsRemaining"`
	Unlimited                 bool          `json:"unlimited"`
	GenerationTimeMs          int64         `json:"generationTimeMs"`
	KeywordExtractionDegraded bool          `json:"keywordExtractionDegraded"`
}

func toResponse(res Result) generateResponse {
	matched := res.Score.Matched
	if matched == nil {
		matched = []string{}
	}
	missing := res.Score.Missing
	if missing == nil {
		missing = []string{}
	}
	out := generateResponse{
		Success:    true,
		ResumeID:   res.Resume.ID,
		Type:       res.Resume.Type,
		TemplateID: res.Resume.TemplateID,
		Title:      res.Resume.Title,
		Content:    res.Resume.Content,
		Score: scoreResponse{
			ATSScore:        res.Score.ATSScore,
			KeywordsMatched: res.Score.KeywordsMatched,
			KeywordsTotal:   res.Score.KeywordsTotal,
			MatchedKeywords: matched,
			MissingKeywords: missing,
		},
		GenerationTimeMs:          res.Duration.Milliseconds(),
		KeywordExtractionDegraded: res.ExtractionDegraded,
	}
	if remaining, ok := credits.Remaining(res.Account); ok {
		out.CreditsRemaining = &remaining
	} else {
		out.Unlimited = true
	}
	return out
}
