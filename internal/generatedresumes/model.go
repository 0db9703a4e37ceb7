package generatedresumes

import (
	"fmt"
	"time"

	"resume-builder/resume/model"
)

// GeneratedResume is a persisted generation result.
type GeneratedResume struct {
	ID              string
	AccountID       string
	UserID          string
	Type            model.Mode
	TemplateID      string
	Title           string
	Content         model.Content
	ATSScore        int
	KeywordsMatched *int
	KeywordsTotal   *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// Validate enforces the same rules as the table's CHECK constraints:
// targeted resumes carry keyword counts, general resumes never do.
func (r GeneratedResume) Validate() error {
	if r.ID == "" || r.AccountID == "" || r.UserID == "" {
		return fmt.Errorf("%w: id, accountId and userId are required", ErrInvalidInput)
	}
	if r.ATSScore < 0 || r.ATSScore > 100 {
		return fmt.Errorf("%w: atsScore %d out of range", ErrInvalidInput, r.ATSScore)
	}
	switch r.Type {
	case model.ModeTargeted:
		if r.KeywordsTotal == nil || r.KeywordsMatched == nil {
			return fmt.Errorf("%w: targeted resume requires keyword counts", ErrInvalidInput)
		}
		if *r.KeywordsTotal < 0 || *r.KeywordsMatched < 0 || *r.KeywordsMatched > *r.KeywordsTotal {
			return fmt.Errorf("%w: keyword counts %d/%d invalid", ErrInvalidInput, *r.KeywordsMatched, *r.KeywordsTotal)
		}
	case model.ModeGeneral:
		if r.KeywordsTotal != nil || r.KeywordsMatched != nil {
			return fmt.Errorf("%w: general resume must not carry keyword counts", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidInput, r.Type)
	}
	if err := r.Content.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
