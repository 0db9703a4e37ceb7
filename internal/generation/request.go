package generation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"resume-builder/internal/accounts"
	"resume-builder/resume/model"
)

const (
	MinExperienceChars    = 50
	MaxExperienceChars    = 50000
	MinTargetPostingChars = 100
	MaxTargetPostingChars = 50000
	maxTemplateIDChars    = 64
	maxTitleChars         = 200
)

// Request is one generation invocation. Content, when set, is used as the
// resume document and synthesis is skipped; a non-nil PersonalInfo still
// overrides its contact fields.
type Request struct {
	Identity       accounts.Identity
	Guest          bool
	RequestID      string
	Mode           string
	ExperienceText string
	TargetPosting  string
	ProfileHints   *model.ProfileHints
	PersonalInfo   *model.PersonalInfo
	TemplateID     string
	Title          string
	Content        *model.Content
}

// PassThrough reports whether the caller supplied finished content.
func (r Request) PassThrough() bool {
	return r.Content != nil
}

// input is the validated, normalized form of a Request.
type input struct {
	Mode           model.Mode
	ExperienceText string
	TargetPosting  string
	TemplateID     string
	Title          string
}

// requestRules carries the validation tags. Pointer fields are only set when
// the field is required for the request's mode. The *_len aliases are
// registered in getValidator from the length constants.
type requestRules struct {
	ExperienceText *string `json:"experienceText" validate:"omitnil,experience_len"`
	TargetPosting  *string `json:"targetPosting" validate:"omitnil,posting_len"`
	TemplateID     string  `json:"templateId" validate:"template_len"`
	Title          string  `json:"title" validate:"title_len"`
	Email          string  `json:"personalInfo.email" validate:"omitempty,email"`
}

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterAlias("experience_len", fmt.Sprintf("min=%d,max=%d", MinExperienceChars, MaxExperienceChars))
		validate.RegisterAlias("posting_len", fmt.Sprintf("min=%d,max=%d", MinTargetPostingChars, MaxTargetPostingChars))
		validate.RegisterAlias("template_len", fmt.Sprintf("max=%d", maxTemplateIDChars))
		validate.RegisterAlias("title_len", fmt.Sprintf("max=%d", maxTitleChars))
	})
	return validate
}

// Validate checks req and returns its normalized form. Violations are
// reported together as a validation_error.
func Validate(req Request) (input, error) {
	in := input{
		ExperienceText: strings.TrimSpace(req.ExperienceText),
		TargetPosting:  strings.TrimSpace(req.TargetPosting),
		TemplateID:     strings.TrimSpace(req.TemplateID),
		Title:          strings.TrimSpace(req.Title),
	}

	var issues []FieldIssue
	mode, ok := model.ParseMode(req.Mode, in.TargetPosting != "")
	if !ok {
		issues = append(issues, FieldIssue{
			Field:   "mode",
			Rule:    "oneof",
			Message: "mode must be one of targeted, general",
		})
	}
	in.Mode = mode

	rules := requestRules{TemplateID: in.TemplateID, Title: in.Title}
	if req.PersonalInfo != nil {
		rules.Email = strings.TrimSpace(req.PersonalInfo.Email)
	}
	if !req.PassThrough() {
		rules.ExperienceText = &in.ExperienceText
	}
	if mode == model.ModeTargeted {
		rules.TargetPosting = &in.TargetPosting
	}

	if err := getValidator().Struct(rules); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return in, &Error{Category: CategoryValidation, Phase: PhaseStart, Message: "invalid request", Err: err}
		}
		for _, fe := range verrs {
			issues = append(issues, fieldIssue(fe))
		}
	}

	if req.PassThrough() {
		if err := req.Content.Validate(); err != nil {
			issues = append(issues, FieldIssue{Field: "content", Rule: "content", Message: err.Error()})
		}
	}

	if len(issues) > 0 {
		return in, &Error{
			Category: CategoryValidation,
			Phase:    PhaseStart,
			Message:  issues[0].Message,
			Fields:   issues,
		}
	}
	return in, nil
}

func fieldIssue(fe validator.FieldError) FieldIssue {
	field := fe.Field()
	rule := fe.ActualTag()
	var msg string
	switch rule {
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		msg = fmt.Sprintf("%s must be a valid email address", field)
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return FieldIssue{Field: field, Rule: rule, Message: msg}
}
