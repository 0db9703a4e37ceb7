package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/accounts"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

const maxGenerateBodyBytes = 2 << 20

var errInvalidBody = errors.New("invalid request body")

// Handler exposes resume generation over HTTP.
type Handler struct {
	Orchestrator *Orchestrator
}

// NewHandler constructs a Handler.
func NewHandler(o *Orchestrator) *Handler {
	return &Handler{Orchestrator: o}
}

// RegisterRoutes attaches the generation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes/generate", h.generate)
	rg.POST("/resumes/generate/stream", h.stream)
}

func (h *Handler) generate(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	sink := &BufferSink{}
	res, err := h.Orchestrator.Run(c.Request.Context(), req, sink)
	recordPhases(c, sink.Events())
	if err != nil {
		var gerr *Error
		if !errors.As(err, &gerr) {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "generation failed", nil)
			return
		}
		c.Set("generationPhase", string(gerr.Phase))
		respond.Error(c, gerr.Category.HTTPStatus(), string(gerr.Category), gerr.Message, gerr.Details())
		return
	}

	c.Set(middleware.ResumeIDKey, res.Resume.ID)
	c.Set(middleware.AccountIDKey, res.Resume.AccountID)
	respond.Created(c, toResponse(res))
}

// stream runs the generation detached from the request context so that a
// client disconnect does not abandon a run that may already own a credit.
func (h *Handler) stream(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	sse := NewSSESink(c)
	c.Status(http.StatusOK)
	tracker := &phaseTracker{next: sse}
	res, err := h.Orchestrator.Run(context.WithoutCancel(c.Request.Context()), req, tracker)
	recordPhases(c, tracker.events)
	if err != nil {
		var gerr *Error
		if errors.As(err, &gerr) {
			c.Set("generationPhase", string(gerr.Phase))
		}
		return
	}
	c.Set(middleware.ResumeIDKey, res.Resume.ID)
	c.Set(middleware.AccountIDKey, res.Resume.AccountID)
}

func (h *Handler) bind(c *gin.Context) (Request, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxGenerateBodyBytes)

	var body generateBody
	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		err = bindMultipart(c, &body)
	} else {
		err = decodeStrictJSON(c.Request.Body, &body)
	}
	if err != nil {
		respond.Error(c, http.StatusBadRequest, string(CategoryValidation), err.Error(), nil)
		return Request{}, false
	}

	return Request{
		Identity: accounts.Identity{
			Key:         middleware.UserIDFromContext(c),
			Email:       middleware.UserEmailFromContext(c),
			DisplayName: middleware.UserNameFromContext(c),
		},
		Guest:          middleware.IsGuest(c),
		RequestID:      middleware.RequestIDFromContext(c),
		Mode:           body.Mode,
		ExperienceText: body.ExperienceText,
		TargetPosting:  body.posting(),
		ProfileHints:   body.ProfileHints,
		PersonalInfo:   body.PersonalInfo,
		TemplateID:     body.TemplateID,
		Title:          body.Title,
		Content:        body.Content,
	}, true
}

func bindMultipart(c *gin.Context, body *generateBody) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errInvalidBody
	}
	if len(form.File) > 0 {
		return errors.New("file uploads are not supported; paste the text instead")
	}
	body.Mode = c.PostForm("mode")
	body.ExperienceText = c.PostForm("experienceText")
	body.TargetPosting = c.PostForm("targetPosting")
	body.JobPosting = c.PostForm("jobPosting")
	body.TemplateID = c.PostForm("templateId")
	body.Title = c.PostForm("title")
	if raw := strings.TrimSpace(c.PostForm("profileHints")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &body.ProfileHints); err != nil {
			return errors.New("profileHints must be a JSON object")
		}
	}
	if raw := strings.TrimSpace(c.PostForm("personalInfo")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &body.PersonalInfo); err != nil {
			return errors.New("personalInfo must be a JSON object")
		}
	}
	return nil
}

func decodeStrictJSON(body io.Reader, out any) error {
	if body == nil {
		return errInvalidBody
	}
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(out); err != nil {
		return errInvalidBody
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errInvalidBody
	}
	return nil
}

// phaseTracker forwards events and remembers them for the request log.
type phaseTracker struct {
	next   Sink
	events []Event
}

func (p *phaseTracker) Emit(ev Event) {
	p.events = append(p.events, ev)
	p.next.Emit(ev)
}

func recordPhases(c *gin.Context, events []Event) {
	if len(events) == 0 {
		return
	}
	last := events[len(events)-1].Phase
	c.Set("generationPhase", string(last))
	c.Set(middleware.PhaseTransitionKey, string(events[0].Phase)+"->"+string(last))
}
