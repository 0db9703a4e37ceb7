package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"resume-builder/internal/generatedresumes"
	"resume-builder/internal/queue"
	"resume-builder/internal/shared/telemetry"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingResumeID indicates a message missing the resume id.
type ErrMissingResumeID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingResumeID) Error() string { return "missing resume id" }

// ErrUnknownEvent indicates a message for an event this worker does not handle.
type ErrUnknownEvent struct {
	Meta  MessageMeta
	Event string
}

func (e ErrUnknownEvent) Error() string { return "unknown event " + e.Event }

// ErrProcess indicates processing failed after successful parsing.
type ErrProcess struct {
	ResumeID  string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process completion"
	}
	return "process completion: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ErrOrphanEvent means the event references a resume that is not stored.
var ErrOrphanEvent = errors.New("completion event references missing resume")

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if msg.Event != "" && msg.Event != queue.EventResumeGenerated {
		return msg, meta, ErrUnknownEvent{Meta: meta, Event: msg.Event}
	}
	if strings.TrimSpace(msg.ResumeID) == "" {
		return msg, meta, ErrMissingResumeID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Processor handles one decoded completion event.
type Processor interface {
	ProcessCompletion(ctx context.Context, msg queue.Message) error
}

// Auditor cross-checks completion events against the stored resume.
type Auditor struct {
	Resumes generatedresumes.Repo
}

// ProcessCompletion loads the referenced resume and reports an orphan event
// when it is missing. A score that differs from the stored one is logged
// but accepted.
func (a Auditor) ProcessCompletion(ctx context.Context, msg queue.Message) error {
	if a.Resumes == nil {
		return errors.New("resume repository not configured")
	}
	resume, err := a.Resumes.GetByID(ctx, msg.UserID, msg.ResumeID)
	if errors.Is(err, generatedresumes.ErrNotFound) || errors.Is(err, generatedresumes.ErrForbidden) {
		return ErrOrphanEvent
	}
	if err != nil {
		return err
	}

	fields := map[string]any{
		"resume_id":  resume.ID,
		"account_id": resume.AccountID,
		"type":       string(resume.Type),
		"ats_score":  resume.ATSScore,
	}
	if resume.ATSScore != msg.ATSScore || string(resume.Type) != msg.Type {
		fields["event_ats_score"] = msg.ATSScore
		fields["event_type"] = msg.Type
		telemetry.Warn("worker.completion.mismatch", fields)
		return nil
	}
	telemetry.Info("worker.completion.verified", fields)
	return nil
}

// HandleMessage parses, validates, and processes a message payload.
func HandleMessage(ctx context.Context, p Processor, body string) error {
	if p == nil {
		return errors.New("completion processor not configured")
	}
	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}
	if err := p.ProcessCompletion(ctx, msg); err != nil {
		return ErrProcess{ResumeID: msg.ResumeID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}

// Unrecoverable reports whether retrying the message can never succeed.
func Unrecoverable(err error) bool {
	switch err.(type) {
	case ErrEmptyBody, ErrDecode, ErrMissingResumeID, ErrUnknownEvent:
		return true
	}
	return errors.Is(err, ErrOrphanEvent)
}
