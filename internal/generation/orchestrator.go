package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/accounts"
	"resume-builder/internal/credits"
	"resume-builder/internal/generatedresumes"
	"resume-builder/internal/keywords"
	"resume-builder/internal/queue"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/synthesis"
	"resume-builder/resume/model"
	"resume-builder/resume/scoring"
)

// AccountResolver maps an identity to its account.
type AccountResolver interface {
	Resolve(ctx context.Context, id accounts.Identity) (accounts.Account, error)
}

// CreditGate admits runs and consumes their credit.
type CreditGate interface {
	Check(acct accounts.Account) error
	Finalize(ctx context.Context, acct accounts.Account) (accounts.Account, error)
}

// KeywordExtractor derives the keyword set of a posting.
type KeywordExtractor interface {
	Extract(ctx context.Context, posting string) keywords.Result
}

// ContentSynthesizer produces resume content.
type ContentSynthesizer interface {
	Synthesize(ctx context.Context, in synthesis.Input) (model.Content, error)
}

// Result is the outcome of a completed run.
type Result struct {
	Resume                   generatedresumes.GeneratedResume
	Score                    scoring.Breakdown
	Account                  accounts.Account
	Keywords                 keywords.Set
	ExtractionDegraded       bool
	CreditFinalizationFailed bool
	Duration                 time.Duration
}

// Orchestrator drives one generation through its phases.
type Orchestrator struct {
	Accounts          AccountResolver
	Credits           CreditGate
	Extractor         KeywordExtractor
	Synthesizer       ContentSynthesizer
	Resumes           generatedresumes.Repo
	Queue             queue.Client
	DefaultTemplateID string
	Now               func() time.Time
	NewID             func() string
}

// NewOrchestrator wires an Orchestrator. q may be nil.
func NewOrchestrator(
	accts AccountResolver,
	gate CreditGate,
	extractor KeywordExtractor,
	synth ContentSynthesizer,
	resumes generatedresumes.Repo,
	q queue.Client,
	defaultTemplateID string,
) *Orchestrator {
	if q == nil {
		q = queue.NoopClient{}
	}
	return &Orchestrator{
		Accounts:          accts,
		Credits:           gate,
		Extractor:         extractor,
		Synthesizer:       synth,
		Resumes:           resumes,
		Queue:             q,
		DefaultTemplateID: defaultTemplateID,
		Now:               func() time.Time { return time.Now().UTC() },
		NewID:             uuid.NewString,
	}
}

// run holds per-invocation state so event emission stays monotonic.
type run struct {
	sink      Sink
	requestID string
	phase     Phase
	progress  int
}

func (r *run) emit(phase Phase, progress int, message string, data map[string]any) {
	if progress < r.progress {
		progress = r.progress
	}
	if phase != r.phase {
		telemetry.Info("generation.phase", map[string]any{
			"request_id": r.requestID,
			"from":       string(r.phase),
			"to":         string(phase),
		})
	}
	r.phase = phase
	r.progress = progress
	r.sink.Emit(Event{Phase: phase, Message: message, Progress: progress, Data: data})
}

// fail emits the terminal error event and returns err as an *Error.
func (r *run) fail(e *Error) (Result, error) {
	if e.Phase == "" {
		e.Phase = r.phase
	}
	data := e.Details()
	data["message"] = e.Message
	r.emit(PhaseError, r.progress, e.Message, data)
	metrics.IncGenerationFailed()
	fields := map[string]any{
		"request_id": r.requestID,
		"category":   string(e.Category),
		"phase":      string(e.Phase),
	}
	if e.StorageCode != "" {
		fields["storage_code"] = e.StorageCode
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	if e.Category.HTTPStatus() >= 500 {
		telemetry.Error("generation.failed", fields)
	} else {
		telemetry.Warn("generation.failed", fields)
	}
	return Result{}, e
}

// Run executes one generation, reporting progress to sink. The returned
// error, when non-nil, is always an *Error; sink has then received an
// error event as its final event.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) (Result, error) {
	if sink == nil {
		sink = DiscardSink{}
	}
	started := o.Now()
	r := &run{sink: sink, requestID: req.RequestID}
	metrics.IncGenerationStarted()
	r.emit(PhaseStart, progressStart, "Validating request", nil)

	in, err := Validate(req)
	if err != nil {
		var gerr *Error
		errors.As(err, &gerr)
		return r.fail(gerr)
	}
	if req.Guest || req.Identity.Key == "" {
		return r.fail(&Error{Category: CategoryUnauthorized, Message: "sign in to generate resumes"})
	}

	r.emit(PhaseResolvingAccount, progressResolving, "Resolving account", nil)
	acct, err := o.Accounts.Resolve(ctx, req.Identity)
	if err != nil {
		return r.fail(&Error{
			Category:    CategoryReconciliationFailed,
			Message:     "could not resolve account",
			StorageCode: accounts.StorageCode(err),
			Err:         err,
		})
	}

	r.emit(PhaseCheckingCredits, progressChecking, "Checking credits", creditData(acct))
	if err := o.Credits.Check(acct); err != nil {
		return r.fail(&Error{Category: CategoryInsufficientCredits, Message: "no generation credits remaining", Err: err})
	}

	res := Result{Account: acct}
	if in.Mode == model.ModeTargeted {
		r.emit(PhaseExtractingKeywords, progressExtracting, "Extracting keywords from the job posting", nil)
		kw := o.Extractor.Extract(ctx, in.TargetPosting)
		res.Keywords = kw.Keywords
		res.ExtractionDegraded = kw.Degraded
		if kw.Degraded {
			metrics.IncExtractionDegraded()
			telemetry.Warn("generation.extraction_degraded", map[string]any{
				"request_id": r.requestID,
				"category":   string(CategoryExtractionDegraded),
				"reason":     kw.Reason,
			})
		}
		keywordList := []string(kw.Keywords)
		if keywordList == nil {
			keywordList = []string{}
		}
		r.emit(PhaseExtractingKeywords, progressExtracted, "Keywords extracted", map[string]any{
			"keywords": keywordList,
			"degraded": kw.Degraded,
		})
	}

	var content model.Content
	if req.PassThrough() {
		r.emit(PhaseSynthesizingContent, progressSynthesizing, "Using supplied content", map[string]any{"passThrough": true})
		content = req.Content.WithPersonalInfo(req.PersonalInfo)
	} else {
		r.emit(PhaseSynthesizingContent, progressSynthesizing, "Writing resume content", nil)
		content, err = o.Synthesizer.Synthesize(ctx, synthesis.Input{
			Mode:           in.Mode,
			ExperienceText: in.ExperienceText,
			TargetPosting:  in.TargetPosting,
			Keywords:       res.Keywords,
			ProfileHints:   req.ProfileHints,
			PersonalInfo:   req.PersonalInfo,
		})
		if err != nil {
			return r.fail(&Error{Category: CategorySynthesisFailed, Message: "resume content could not be generated", Err: err})
		}
	}

	if in.Mode == model.ModeTargeted {
		r.emit(PhaseScoring, progressScoring, "Scoring against the job posting", nil)
		res.Score = scoring.Score(content, res.Keywords)
		r.emit(PhaseScoring, progressScored, "Scored", map[string]any{"score": res.Score})
	} else {
		res.Score = scoring.General()
	}

	r.emit(PhasePersisting, progressPersisting, "Saving resume", nil)
	now := o.Now()
	resume := generatedresumes.GeneratedResume{
		ID:              o.NewID(),
		AccountID:       acct.ID,
		UserID:          req.Identity.Key,
		Type:            in.Mode,
		TemplateID:      o.templateID(in.TemplateID),
		Title:           defaultTitle(in.Title, in.Mode, now),
		Content:         content,
		ATSScore:        res.Score.ATSScore,
		KeywordsMatched: res.Score.KeywordsMatched,
		KeywordsTotal:   res.Score.KeywordsTotal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.Resumes.Create(ctx, resume); err != nil {
		return r.fail(&Error{
			Category:    CategoryPersistenceFailed,
			Message:     "resume could not be saved",
			StorageCode: generatedresumes.StorageCode(err),
			Err:         err,
		})
	}
	res.Resume = resume

	r.emit(PhaseFinalizingCredit, progressFinalizing, "Finalizing credit", nil)
	updated, err := o.Credits.Finalize(ctx, acct)
	if err != nil {
		res.CreditFinalizationFailed = true
		metrics.IncCreditFinalizationFailed()
		telemetry.Error("generation.credit_finalization_failed", map[string]any{
			"request_id":   r.requestID,
			"category":     string(CategoryCreditFinalization),
			"account_id":   acct.ID,
			"resume_id":    resume.ID,
			"storage_code": accounts.StorageCode(err),
			"error":        err.Error(),
		})
	} else {
		res.Account = updated
	}

	o.publish(ctx, req, resume)

	res.Duration = o.Now().Sub(started)
	metrics.IncGenerationCompleted()
	metrics.ObserveGenerationDurationMs(float64(res.Duration.Milliseconds()))

	data := creditData(res.Account)
	data["resumeId"] = resume.ID
	data["atsScore"] = res.Score.ATSScore
	r.emit(PhaseComplete, progressComplete, "Resume ready", data)
	telemetry.Info("generation.complete", map[string]any{
		"request_id":  r.requestID,
		"resume_id":   resume.ID,
		"account_id":  acct.ID,
		"type":        string(in.Mode),
		"ats_score":   res.Score.ATSScore,
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res, nil
}

func (o *Orchestrator) publish(ctx context.Context, req Request, resume generatedresumes.GeneratedResume) {
	if o.Queue == nil {
		return
	}
	msg := queue.NewResumeGenerated(queue.Message{
		ResumeID:        resume.ID,
		AccountID:       resume.AccountID,
		UserID:          resume.UserID,
		Type:            string(resume.Type),
		TemplateID:      resume.TemplateID,
		ATSScore:        resume.ATSScore,
		KeywordsMatched: resume.KeywordsMatched,
		KeywordsTotal:   resume.KeywordsTotal,
		RequestID:       req.RequestID,
	}, o.Now())
	if err := o.Queue.Send(ctx, msg); err != nil {
		metrics.IncCompletionPublishFailed()
		telemetry.Warn("generation.publish_failed", map[string]any{
			"request_id": req.RequestID,
			"resume_id":  resume.ID,
			"error":      err.Error(),
		})
	}
}

func (o *Orchestrator) templateID(requested string) string {
	if requested != "" {
		return requested
	}
	return o.DefaultTemplateID
}

func defaultTitle(title string, mode model.Mode, now time.Time) string {
	if title != "" {
		return title
	}
	label := "General"
	if mode == model.ModeTargeted {
		label = "Targeted"
	}
	return fmt.Sprintf("%s Resume - %s", label, now.Format("2006-01-02"))
}

func creditData(acct accounts.Account) map[string]any {
	remaining, limited := credits.Remaining(acct)
	data := map[string]any{"unlimited": !limited}
	if limited {
		data["creditsRemaining"] = remaining
	}
	return data
}
