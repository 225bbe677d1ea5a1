// Package pipeline sequences validation, prompt building, provider
// invocation, extraction, and persistence for one generation request.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkwell/internal/actions"
	"inkwell/internal/domain"
	"inkwell/internal/extract"
	"inkwell/internal/prompt"
	"inkwell/internal/provider"
	"inkwell/internal/repo"
)

// Code identifies a classified failure in the boundary contract.
type Code string

const (
	CodeUnauthorized            Code = "Unauthorized"
	CodeUnknownAction           Code = "UnknownAction"
	CodeEmptyContent            Code = "EmptyContent"
	CodeQuotaExceeded           Code = "QuotaExceeded"
	CodeEmptyOutput             Code = "EmptyOutput"
	CodeProviderError           Code = "ProviderError"
	CodeInvalidStructuredOutput Code = "InvalidStructuredOutput"
	CodePersistenceError        Code = "PersistenceError"
)

// Stage names where in the pipeline a request currently is. Stages run
// strictly one after another; a failure aborts the whole request.
type Stage int

const (
	StageValidating Stage = iota
	StageBuilding
	StageInvoking
	StageExtracting
	StagePersisting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageValidating:
		return "validating"
	case StageBuilding:
		return "building"
	case StageInvoking:
		return "invoking"
	case StageExtracting:
		return "extracting"
	case StagePersisting:
		return "persisting"
	default:
		return "done"
	}
}

// Error is a classified pipeline failure with a user-safe message. Raw
// provider detail is logged, never surfaced.
type Error struct {
	Code    Code
	Stage   Stage
	Message string
}

func (e *Error) Error() string { return e.Message }

func failed(code Code, stage Stage, msg string) *Error {
	return &Error{Code: code, Stage: stage, Message: msg}
}

// Request is one transient content generation request.
type Request struct {
	OwnerID string
	Action  string
	Content string
	Tone    string
}

// Result is the normalized outcome of a successful run. Warning is set
// when the generation succeeded but the audit record could not be
// written; the generated content is still returned.
type Result struct {
	Message string
	Content string
	Record  *domain.Generation
	Warning Code
}

// Pipeline wires the stages together. All collaborators are injected.
type Pipeline struct {
	Text   provider.TextGenerator
	Model  string
	Repo   repo.Repo
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
}

func New(text provider.TextGenerator, model string, r repo.Repo, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Text:   text,
		Model:  model,
		Repo:   r,
		Logger: logger,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

// validate applies the request rules in order; first failure wins.
func validate(ownerID, action, content string) (actions.Definition, *Error) {
	if strings.TrimSpace(ownerID) == "" {
		return actions.Definition{}, failed(CodeUnauthorized, StageValidating, "authentication required")
	}
	def, err := actions.Resolve(action)
	if err != nil {
		return actions.Definition{}, failed(CodeUnknownAction, StageValidating, "unknown action: "+action)
	}
	if strings.TrimSpace(content) == "" {
		return actions.Definition{}, failed(CodeEmptyContent, StageValidating, "content is required")
	}
	return def, nil
}

// Run executes the content pipeline end to end. Plain-text actions
// only; the resume and image variants have their own entry points.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, *Error) {
	log := p.Logger.With(
		zap.String("action", req.Action),
		zap.String("user_id", req.OwnerID),
	)

	def, verr := validate(req.OwnerID, req.Action, req.Content)
	if verr != nil {
		return Result{}, verr
	}
	if def.Structured {
		// Structured actions do not flow through the plain-text path.
		return Result{}, failed(CodeUnknownAction, StageValidating, "unknown action: "+req.Action)
	}

	truncated := prompt.Truncate(req.Content)
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = prompt.DefaultTone
	}
	promptText := prompt.Build(def, tone, req.Content)

	outcome := p.Text.Generate(ctx, promptText, p.Model)
	if perr := p.checkOutcome(log, outcome); perr != nil {
		return Result{}, perr
	}

	output, err := extract.Text(outcome.Text)
	if err != nil {
		return Result{}, failed(CodeEmptyOutput, StageExtracting, "the provider produced no usable output")
	}

	record := domain.Generation{
		ID:            p.newID(),
		UserID:        req.OwnerID,
		InputContent:  truncated,
		OutputContent: output,
		Type:          def.ID,
		Tone:          tone,
		CreatedAt:     p.now().UTC().Format(time.RFC3339),
	}
	result := Result{Message: def.Message, Content: output, Record: &record}

	// Persistence runs detached from the request context so a caller
	// disconnect cannot lose a generation that already happened.
	if err := p.Repo.InsertGeneration(context.WithoutCancel(ctx), record); err != nil {
		log.Error("persisting generation record failed", zap.Error(err))
		result.Record = nil
		result.Warning = CodePersistenceError
	}
	return result, nil
}

// checkOutcome maps provider outcomes to pipeline failures. Raw detail
// is logged with full fidelity; callers only see the classified code.
func (p *Pipeline) checkOutcome(log *zap.Logger, outcome provider.Outcome) *Error {
	switch outcome.Kind {
	case provider.KindSuccess:
		return nil
	case provider.KindEmptyOutput:
		return failed(CodeEmptyOutput, StageInvoking, "the provider produced no usable output")
	case provider.KindQuotaExceeded:
		log.Warn("provider quota exceeded",
			zap.Duration("retry_after", outcome.RetryAfter),
			zap.String("detail", outcome.Detail))
		return failed(CodeQuotaExceeded, StageInvoking, "generation quota exceeded, try again later")
	default:
		log.Error("provider call failed", zap.String("detail", outcome.Detail))
		return failed(CodeProviderError, StageInvoking, "generation failed")
	}
}
