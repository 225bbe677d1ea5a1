package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"inkwell/internal/actions"
	"inkwell/internal/domain"
	"inkwell/internal/extract"
	"inkwell/internal/prompt"
)

// ResumeRequest scores extracted resume text against a target role.
// PDF text extraction happens upstream; the pipeline only sees text.
type ResumeRequest struct {
	OwnerID    string
	Role       string
	ResumeText string
}

type ResumeResult struct {
	Message string
	Report  domain.ResumeReport
	Record  *domain.Generation
	Warning Code
}

// RunResume executes the structured resume-score variant of the
// pipeline. Same stages, structured extraction instead of plain text.
func (p *Pipeline) RunResume(ctx context.Context, req ResumeRequest) (ResumeResult, *Error) {
	log := p.Logger.With(
		zap.String("action", actions.ResumeScore),
		zap.String("user_id", req.OwnerID),
	)

	def, verr := validate(req.OwnerID, actions.ResumeScore, req.ResumeText)
	if verr != nil {
		return ResumeResult{}, verr
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = prompt.DefaultRole
	}
	truncated := prompt.TruncateResume(req.ResumeText)
	promptText := prompt.BuildResume(def, role, req.ResumeText)

	outcome := p.Text.Generate(ctx, promptText, p.Model)
	if perr := p.checkOutcome(log, outcome); perr != nil {
		return ResumeResult{}, perr
	}

	var report domain.ResumeReport
	if err := extract.Structured(outcome.Text, &report); err != nil {
		log.Error("structured extraction failed", zap.String("raw", outcome.Text))
		return ResumeResult{}, failed(CodeInvalidStructuredOutput, StageExtracting, "could not parse the provider output")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return ResumeResult{}, failed(CodeInvalidStructuredOutput, StageExtracting, "could not parse the provider output")
	}

	record := domain.Generation{
		ID:            p.newID(),
		UserID:        req.OwnerID,
		InputContent:  truncated,
		OutputContent: string(reportJSON),
		Type:          def.ID,
		Tone:          role,
		CreatedAt:     p.now().UTC().Format(time.RFC3339),
	}
	result := ResumeResult{Message: def.Message, Report: report, Record: &record}

	if err := p.Repo.InsertGeneration(context.WithoutCancel(ctx), record); err != nil {
		log.Error("persisting resume record failed", zap.Error(err))
		result.Record = nil
		result.Warning = CodePersistenceError
	}
	return result, nil
}
