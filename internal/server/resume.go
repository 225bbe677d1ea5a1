package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"inkwell/internal/pipeline"
)

func registerResume(api huma.API, p *pipeline.Pipeline) {
	huma.Register(api, huma.Operation{
		OperationID: "analyze-resume",
		Method:      http.MethodPost,
		Path:        "/resume/analyze",
		Summary:     "Score a resume against a target role",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
		},
	}, func(ctx context.Context, input *struct {
		Body AnalyzeResumeRequest `json:"body"`
	}) (*struct {
		Body AnalyzeResumeResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		result, perr := p.RunResume(ctx, pipeline.ResumeRequest{
			OwnerID:    userID,
			Role:       input.Body.Role,
			ResumeText: input.Body.ResumeText,
		})
		if perr != nil {
			return nil, pipelineError(perr)
		}
		return &struct {
			Body AnalyzeResumeResponse `json:"body"`
		}{Body: AnalyzeResumeResponse{
			Success: true,
			Message: result.Message,
			Data:    resumeReportResponse(result.Report),
			Warning: string(result.Warning),
		}}, nil
	})
}
