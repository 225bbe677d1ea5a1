package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"inkwell/internal/pipeline"
	"inkwell/internal/repo"
)

func registerContent(api huma.API, p *pipeline.Pipeline, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-content",
		Method:      http.MethodPost,
		Path:        "/content/{action}",
		Summary:     "Generate content",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
		},
	}, func(ctx context.Context, input *struct {
		Action string                 `path:"action"`
		Body   GenerateContentRequest `json:"body"`
	}) (*struct {
		Body GenerateContentResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		result, perr := p.Run(ctx, pipeline.Request{
			OwnerID: userID,
			Action:  input.Action,
			Content: input.Body.Content,
			Tone:    input.Body.Tone,
		})
		if perr != nil {
			return nil, pipelineError(perr)
		}
		resp := GenerateContentResponse{
			Success: true,
			Message: result.Message,
			Content: result.Content,
			Warning: string(result.Warning),
		}
		if result.Record != nil {
			rec := generationResponse(*result.Record)
			resp.Record = &rec
		}
		return &struct {
			Body GenerateContentResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "content-history",
		Method:      http.MethodGet,
		Path:        "/content/history",
		Summary:     "List content history",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Limit  int `query:"limit" default:"50" minimum:"1"`
		Offset int `query:"offset" minimum:"0"`
	}) (*struct {
		Body ContentHistoryResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := r.ListGenerations(ctx, userID, input.Limit, input.Offset)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ContentHistoryResponse `json:"body"`
		}{Body: ContentHistoryResponse{Success: true, Data: mapGenerations(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-content-history",
		Method:      http.MethodDelete,
		Path:        "/content/history/{id}",
		Summary:     "Delete a history record",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body DeletedResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := r.DeleteGeneration(ctx, userID, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DeletedResponse `json:"body"`
		}{Body: DeletedResponse{Success: true, Message: "Content history deleted successfully"}}, nil
	})
}
