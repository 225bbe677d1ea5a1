package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"inkwell/internal/pipeline"
	"inkwell/internal/repo"
)

func registerImages(api huma.API, p *pipeline.ImagePipeline, r repo.Repo) {
	huma.Register(api, huma.Operation{
		OperationID: "generate-image",
		Method:      http.MethodPost,
		Path:        "/image/generate",
		Summary:     "Generate an image",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusTooManyRequests,
			http.StatusBadGateway,
		},
	}, func(ctx context.Context, input *struct {
		Body GenerateImageRequest `json:"body"`
	}) (*struct {
		Body GenerateImageResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if p == nil {
			return nil, newAPIError(http.StatusServiceUnavailable, "ProviderError", "image generation is not configured")
		}
		result, perr := p.Run(ctx, pipeline.ImageRequest{
			OwnerID:    userID,
			Prompt:     input.Body.Prompt,
			Resolution: input.Body.Resolution,
		})
		if perr != nil {
			return nil, pipelineError(perr)
		}
		resp := GenerateImageResponse{
			Success: true,
			Message: result.Message,
			Warning: string(result.Warning),
		}
		if result.Image != nil {
			resp.Image = imageResponse(*result.Image)
		}
		return &struct {
			Body GenerateImageResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "image-history",
		Method:      http.MethodGet,
		Path:        "/image/history",
		Summary:     "List image history",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		Limit  int `query:"limit" default:"50" minimum:"1"`
		Offset int `query:"offset" minimum:"0"`
	}) (*struct {
		Body ImageHistoryResponse `json:"body"`
	}, error) {
		userID, authErr := userIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := r.ListImages(ctx, userID, input.Limit, input.Offset)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ImageHistoryResponse `json:"body"`
		}{Body: ImageHistoryResponse{Success: true, Data: mapImages(items)}}, nil
	})
}
