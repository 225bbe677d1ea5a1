// Package server exposes the generation pipelines over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"inkwell/internal/pipeline"
	"inkwell/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Repo      repo.Repo
	Content   *pipeline.Pipeline
	Images    *pipeline.ImagePipeline
	BasePath  string
	Auth      AuthConfig
	ImagesDir string
	Logger    *zap.Logger
}

type apiErrorBody struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"generation quota exceeded, try again later"`
	Code    string `json:"code" example:"QuotaExceeded"`
}

// apiError models the failure envelope. Every error response carries
// success:false, a user-safe message, and a stable code.
type apiError struct {
	status int
	Body   apiErrorBody
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// MarshalJSON flattens the envelope so failures serialize as
// {"success":false,"message":...,"code":...}.
func (e *apiError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Body)
}

// New returns an HTTP handler exposing the Inkwell API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Auth.Logger == nil {
		cfg.Auth.Logger = cfg.Logger
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the failure envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			// Schema validation failures surface as plain bad requests.
			status = http.StatusBadRequest
		}
		return newAPIError(status, "", msg)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Repo))
	hcfg := huma.DefaultConfig("Inkwell API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group)
	registerAuth(group, cfg.Repo, cfg.Auth)
	registerAPIKeys(group, cfg.Repo)
	registerContent(group, cfg.Content, cfg.Repo)
	registerResume(group, cfg.Content)
	registerImages(group, cfg.Images, cfg.Repo)

	if cfg.ImagesDir != "" {
		fs := http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.ImagesDir)))
		router.Get("/images/*", fs.ServeHTTP)
	}

	return router, nil
}

func newAPIError(status int, code, message string) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Success: false,
			Message: message,
			Code:    code,
		},
	}
}

// pipelineError maps a classified pipeline failure to its HTTP status.
func pipelineError(perr *pipeline.Error) huma.StatusError {
	return newAPIError(statusForCode(perr.Code), string(perr.Code), perr.Message)
}

func statusForCode(code pipeline.Code) int {
	switch code {
	case pipeline.CodeUnauthorized:
		return http.StatusUnauthorized
	case pipeline.CodeUnknownAction, pipeline.CodeEmptyContent:
		return http.StatusBadRequest
	case pipeline.CodeQuotaExceeded:
		return http.StatusTooManyRequests
	case pipeline.CodeEmptyOutput, pipeline.CodeProviderError, pipeline.CodeInvalidStructuredOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "NotFound", "not found")
	}
	return newAPIError(http.StatusInternalServerError, "InternalError", "internal error")
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BadRequest"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusNotFound:
		return "NotFound"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusTooManyRequests:
		return "QuotaExceeded"
	case http.StatusBadGateway:
		return "ProviderError"
	case http.StatusInternalServerError:
		return "InternalError"
	default:
		return strings.ReplaceAll(http.StatusText(status), " ", "")
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}
