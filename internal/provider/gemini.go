package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini text generation adapter. The
// client is constructed explicitly and injected; nothing is built at
// package load.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// RequestsPerSecond paces outgoing calls. Zero disables pacing.
	RequestsPerSecond float64
}

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient implements TextGenerator against the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewGeminiClient creates a Gemini-backed text generator.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *GeminiClient) Model() string { return c.model }

// Generate makes a single synchronous call to the provider. An
// unbounded wait is a bug, so a timeout is applied when the caller
// supplies no deadline. Retries are the caller's responsibility.
func (c *GeminiClient) Generate(ctx context.Context, promptText, model string) Outcome {
	if model == "" {
		model = c.model
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return ClassifyError(0, err)
		}
	}

	contents := []*genai.Content{
		genai.NewContentFromText(promptText, genai.RoleUser),
	}
	res, err := c.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		outcome := ClassifyError(geminiStatus(err), err)
		if outcome.Kind == KindProviderError {
			// Falling through to ProviderError must stay observable so
			// new provider error shapes are noticed.
			c.logger.Error("unclassified provider failure",
				zap.String("model", model),
				zap.Error(err))
		}
		return outcome
	}

	// The SDK's Text accessor is the provider's supported way to read
	// generated text; candidate paths are not walked by hand.
	text := strings.TrimSpace(res.Text())
	if text == "" {
		return Empty()
	}
	return Success(text)
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
