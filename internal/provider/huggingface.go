package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HFConfig configures the Hugging Face inference adapter used for
// image synthesis.
type HFConfig struct {
	Token             string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

const (
	defaultHFModel   = "stabilityai/stable-diffusion-xl-base-1.0"
	defaultHFBaseURL = "https://router.huggingface.co/hf-inference/models"
	// Kept low on purpose; the upstream default produces the same
	// image class at several times the latency.
	hfInferenceSteps = 5
)

// HFClient implements ImageGenerator over the Hugging Face inference
// HTTP API.
type HFClient struct {
	token      string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewHFClient(cfg HFConfig) (*HFClient, error) {
	if cfg.Token == "" {
		return nil, errors.New("hugging face token is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultHFModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &HFClient{
		token:      cfg.Token,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	NumInferenceSteps int `json:"num_inference_steps"`
	Width             int `json:"width"`
	Height            int `json:"height"`
}

// GenerateImage renders prompt into raw image bytes. Non-2xx responses
// come back as *HTTPStatusError so callers can classify them.
func (c *HFClient) GenerateImage(ctx context.Context, promptText string, width, height int) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	payload, err := json.Marshal(hfRequest{
		Inputs: promptText,
		Parameters: hfParameters{
			NumInferenceSteps: hfInferenceSteps,
			Width:             width,
			Height:            height,
		},
	})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPStatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if len(body) == 0 {
		return nil, errors.New("provider returned empty image payload")
	}
	return body, nil
}
