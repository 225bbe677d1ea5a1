// Package inkwellsdk is a minimal Inkwell HTTP API client.
package inkwellsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Inkwell HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 90 * time.Second,
	}
}

// Generation is one stored content generation record.
type Generation struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	InputContent  string `json:"input_content"`
	OutputContent string `json:"output_content"`
	Type          string `json:"type"`
	Tone          string `json:"tone"`
	CreatedAt     string `json:"created_at"`
}

// GenerateResult is the envelope returned by content generation.
type GenerateResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Content string      `json:"content"`
	Record  *Generation `json:"record,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

// Image is one stored generated image record.
type Image struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Prompt    string `json:"prompt"`
	ImageURL  string `json:"image_url"`
	CreatedAt string `json:"created_at"`
}

// ImageResult is the envelope returned by image generation.
type ImageResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Image   Image  `json:"image"`
	Warning string `json:"warning,omitempty"`
}

// ResumeReport is the structured resume scoring output.
type ResumeReport struct {
	Score           int      `json:"score"`
	MatchPercentage int      `json:"match_percentage"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Improvements    []string `json:"improvements"`
	ATSTips         []string `json:"ats_tips"`
}

// ResumeResult is the envelope returned by resume analysis.
type ResumeResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    ResumeReport `json:"data"`
	Warning string       `json:"warning,omitempty"`
}

// APIError wraps non-2xx responses. Code carries the stable failure
// code from the error envelope when the body could be parsed.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// SignIn exchanges credentials for a bearer token and stores it on the
// client.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]any{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "auth/signin", body, &resp); err != nil {
		return err
	}
	c.BearerToken = resp.Token
	return nil
}

// Generate runs a plain-text content action.
func (c *Client) Generate(ctx context.Context, action, content, tone string) (GenerateResult, error) {
	body := map[string]any{"content": content}
	if tone != "" {
		body["tone"] = tone
	}
	var resp GenerateResult
	endpoint := fmt.Sprintf("content/%s", url.PathEscape(action))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// History returns the caller's generations, newest first.
func (c *Client) History(ctx context.Context, limit, offset int) ([]Generation, error) {
	var resp struct {
		Data []Generation `json:"data"`
	}
	endpoint := fmt.Sprintf("content/history?limit=%d&offset=%d", limit, offset)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Data, err
}

// DeleteHistory deletes one of the caller's generations.
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	endpoint := fmt.Sprintf("content/history/%s", url.PathEscape(id))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// GenerateImage synthesizes an image from a prompt.
func (c *Client) GenerateImage(ctx context.Context, promptText, resolution string) (ImageResult, error) {
	body := map[string]any{"prompt": promptText}
	if resolution != "" {
		body["resolution"] = resolution
	}
	var resp ImageResult
	err := c.do(ctx, http.MethodPost, "image/generate", body, &resp)
	return resp, err
}

// ImageHistory returns the caller's generated images, newest first.
func (c *Client) ImageHistory(ctx context.Context, limit, offset int) ([]Image, error) {
	var resp struct {
		Data []Image `json:"data"`
	}
	endpoint := fmt.Sprintf("image/history?limit=%d&offset=%d", limit, offset)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Data, err
}

// AnalyzeResume scores extracted resume text against a target role.
func (c *Client) AnalyzeResume(ctx context.Context, role, resumeText string) (ResumeResult, error) {
	body := map[string]any{"resume_text": resumeText}
	if role != "" {
		body["role"] = role
	}
	var resp ResumeResult
	err := c.do(ctx, http.MethodPost, "resume/analyze", body, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	target := c.base() + "/v1/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var envelope struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if json.Unmarshal(b, &envelope) == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
