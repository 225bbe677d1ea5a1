package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"inkwell/internal/db"
	"inkwell/internal/migrate"
	"inkwell/internal/pipeline"
	"inkwell/internal/provider"
	"inkwell/internal/repo"
)

type fakeGenerator struct {
	outcome provider.Outcome
}

func (f *fakeGenerator) Generate(_ context.Context, _, _ string) provider.Outcome {
	return f.outcome
}

type testServer struct {
	URL    string
	gen    *fakeGenerator
	client *http.Client
	close  func()
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := repo.Repo{DB: conn}
	gen := &fakeGenerator{outcome: provider.Success("generated output")}
	content := pipeline.New(gen, "test-model", r, nil)

	handler, err := New(Config{
		Repo:     r,
		Content:  content,
		BasePath: "/v1",
		Auth:     AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	ts := &testServer{
		URL:    "http://" + ln.Addr().String(),
		gen:    gen,
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	t.Cleanup(ts.close)
	return ts
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func signUpAndIn(t *testing.T, srv *testServer, name, email string) (token string, auth map[string]string) {
	t.Helper()
	res, data := doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/auth/signup", map[string]any{
		"name":     name,
		"email":    email,
		"password": "hunter2hunter2",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("signup status %d: %s", res.StatusCode, data)
	}
	res, data = doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/auth/signin", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("signin status %d: %s", res.StatusCode, data)
	}
	var signin struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &signin); err != nil {
		t.Fatalf("unmarshal signin: %v", err)
	}
	if signin.Token == "" {
		t.Fatal("no token in signin response")
	}
	return signin.Token, map[string]string{"Authorization": "Bearer " + signin.Token}
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func TestGenerateContent(t *testing.T) {
	srv := newTestServer(t)
	_, auth := signUpAndIn(t, srv, "Alice", "alice@example.com")

	res, data := doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/rewrite", map[string]any{
		"content": "some rough text",
	}, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("generate status %d: %s", res.StatusCode, data)
	}
	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Content string `json:"content"`
		Record  *struct {
			ID     string `json:"id"`
			UserID string `json:"user_id"`
			Type   string `json:"type"`
			Tone   string `json:"tone"`
		} `json:"record"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.Content != "generated output" {
		t.Fatalf("unexpected body: %s", data)
	}
	if out.Message != "Content rewritten successfully" {
		t.Fatalf("message %q", out.Message)
	}
	if out.Record == nil || out.Record.Type != "rewrite" || out.Record.Tone != "Professional" {
		t.Fatalf("record: %s", data)
	}
	if out.Record.UserID == "" {
		t.Fatal("record missing owner")
	}
}

func TestGenerateContentErrors(t *testing.T) {
	srv := newTestServer(t)
	_, auth := signUpAndIn(t, srv, "Alice", "alice@example.com")

	// Unknown action.
	res, data := doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/translate", map[string]any{
		"content": "hola",
	}, auth)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown action status %d: %s", res.StatusCode, data)
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Success || env.Code != "UnknownAction" {
		t.Fatalf("envelope: %s", data)
	}

	// Empty content.
	res, data = doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/rewrite", map[string]any{
		"content": "   ",
	}, auth)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty content status %d: %s", res.StatusCode, data)
	}
	json.Unmarshal(data, &env)
	if env.Code != "EmptyContent" {
		t.Fatalf("envelope: %s", data)
	}

	// Provider quota.
	srv.gen.outcome = provider.Outcome{Kind: provider.KindQuotaExceeded, Detail: "429 slow down"}
	res, data = doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/rewrite", map[string]any{
		"content": "text",
	}, auth)
	if res.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("quota status %d: %s", res.StatusCode, data)
	}
	json.Unmarshal(data, &env)
	if env.Code != "QuotaExceeded" {
		t.Fatalf("envelope: %s", data)
	}

	// Provider error surfaces without raw detail.
	srv.gen.outcome = provider.Outcome{Kind: provider.KindProviderError, Detail: "secret internal detail"}
	res, data = doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/rewrite", map[string]any{
		"content": "text",
	}, auth)
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("provider error status %d: %s", res.StatusCode, data)
	}
	if bytes.Contains(data, []byte("secret internal detail")) {
		t.Fatalf("raw provider detail leaked: %s", data)
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	res, data := doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/rewrite", map[string]any{
		"content": "text",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Success || env.Code != "Unauthorized" {
		t.Fatalf("envelope: %s", data)
	}

	res, _ = doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/rewrite", map[string]any{
		"content": "text",
	}, map[string]string{"Authorization": "Bearer not-a-token"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status %d", res.StatusCode)
	}

	// Health stays open.
	res, _ = doJSON(t, srv.client, http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d", res.StatusCode)
	}
}

func TestHistoryAndDeleteOwnership(t *testing.T) {
	srv := newTestServer(t)
	_, aliceAuth := signUpAndIn(t, srv, "Alice", "alice@example.com")
	_, bobAuth := signUpAndIn(t, srv, "Bob", "bob@example.com")

	res, data := doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/rewrite", map[string]any{
		"content": "alice's text",
	}, aliceAuth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("generate status %d: %s", res.StatusCode, data)
	}
	var gen struct {
		Record struct {
			ID string `json:"id"`
		} `json:"record"`
	}
	if err := json.Unmarshal(data, &gen); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Bob's history does not contain Alice's record.
	res, data = doJSON(t, srv.client, http.MethodGet, srv.URL+"/v1/content/history", nil, bobAuth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("history status %d: %s", res.StatusCode, data)
	}
	var hist struct {
		Success bool             `json:"success"`
		Data    []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(data, &hist); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hist.Data) != 0 {
		t.Fatalf("bob sees %d records", len(hist.Data))
	}

	// Bob cannot delete Alice's record; the response does not reveal it exists.
	res, data = doJSON(t, srv.client, http.MethodDelete, srv.URL+"/v1/content/history/"+gen.Record.ID, nil, bobAuth)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-user delete status %d: %s", res.StatusCode, data)
	}

	// Alice can.
	res, data = doJSON(t, srv.client, http.MethodDelete, srv.URL+"/v1/content/history/"+gen.Record.ID, nil, aliceAuth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("owner delete status %d: %s", res.StatusCode, data)
	}
	res, data = doJSON(t, srv.client, http.MethodGet, srv.URL+"/v1/content/history", nil, aliceAuth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("history status %d", res.StatusCode)
	}
	if err := json.Unmarshal(data, &hist); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hist.Data) != 0 {
		t.Fatalf("record still listed after delete: %s", data)
	}
}

func TestAnalyzeResume(t *testing.T) {
	srv := newTestServer(t)
	_, auth := signUpAndIn(t, srv, "Alice", "alice@example.com")

	srv.gen.outcome = provider.Success(`{"score": 81, "match_percentage": 75, "strengths": ["Go"], "weaknesses": [], "improvements": [], "ats_tips": []}`)
	res, data := doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/resume/analyze", map[string]any{
		"role":        "Backend Engineer",
		"resume_text": "10 years of Go",
	}, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("analyze status %d: %s", res.StatusCode, data)
	}
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			Score           int      `json:"score"`
			MatchPercentage int      `json:"match_percentage"`
			Strengths       []string `json:"strengths"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.Data.Score != 81 || out.Data.MatchPercentage != 75 {
		t.Fatalf("body: %s", data)
	}

	// Unparseable model output.
	srv.gen.outcome = provider.Success("sorry, no json")
	res, data = doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/resume/analyze", map[string]any{
		"resume_text": "cv",
	}, auth)
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("invalid output status %d: %s", res.StatusCode, data)
	}
	var env errorEnvelope
	json.Unmarshal(data, &env)
	if env.Code != "InvalidStructuredOutput" {
		t.Fatalf("envelope: %s", data)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	srv := newTestServer(t)
	_, auth := signUpAndIn(t, srv, "Alice", "alice@example.com")

	res, data := doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/apikeys", map[string]any{
		"name": "ci",
	}, auth)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create key status %d: %s", res.StatusCode, data)
	}
	var created struct {
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.Secret == "" {
		t.Fatal("no secret returned")
	}

	res, data = doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/content/rewrite", map[string]any{
		"content": "via api key",
	}, map[string]string{"X-Api-Key": created.Secret})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("api key generate status %d: %s", res.StatusCode, data)
	}

	res, _ = doJSON(t, srv.client, http.MethodGet, srv.URL+"/v1/content/history", nil, map[string]string{"X-Api-Key": "ik_wrong"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong key status %d", res.StatusCode)
	}
}

func TestSignUpConflictAndBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	signUpAndIn(t, srv, "Alice", "alice@example.com")

	res, data := doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/auth/signup", map[string]any{
		"name":     "Imposter",
		"email":    "alice@example.com",
		"password": "hunter2hunter2",
	}, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status %d: %s", res.StatusCode, data)
	}

	res, data = doJSON(t, srv.client, http.MethodPost, srv.URL+"/v1/auth/signin", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status %d: %s", res.StatusCode, data)
	}
}
