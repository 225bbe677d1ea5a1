package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"inkwell/internal/db"
	"inkwell/internal/domain"
	"inkwell/internal/migrate"
	"inkwell/internal/prompt"
	"inkwell/internal/provider"
	"inkwell/internal/repo"
)

type fakeGenerator struct {
	outcome provider.Outcome
	prompt  string
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, promptText, _ string) provider.Outcome {
	f.calls++
	f.prompt = promptText
	return f.outcome
}

func newTestRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.Repo{DB: conn}
}

func seedUser(t *testing.T, r repo.Repo, id string) {
	t.Helper()
	err := r.InsertUser(context.Background(), domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func TestRunSuccess(t *testing.T) {
	r := newTestRepo(t)
	seedUser(t, r, "u1")
	gen := &fakeGenerator{outcome: provider.Success("  polished text  ")}
	p := New(gen, "test-model", r, nil)

	result, perr := p.Run(context.Background(), Request{
		OwnerID: "u1",
		Action:  "rewrite",
		Content: "rough text",
	})
	if perr != nil {
		t.Fatalf("run failed: %+v", perr)
	}
	if result.Content != "polished text" {
		t.Fatalf("content %q", result.Content)
	}
	if result.Message != "Content rewritten successfully" {
		t.Fatalf("message %q", result.Message)
	}
	if result.Warning != "" {
		t.Fatalf("unexpected warning %q", result.Warning)
	}
	if result.Record == nil {
		t.Fatal("record not returned")
	}
	if result.Record.Type != "rewrite" || result.Record.Tone != "Professional" {
		t.Fatalf("record fields: %+v", result.Record)
	}
	if !strings.Contains(gen.prompt, "Tone: Professional") {
		t.Fatalf("prompt missing default tone: %q", gen.prompt)
	}

	items, err := r.ListGenerations(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].OutputContent != "polished text" {
		t.Fatalf("persisted records: %+v", items)
	}
}

func TestRunValidationOrder(t *testing.T) {
	r := newTestRepo(t)
	gen := &fakeGenerator{outcome: provider.Success("x")}
	p := New(gen, "m", r, nil)
	ctx := context.Background()

	// Missing owner wins over everything else.
	_, perr := p.Run(ctx, Request{Action: "nope", Content: ""})
	if perr == nil || perr.Code != CodeUnauthorized {
		t.Fatalf("got %+v, want Unauthorized", perr)
	}

	// Unknown action wins over empty content.
	_, perr = p.Run(ctx, Request{OwnerID: "u1", Action: "translate", Content: ""})
	if perr == nil || perr.Code != CodeUnknownAction {
		t.Fatalf("got %+v, want UnknownAction", perr)
	}

	_, perr = p.Run(ctx, Request{OwnerID: "u1", Action: "rewrite", Content: "   "})
	if perr == nil || perr.Code != CodeEmptyContent {
		t.Fatalf("got %+v, want EmptyContent", perr)
	}

	if gen.calls != 0 {
		t.Fatalf("provider called %d times during validation failures", gen.calls)
	}
}

func TestRunStructuredActionRejected(t *testing.T) {
	r := newTestRepo(t)
	gen := &fakeGenerator{outcome: provider.Success("x")}
	p := New(gen, "m", r, nil)

	_, perr := p.Run(context.Background(), Request{OwnerID: "u1", Action: "resume-score", Content: "cv text"})
	if perr == nil || perr.Code != CodeUnknownAction {
		t.Fatalf("got %+v, want UnknownAction", perr)
	}
	if gen.calls != 0 {
		t.Fatal("provider called for structured action on plain path")
	}
}

func TestRunProviderFailures(t *testing.T) {
	cases := []struct {
		name    string
		outcome provider.Outcome
		want    Code
	}{
		{"quota", provider.Outcome{Kind: provider.KindQuotaExceeded, Detail: "429"}, CodeQuotaExceeded},
		{"empty", provider.Empty(), CodeEmptyOutput},
		{"error", provider.Outcome{Kind: provider.KindProviderError, Detail: "boom"}, CodeProviderError},
		{"whitespace", provider.Success("   \n "), CodeEmptyOutput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRepo(t)
			seedUser(t, r, "u1")
			p := New(&fakeGenerator{outcome: tc.outcome}, "m", r, nil)

			_, perr := p.Run(context.Background(), Request{OwnerID: "u1", Action: "rewrite", Content: "text"})
			if perr == nil || perr.Code != tc.want {
				t.Fatalf("got %+v, want %s", perr, tc.want)
			}
			items, err := r.ListGenerations(context.Background(), "u1", 0, 0)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(items) != 0 {
				t.Fatalf("failed run persisted %d records", len(items))
			}
		})
	}
}

func TestRunTruncatesInput(t *testing.T) {
	r := newTestRepo(t)
	seedUser(t, r, "u1")
	gen := &fakeGenerator{outcome: provider.Success("ok")}
	p := New(gen, "m", r, nil)

	long := strings.Repeat("z", prompt.MaxContentChars+500)
	result, perr := p.Run(context.Background(), Request{OwnerID: "u1", Action: "expand", Content: long})
	if perr != nil {
		t.Fatalf("run: %+v", perr)
	}
	if got := len([]rune(result.Record.InputContent)); got != prompt.MaxContentChars {
		t.Fatalf("persisted input length %d", got)
	}
	if !strings.HasPrefix(long, result.Record.InputContent) {
		t.Fatal("persisted input is not a prefix of the original")
	}
}

func TestRunPersistenceFailureStillReturnsContent(t *testing.T) {
	r := newTestRepo(t)
	gen := &fakeGenerator{outcome: provider.Success("still here")}
	p := New(gen, "m", r, nil)

	// Owner was never created, so the FK on generations fails the insert.
	result, perr := p.Run(context.Background(), Request{OwnerID: "ghost", Action: "rewrite", Content: "text"})
	if perr != nil {
		t.Fatalf("run should succeed with warning, got %+v", perr)
	}
	if result.Content != "still here" {
		t.Fatalf("content %q", result.Content)
	}
	if result.Warning != CodePersistenceError {
		t.Fatalf("warning %q, want PersistenceError", result.Warning)
	}
	if result.Record != nil {
		t.Fatal("record returned despite failed persistence")
	}
}

func TestRunResumeSuccess(t *testing.T) {
	r := newTestRepo(t)
	seedUser(t, r, "u1")
	raw := "Here you go:\n```json\n{\"score\": 78, \"match_percentage\": 70, \"strengths\": [\"Go\"], \"weaknesses\": [], \"improvements\": [], \"ats_tips\": [\"use keywords\"]}\n```"
	gen := &fakeGenerator{outcome: provider.Success(raw)}
	p := New(gen, "m", r, nil)

	result, perr := p.RunResume(context.Background(), ResumeRequest{
		OwnerID:    "u1",
		ResumeText: "10 years shipping Go services",
	})
	if perr != nil {
		t.Fatalf("resume run: %+v", perr)
	}
	if result.Report.Score != 78 || result.Report.MatchPercentage != 70 {
		t.Fatalf("report %+v", result.Report)
	}
	if result.Record == nil || result.Record.Type != "resume-score" {
		t.Fatalf("record %+v", result.Record)
	}
	if result.Record.Tone != "Software Developer" {
		t.Fatalf("default role not applied: %q", result.Record.Tone)
	}
	if !strings.Contains(gen.prompt, "Target role: Software Developer") {
		t.Fatalf("prompt missing role: %q", gen.prompt)
	}
}

func TestRunResumeInvalidOutput(t *testing.T) {
	r := newTestRepo(t)
	seedUser(t, r, "u1")
	gen := &fakeGenerator{outcome: provider.Success("I cannot produce JSON today")}
	p := New(gen, "m", r, nil)

	_, perr := p.RunResume(context.Background(), ResumeRequest{OwnerID: "u1", ResumeText: "cv"})
	if perr == nil || perr.Code != CodeInvalidStructuredOutput {
		t.Fatalf("got %+v, want InvalidStructuredOutput", perr)
	}
	items, err := r.ListGenerations(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatal("invalid structured output was persisted")
	}
}

func TestRunResumeCustomRole(t *testing.T) {
	r := newTestRepo(t)
	seedUser(t, r, "u1")
	raw := `{"score": 50, "match_percentage": 40, "strengths": [], "weaknesses": [], "improvements": [], "ats_tips": []}`
	gen := &fakeGenerator{outcome: provider.Success(raw)}
	p := New(gen, "m", r, nil)

	result, perr := p.RunResume(context.Background(), ResumeRequest{
		OwnerID:    "u1",
		Role:       "  Data Engineer  ",
		ResumeText: "cv",
	})
	if perr != nil {
		t.Fatalf("resume run: %+v", perr)
	}
	if result.Record.Tone != "Data Engineer" {
		t.Fatalf("role %q", result.Record.Tone)
	}
}
