package llmreview_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aidino/aicode-reviewer-sub001/internal/llmreview"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/testsupport"
)

type stubCompleter struct {
	payload   string
	err       error
	gotSystem string
	gotUser   string
	calls     int
}

func (s *stubCompleter) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	s.gotSystem = systemPrompt
	s.gotUser = userPrompt
	if s.err != nil {
		return "", s.err
	}
	return s.payload, nil
}

func reviewState() *scan.State {
	state := scan.NewState(scan.Request{ScanType: scan.TypePR, Repository: "https://example.com/demo.git", PRID: 42})
	state.Branch = "feature/api"
	state.BaseBranch = "main"
	state.Diff = []scan.DiffFile{
		{Path: "internal/api/server.go", ChangeKind: "modified", Additions: 12, Deletions: 3},
	}
	state.Parsed = &scan.ParseSummary{
		Files:      []scan.SourceFile{{Path: "internal/api/server.go", Language: "go", LineCount: 200}},
		Languages:  map[string]int{"go": 1},
		TotalLines: 200,
	}
	state.Findings = []scan.Finding{
		{Rule: "debug-statement", Severity: scan.SeverityWarning, Path: "internal/api/server.go", Line: 88, Message: "debug print left in code"},
		{Rule: "hardcoded-secret", Severity: scan.SeverityCritical, Path: "internal/api/server.go", Line: 12, Message: "possible hardcoded credential"},
	}
	state.Impact = &scan.ImpactSummary{
		ImpactedSymbols: []scan.ImpactedSymbol{
			{Path: "internal/api/server.go", Symbol: scan.Symbol{Name: "handleSubmit", Kind: "function", StartLine: 80, EndLine: 120}},
		},
		ChangedFiles: 1,
		ChangedLines: 15,
		RiskScore:    21.0,
		RiskLevel:    "low",
	}
	return state
}

func TestReviewerParsesModelReply(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("sk-test"))
	completer := &stubCompleter{payload: "```json\n" + `{
		"summary": "One credential leak must be fixed before merge.",
		"comments": [
			{"path": "internal/api/server.go", "line": 12, "severity": "critical", "comment": "Move the credential into configuration."},
			{"path": "internal/api/server.go", "line": 88, "severity": "minor", "comment": "Drop the debug print."},
			{"path": "", "line": 0, "severity": "info", "comment": "   "}
		]
	}` + "\n```"}

	reviewer := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), completer)
	state := reviewState()
	if err := reviewer.Execute(context.Background(), state); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	review := state.Review
	if review == nil || review.Heuristic {
		t.Fatalf("expected model review, got %+v", review)
	}
	if review.Summary != "One credential leak must be fixed before merge." {
		t.Fatalf("unexpected summary %q", review.Summary)
	}
	if len(review.Comments) != 2 {
		t.Fatalf("expected blank comment dropped, got %+v", review.Comments)
	}
	if review.Comments[0].Severity != scan.SeverityCritical {
		t.Fatalf("unexpected severity %+v", review.Comments[0])
	}
	if review.Comments[1].Severity != scan.SeverityWarning {
		t.Fatalf("expected minor mapped to warning, got %+v", review.Comments[1])
	}
	if review.Model == "" {
		t.Fatal("expected model recorded on review")
	}
}

func TestReviewerPromptCarriesEvidence(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("sk-test"))
	completer := &stubCompleter{payload: `{"summary": "ok", "comments": []}`}

	reviewer := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), completer)
	if err := reviewer.Execute(context.Background(), reviewState()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	for _, fragment := range []string{
		"Pull request: #42",
		"internal/api/server.go (modified, +12/-3)",
		"hardcoded-secret",
		"touches function handleSubmit",
		"risk low",
	} {
		if !strings.Contains(completer.gotUser, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, completer.gotUser)
		}
	}
	if !strings.Contains(completer.gotSystem, "JSON") {
		t.Fatalf("system prompt should demand JSON, got %q", completer.gotSystem)
	}
}

func TestReviewerHeuristicWithoutCompleter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	reviewer := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), nil)

	state := reviewState()
	if err := reviewer.Execute(context.Background(), state); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	review := state.Review
	if review == nil || !review.Heuristic {
		t.Fatalf("expected heuristic review, got %+v", review)
	}
	if !strings.Contains(review.Summary, "2 findings") {
		t.Fatalf("unexpected summary %q", review.Summary)
	}
	if len(review.Comments) != 2 {
		t.Fatalf("expected finding-derived comments, got %+v", review.Comments)
	}
	if review.Comments[0].Severity != scan.SeverityCritical {
		t.Fatalf("expected critical finding ranked first, got %+v", review.Comments[0])
	}
}

func TestReviewerWrapsCompleterErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("sk-test"))
	completer := &stubCompleter{err: errors.New("upstream 500")}

	reviewer := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), completer)
	err := reviewer.Execute(context.Background(), reviewState())
	if err == nil {
		t.Fatal("expected completer error to surface")
	}
	if kind := services.FailureKind(err); kind != services.KindExternal {
		t.Fatalf("expected external failure, got %s (%v)", kind, err)
	}
}

func TestReviewerRejectsUnparseableReply(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("sk-test"))
	completer := &stubCompleter{payload: "I cannot produce JSON today."}

	reviewer := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), completer)
	err := reviewer.Execute(context.Background(), reviewState())
	if err == nil {
		t.Fatal("expected decode error")
	}
	if kind := services.FailureKind(err); kind != services.KindExternal {
		t.Fatalf("expected external failure, got %s (%v)", kind, err)
	}
}

func TestReviewerRequiresParseSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	reviewer := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), nil)

	state := scan.NewState(scan.Request{ScanType: scan.TypeProject, Repository: "repo"})
	err := reviewer.Execute(context.Background(), state)
	if err == nil {
		t.Fatal("expected error without parse summary")
	}
	if kind := services.FailureKind(err); kind != services.KindValidation {
		t.Fatalf("expected validation failure, got %s (%v)", kind, err)
	}
}

func TestReviewerHealthReflectsConfiguration(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	unconfigured := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), nil)
	if health := unconfigured.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage without api key")
	}

	configured := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), &stubCompleter{payload: "{}"})
	if health := configured.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage with completer, got %+v", health)
	}
}

func TestReviewerDropsRepeatedComments(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLLMKey("sk-test"))
	completer := &stubCompleter{payload: `{
		"summary": "One unclosed response body.",
		"comments": [
			{"path": "internal/api/server.go", "line": 88, "severity": "major", "comment": "The response body is never closed on the error path."},
			{"path": "internal/api/server.go", "line": 95, "severity": "major", "comment": "The response body is never closed on the error path here."},
			{"path": "internal/api/server.go", "line": 12, "severity": "info", "comment": "Validate the request id before loading the diff."}
		]
	}`}

	reviewer := llmreview.NewReviewerWithDependencies(cfg, logging.NewNop(), completer)
	state := reviewState()
	if err := reviewer.Execute(context.Background(), state); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	comments := state.Review.Comments
	if len(comments) != 2 {
		t.Fatalf("expected reworded duplicate dropped, got %+v", comments)
	}
	if comments[0].Line != 88 || comments[1].Line != 12 {
		t.Fatalf("expected first occurrence kept, got %+v", comments)
	}
}
