package llmreview

import (
	"context"
	"strings"

	"log/slog"

	"github.com/aidino/aicode-reviewer-sub001/internal/config"
	"github.com/aidino/aicode-reviewer-sub001/internal/logging"
	"github.com/aidino/aicode-reviewer-sub001/internal/scan"
	"github.com/aidino/aicode-reviewer-sub001/internal/services"
	"github.com/aidino/aicode-reviewer-sub001/internal/services/llm"
	"github.com/aidino/aicode-reviewer-sub001/internal/stage"
)

const maxReviewComments = 50

// Reviewer drives the LLM analysis stage.
type Reviewer struct {
	cfg       *config.Config
	logger    *slog.Logger
	completer llm.Completer
	model     string
}

// NewReviewer constructs the stage handler with a real LLM client. When no
// API key is configured the completer stays nil and reviews are heuristic.
func NewReviewer(cfg *config.Config, logger *slog.Logger) *Reviewer {
	settings := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
	})
	var completer llm.Completer
	if client.Configured() {
		completer = client
	}
	return NewReviewerWithDependencies(cfg, logger, completer)
}

// NewReviewerWithDependencies allows injecting the completer (used in tests).
// A nil completer selects the heuristic fallback.
func NewReviewerWithDependencies(cfg *config.Config, logger *slog.Logger, completer llm.Completer) *Reviewer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "llm_analysis"))
	}
	return &Reviewer{cfg: cfg, logger: stageLogger, completer: completer, model: cfg.GetLLM().Model}
}

func (r *Reviewer) Name() string { return stage.LLMAnalysis }

func (r *Reviewer) Execute(ctx context.Context, state *scan.State) error {
	logger := logging.WithContext(ctx, r.logger)

	if state.Parsed == nil {
		return services.Wrap(services.ErrValidation, stage.LLMAnalysis, "validate inputs", "no parse summary; run parse before llm analysis", nil)
	}

	if r.completer == nil {
		state.Review = heuristicReview(state)
		logger.Info(
			"llm not configured; produced heuristic review",
			logging.Int("comments", len(state.Review.Comments)),
		)
		return nil
	}

	payload, err := r.completer.CompleteJSON(ctx, reviewSystemPrompt, buildUserPrompt(state))
	if err != nil {
		return services.Wrap(services.ErrExternalTool, stage.LLMAnalysis, "request review", "llm request failed", err)
	}

	var response reviewResponse
	if err := llm.DecodeJSON(payload, &response); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.LLMAnalysis, "decode review", "llm returned an unparseable review", err)
	}

	state.Review = response.toResult(r.model)
	logger.Info(
		"llm review complete",
		logging.String("model", r.model),
		logging.Int("comments", len(state.Review.Comments)),
	)
	return nil
}

func (r *Reviewer) HealthCheck(ctx context.Context) stage.Health {
	if r.completer == nil {
		return stage.Unhealthy(stage.LLMAnalysis, "llm api key not configured; reviews fall back to heuristics")
	}
	return stage.Healthy(stage.LLMAnalysis)
}

// reviewResponse is the JSON shape requested from the model.
type reviewResponse struct {
	Summary  string `json:"summary"`
	Comments []struct {
		Path     string `json:"path"`
		Line     int    `json:"line"`
		Severity string `json:"severity"`
		Comment  string `json:"comment"`
	} `json:"comments"`
}

func (r reviewResponse) toResult(model string) *scan.ReviewResult {
	result := &scan.ReviewResult{
		Summary: strings.TrimSpace(r.Summary),
		Model:   model,
	}
	if result.Summary == "" {
		result.Summary = "The model returned no summary."
	}
	comments := make([]scan.ReviewComment, 0, len(r.Comments))
	for _, comment := range r.Comments {
		text := strings.TrimSpace(comment.Comment)
		if text == "" {
			continue
		}
		comments = append(comments, scan.ReviewComment{
			Path:     strings.TrimSpace(comment.Path),
			Line:     comment.Line,
			Severity: parseSeverity(comment.Severity),
			Comment:  text,
		})
	}
	comments = dedupeComments(comments)
	if len(comments) > maxReviewComments {
		comments = comments[:maxReviewComments]
	}
	result.Comments = comments
	return result
}

func parseSeverity(raw string) scan.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical", "blocker":
		return scan.SeverityCritical
	case "error", "major":
		return scan.SeverityError
	case "warning", "warn", "minor":
		return scan.SeverityWarning
	default:
		return scan.SeverityInfo
	}
}
