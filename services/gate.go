package services

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"

	"ticket-review-gate/models"
)

// Gate は検証とレビューの収束を1つの PR について実行する
type Gate struct {
	Validator  *Validator
	Reconciler *Reconciler
}

func NewGate(validator *Validator, reconciler *Reconciler) *Gate {
	return &Gate{Validator: validator, Reconciler: reconciler}
}

// NewGateFromConfig は設定から GitHub / Jira / Slack のクライアントを組み立てる
func NewGateFromConfig(ctx context.Context, cfg *Config) (*Gate, *GitHubReviews, error) {
	rules, err := NewPatternRules(cfg.TicketPrefixes)
	if err != nil {
		return nil, nil, err
	}

	gh, err := NewGitHubClient(ctx, cfg.RepoToken, cfg.GitHubAPIURL)
	if err != nil {
		return nil, nil, err
	}
	reviews := NewGitHubReviews(gh)

	var tracker Tracker
	if cfg.ValidateWithJira {
		jt, err := NewJiraTracker(cfg.JiraHost, cfg.JiraUser, cfg.JiraToken)
		if err != nil {
			return nil, nil, err
		}
		tracker = jt
	}

	var notifier Notifier
	if cfg.SlackEnabled() {
		notifier = NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel)
	}

	gate := NewGate(
		NewValidator(rules, tracker, cfg.ValidationConfig()),
		NewReconciler(reviews, cfg.BotLogin, cfg.DismissMessage, notifier),
	)
	return gate, reviews, nil
}

// Run は PR を検証してレビューを収束させる。
// 実行時エラーが起きた場合はレビューには一切触らずにエラーを返す
func (g *Gate) Run(ctx context.Context, req models.Request) (models.Verdict, error) {
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With(
		"run_id", uuid.NewString(),
		"repo", req.FullName(),
		"pr", req.Number,
	))
	clog.InfoContextf(ctx, "checking pull request: title=%q branch=%q", req.Title, req.Branch)

	errs, err := g.Validator.Validate(ctx, req)
	if err != nil {
		return models.VerdictNone, fmt.Errorf("validating pull request: %w", err)
	}

	verdict, err := g.Reconciler.Reconcile(ctx, req, errs)
	if err != nil {
		return models.VerdictNone, fmt.Errorf("reconciling reviews: %w", err)
	}

	clog.InfoContextf(ctx, "done: verdict=%s errors=%d", verdict, len(errs))
	return verdict, nil
}
