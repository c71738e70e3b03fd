package services

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"ticket-review-gate/models"
)

const (
	msgTitleMissingTicket = "* Title does not seem to contain reference to JIRA ticket"
	msgBranchMissingFmt   = "* Branch name does not seem to contain reference to JIRA ticket (expected %s)"
	msgTicketMismatchFmt  = "* Title references %s but branch name references %s"
	msgTicketNotFoundFmt  = "* JIRA ticket %s does not exist"
	msgTicketDoneFmt      = "* JIRA ticket %s has status done"
)

// trackerOutcome は Jira の照会結果をどう扱うかの定義
type trackerOutcome struct {
	fails   func(cfg models.ValidationConfig) bool
	message string
}

// 新しいステータスを追加するときはここに必ず行を足すこと
var trackerOutcomes = map[models.TrackerStatus]trackerOutcome{
	models.TrackerStatusOpen: {
		fails: func(models.ValidationConfig) bool { return false },
	},
	models.TrackerStatusDone: {
		fails:   func(cfg models.ValidationConfig) bool { return cfg.FailOnDoneStatus },
		message: msgTicketDoneFmt,
	},
	models.TrackerStatusNotFound: {
		fails:   func(models.ValidationConfig) bool { return true },
		message: msgTicketNotFoundFmt,
	},
}

// Validator はタイトル・ブランチ・Jira のチェックを順番に実行する
type Validator struct {
	Rules   *PatternRules
	Tracker Tracker
	Config  models.ValidationConfig
}

func NewValidator(rules *PatternRules, tracker Tracker, cfg models.ValidationConfig) *Validator {
	return &Validator{Rules: rules, Tracker: tracker, Config: cfg}
}

// validationRun は1回の検証の途中状態
type validationRun struct {
	req    models.Request
	title  *models.TicketRef
	branch *models.TicketRef
	errors models.ErrorReport
}

// validationStep は順番に await される検証ステップ。エラーを返すと検証全体が中断される
type validationStep struct {
	name string
	run  func(ctx context.Context, r *validationRun) error
}

func (v *Validator) steps() []validationStep {
	return []validationStep{
		{name: "title", run: v.checkTitle},
		{name: "branch", run: v.checkBranch},
		{name: "title-matches-branch", run: v.checkConsistency},
		{name: "tracker", run: v.checkTracker},
	}
}

// Validate はプルリクエストを検証して ErrorReport を返す。
// チェック失敗は ErrorReport に積まれ、error は Jira の通信失敗などの実行時エラーのみ
func (v *Validator) Validate(ctx context.Context, req models.Request) (models.ErrorReport, error) {
	r := &validationRun{req: req, errors: models.ErrorReport{}}

	for _, step := range v.steps() {
		if err := step.run(ctx, r); err != nil {
			return nil, fmt.Errorf("%s check: %w", step.name, err)
		}
	}

	return r.errors, nil
}

func (v *Validator) checkTitle(_ context.Context, r *validationRun) error {
	if !Matches(v.Rules.Title, r.req.Title) {
		r.errors = append(r.errors, msgTitleMissingTicket)
		return nil
	}
	if ref, ok := Extract(v.Rules.Title, r.req.Title); ok {
		r.title = &ref
	}
	return nil
}

func (v *Validator) checkBranch(_ context.Context, r *validationRun) error {
	if !Matches(v.Rules.Branch, r.req.Branch) {
		r.errors = append(r.errors, fmt.Sprintf(msgBranchMissingFmt, v.Rules.BranchHint()))
		return nil
	}
	if ref, ok := Extract(v.Rules.Branch, r.req.Branch); ok {
		r.branch = &ref
	}
	return nil
}

func (v *Validator) checkConsistency(ctx context.Context, r *validationRun) error {
	if !v.Config.TitleMatchesBranch {
		return nil
	}
	// 両方からチケット ID が取れたときだけ比較する
	if r.title == nil || r.branch == nil {
		clog.DebugContextf(ctx, "skipping title/branch comparison")
		return nil
	}
	if r.title.ID != r.branch.ID {
		r.errors = append(r.errors, fmt.Sprintf(msgTicketMismatchFmt, r.title.ID, r.branch.ID))
	}
	return nil
}

func (v *Validator) checkTracker(ctx context.Context, r *validationRun) error {
	if !v.Config.ValidateWithTracker {
		return nil
	}
	if !r.errors.Passed() || r.title == nil || r.branch == nil {
		clog.DebugContextf(ctx, "skipping jira check because earlier checks failed")
		return nil
	}
	if v.Tracker == nil {
		return fmt.Errorf("jira validation is enabled but no tracker is configured")
	}

	// ブランチのチケットを先に、タイトルのチケットが違えばそれも順番に確認する
	ids := []string{r.branch.ID}
	if r.title.ID != r.branch.ID {
		ids = append(ids, r.title.ID)
	}

	for _, id := range ids {
		status, err := v.Tracker.Lookup(ctx, id)
		if err != nil {
			return err
		}
		outcome, ok := trackerOutcomes[status]
		if !ok {
			return fmt.Errorf("unhandled tracker status %s for %s", status, id)
		}
		if outcome.fails(v.Config) {
			r.errors = append(r.errors, fmt.Sprintf(outcome.message, id))
		}
	}
	return nil
}
