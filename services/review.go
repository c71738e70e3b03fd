package services

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"ticket-review-gate/models"
)

// DefaultBotLogin は GitHub Actions のトークンでレビューを書いたときの author
const DefaultBotLogin = "github-actions[bot]"

// DefaultDismissMessage はエラーが解消したときの dismiss メッセージ
const DefaultDismissMessage = "PR title & branch is now ISAE compliant!"

// ReviewClient はレビューの一覧・作成・dismiss を行うプラットフォーム側の操作
type ReviewClient interface {
	ListReviews(ctx context.Context, req models.Request) ([]models.ReviewRecord, error)
	CreateReview(ctx context.Context, req models.Request, body string, event models.Verdict) error
	DismissReview(ctx context.Context, req models.Request, reviewID int64, message string) error
}

// Notifier は bot が取ったアクションを外部に通知する
type Notifier interface {
	Notify(ctx context.Context, req models.Request, verdict models.Verdict, body string) error
}

// SelfReviewState は bot 自身のレビューが有効な状態で残っているか
type SelfReviewState int

const (
	NoSelfReview SelfReviewState = iota
	SelfReviewActive
)

// MarkSelf は author が identity と一致するレビューに IsSelf を立てる
func MarkSelf(reviews []models.ReviewRecord, identity string) []models.ReviewRecord {
	marked := make([]models.ReviewRecord, len(reviews))
	for i, r := range reviews {
		r.IsSelf = r.Author == identity
		marked[i] = r
	}
	return marked
}

// ActiveSelfReviews は dismiss されていない bot 自身のレビューを返す
func ActiveSelfReviews(reviews []models.ReviewRecord) []models.ReviewRecord {
	var active []models.ReviewRecord
	for _, r := range reviews {
		if r.IsSelf && r.Active() {
			active = append(active, r)
		}
	}
	return active
}

func stateOf(reviews []models.ReviewRecord) SelfReviewState {
	if len(ActiveSelfReviews(reviews)) > 0 {
		return SelfReviewActive
	}
	return NoSelfReview
}

// Reconciler は既存レビューを検証結果に合わせて収束させる
type Reconciler struct {
	Client         ReviewClient
	Identity       string
	DismissMessage string
	Notifier       Notifier // nil なら通知しない
}

func NewReconciler(client ReviewClient, identity, dismissMessage string, notifier Notifier) *Reconciler {
	if identity == "" {
		identity = DefaultBotLogin
	}
	if dismissMessage == "" {
		dismissMessage = DefaultDismissMessage
	}
	return &Reconciler{
		Client:         client,
		Identity:       identity,
		DismissMessage: dismissMessage,
		Notifier:       notifier,
	}
}

// Reconcile は最新のレビュー一覧を取得してから Apply する
func (r *Reconciler) Reconcile(ctx context.Context, req models.Request, errs models.ErrorReport) (models.Verdict, error) {
	reviews, err := r.Client.ListReviews(ctx, req)
	if err != nil {
		return models.VerdictNone, fmt.Errorf("listing reviews: %w", err)
	}
	return r.Apply(ctx, req, errs, reviews)
}

// Apply は取得済みのレビュー一覧と ErrorReport からアクションを決めて実行する
func (r *Reconciler) Apply(ctx context.Context, req models.Request, errs models.ErrorReport, reviews []models.ReviewRecord) (models.Verdict, error) {
	reviews = MarkSelf(reviews, r.Identity)
	state := stateOf(reviews)

	if !errs.Passed() {
		clog.InfoContextf(ctx, "validation failed")
		body := errs.Body()

		if state == NoSelfReview {
			clog.InfoContextf(ctx, "creating new review to request changes")
			if err := r.Client.CreateReview(ctx, req, body, models.VerdictRequestChanges); err != nil {
				return models.VerdictNone, fmt.Errorf("creating review: %w", err)
			}
			r.notify(ctx, req, models.VerdictRequestChanges, body)
			return models.VerdictRequestChanges, nil
		}

		// 同じ内容をすでに報告済みなら何もしない
		if latest, ok := latestActiveSelfReview(reviews); ok && latest.Body == body {
			clog.InfoContextf(ctx, "review %d already reports the current errors", latest.ID)
			return models.VerdictNone, nil
		}

		clog.InfoContextf(ctx, "creating new comment to keep requesting changes")
		if err := r.Client.CreateReview(ctx, req, body, models.VerdictComment); err != nil {
			return models.VerdictNone, fmt.Errorf("creating comment: %w", err)
		}
		r.notify(ctx, req, models.VerdictComment, body)
		return models.VerdictComment, nil
	}

	clog.InfoContextf(ctx, "validation succeeded")
	if state == NoSelfReview {
		return models.VerdictNone, nil
	}

	// 過去の bot レビューが複数あれば、有効なものは全部 dismiss する
	for _, review := range ActiveSelfReviews(reviews) {
		clog.InfoContextf(ctx, "dismissing own review %d", review.ID)
		if err := r.Client.DismissReview(ctx, req, review.ID, r.DismissMessage); err != nil {
			return models.VerdictNone, fmt.Errorf("dismissing review %d: %w", review.ID, err)
		}
	}
	r.notify(ctx, req, models.VerdictDismiss, r.DismissMessage)
	return models.VerdictDismiss, nil
}

// latestActiveSelfReview は一覧の中で最後 (最新) の有効な bot レビューを返す
func latestActiveSelfReview(reviews []models.ReviewRecord) (models.ReviewRecord, bool) {
	active := ActiveSelfReviews(reviews)
	if len(active) == 0 {
		return models.ReviewRecord{}, false
	}
	return active[len(active)-1], true
}

func (r *Reconciler) notify(ctx context.Context, req models.Request, verdict models.Verdict, body string) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Notify(ctx, req, verdict, body); err != nil {
		clog.WarnContextf(ctx, "notification failed: %v", err)
	}
}
