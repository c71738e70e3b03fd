package models

// ReviewState は GitHub のレビュー状態
type ReviewState string

const (
	ReviewStatePending          ReviewState = "PENDING"
	ReviewStateChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewStateCommented        ReviewState = "COMMENTED"
	ReviewStateApproved         ReviewState = "APPROVED"
	ReviewStateDismissed        ReviewState = "DISMISSED"
)

// ReviewRecord は PR に付いている既存レビューの読み取り専用ビュー
type ReviewRecord struct {
	ID     int64
	Author string
	State  ReviewState
	Body   string
	IsSelf bool // bot 自身が書いたレビューか
}

// Active は dismiss されていないレビューかどうか
func (r ReviewRecord) Active() bool {
	return r.State != ReviewStateDismissed
}

// Verdict は1回の実行で bot が取ったレビューアクション
type Verdict string

const (
	VerdictNone           Verdict = "NONE"
	VerdictRequestChanges Verdict = "REQUEST_CHANGES"
	VerdictComment        Verdict = "COMMENT"
	VerdictDismiss        Verdict = "DISMISS"
)
