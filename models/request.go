package models

import (
	"fmt"
	"strings"
)

// Request は検証対象のプルリクエスト
type Request struct {
	Owner  string
	Repo   string
	Number int
	Title  string
	Branch string // head ref
}

func (r Request) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Repo)
}

// TicketRef はタイトルやブランチ名から取り出したチケット参照
type TicketRef struct {
	Raw string // マッチした文字列そのまま (例: "io-42")
	ID  string // 大文字に正規化した ID (例: "IO-42")
}

// ValidationConfig は1回の実行で使う検証フラグ
type ValidationConfig struct {
	TitleMatchesBranch  bool // タイトルとブランチのチケットが一致しているか確認する
	ValidateWithTracker bool // Jira にチケットが存在するか確認する
	FailOnDoneStatus    bool // Jira のステータスカテゴリが done ならエラーにする
}

// ErrorReport は検証エラーの一覧。空なら検証成功
type ErrorReport []string

func (e ErrorReport) Passed() bool {
	return len(e) == 0
}

// Body はレビュー本文として使う文字列を返す
func (e ErrorReport) Body() string {
	return strings.Join(e, "\n")
}
