package services

import (
	"fmt"
	"regexp"
	"strings"

	"ticket-review-gate/models"
)

// DefaultTicketPrefixes はチケット ID として許可するプロジェクトキー
var DefaultTicketPrefixes = []string{"MOFAB", "IO"}

var prefixRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// PatternRule はチケット参照を探す正規表現と、チケット ID のキャプチャグループ
type PatternRule struct {
	Regexp *regexp.Regexp
	Group  int
}

// NewPatternRule は正規表現をコンパイルする。キャプチャグループはちょうど1つでなければならない
func NewPatternRule(expr string) (PatternRule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return PatternRule{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	if re.NumSubexp() != 1 {
		return PatternRule{}, fmt.Errorf("pattern %q must have exactly one capturing group, got %d", expr, re.NumSubexp())
	}
	return PatternRule{Regexp: re, Group: 1}, nil
}

// PatternRules はタイトル用とブランチ用のルールの組
type PatternRules struct {
	Title    PatternRule
	Branch   PatternRule
	Prefixes []string
}

// NewPatternRules は許可されたプレフィックスからタイトル・ブランチのルールを作る
//
//	title:  ^\[?((?:MOFAB|IO)-\d+)\]?        例: "[IO-42] add retries", "io-42 add retries"
//	branch: ^[^/]+/((?:MOFAB|IO)-\d+)-       例: "team/io-42-add-retries"
func NewPatternRules(prefixes []string) (*PatternRules, error) {
	if len(prefixes) == 0 {
		return nil, fmt.Errorf("at least one ticket prefix is required")
	}

	normalized := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if !prefixRegex.MatchString(p) {
			return nil, fmt.Errorf("invalid ticket prefix %q", p)
		}
		normalized = append(normalized, strings.ToUpper(p))
	}

	ticket := `((?:` + strings.Join(normalized, "|") + `)-\d+)`

	title, err := NewPatternRule(`(?i)^\[?` + ticket + `\]?`)
	if err != nil {
		return nil, err
	}
	branch, err := NewPatternRule(`(?i)^[^/]+/` + ticket + `-`)
	if err != nil {
		return nil, err
	}

	return &PatternRules{Title: title, Branch: branch, Prefixes: normalized}, nil
}

// BranchHint はエラーメッセージに表示する期待されるブランチ名の形式
func (r *PatternRules) BranchHint() string {
	return `^[^/]+/(` + strings.Join(r.Prefixes, "|") + `)-\d+-.*$`
}

// Matches は text がルールにマッチするかを返す
func Matches(rule PatternRule, text string) bool {
	return rule.Regexp.MatchString(text)
}

// Extract はマッチしたチケット ID を取り出す。マッチしなければ false
func Extract(rule PatternRule, text string) (models.TicketRef, bool) {
	m := rule.Regexp.FindStringSubmatch(text)
	if m == nil || rule.Group >= len(m) || m[rule.Group] == "" {
		return models.TicketRef{}, false
	}
	raw := m[rule.Group]
	return models.TicketRef{Raw: raw, ID: strings.ToUpper(raw)}, true
}
