package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"ticket-review-gate/models"
)

// ErrMissingConfig は必須の設定が足りないときのエラー
var ErrMissingConfig = errors.New("missing configuration")

// Config は環境変数 (または GitHub Actions の input) から読み込む設定
type Config struct {
	RepoToken    string `env:"REPO_TOKEN, required"`
	GitHubAPIURL string `env:"GITHUB_API_URL"`
	BotLogin     string `env:"BOT_LOGIN, default=github-actions[bot]"`

	TicketPrefixes []string `env:"TICKET_PREFIXES, default=MOFAB,IO"`

	TitleMatchesBranch bool `env:"TITLE_MATCHES_BRANCH, default=false"`
	ValidateWithJira   bool `env:"VALIDATE_WITH_JIRA, default=false"`
	FailOnDoneStatus   bool `env:"FAIL_ON_DONE_STATUS, default=false"`

	JiraHost  string `env:"JIRA_HOST"`
	JiraUser  string `env:"JIRA_USER"`
	JiraToken string `env:"JIRA_TOKEN"`

	DismissMessage string `env:"DISMISS_MESSAGE, default=PR title & branch is now ISAE compliant!"`

	SlackBotToken string `env:"SLACK_BOT_TOKEN"`
	SlackChannel  string `env:"SLACK_CHANNEL"`

	EventPath     string `env:"GITHUB_EVENT_PATH"`
	WebhookSecret string `env:"GITHUB_WEBHOOK_SECRET"`
	Port          int    `env:"PORT, default=8080"`
}

// ValidationConfig は検証フラグだけを取り出す
func (c *Config) ValidationConfig() models.ValidationConfig {
	return models.ValidationConfig{
		TitleMatchesBranch:  c.TitleMatchesBranch,
		ValidateWithTracker: c.ValidateWithJira,
		FailOnDoneStatus:    c.FailOnDoneStatus,
	}
}

// SlackEnabled は Slack 通知の設定があるか
func (c *Config) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannel != ""
}

// Validate は組み合わせで必須になる設定をチェックする
func (c *Config) Validate() error {
	if !c.ValidateWithJira {
		return nil
	}

	var missing []string
	if c.JiraHost == "" {
		missing = append(missing, "JIRA_HOST")
	}
	if c.JiraUser == "" {
		missing = append(missing, "JIRA_USER")
	}
	if c.JiraToken == "" {
		missing = append(missing, "JIRA_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required when VALIDATE_WITH_JIRA is enabled", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// ActionLookuper は通常の環境変数に加えて GitHub Actions の input (INPUT_REPO-TOKEN など) も探す
func ActionLookuper(base envconfig.Lookuper) envconfig.Lookuper {
	return &actionLookuper{base: base}
}

type actionLookuper struct {
	base envconfig.Lookuper
}

// 空文字の input は未指定として扱い、default を効かせる
func (l *actionLookuper) Lookup(key string) (string, bool) {
	if v, ok := l.base.Lookup(key); ok && v != "" {
		return v, true
	}
	if v, ok := l.base.Lookup("INPUT_" + strings.ReplaceAll(key, "_", "-")); ok && v != "" {
		return v, true
	}
	return "", false
}

// LoadConfig は lookuper から設定を読み込んで検証する
func LoadConfig(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: ActionLookuper(lookuper),
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
