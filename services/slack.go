package services

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/slack-go/slack"

	"ticket-review-gate/models"
)

// SlackNotifier はレビューアクションを Slack チャンネルに投稿する
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string, options ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token, options...),
		channel: channel,
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, req models.Request, verdict models.Verdict, body string) error {
	text := formatSlackText(req, verdict, body)

	_, ts, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("posting slack message: %w", err)
	}

	clog.InfoContextf(ctx, "slack message sent: ts=%s, channel=%s", ts, s.channel)
	return nil
}

func formatSlackText(req models.Request, verdict models.Verdict, body string) string {
	prURL := fmt.Sprintf("https://github.com/%s/pull/%d", req.FullName(), req.Number)

	switch verdict {
	case models.VerdictRequestChanges:
		return fmt.Sprintf("🚫 *JIRA チケットの参照がありません*\n*タイトル*: %s\n*リンク*: <%s>\n%s", req.Title, prURL, body)
	case models.VerdictComment:
		return fmt.Sprintf("⚠️ *まだ修正が必要です*\n*タイトル*: %s\n*リンク*: <%s>\n%s", req.Title, prURL, body)
	case models.VerdictDismiss:
		return fmt.Sprintf("✅ *チケット参照が修正されました*\n*タイトル*: %s\n*リンク*: <%s>", req.Title, prURL)
	}
	return fmt.Sprintf("*タイトル*: %s\n*リンク*: <%s>", req.Title, prURL)
}
