package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/andygrunwald/go-jira"
	"github.com/chainguard-dev/clog"

	"ticket-review-gate/models"
)

const jiraStatusCategoryDone = "done"

// Tracker はチケット ID の存在とステータスを照会する
type Tracker interface {
	Lookup(ctx context.Context, id string) (models.TrackerStatus, error)
}

// JiraTracker は Jira REST API を使う Tracker
type JiraTracker struct {
	client *jira.Client
}

// NewJiraTracker は Basic 認証 (ユーザー + API トークン) の Jira クライアントを作成する関数
func NewJiraTracker(host, user, token string) (*JiraTracker, error) {
	if host == "" {
		return nil, fmt.Errorf("jira host is empty")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	tp := jira.BasicAuthTransport{
		Username: user,
		Password: token,
	}
	client, err := jira.NewClient(tp.Client(), host)
	if err != nil {
		return nil, fmt.Errorf("creating jira client: %w", err)
	}
	return &JiraTracker{client: client}, nil
}

// Lookup はチケットを1件取得する。404 は NotFound として扱い、それ以外の失敗はエラーを返す
func (t *JiraTracker) Lookup(ctx context.Context, id string) (models.TrackerStatus, error) {
	issue, resp, err := t.client.Issue.GetWithContext(ctx, id, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			clog.InfoContextf(ctx, "jira issue %s not found", id)
			return models.TrackerStatusNotFound, nil
		}
		return 0, fmt.Errorf("fetching jira issue %s: %w", id, err)
	}

	if issue == nil || issue.Fields == nil || issue.Fields.Status == nil {
		return 0, fmt.Errorf("jira issue %s: response has no status", id)
	}

	category := issue.Fields.Status.StatusCategory.Key
	clog.InfoContextf(ctx, "jira issue %s has status category %q", id, category)

	if category == jiraStatusCategoryDone {
		return models.TrackerStatusDone, nil
	}
	return models.TrackerStatusOpen, nil
}
