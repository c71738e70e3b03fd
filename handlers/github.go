package handlers

import (
	"fmt"
	"os"

	"github.com/google/go-github/v71/github"

	"ticket-review-gate/models"
)

// LoadEventFile は GitHub Actions の GITHUB_EVENT_PATH に置かれた pull_request イベントを読み込む
func LoadEventFile(path string) (models.Request, error) {
	if path == "" {
		return models.Request{}, fmt.Errorf("event path is empty")
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return models.Request{}, fmt.Errorf("reading event file: %w", err)
	}

	event, err := github.ParseWebHook("pull_request", payload)
	if err != nil {
		return models.Request{}, fmt.Errorf("parsing event file: %w", err)
	}
	e, ok := event.(*github.PullRequestEvent)
	if !ok {
		return models.Request{}, fmt.Errorf("unexpected event type %T", event)
	}

	return RequestFromEvent(e)
}

// RequestFromEvent は pull_request イベントから Request を組み立てる
func RequestFromEvent(e *github.PullRequestEvent) (models.Request, error) {
	if e.PullRequest == nil || e.Repo == nil {
		return models.Request{}, fmt.Errorf("event has no pull request")
	}

	pr := e.PullRequest
	repo := e.Repo
	return models.Request{
		Owner:  repo.GetOwner().GetLogin(),
		Repo:   repo.GetName(),
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Branch: pr.GetHead().GetRef(),
	}, nil
}
