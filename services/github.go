package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v71/github"
	"golang.org/x/oauth2"

	"ticket-review-gate/models"
)

const defaultGitHubAPIURL = "https://api.github.com"

var prURLRegex = regexp.MustCompile(`^https://[^/]+/([^/]+)/([^/]+)/pull/(\d+)`)

// GitHubクライアントを作成する関数
func NewGitHubClient(ctx context.Context, token, apiURL string) (*github.Client, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is empty")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	// GitHub Enterprise の場合は API の URL を差し替える
	apiURL = strings.TrimSuffix(apiURL, "/")
	if apiURL == "" || apiURL == defaultGitHubAPIURL {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(apiURL, apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url %q: %w", apiURL, err)
	}
	return client, nil
}

// PRのURLからオーナー、リポジトリ名、PR番号を抽出する関数
func ParseRepoAndPRNumber(prURL string) (owner string, repo string, prNumber int, err error) {
	// https://github.com/owner/repo/pull/123 の形式を想定
	matches := prURLRegex.FindStringSubmatch(prURL)
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("invalid PR URL format: %s", prURL)
	}

	owner = matches[1]
	repo = matches[2]

	if _, err := fmt.Sscanf(matches[3], "%d", &prNumber); err != nil {
		return "", "", 0, fmt.Errorf("failed to parse PR number: %w", err)
	}

	return owner, repo, prNumber, nil
}

// GitHubReviews は go-github を使った ReviewClient
type GitHubReviews struct {
	client *github.Client
}

func NewGitHubReviews(client *github.Client) *GitHubReviews {
	return &GitHubReviews{client: client}
}

// FetchRequest は API から PR を取得して Request を組み立てる
func (g *GitHubReviews) FetchRequest(ctx context.Context, owner, repo string, number int) (models.Request, error) {
	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return models.Request{}, fmt.Errorf("fetching pull request %s/%s#%d: %w", owner, repo, number, err)
	}
	return models.Request{
		Owner:  owner,
		Repo:   repo,
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Branch: pr.GetHead().GetRef(),
	}, nil
}

// ListReviews は全ページを読み切ってからレビュー一覧を返す
func (g *GitHubReviews) ListReviews(ctx context.Context, req models.Request) ([]models.ReviewRecord, error) {
	opts := &github.ListOptions{PerPage: 100}
	var records []models.ReviewRecord

	for {
		reviews, resp, err := g.client.PullRequests.ListReviews(ctx, req.Owner, req.Repo, req.Number, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range reviews {
			records = append(records, models.ReviewRecord{
				ID:     r.GetID(),
				Author: r.GetUser().GetLogin(),
				State:  models.ReviewState(r.GetState()),
				Body:   r.GetBody(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	clog.DebugContextf(ctx, "found %d reviews on %s#%d", len(records), req.FullName(), req.Number)
	return records, nil
}

func (g *GitHubReviews) CreateReview(ctx context.Context, req models.Request, body string, event models.Verdict) error {
	_, _, err := g.client.PullRequests.CreateReview(ctx, req.Owner, req.Repo, req.Number, &github.PullRequestReviewRequest{
		Body:  github.Ptr(body),
		Event: github.Ptr(string(event)),
	})
	return err
}

func (g *GitHubReviews) DismissReview(ctx context.Context, req models.Request, reviewID int64, message string) error {
	_, _, err := g.client.PullRequests.DismissReview(ctx, req.Owner, req.Repo, req.Number, reviewID, &github.PullRequestReviewDismissalRequest{
		Message: github.Ptr(message),
	})
	return err
}
