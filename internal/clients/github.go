package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/pyama86/gpt-bot/internal/models"
	"github.com/pyama86/gpt-bot/internal/services"
)

// GitHub API error definitions
var (
	ErrGitHubRateLimited    = errors.New("rate limited by GitHub API")
	ErrGitHubAuthentication = errors.New("GitHub authentication failed")
	ErrGitHubAPIError       = errors.New("GitHub API error")
)

// DefaultGitHubAPI is used when no base URL is configured
const DefaultGitHubAPI = "https://api.github.com"

const perPage = 100

// GitHubClient provides the repository access the comment pipeline needs
type GitHubClient struct {
	client *github.Client
}

// NewGitHubClient creates a client authorized with credential against
// baseURL. A nil base transport means http.DefaultTransport.
func NewGitHubClient(credential Credential, baseURL string, base http.RoundTripper) (*GitHubClient, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: credential.Token,
		TokenType:   credential.Type,
	})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: base},
		Timeout:   30 * time.Second,
	}

	client := github.NewClient(httpClient)
	if baseURL != "" {
		u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		client.BaseURL = u
	}
	return &GitHubClient{client: client}, nil
}

// GetIssue fetches an issue or pull request by number
func (c *GitHubClient) GetIssue(ctx context.Context, repo models.Repository, number int) (*services.Issue, error) {
	issue, _, err := c.client.Issues.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return nil, mapGitHubError(err)
	}
	return &services.Issue{Number: issue.GetNumber(), Body: issue.GetBody()}, nil
}

// ListIssueComments returns every comment of an issue in creation order
func (c *GitHubClient) ListIssueComments(ctx context.Context, repo models.Repository, number int) ([]services.IssueComment, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: perPage}}

	var all []services.IssueComment
	for {
		comments, resp, err := c.client.Issues.ListComments(ctx, repo.Owner, repo.Name, number, opts)
		if err != nil {
			return nil, mapGitHubError(err)
		}
		for _, comment := range comments {
			all = append(all, services.IssueComment{
				Author: comment.GetUser().GetLogin(),
				Body:   comment.GetBody(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// ListPullRequestFiles follows the pull request API URL from the webhook
// payload and returns every changed file across all pages.
func (c *GitHubClient) ListPullRequestFiles(ctx context.Context, pullRequestURL string) ([]services.PullRequestFile, error) {
	var all []services.PullRequestFile
	page := 1
	for {
		reqURL := fmt.Sprintf("%s/files?per_page=%d&page=%d", strings.TrimRight(pullRequestURL, "/"), perPage, page)
		req, err := c.client.NewRequest(http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		var files []*github.CommitFile
		resp, err := c.client.Do(ctx, req, &files)
		if err != nil {
			return nil, mapGitHubError(err)
		}
		for _, f := range files {
			all = append(all, services.PullRequestFile{
				Filename: f.GetFilename(),
				Patch:    f.GetPatch(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}
	return all, nil
}

// CreateComment posts a new comment on an issue or pull request
func (c *GitHubClient) CreateComment(ctx context.Context, repo models.Repository, number int, body string) error {
	_, _, err := c.client.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	return mapGitHubError(err)
}

// EditIssueBody replaces the description of an issue
func (c *GitHubClient) EditIssueBody(ctx context.Context, repo models.Repository, number int, body string) error {
	_, _, err := c.client.Issues.Edit(ctx, repo.Owner, repo.Name, number, &github.IssueRequest{
		Body: github.Ptr(body),
	})
	return mapGitHubError(err)
}

// mapGitHubError converts go-github errors into the package sentinels
func mapGitHubError(err error) error {
	if err == nil {
		return nil
	}

	var rateLimit *github.RateLimitError
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &rateLimit) || errors.As(err, &abuse) {
		return fmt.Errorf("%w: %w", ErrGitHubRateLimited, err)
	}

	var resp *github.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil {
		switch resp.Response.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ErrGitHubAuthentication, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ErrGitHubRateLimited, err)
		}
		return fmt.Errorf("%w: %d: %w", ErrGitHubAPIError, resp.Response.StatusCode, err)
	}
	return err
}
