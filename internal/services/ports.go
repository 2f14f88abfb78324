// Package services implements the comment pipeline for gpt-bot: command
// classification, content fetching, token budgeting, prompt rendering and
// publishing results back to GitHub.
package services

import (
	"context"
	"errors"

	"github.com/pyama86/gpt-bot/internal/models"
)

// ErrUpstreamUnavailable wraps every GitHub or completion API failure
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// Issue is the subset of a GitHub issue the pipeline reads
type Issue struct {
	Number int
	Body   string
}

// IssueComment is one prior comment in an issue thread
type IssueComment struct {
	Author string
	Body   string
}

// PullRequestFile is one entry of a pull request file listing.
// Patch is empty when GitHub omits it (binary or oversized files).
type PullRequestFile struct {
	Filename string
	Patch    string
}

// GitHub is the repository access the pipeline needs. Implementations are
// bound to one credential and are used for a single delivery.
type GitHub interface {
	GetIssue(ctx context.Context, repo models.Repository, number int) (*Issue, error)
	ListIssueComments(ctx context.Context, repo models.Repository, number int) ([]IssueComment, error)
	ListPullRequestFiles(ctx context.Context, pullRequestURL string) ([]PullRequestFile, error)
	CreateComment(ctx context.Context, repo models.Repository, number int, body string) error
	EditIssueBody(ctx context.Context, repo models.Repository, number int, body string) error
}

// Completer sends a single-message prompt to the completion model
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TokenCounter measures text in model tokens
type TokenCounter interface {
	CountTokens(text string) (int, error)
}
