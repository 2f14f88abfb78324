package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pyama86/gpt-bot/internal/config"
	"github.com/pyama86/gpt-bot/internal/models"
)

// Fetcher retrieves the raw text a command works on
type Fetcher struct {
	mention        string
	commentTrigger *regexp.Regexp
}

// NewFetcher creates a fetcher for the given vocabulary
func NewFetcher(triggers config.Triggers) *Fetcher {
	return &Fetcher{
		mention:        triggers.Mention,
		commentTrigger: triggerPattern(triggers.Mention, triggers.Comment),
	}
}

// Fetch returns the content for cmd. It performs no retries; every GitHub
// failure is reported as ErrUpstreamUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, gh GitHub, cmd models.Command, event models.WebhookEvent) (models.ContentBlob, error) {
	switch {
	case cmd.Kind == models.CommandComment:
		return f.fetchComment(event), nil
	case cmd.IsPullRequest():
		return f.fetchPullRequest(ctx, gh, event)
	case cmd.Kind == models.CommandSummary:
		return f.fetchThread(ctx, gh, event)
	default:
		return models.ContentBlob{}, fmt.Errorf("nothing to fetch for command %s", cmd)
	}
}

func (f *Fetcher) fetchComment(event models.WebhookEvent) models.ContentBlob {
	text := f.commentTrigger.ReplaceAllString(event.Comment.Body, "")
	return models.ContentBlob{
		Kind: models.ContentIssueComment,
		Text: strings.TrimSpace(text),
	}
}

func (f *Fetcher) fetchPullRequest(ctx context.Context, gh GitHub, event models.WebhookEvent) (models.ContentBlob, error) {
	if !event.Issue.IsPullRequest() {
		return models.ContentBlob{}, fmt.Errorf("issue #%d is not a pull request", event.Issue.Number)
	}

	files, err := gh.ListPullRequestFiles(ctx, event.Issue.PullRequest.URL)
	if err != nil {
		return models.ContentBlob{}, fmt.Errorf("%w: list pull request files: %w", ErrUpstreamUnavailable, err)
	}

	var b strings.Builder
	var kept []PullRequestFile
	for _, file := range files {
		if file.Filename == "" || file.Patch == "" {
			continue
		}
		kept = append(kept, file)
		fmt.Fprintf(&b, "### %s\n```diff\n%s\n```\n", file.Filename, file.Patch)
	}

	return models.ContentBlob{
		Kind:  models.ContentPullRequest,
		Text:  b.String(),
		Stats: ComputeDiffStats(kept),
	}, nil
}

// fetchThread renders the issue body up to the summary section followed by
// the discussion. Comments addressed to the bot and the bot's own output
// are left out.
func (f *Fetcher) fetchThread(ctx context.Context, gh GitHub, event models.WebhookEvent) (models.ContentBlob, error) {
	issue, err := gh.GetIssue(ctx, event.Repository, event.Issue.Number)
	if err != nil {
		return models.ContentBlob{}, fmt.Errorf("%w: get issue: %w", ErrUpstreamUnavailable, err)
	}
	comments, err := gh.ListIssueComments(ctx, event.Repository, event.Issue.Number)
	if err != nil {
		return models.ContentBlob{}, fmt.Errorf("%w: list issue comments: %w", ErrUpstreamUnavailable, err)
	}

	var b strings.Builder
	body := issue.Body
	if i := strings.Index(body, SummaryStartMarker); i >= 0 {
		body = body[:i]
	}
	if body = strings.TrimSpace(body); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	for _, c := range comments {
		if strings.Contains(c.Body, f.mention) || IsBotOutput(c.Body) {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", c.Author, c.Body)
	}

	return models.ContentBlob{
		Kind: models.ContentIssueThread,
		Text: b.String(),
	}, nil
}
