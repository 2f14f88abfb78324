package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pyama86/gpt-bot/internal/config"
	"github.com/pyama86/gpt-bot/internal/models"
)

// Fixed texts posted back to GitHub
const (
	ResultHeading        = "## Suggestions from gpt-bot"
	SummaryUpdatedNotice = "The discussion summary in the issue description has been updated."
	EmptyContentNotice   = "No reviewable differences were found."
	TooLargeNotice       = "The content is too long to process."
)

// IsBotOutput reports whether a comment body is something the publisher
// posted: a formatted result or one of the fixed notices.
func IsBotOutput(body string) bool {
	body = strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(body, ResultHeading):
		return true
	case body == SummaryUpdatedNotice, body == EmptyContentNotice:
		return true
	case strings.HasPrefix(body, TooLargeNotice):
		return true
	}
	return false
}

// PublishResult describes a completed publish. Partial is set when the
// summary edit succeeded but its confirmation comment failed.
type PublishResult struct {
	Partial bool
	Warning error
}

// Publisher writes completion output back to GitHub
type Publisher struct {
	triggers []*regexp.Regexp
	mention  string
}

// NewPublisher creates a publisher that scrubs the given vocabulary from
// model output so a posted result cannot trigger the bot again.
func NewPublisher(triggers config.Triggers) *Publisher {
	patterns := make([]*regexp.Regexp, 0, len(triggers.Suffixes()))
	for _, suffix := range triggers.Suffixes() {
		patterns = append(patterns, triggerPattern(triggers.Mention, suffix))
	}
	return &Publisher{triggers: patterns, mention: triggers.Mention}
}

// Scrub removes every trigger phrase and bare mention from text
func (p *Publisher) Scrub(text string) string {
	for _, re := range p.triggers {
		text = re.ReplaceAllString(text, "")
	}
	if p.mention != "" {
		text = strings.ReplaceAll(text, p.mention, "")
	}
	return strings.TrimSpace(text)
}

// FormatResult wraps scrubbed output in the standard presentation
func (p *Publisher) FormatResult(cmd models.Command, text string) string {
	return fmt.Sprintf("%s\n\n<details open><summary>%s</summary>\n\n%s\n\n</details>\n",
		ResultHeading, cmd.Kind.Title(), p.Scrub(text))
}

// Publish writes text for cmd. Summary commands edit the issue body and
// then confirm with a comment; everything else posts a single comment.
func (p *Publisher) Publish(ctx context.Context, gh GitHub, cmd models.Command, event models.WebhookEvent, text string) (PublishResult, error) {
	if cmd.Kind == models.CommandSummary {
		return p.publishSummary(ctx, gh, event, text)
	}

	if err := gh.CreateComment(ctx, event.Repository, event.Issue.Number, p.FormatResult(cmd, text)); err != nil {
		return PublishResult{}, fmt.Errorf("%w: create comment: %w", ErrUpstreamUnavailable, err)
	}
	return PublishResult{}, nil
}

func (p *Publisher) publishSummary(ctx context.Context, gh GitHub, event models.WebhookEvent, summary string) (PublishResult, error) {
	issue, err := gh.GetIssue(ctx, event.Repository, event.Issue.Number)
	if err != nil {
		return PublishResult{}, fmt.Errorf("%w: get issue: %w", ErrUpstreamUnavailable, err)
	}

	body := ReplaceSummarySection(issue.Body, p.Scrub(summary))
	if err := gh.EditIssueBody(ctx, event.Repository, event.Issue.Number, body); err != nil {
		return PublishResult{}, fmt.Errorf("%w: edit issue body: %w", ErrUpstreamUnavailable, err)
	}

	// the edit already landed; a failed confirmation must not undo or repeat it
	if err := gh.CreateComment(ctx, event.Repository, event.Issue.Number, SummaryUpdatedNotice); err != nil {
		return PublishResult{Partial: true, Warning: fmt.Errorf("confirmation comment: %w", err)}, nil
	}
	return PublishResult{}, nil
}

// NotifyEmptyContent tells the thread there was nothing to review
func (p *Publisher) NotifyEmptyContent(ctx context.Context, gh GitHub, event models.WebhookEvent) error {
	if err := gh.CreateComment(ctx, event.Repository, event.Issue.Number, EmptyContentNotice); err != nil {
		return fmt.Errorf("%w: create comment: %w", ErrUpstreamUnavailable, err)
	}
	return nil
}

// NotifyTooLarge reports the measured token count to the thread
func (p *Publisher) NotifyTooLarge(ctx context.Context, gh GitHub, event models.WebhookEvent, tooLarge *TooLargeError) error {
	msg := fmt.Sprintf("%s Tokens: %d (limit %d)", TooLargeNotice, tooLarge.Tokens, tooLarge.Ceiling)
	if err := gh.CreateComment(ctx, event.Repository, event.Issue.Number, msg); err != nil {
		return fmt.Errorf("%w: create comment: %w", ErrUpstreamUnavailable, err)
	}
	return nil
}
