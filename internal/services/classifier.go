package services

import (
	"regexp"
	"strings"

	"github.com/pyama86/gpt-bot/internal/config"
	"github.com/pyama86/gpt-bot/internal/models"
)

// triggerSeparator allows ordinary and ideographic spaces between the
// mention and a command suffix.
const triggerSeparator = `[\s\p{Zs}]+`

// triggerPattern matches "<mention><space><suffix>" literally
func triggerPattern(mention, suffix string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(mention) + triggerSeparator + regexp.QuoteMeta(suffix))
}

// rule inspects an event and returns a command when it applies
type rule func(c *Classifier, event models.WebhookEvent) (models.Command, bool)

// Classifier selects exactly one command per comment. Rules are evaluated in
// order and the first match wins.
type Classifier struct {
	triggers            config.Triggers
	skipEditedRetrigger bool
	rules               []rule

	summary     *regexp.Regexp
	comment     *regexp.Regexp
	pullRequest *regexp.Regexp
	custom      *regexp.Regexp
	unitTest    *regexp.Regexp
}

// ClassifierOption configures a Classifier
type ClassifierOption func(*Classifier)

// WithSkipEditedRetrigger controls whether an edit of a comment that already
// mentioned the bot is ignored. Enabled by default.
func WithSkipEditedRetrigger(skip bool) ClassifierOption {
	return func(c *Classifier) {
		c.skipEditedRetrigger = skip
	}
}

// NewClassifier creates a classifier for the given vocabulary
func NewClassifier(triggers config.Triggers, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		triggers:            triggers,
		skipEditedRetrigger: true,
		summary:             triggerPattern(triggers.Mention, triggers.Summary),
		comment:             triggerPattern(triggers.Mention, triggers.Comment),
		pullRequest:         triggerPattern(triggers.Mention, triggers.PullRequest),
		custom: regexp.MustCompile(regexp.QuoteMeta(triggers.Mention) + triggerSeparator +
			regexp.QuoteMeta(triggers.Custom) + `(?s)(.*)`),
		unitTest: triggerPattern(triggers.Mention, triggers.UnitTest),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.rules = []rule{
		editedRetriggerRule,
		summaryRule,
		commentRule,
		pullRequestRule,
	}
	return c
}

// Classify returns the command a comment invokes. Comments matching no rule
// are CommandUnsupported.
func (c *Classifier) Classify(event models.WebhookEvent) models.Command {
	if event.Action != models.ActionCreated && event.Action != models.ActionEdited {
		return models.Command{Kind: models.CommandUnsupported}
	}

	for _, r := range c.rules {
		if cmd, ok := r(c, event); ok {
			return cmd
		}
	}
	return models.Command{Kind: models.CommandUnsupported}
}

// editedRetriggerRule ignores edits of comments that were already directed
// at the bot, so every edit does not trigger another run.
func editedRetriggerRule(c *Classifier, event models.WebhookEvent) (models.Command, bool) {
	if !c.skipEditedRetrigger || event.Action != models.ActionEdited {
		return models.Command{}, false
	}
	if strings.Contains(event.PreviousBody, c.triggers.Mention) {
		return models.Command{Kind: models.CommandIgnored}, true
	}
	return models.Command{}, false
}

// summaryRule applies to issues and pull requests alike
func summaryRule(c *Classifier, event models.WebhookEvent) (models.Command, bool) {
	if c.summary.MatchString(event.Comment.Body) {
		return models.Command{Kind: models.CommandSummary}, true
	}
	return models.Command{}, false
}

func commentRule(c *Classifier, event models.WebhookEvent) (models.Command, bool) {
	if event.Issue.IsPullRequest() {
		return models.Command{}, false
	}
	if c.comment.MatchString(event.Comment.Body) {
		return models.Command{Kind: models.CommandComment}, true
	}
	return models.Command{}, false
}

// pullRequestRule picks the sub-command on a pull request. A bare mention
// means a review.
func pullRequestRule(c *Classifier, event models.WebhookEvent) (models.Command, bool) {
	body := event.Comment.Body
	if !event.Issue.IsPullRequest() || !strings.Contains(body, c.triggers.Mention) {
		return models.Command{}, false
	}

	if c.pullRequest.MatchString(body) {
		return models.Command{Kind: models.CommandPullRequestReview}, true
	}
	if m := c.custom.FindStringSubmatch(body); m != nil {
		instructions := strings.TrimSpace(m[1])
		if instructions == "" {
			return models.Command{Kind: models.CommandPullRequestReview}, true
		}
		return models.Command{Kind: models.CommandPullRequestCustom, Instructions: instructions}, true
	}
	if c.unitTest.MatchString(body) {
		return models.Command{Kind: models.CommandPullRequestUnitTest}, true
	}
	return models.Command{Kind: models.CommandPullRequestReview}, true
}
