// Package orchestrator runs one webhook delivery through the comment
// pipeline: classify, fetch, size check, render, complete and publish.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pyama86/gpt-bot/internal/logging"
	"github.com/pyama86/gpt-bot/internal/models"
	"github.com/pyama86/gpt-bot/internal/services"
)

// Outcome is the terminal state of one delivery
type Outcome string

const (
	OutcomeDone         Outcome = "done"
	OutcomeRejected     Outcome = "rejected"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeEmptyContent Outcome = "empty_content"
	OutcomeTooLarge     Outcome = "too_large"
	OutcomeFailed       Outcome = "failed"
)

// Result summarizes what the pipeline did for one delivery
type Result struct {
	Command models.Command
	Outcome Outcome
	Tokens  int
	Stats   models.DiffStats
	Partial bool
}

// GitHubFactory returns a GitHub client authorized for the event's
// repository. The pipeline never sees credentials directly.
type GitHubFactory interface {
	ForEvent(ctx context.Context, event models.WebhookEvent) (services.GitHub, error)
}

// Recorder receives pipeline measurements
type Recorder interface {
	ObserveDelivery(command, outcome string)
	ObserveContentTokens(command string, tokens int)
	ObserveCompletion(command string, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDelivery(string, string)                 {}
func (nopRecorder) ObserveContentTokens(string, int)               {}
func (nopRecorder) ObserveCompletion(string, time.Duration, error) {}

// Orchestrator coordinates the full pipeline for a single comment
type Orchestrator struct {
	classifier *services.Classifier
	fetcher    *services.Fetcher
	guard      *services.TokenGuard
	renderer   *services.PromptRenderer
	completer  services.Completer
	publisher  *services.Publisher
	github     GitHubFactory
	recorder   Recorder
	logger     *slog.Logger
}

// Deps are the collaborators of an Orchestrator. Recorder and Logger are
// optional.
type Deps struct {
	Classifier *services.Classifier
	Fetcher    *services.Fetcher
	Guard      *services.TokenGuard
	Renderer   *services.PromptRenderer
	Completer  services.Completer
	Publisher  *services.Publisher
	GitHub     GitHubFactory
	Recorder   Recorder
	Logger     *slog.Logger
}

// NewOrchestrator creates an orchestrator with all required services
func NewOrchestrator(deps Deps) *Orchestrator {
	o := &Orchestrator{
		classifier: deps.Classifier,
		fetcher:    deps.Fetcher,
		guard:      deps.Guard,
		renderer:   deps.Renderer,
		completer:  deps.Completer,
		publisher:  deps.Publisher,
		github:     deps.GitHub,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Classify exposes the router without running the pipeline
func (o *Orchestrator) Classify(event models.WebhookEvent) models.Command {
	return o.classifier.Classify(event)
}

// Process runs the pipeline for event. The error is non-nil only for the
// failed outcome and then wraps services.ErrUpstreamUnavailable when an
// external call was at fault. There are no retries.
func (o *Orchestrator) Process(ctx context.Context, event models.WebhookEvent) (Result, error) {
	res, err := o.process(ctx, event)
	o.recorder.ObserveDelivery(res.Command.String(), string(res.Outcome))
	return res, err
}

func (o *Orchestrator) process(ctx context.Context, event models.WebhookEvent) (Result, error) {
	log := logging.FromContext(ctx, o.logger).With(
		"repository", event.Repository.FullName,
		"issue", event.Issue.Number,
	)

	cmd := o.classifier.Classify(event)
	res := Result{Command: cmd}
	log = log.With("command", cmd.String())

	switch cmd.Kind {
	case models.CommandUnsupported:
		log.Debug("comment does not invoke the bot", "action", event.Action)
		res.Outcome = OutcomeRejected
		return res, nil
	case models.CommandIgnored:
		log.Info("ignoring edit of an already handled comment")
		res.Outcome = OutcomeIgnored
		return res, nil
	}

	log.Info("processing comment", "author", event.Comment.Author)

	gh, err := o.github.ForEvent(ctx, event)
	if err != nil {
		return o.fail(log, res, fmt.Errorf("%w: github credentials: %w", services.ErrUpstreamUnavailable, err))
	}

	// Step 1: fetch the content the command works on
	blob, err := o.fetcher.Fetch(ctx, gh, cmd, event)
	if err != nil {
		return o.fail(log, res, fmt.Errorf("fetch content: %w", err))
	}
	res.Stats = blob.Stats

	if cmd.IsPullRequest() && blob.Empty() {
		log.Info("pull request has no reviewable patches")
		if err := o.publisher.NotifyEmptyContent(ctx, gh, event); err != nil {
			return o.fail(log, res, err)
		}
		res.Outcome = OutcomeEmptyContent
		return res, nil
	}

	// Step 2: enforce the token ceiling before anything is sent out
	tokens, err := o.guard.Check(blob.Text)
	res.Tokens = tokens
	o.recorder.ObserveContentTokens(cmd.String(), tokens)
	var tooLarge *services.TooLargeError
	if errors.As(err, &tooLarge) {
		log.Warn("content exceeds token ceiling", "tokens", tooLarge.Tokens, "ceiling", tooLarge.Ceiling)
		if err := o.publisher.NotifyTooLarge(ctx, gh, event, tooLarge); err != nil {
			return o.fail(log, res, err)
		}
		res.Outcome = OutcomeTooLarge
		return res, nil
	}
	if err != nil {
		return o.fail(log, res, err)
	}
	log.Debug("content fetched", "kind", blob.Kind, "tokens", tokens,
		"files", blob.Stats.Files, "added", blob.Stats.Added, "deleted", blob.Stats.Deleted)

	// Step 3: render the prompt
	prompt, err := o.renderer.Render(cmd, blob)
	if err != nil {
		return o.fail(log, res, err)
	}

	// Step 4: completion
	started := time.Now()
	text, err := o.completer.Complete(ctx, prompt)
	o.recorder.ObserveCompletion(cmd.String(), time.Since(started), err)
	if err != nil {
		return o.fail(log, res, fmt.Errorf("%w: completion: %w", services.ErrUpstreamUnavailable, err))
	}

	// Step 5: publish
	published, err := o.publisher.Publish(ctx, gh, cmd, event, text)
	if err != nil {
		return o.fail(log, res, err)
	}
	if published.Partial {
		log.Warn("summary updated but confirmation comment failed", "error", published.Warning)
		res.Partial = true
	}

	log.Info("comment processed", "tokens", tokens)
	res.Outcome = OutcomeDone
	return res, nil
}

func (o *Orchestrator) fail(log *slog.Logger, res Result, err error) (Result, error) {
	log.Error("pipeline failed", "error", err)
	res.Outcome = OutcomeFailed
	return res, err
}
