// Package handlers provides the HTTP handler for GitHub webhook deliveries.
// This includes signature validation, payload extraction and mapping
// pipeline outcomes onto HTTP responses.
package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/google/uuid"

	"github.com/pyama86/gpt-bot/internal/logging"
	"github.com/pyama86/gpt-bot/internal/models"
	"github.com/pyama86/gpt-bot/internal/orchestrator"
)

// MaxPayloadSize matches the largest body GitHub sends for a delivery
const MaxPayloadSize = 25 << 20

// Pipeline runs one issue_comment delivery
type Pipeline interface {
	Process(ctx context.Context, event models.WebhookEvent) (orchestrator.Result, error)
}

// DeliveryLog records deliveries so redeliveries of a handled event are not
// run twice
type DeliveryLog interface {
	CheckDeliveryProcessed(ctx context.Context, deliveryID string) (bool, error)
	RecordDelivery(ctx context.Context, rec models.DeliveryRecord) error
}

// WebhookResponse is the JSON response for webhook requests
type WebhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Command string `json:"command,omitempty"`
	Tokens  int    `json:"tokens,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// WebhookHandler handles GitHub webhook requests
type WebhookHandler struct {
	secret     string
	pipeline   Pipeline
	deliveries DeliveryLog // optional
	timeout    time.Duration
	logger     *slog.Logger
}

// NewWebhookHandler creates a new webhook handler with the given secret
func NewWebhookHandler(secret string, pipeline Pipeline, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		secret:   secret,
		pipeline: pipeline,
		logger:   logger,
	}
}

// WithDeliveryLog enables duplicate suppression and delivery recording
func (h *WebhookHandler) WithDeliveryLog(log DeliveryLog) *WebhookHandler {
	h.deliveries = log
	return h
}

// WithTimeout bounds the time spent in the pipeline for one delivery
func (h *WebhookHandler) WithTimeout(d time.Duration) *WebhookHandler {
	h.timeout = d
	return h
}

// ServeHTTP implements http.Handler
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxPayloadSize))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	deliveryID := r.Header.Get("X-GitHub-Delivery")
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	ctx := logging.WithRequestID(r.Context(), deliveryID)
	logger := logging.FromContext(ctx, h.logger)

	// Signature failures are never recorded so unsigned traffic cannot fill
	// the delivery log.
	signature := r.Header.Get("X-Hub-Signature-256")
	if signature == "" {
		logger.Warn("webhook rejected", "reason", "missing signature")
		h.writeError(w, http.StatusUnauthorized, "missing signature")
		return
	}
	if !h.validateSignature(body, signature) {
		logger.Warn("webhook rejected", "reason", "invalid signature")
		h.writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	switch eventType {
	case "ping":
		h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "ok", Message: "pong"})
	case "issue_comment":
		h.handleIssueComment(ctx, logger, w, deliveryID, body)
	default:
		// Unknown event type - acknowledge but ignore
		logger.Debug("event acknowledged", "event", eventType)
		h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "ok", Message: "event acknowledged"})
	}
}

func (h *WebhookHandler) handleIssueComment(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, deliveryID string, body []byte) {
	rec := models.DeliveryRecord{
		DeliveryID: deliveryID,
		EventType:  "issue_comment",
		Payload:    body,
	}

	if h.deliveries != nil {
		processed, err := h.deliveries.CheckDeliveryProcessed(ctx, deliveryID)
		if err != nil {
			// the log is best effort; run the delivery anyway
			logger.Warn("delivery lookup failed", "error", err)
		} else if processed {
			logger.Info("duplicate delivery skipped")
			h.writeJSON(w, http.StatusOK, WebhookResponse{Status: "ok", Message: "duplicate delivery"})
			return
		}
	}

	event, err := ExtractIssueCommentEvent(body, deliveryID)
	if err != nil {
		logger.Warn("invalid issue_comment payload", "error", err)
		rec.StatusCode = http.StatusBadRequest
		rec.ErrorMessage = err.Error()
		h.record(ctx, logger, rec)
		h.writeError(w, http.StatusBadRequest, "invalid issue_comment payload")
		return
	}
	rec.Repository = event.Repository.FullName
	rec.IssueNumber = event.Issue.Number

	pipelineCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		pipelineCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	res, err := h.pipeline.Process(pipelineCtx, event)
	status, message := outcomeResponse(res, err)

	rec.Command = res.Command.String()
	rec.Outcome = string(res.Outcome)
	rec.Tokens = res.Tokens
	rec.StatusCode = status
	if err != nil {
		rec.ErrorMessage = err.Error()
	}
	h.record(ctx, logger, rec)

	if status >= 400 {
		h.writeError(w, status, message)
		return
	}
	h.writeJSON(w, status, WebhookResponse{
		Status:  "ok",
		Message: message,
		Command: res.Command.String(),
		Tokens:  res.Tokens,
	})
}

// outcomeResponse maps a pipeline result onto the HTTP status and message
// returned to GitHub
func outcomeResponse(res orchestrator.Result, err error) (int, string) {
	if err != nil {
		return http.StatusInternalServerError, "failed to process comment"
	}
	switch res.Outcome {
	case orchestrator.OutcomeRejected:
		return http.StatusBadRequest, "unsupported command"
	case orchestrator.OutcomeIgnored:
		return http.StatusOK, "comment ignored"
	case orchestrator.OutcomeEmptyContent:
		return http.StatusOK, "no reviewable differences"
	case orchestrator.OutcomeTooLarge:
		return http.StatusOK, "content too large"
	case orchestrator.OutcomeFailed:
		return http.StatusInternalServerError, "failed to process comment"
	default:
		return http.StatusOK, "comment processed"
	}
}

// record stores rec in the delivery log. The response does not depend on
// it, and it outlives the pipeline deadline.
func (h *WebhookHandler) record(ctx context.Context, logger *slog.Logger, rec models.DeliveryRecord) {
	if h.deliveries == nil {
		return
	}
	if err := h.deliveries.RecordDelivery(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("failed to record delivery", "error", err)
	}
}

// validateSignature verifies the HMAC signature from GitHub
func (h *WebhookHandler) validateSignature(payload []byte, signature string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}

// ExtractIssueCommentEvent parses an issue_comment payload into the
// immutable event the pipeline consumes
func ExtractIssueCommentEvent(payload []byte, deliveryID string) (models.WebhookEvent, error) {
	parsed, err := github.ParseWebHook("issue_comment", payload)
	if err != nil {
		return models.WebhookEvent{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	ev, ok := parsed.(*github.IssueCommentEvent)
	if !ok {
		return models.WebhookEvent{}, errors.New("payload is not an issue_comment event")
	}

	repo := ev.GetRepo()
	event := models.WebhookEvent{
		DeliveryID: deliveryID,
		Action:     ev.GetAction(),
		Comment: models.Comment{
			Body:   ev.GetComment().GetBody(),
			Author: ev.GetComment().GetUser().GetLogin(),
		},
		PreviousBody: ev.GetChanges().GetBody().GetFrom(),
		Repository: models.Repository{
			Owner:    repo.GetOwner().GetLogin(),
			Name:     repo.GetName(),
			FullName: repo.GetFullName(),
		},
		Issue: models.IssueRef{
			Number: ev.GetIssue().GetNumber(),
		},
		InstallationID: ev.GetInstallation().GetID(),
	}
	if links := ev.GetIssue().GetPullRequestLinks(); links != nil {
		event.Issue.PullRequest = &models.PullRequestRef{URL: links.GetURL()}
	}
	if event.Repository.FullName == "" && event.Repository.Owner != "" {
		event.Repository.FullName = event.Repository.Owner + "/" + event.Repository.Name
	}

	if event.Repository.Owner == "" || event.Repository.Name == "" {
		return models.WebhookEvent{}, errors.New("payload has no repository")
	}
	if event.Issue.Number <= 0 {
		return models.WebhookEvent{}, errors.New("payload has no issue number")
	}
	return event, nil
}

func (h *WebhookHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}
