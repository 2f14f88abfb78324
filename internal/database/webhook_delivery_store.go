package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pyama86/gpt-bot/internal/models"
)

// MaxStoredPayload is the largest webhook body kept in the log. Bigger
// payloads are recorded without a body.
const MaxStoredPayload = 64 * 1024

// WebhookDelivery is one row of the delivery log
type WebhookDelivery struct {
	ID           string          `json:"id"`
	DeliveryID   string          `json:"delivery_id"` // X-GitHub-Delivery header for idempotency
	EventType    string          `json:"event_type"`
	Repository   string          `json:"repository"`
	IssueNumber  int             `json:"issue_number"`
	Command      string          `json:"command"`
	Outcome      string          `json:"outcome"`
	Tokens       int             `json:"tokens"`
	StatusCode   int             `json:"status_code"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Attempts     int             `json:"attempts"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsSuccess returns true if the delivery was successful (2xx status code)
func (d *WebhookDelivery) IsSuccess() bool {
	return d.StatusCode >= 200 && d.StatusCode < 300
}

// WebhookDeliveryStore handles webhook delivery persistence
type WebhookDeliveryStore struct {
	db DBTX
}

// NewWebhookDeliveryStore creates a new webhook delivery store
func NewWebhookDeliveryStore(pool *Pool) *WebhookDeliveryStore {
	return &WebhookDeliveryStore{db: pool}
}

// NewWebhookDeliveryStoreWithDB creates a webhook delivery store with a custom DBTX implementation.
// This is primarily used for testing with pgxmock.
func NewWebhookDeliveryStoreWithDB(db DBTX) *WebhookDeliveryStore {
	return &WebhookDeliveryStore{db: db}
}

const deliveryColumnList = `id, delivery_id, event_type, repository, issue_number, command, outcome, tokens, status_code, error_message, payload, attempts, created_at, updated_at`

// CheckDeliveryProcessed reports whether deliveryID was already answered
// with a 2xx status. Failed attempts do not count, so GitHub redeliveries
// of them run again.
func (s *WebhookDeliveryStore) CheckDeliveryProcessed(ctx context.Context, deliveryID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM webhook_deliveries WHERE delivery_id = $1 AND status_code BETWEEN 200 AND 299)`,
		deliveryID,
	).Scan(&exists)
	return exists, err
}

// RecordDelivery stores the outcome of a delivery. A redelivery overwrites
// the previous attempt and bumps the attempt counter.
func (s *WebhookDeliveryStore) RecordDelivery(ctx context.Context, rec models.DeliveryRecord) error {
	var errorMessage *string
	if rec.ErrorMessage != "" {
		errorMessage = &rec.ErrorMessage
	}
	var payload json.RawMessage
	if len(rec.Payload) > 0 && len(rec.Payload) <= MaxStoredPayload && json.Valid(rec.Payload) {
		payload = rec.Payload
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO webhook_deliveries (delivery_id, event_type, repository, issue_number, command, outcome, tokens, status_code, error_message, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (delivery_id) DO UPDATE SET
		   command = EXCLUDED.command,
		   outcome = EXCLUDED.outcome,
		   tokens = EXCLUDED.tokens,
		   status_code = EXCLUDED.status_code,
		   error_message = EXCLUDED.error_message,
		   attempts = webhook_deliveries.attempts + 1,
		   updated_at = NOW()`,
		rec.DeliveryID, rec.EventType, rec.Repository, rec.IssueNumber, rec.Command, rec.Outcome,
		rec.Tokens, rec.StatusCode, errorMessage, payload,
	)
	return err
}

// GetDelivery retrieves a delivery by its X-GitHub-Delivery ID
func (s *WebhookDeliveryStore) GetDelivery(ctx context.Context, deliveryID string) (*WebhookDelivery, error) {
	var d WebhookDelivery
	err := s.db.QueryRow(ctx,
		`SELECT `+deliveryColumnList+` FROM webhook_deliveries WHERE delivery_id = $1`,
		deliveryID,
	).Scan(&d.ID, &d.DeliveryID, &d.EventType, &d.Repository, &d.IssueNumber, &d.Command, &d.Outcome,
		&d.Tokens, &d.StatusCode, &d.ErrorMessage, &d.Payload, &d.Attempts, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListRecentDeliveries returns the newest deliveries first
func (s *WebhookDeliveryStore) ListRecentDeliveries(ctx context.Context, limit int) ([]*WebhookDelivery, error) {
	if limit <= 0 {
		limit = 20 // Default limit
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+deliveryColumnList+`
		 FROM webhook_deliveries
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*WebhookDelivery
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.DeliveryID, &d.EventType, &d.Repository, &d.IssueNumber, &d.Command, &d.Outcome,
			&d.Tokens, &d.StatusCode, &d.ErrorMessage, &d.Payload, &d.Attempts, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return deliveries, nil
}

// DeleteOldDeliveries removes deliveries older than olderThan and returns
// how many were deleted
func (s *WebhookDeliveryStore) DeleteOldDeliveries(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := s.db.Exec(ctx,
		`DELETE FROM webhook_deliveries WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
