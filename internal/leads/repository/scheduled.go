package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Scheduled message statuses.
const (
	ScheduledPending   = "pending"
	ScheduledSent      = "sent"
	ScheduledCancelled = "cancelled"
)

// ScheduledMessage is a durable outbound message planned for a future moment.
// The worker claims a row right before sending; a cancelled row is never sent.
type ScheduledMessage struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	Kind        string
	Body        string
	Status      string
	DeliverAt   time.Time
	SentAt      *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
}

// CreateScheduled records a future send and returns its id.
func (r *Repository) CreateScheduled(ctx context.Context, leadID uuid.UUID, kind, body string, deliverAt time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO scheduled_messages (lead_id, kind, body, deliver_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, leadID, kind, body, deliverAt).Scan(&id)
	return id, err
}

// GetScheduled returns the scheduled message by id, or (nil, nil) when absent.
func (r *Repository) GetScheduled(ctx context.Context, id uuid.UUID) (*ScheduledMessage, error) {
	var m ScheduledMessage
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, kind, body, status, deliver_at, sent_at, cancelled_at, created_at
		FROM scheduled_messages
		WHERE id = $1`, id).Scan(
		&m.ID, &m.LeadID, &m.Kind, &m.Body, &m.Status,
		&m.DeliverAt, &m.SentAt, &m.CancelledAt, &m.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ClaimScheduled flips a pending row to sent and reports whether this caller
// won the claim. A false return means the row was already sent or cancelled.
func (r *Repository) ClaimScheduled(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = $2, sent_at = now()
		WHERE id = $1 AND status = $3`, id, ScheduledSent, ScheduledPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CancelPendingForLead cancels every pending scheduled message for the lead
// and returns how many were cancelled.
func (r *Repository) CancelPendingForLead(ctx context.Context, leadID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_messages
		SET status = $2, cancelled_at = now()
		WHERE lead_id = $1 AND status = $3`, leadID, ScheduledCancelled, ScheduledPending)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
