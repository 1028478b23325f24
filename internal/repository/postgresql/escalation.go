package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const escalationColumns = `notification_id, user_id, escalate_at, status, attempts, claimed_at, updated_at`

type escalationRepository struct {
	db *database.DB
}

// NewEscalationRepository creates a PostgreSQL-backed escalation timer store
func NewEscalationRepository(db *database.DB) notification.EscalationRepository {
	return &escalationRepository{db: db}
}

func (r *escalationRepository) Get(ctx context.Context, notificationID string) (*notification.Escalation, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + escalationColumns + ` FROM notification_escalations WHERE notification_id = $1`

	e, err := scanEscalation(q.QueryRow(ctx, query, notificationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrEscalationNotFound
		}
		return nil, fmt.Errorf("failed to get escalation: %w", err)
	}
	return e, nil
}

// Arm inserts the timer or re-arms an existing one with a new deadline
func (r *escalationRepository) Arm(ctx context.Context, e *notification.Escalation) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO notification_escalations (notification_id, user_id, escalate_at, status, attempts, claimed_at, updated_at)
		VALUES ($1, $2, $3, 'armed', 0, NULL, NOW())
		ON CONFLICT (notification_id) DO UPDATE SET
			escalate_at = EXCLUDED.escalate_at,
			status      = 'armed',
			attempts    = 0,
			claimed_at  = NULL,
			updated_at  = NOW()
	`

	if _, err := q.Exec(ctx, query, e.NotificationID, e.UserID, e.EscalateAt); err != nil {
		return fmt.Errorf("failed to arm escalation: %w", err)
	}
	return nil
}

// Disarm cancels pending timers. Fired and already disarmed timers are left alone.
func (r *escalationRepository) Disarm(ctx context.Context, notificationIDs ...string) (int, error) {
	if len(notificationIDs) == 0 {
		return 0, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notification_escalations
		SET status = 'disarmed', claimed_at = NULL, updated_at = NOW()
		WHERE notification_id = ANY($1) AND status IN ('armed', 'firing')
	`

	result, err := q.Exec(ctx, query, notificationIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to disarm escalations: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// ClaimDue leases due timers to this instance. SKIP LOCKED lets several
// instances sweep concurrently without claiming the same row twice; a
// firing row whose lease expired is claimed again.
func (r *escalationRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*notification.Escalation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notification_escalations e
		SET status = 'firing', claimed_at = $1, attempts = e.attempts + 1, updated_at = $1
		WHERE e.notification_id IN (
			SELECT notification_id
			FROM notification_escalations
			WHERE escalate_at <= $1
			  AND (status = 'armed' OR (status = 'firing' AND claimed_at <= $2))
			ORDER BY escalate_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + escalationColumns

	rows, err := q.Query(ctx, query, now, now.Add(-lease), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim escalations: %w", err)
	}
	defer rows.Close()

	var due []*notification.Escalation
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		due = append(due, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to claim escalations: %w", err)
	}
	return due, nil
}

// Complete moves a firing timer to its final status
func (r *escalationRepository) Complete(ctx context.Context, notificationID string, status notification.EscalationStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE notification_escalations
		SET status = $2, claimed_at = NULL, updated_at = NOW()
		WHERE notification_id = $1 AND status = 'firing'
	`

	if _, err := q.Exec(ctx, query, notificationID, string(status)); err != nil {
		return fmt.Errorf("failed to complete escalation: %w", err)
	}
	return nil
}

func scanEscalation(row pgx.Row) (*notification.Escalation, error) {
	var e notification.Escalation
	var status string

	if err := row.Scan(
		&e.NotificationID,
		&e.UserID,
		&e.EscalateAt,
		&status,
		&e.Attempts,
		&e.ClaimedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Status = notification.EscalationStatus(status)
	return &e, nil
}
