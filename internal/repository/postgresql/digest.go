package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const digestColumns = `id, user_id, notification_id, category, frequency, title, message, due_at, enqueued_at`

type digestRepository struct {
	db *database.DB
}

// NewDigestRepository creates a PostgreSQL-backed digest queue
func NewDigestRepository(db *database.DB) notification.DigestRepository {
	return &digestRepository{db: db}
}

func (r *digestRepository) Enqueue(ctx context.Context, item *notification.DigestItem) error {
	q := GetQuerier(ctx, r.db)

	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	query := `
		INSERT INTO notification_digest_items (` + digestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		item.ID,
		item.UserID,
		item.NotificationID,
		string(item.Category),
		string(item.Frequency),
		item.Title,
		item.Message,
		item.DueAt,
		item.EnqueuedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue digest item: %w", err)
	}
	return nil
}

// ClaimDue locks every due row of up to limit users, stamps them claimed and
// returns them grouped by user. A user's window is never split across claims.
func (r *digestRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration, limit int) ([]*notification.DigestItem, error) {
	var items []*notification.DigestItem

	err := WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		query := `
			SELECT ` + digestColumns + `
			FROM notification_digest_items
			WHERE due_at <= $1 AND (claimed_at IS NULL OR claimed_at <= $2)
				AND user_id IN (
					SELECT DISTINCT user_id
					FROM notification_digest_items
					WHERE due_at <= $1 AND (claimed_at IS NULL OR claimed_at <= $2)
					ORDER BY user_id
					LIMIT $3
				)
			ORDER BY user_id, enqueued_at
			FOR UPDATE SKIP LOCKED
		`

		rows, err := q.Query(ctx, query, now, now.Add(-lease), limit)
		if err != nil {
			return fmt.Errorf("failed to query digest items: %w", err)
		}
		items, err = pgx.CollectRows(rows, scanDigestItem)
		if err != nil {
			return fmt.Errorf("failed to scan digest items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		ids := make([]string, len(items))
		for i, it := range items {
			ids[i] = it.ID
		}
		if _, err := q.Exec(ctx, `UPDATE notification_digest_items SET claimed_at = $1 WHERE id = ANY($2)`, now, ids); err != nil {
			return fmt.Errorf("failed to claim digest items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *digestRepository) Complete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM notification_digest_items WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to complete digest items: %w", err)
	}
	return nil
}

func (r *digestRepository) Release(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `UPDATE notification_digest_items SET claimed_at = NULL WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to release digest items: %w", err)
	}
	return nil
}

func scanDigestItem(row pgx.CollectableRow) (*notification.DigestItem, error) {
	var it notification.DigestItem
	var category, frequency string

	if err := row.Scan(
		&it.ID,
		&it.UserID,
		&it.NotificationID,
		&category,
		&frequency,
		&it.Title,
		&it.Message,
		&it.DueAt,
		&it.EnqueuedAt,
	); err != nil {
		return nil, err
	}
	it.Category = notification.Category(category)
	it.Frequency = notification.BatchFrequency(frequency)
	return &it, nil
}
