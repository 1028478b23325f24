package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type contactRepository struct {
	db *database.DB
}

// NewContactRepository creates a PostgreSQL-backed contact store
func NewContactRepository(db *database.DB) notification.ContactRepository {
	return &contactRepository{db: db}
}

// Get returns an empty recipient when the user stored no contacts
func (r *contactRepository) Get(ctx context.Context, userID string) (*notification.Recipient, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, email, phone, slack_webhook_url, teams_webhook_url
		FROM notification_contacts
		WHERE user_id = $1
	`

	var rc notification.Recipient
	err := q.QueryRow(ctx, query, userID).Scan(
		&rc.UserID,
		&rc.Email,
		&rc.Phone,
		&rc.SlackWebhookURL,
		&rc.TeamsWebhookURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &notification.Recipient{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}
	return &rc, nil
}

func (r *contactRepository) Upsert(ctx context.Context, rc *notification.Recipient) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO notification_contacts (user_id, email, phone, slack_webhook_url, teams_webhook_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			email             = EXCLUDED.email,
			phone             = EXCLUDED.phone,
			slack_webhook_url = EXCLUDED.slack_webhook_url,
			teams_webhook_url = EXCLUDED.teams_webhook_url,
			updated_at        = NOW()
	`

	_, err := q.Exec(ctx, query, rc.UserID, rc.Email, rc.Phone, rc.SlackWebhookURL, rc.TeamsWebhookURL)
	if err != nil {
		return fmt.Errorf("failed to upsert contacts: %w", err)
	}
	return nil
}
