package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const preferenceColumns = `user_id,
	email_enabled, sms_enabled, push_enabled, in_app_enabled, slack_enabled, teams_enabled,
	cost_alerts, usage_alerts, system_alerts, team_alerts, reports, recommendations,
	category_channels,
	quiet_hours_enabled, quiet_hours_start, quiet_hours_end, timezone, weekend_quiet,
	batch_emails, batch_frequency, preferred_channel,
	auto_escalate, escalate_after_minutes, updated_at`

type preferenceRepository struct {
	db *database.DB
}

// NewPreferenceRepository creates a PostgreSQL-backed preference store
func NewPreferenceRepository(db *database.DB) notification.PreferenceRepository {
	return &preferenceRepository{db: db}
}

// Get retrieves the preferences of a user
func (r *preferenceRepository) Get(ctx context.Context, userID string) (*notification.NotificationPreferences, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE user_id = $1`

	p, err := scanPreferences(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notification.ErrPreferenceNotFound
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return p, nil
}

// Upsert merges patch into the stored row in one statement. The insert
// branch writes the patch over the defaults; the conflict branch keeps every
// column the patch leaves NULL. Category overrides merge key by key.
func (r *preferenceRepository) Upsert(ctx context.Context, userID string, patch notification.PreferencesPatch) (*notification.NotificationPreferences, error) {
	q := GetQuerier(ctx, r.db)

	initial := patch.Apply(notification.DefaultPreferences(userID))
	initialChannels, err := marshalCategoryChannels(initial.CategoryChannels)
	if err != nil {
		return nil, err
	}
	patchChannels, err := marshalCategoryChannels(patch.Apply(notification.NotificationPreferences{}).CategoryChannels)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO notification_preferences (` + preferenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled          = COALESCE($25, notification_preferences.email_enabled),
			sms_enabled            = COALESCE($26, notification_preferences.sms_enabled),
			push_enabled           = COALESCE($27, notification_preferences.push_enabled),
			in_app_enabled         = COALESCE($28, notification_preferences.in_app_enabled),
			slack_enabled          = COALESCE($29, notification_preferences.slack_enabled),
			teams_enabled          = COALESCE($30, notification_preferences.teams_enabled),
			cost_alerts            = COALESCE($31, notification_preferences.cost_alerts),
			usage_alerts           = COALESCE($32, notification_preferences.usage_alerts),
			system_alerts          = COALESCE($33, notification_preferences.system_alerts),
			team_alerts            = COALESCE($34, notification_preferences.team_alerts),
			reports                = COALESCE($35, notification_preferences.reports),
			recommendations        = COALESCE($36, notification_preferences.recommendations),
			category_channels      = notification_preferences.category_channels || $37::jsonb,
			quiet_hours_enabled    = COALESCE($38, notification_preferences.quiet_hours_enabled),
			quiet_hours_start      = COALESCE($39, notification_preferences.quiet_hours_start),
			quiet_hours_end        = COALESCE($40, notification_preferences.quiet_hours_end),
			timezone               = COALESCE($41, notification_preferences.timezone),
			weekend_quiet          = COALESCE($42, notification_preferences.weekend_quiet),
			batch_emails           = COALESCE($43, notification_preferences.batch_emails),
			batch_frequency        = COALESCE($44, notification_preferences.batch_frequency),
			preferred_channel      = COALESCE($45, notification_preferences.preferred_channel),
			auto_escalate          = COALESCE($46, notification_preferences.auto_escalate),
			escalate_after_minutes = COALESCE($47, notification_preferences.escalate_after_minutes),
			updated_at             = NOW()
		RETURNING ` + preferenceColumns

	args := append(preferenceArgs(initial, initialChannels),
		patch.EmailEnabled,
		patch.SMSEnabled,
		patch.PushEnabled,
		patch.InAppEnabled,
		patch.SlackEnabled,
		patch.TeamsEnabled,
		patch.CostAlerts,
		patch.UsageAlerts,
		patch.SystemAlerts,
		patch.TeamAlerts,
		patch.Reports,
		patch.Recommendations,
		patchChannels,
		patch.QuietHoursEnabled,
		patch.QuietHoursStart,
		patch.QuietHoursEnd,
		patch.Timezone,
		patch.WeekendQuiet,
		patch.BatchEmails,
		optionalString(patch.BatchFrequency),
		optionalChannel(patch.PreferredChannel),
		patch.AutoEscalate,
		patch.EscalateAfterMinutes,
	)

	p, err := scanPreferences(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return p, nil
}

// Replace overwrites the whole row, category overrides included
func (r *preferenceRepository) Replace(ctx context.Context, prefs *notification.NotificationPreferences) (*notification.NotificationPreferences, error) {
	q := GetQuerier(ctx, r.db)

	channels, err := marshalCategoryChannels(prefs.CategoryChannels)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO notification_preferences (` + preferenceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled          = EXCLUDED.email_enabled,
			sms_enabled            = EXCLUDED.sms_enabled,
			push_enabled           = EXCLUDED.push_enabled,
			in_app_enabled         = EXCLUDED.in_app_enabled,
			slack_enabled          = EXCLUDED.slack_enabled,
			teams_enabled          = EXCLUDED.teams_enabled,
			cost_alerts            = EXCLUDED.cost_alerts,
			usage_alerts           = EXCLUDED.usage_alerts,
			system_alerts          = EXCLUDED.system_alerts,
			team_alerts            = EXCLUDED.team_alerts,
			reports                = EXCLUDED.reports,
			recommendations        = EXCLUDED.recommendations,
			category_channels      = EXCLUDED.category_channels,
			quiet_hours_enabled    = EXCLUDED.quiet_hours_enabled,
			quiet_hours_start      = EXCLUDED.quiet_hours_start,
			quiet_hours_end        = EXCLUDED.quiet_hours_end,
			timezone               = EXCLUDED.timezone,
			weekend_quiet          = EXCLUDED.weekend_quiet,
			batch_emails           = EXCLUDED.batch_emails,
			batch_frequency        = EXCLUDED.batch_frequency,
			preferred_channel      = EXCLUDED.preferred_channel,
			auto_escalate          = EXCLUDED.auto_escalate,
			escalate_after_minutes = EXCLUDED.escalate_after_minutes,
			updated_at             = NOW()
		RETURNING ` + preferenceColumns

	p, err := scanPreferences(q.QueryRow(ctx, query, preferenceArgs(*prefs, channels)...))
	if err != nil {
		return nil, fmt.Errorf("failed to replace preferences: %w", err)
	}
	return p, nil
}

func preferenceArgs(p notification.NotificationPreferences, categoryChannels []byte) []interface{} {
	return []interface{}{
		p.UserID,
		p.EmailEnabled,
		p.SMSEnabled,
		p.PushEnabled,
		p.InAppEnabled,
		p.SlackEnabled,
		p.TeamsEnabled,
		p.CostAlerts,
		p.UsageAlerts,
		p.SystemAlerts,
		p.TeamAlerts,
		p.Reports,
		p.Recommendations,
		categoryChannels,
		p.QuietHoursEnabled,
		p.QuietHoursStart,
		p.QuietHoursEnd,
		p.Timezone,
		p.WeekendQuiet,
		p.BatchEmails,
		string(p.BatchFrequency),
		string(p.PreferredChannel),
		p.AutoEscalate,
		p.EscalateAfterMinutes,
	}
}

func scanPreferences(row pgx.Row) (*notification.NotificationPreferences, error) {
	var p notification.NotificationPreferences
	var channelsJSON []byte
	var frequency, preferred string

	if err := row.Scan(
		&p.UserID,
		&p.EmailEnabled,
		&p.SMSEnabled,
		&p.PushEnabled,
		&p.InAppEnabled,
		&p.SlackEnabled,
		&p.TeamsEnabled,
		&p.CostAlerts,
		&p.UsageAlerts,
		&p.SystemAlerts,
		&p.TeamAlerts,
		&p.Reports,
		&p.Recommendations,
		&channelsJSON,
		&p.QuietHoursEnabled,
		&p.QuietHoursStart,
		&p.QuietHoursEnd,
		&p.Timezone,
		&p.WeekendQuiet,
		&p.BatchEmails,
		&frequency,
		&preferred,
		&p.AutoEscalate,
		&p.EscalateAfterMinutes,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.BatchFrequency = notification.BatchFrequency(frequency)
	p.PreferredChannel = notification.Channel(preferred)
	if len(channelsJSON) > 0 {
		if err := json.Unmarshal(channelsJSON, &p.CategoryChannels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal category channels: %w", err)
		}
		if len(p.CategoryChannels) == 0 {
			p.CategoryChannels = nil
		}
	}
	return &p, nil
}

func marshalCategoryChannels(m map[notification.Category][]notification.Channel) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal category channels: %w", err)
	}
	return b, nil
}

func optionalString(f *notification.BatchFrequency) *string {
	if f == nil {
		return nil
	}
	s := string(*f)
	return &s
}

func optionalChannel(ch *notification.Channel) *string {
	if ch == nil {
		return nil
	}
	s := string(ch.Normalize())
	return &s
}
