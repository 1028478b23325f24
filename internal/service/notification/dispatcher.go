package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SenderRegistry resolves the adapter for a channel
type SenderRegistry interface {
	Get(ch notification.Channel) (notification.Sender, bool)
}

// dispatcher fans a message out to its channels. A failing channel never
// stops the others; every attempt is recorded.
type dispatcher struct {
	senders  SenderRegistry
	repo     notification.Repository
	timeout  time.Duration
	parallel int
	now      func() time.Time
}

func (d *dispatcher) dispatch(ctx context.Context, msg notification.OutboundMessage, to notification.Recipient, channels []notification.Channel) []notification.DeliveryResult {
	results := make([]notification.DeliveryResult, len(channels))

	g, gctx := errgroup.WithContext(ctx)
	if d.parallel > 0 {
		g.SetLimit(d.parallel)
	}
	for i, ch := range channels {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = d.send(gctx, msg, to, ch)
			return nil
		})
	}
	_ = g.Wait()

	deliveries := make([]*notification.Delivery, 0, len(results))
	attemptedAt := d.now().UTC()
	for _, r := range results {
		deliveries = append(deliveries, &notification.Delivery{
			ID:             newID(),
			NotificationID: msg.NotificationID,
			Channel:        r.Channel,
			Status:         r.Status,
			Error:          r.Error,
			Escalation:     msg.Escalation,
			AttemptedAt:    attemptedAt,
		})
	}
	if !msg.Test && len(deliveries) > 0 {
		if err := d.repo.RecordDeliveries(ctx, deliveries); err != nil {
			slog.Error("Failed to record deliveries", "notification_id", msg.NotificationID, "error", err)
		}
	}
	return results
}

func (d *dispatcher) send(ctx context.Context, msg notification.OutboundMessage, to notification.Recipient, ch notification.Channel) notification.DeliveryResult {
	result := notification.DeliveryResult{Channel: ch, Status: notification.DeliverySucceeded}

	sender, ok := d.senders.Get(ch)
	if !ok {
		result.Status = notification.DeliveryFailed
		result.Error = notification.ErrChannelNotConfigured.Error()
		metrics.DeliveriesTotal.WithLabelValues(string(ch), string(result.Status)).Inc()
		return result
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	err := sender.Send(ctx, msg, to)
	metrics.DeliveryDuration.WithLabelValues(string(ch)).Observe(time.Since(start).Seconds())

	if err != nil {
		result.Status = notification.DeliveryFailed
		result.Error = err.Error()
		level := slog.LevelWarn
		if errors.Is(err, notification.ErrNoRecipientAddress) || errors.Is(err, notification.ErrNoActiveConnection) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "Channel delivery failed",
			"notification_id", msg.NotificationID,
			"user_id", msg.UserID,
			"channel", ch,
			"error", err,
		)
	}
	metrics.DeliveriesTotal.WithLabelValues(string(ch), string(result.Status)).Inc()
	return result
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
