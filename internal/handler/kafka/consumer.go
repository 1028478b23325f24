package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/config"
	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/validator"
	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer uses
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer feeds candidates published by upstream monitors into the
// notification queue. Each message value is a JSON SubmitNotificationRequest.
type Consumer struct {
	reader       MessageReader
	notifService notification.Service
	retryBackoff time.Duration
	maxBackoff   time.Duration
}

// NewReader builds a consumer-group reader for cfg
func NewReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

func NewConsumer(reader MessageReader, notifService notification.Service) *Consumer {
	return &Consumer{
		reader:       reader,
		notifService: notifService,
		retryBackoff: time.Second,
		maxBackoff:   30 * time.Second,
	}
}

// Run blocks until ctx is cancelled. Messages are committed once handed to
// the queue; malformed messages are logged and committed so they are not
// redelivered forever. Any other failure retries the same message, since
// committing a later offset would skip it.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return nil
			}
			slog.Error("Kafka read error", "error", err)
			continue
		}

		if !c.handleWithRetry(ctx, m) {
			// left uncommitted for the next group member
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("Failed to commit kafka message", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

// handleWithRetry returns false only when ctx ends before m is handled
func (c *Consumer) handleWithRetry(ctx context.Context, m kafka.Message) bool {
	backoff := c.retryBackoff
	for {
		err := c.handle(ctx, m)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		slog.Error("Failed to queue notification, retrying", "partition", m.Partition, "offset", m.Offset, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}

// handle returns an error only for failures worth retrying
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	var req notification.SubmitNotificationRequest
	if err := json.Unmarshal(m.Value, &req); err != nil {
		slog.Warn("Dropping undecodable notification message", "partition", m.Partition, "offset", m.Offset, "error", err)
		return nil
	}

	if err := c.notifService.QueueNotification(ctx, req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			slog.Warn("Dropping invalid notification message", "offset", m.Offset, "errors", validationErrs.ToMap())
			return nil
		}
		return err
	}
	return nil
}
