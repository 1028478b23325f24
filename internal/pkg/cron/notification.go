package cron

import (
	"context"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
)

const (
	JobEscalationSweep = "escalation_sweep"
	JobDigestFlush     = "digest_flush"
)

// NotificationJobs drives the time-based parts of the notification pipeline
type NotificationJobs struct {
	notificationSvc notification.Service
	escalationEvery time.Duration
	digestEvery     time.Duration
}

func NewNotificationJobs(notificationSvc notification.Service, escalationEvery, digestEvery time.Duration) *NotificationJobs {
	if escalationEvery <= 0 {
		escalationEvery = 30 * time.Second
	}
	if digestEvery <= 0 {
		digestEvery = time.Minute
	}
	return &NotificationJobs{
		notificationSvc: notificationSvc,
		escalationEvery: escalationEvery,
		digestEvery:     digestEvery,
	}
}

func (j *NotificationJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobEscalationSweep, j.escalationEvery, j.SweepEscalations)
	scheduler.AddJob(JobDigestFlush, j.digestEvery, j.FlushDigests)
}

// SweepEscalations re-sends unacknowledged notifications whose deadline passed
func (j *NotificationJobs) SweepEscalations(ctx context.Context) error {
	return j.notificationSvc.ProcessEscalations(ctx)
}

// FlushDigests sends the digest emails of every window that closed
func (j *NotificationJobs) FlushDigests(ctx context.Context) error {
	return j.notificationSvc.FlushDigests(ctx)
}
