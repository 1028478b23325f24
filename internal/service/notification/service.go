package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/metrics"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/sse"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/validator"
)

// Config holds notification service configuration
type Config struct {
	WorkerCount      int           // default: 4
	QueueSize        int           // default: 1000
	DeliveryTimeout  time.Duration // per channel send, default: 15 seconds
	MaxParallelSends int           // default: 6
	EscalationLease  time.Duration // default: 2 minutes
	EscalationBatch  int           // default: 100
	DigestLease      time.Duration // default: 10 minutes
	DigestBatch      int           // users per sweep, default: 500
	DigestHour       int           // local hour daily and weekly digests go out
	TestSendLimit    int           // default: 5
	TestSendWindow   time.Duration // default: 1 minute

	// Now is the clock; tests replace it
	Now func() time.Time
}

// Repositories groups the stores the service reads and writes
type Repositories struct {
	Notifications notification.Repository
	Preferences   notification.PreferenceRepository
	Escalations   notification.EscalationRepository
	Digests       notification.DigestRepository
	Contacts      notification.ContactRepository
}

type service struct {
	repos   Repositories
	timer   notification.EscalationTimer
	senders SenderRegistry
	digest  notification.DigestSender
	limiter notification.RateLimiter
	hub     *sse.Hub
	config  Config
	out     *dispatcher

	queue  chan notification.SubmitNotificationRequest
	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once
}

// NewNotificationService creates a new notification service with background workers
func NewNotificationService(
	repos Repositories,
	senders SenderRegistry,
	digestSender notification.DigestSender,
	limiter notification.RateLimiter,
	hub *sse.Hub,
	cfg Config,
) notification.Service {
	// Set defaults
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}
	if cfg.DeliveryTimeout == 0 {
		cfg.DeliveryTimeout = 15 * time.Second
	}
	if cfg.MaxParallelSends == 0 {
		cfg.MaxParallelSends = 6
	}
	if cfg.EscalationLease == 0 {
		cfg.EscalationLease = 2 * time.Minute
	}
	if cfg.EscalationBatch == 0 {
		cfg.EscalationBatch = 100
	}
	if cfg.DigestLease == 0 {
		cfg.DigestLease = 10 * time.Minute
	}
	if cfg.DigestBatch == 0 {
		cfg.DigestBatch = 500
	}
	if cfg.TestSendLimit == 0 {
		cfg.TestSendLimit = 5
	}
	if cfg.TestSendWindow == 0 {
		cfg.TestSendWindow = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &service{
		repos:   repos,
		timer:   NewEscalationTimer(repos.Escalations, cfg.Now),
		senders: senders,
		digest:  digestSender,
		limiter: limiter,
		hub:     hub,
		config:  cfg,
		out: &dispatcher{
			senders:  senders,
			repo:     repos.Notifications,
			timeout:  cfg.DeliveryTimeout,
			parallel: cfg.MaxParallelSends,
			now:      cfg.Now,
		},
		queue:  make(chan notification.SubmitNotificationRequest, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}

	// Start background workers
	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)

	return s
}

// worker drains the queue until Stop, then finishes what is already queued
func (s *service) worker(id int) {
	defer s.wg.Done()

	process := func(req notification.SubmitNotificationRequest) {
		metrics.QueueDepth.Set(float64(len(s.queue)))
		ctx, cancel := context.WithTimeout(context.Background(), 2*s.config.DeliveryTimeout)
		defer cancel()
		if _, err := s.Submit(ctx, req); err != nil {
			slog.Error("Failed to process queued notification", "worker", id, "user_id", req.UserID, "type", req.Type, "error", err)
		}
	}

	for {
		select {
		case req := <-s.queue:
			process(req)
		case <-s.stopCh:
			for {
				select {
				case req := <-s.queue:
					process(req)
				default:
					return
				}
			}
		}
	}
}

// Submit runs one candidate through evaluation, persistence and delivery
func (s *service) Submit(ctx context.Context, req notification.SubmitNotificationRequest) (*notification.SubmitResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.config.Now()
	candidate := req.ToCandidate(now)
	if _, ok := candidate.Type.Lookup(); !ok {
		slog.Warn("Unknown notification type, routing as system", "type", candidate.Type, "user_id", candidate.UserID)
	}

	prefs, err := s.loadPreferences(ctx, candidate.UserID)
	if err != nil {
		return nil, err
	}

	decision := Evaluate(candidate, prefs, now)
	channels := decision.Channels.Slice()

	// Resolved before persisting: a failed lookup leaves no row or armed escalation
	var to notification.Recipient
	if len(channels) > 0 {
		to, err = s.recipient(ctx, candidate.UserID)
		if err != nil {
			return nil, err
		}
	}

	n := &notification.Notification{
		ID:               newID(),
		UserID:           candidate.UserID,
		Type:             candidate.Type,
		Category:         decision.Category,
		Priority:         candidate.Priority,
		Title:            candidate.Title,
		Message:          candidate.Message,
		Data:             candidate.Data,
		Channels:         channels,
		SuppressedReason: decision.SuppressedReason,
		CreatedAt:        now.UTC(),
	}
	if err := s.repos.Notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	resp := &notification.SubmitResponse{
		NotificationID:   n.ID,
		Category:         decision.Category,
		Channels:         channels,
		Batched:          decision.Batched,
		SuppressedReason: decision.SuppressedReason,
		EscalateAt:       decision.EscalateAt,
		Deliveries:       []notification.DeliveryResult{},
	}

	if decision.Batched {
		s.enqueueDigest(ctx, n, decision.BatchFrequency, prefs, now)
	}

	if decision.EscalateAt != nil {
		if err := s.timer.Arm(ctx, n.ID, n.UserID, *decision.EscalateAt); err != nil {
			slog.Error("Failed to arm escalation", "notification_id", n.ID, "error", err)
		}
	}

	if len(channels) > 0 {
		resp.Deliveries = s.out.dispatch(ctx, outbound(n, false), to, channels)
	}

	switch {
	case decision.Suppressed():
		metrics.CandidatesTotal.WithLabelValues(string(decision.Category), metrics.OutcomeSuppressed).Inc()
	case decision.Batched && len(channels) == 0:
		metrics.CandidatesTotal.WithLabelValues(string(decision.Category), metrics.OutcomeBatched).Inc()
	default:
		metrics.CandidatesTotal.WithLabelValues(string(decision.Category), metrics.OutcomeDelivered).Inc()
	}

	return resp, nil
}

func (s *service) enqueueDigest(ctx context.Context, n *notification.Notification, freq notification.BatchFrequency, prefs notification.NotificationPreferences, now time.Time) {
	item := &notification.DigestItem{
		ID:             newID(),
		UserID:         n.UserID,
		NotificationID: n.ID,
		Category:       n.Category,
		Frequency:      freq,
		Title:          n.Title,
		Message:        n.Message,
		DueAt:          NextDigestDue(freq, prefs.Normalize().Location(), s.config.DigestHour, now),
		EnqueuedAt:     now.UTC(),
	}
	if err := s.repos.Digests.Enqueue(ctx, item); err != nil {
		slog.Error("Failed to queue digest item", "notification_id", n.ID, "error", err)
		return
	}
	metrics.DigestItemsTotal.WithLabelValues(string(freq), "queued").Inc()
}

// QueueNotification validates req and hands it to the workers. When the queue
// is full the candidate is processed inline.
func (s *service) QueueNotification(ctx context.Context, req notification.SubmitNotificationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	select {
	case s.queue <- req:
		metrics.QueueDepth.Set(float64(len(s.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Queue full, process directly
		_, err := s.Submit(ctx, req)
		return err
	}
}

// QueueBulkNotification validates every request before queueing any of them
func (s *service) QueueBulkNotification(ctx context.Context, reqs []notification.SubmitNotificationRequest) error {
	var errs validator.ValidationErrors
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, v := range verrs {
					errs = append(errs, validator.ValidationError{
						Field:   fmt.Sprintf("notifications[%d].%s", i, v.Field),
						Message: v.Message,
					})
				}
				continue
			}
			return err
		}
	}
	if len(errs) > 0 {
		return errs
	}

	for _, req := range reqs {
		if err := s.QueueNotification(ctx, req); err != nil {
			slog.Error("Failed to queue notification", "user_id", req.UserID, "type", req.Type, "error", err)
		}
	}
	return nil
}

// SendTest performs a one-off send through a single adapter, bypassing policy
// evaluation. An empty channel means the user's preferred channel.
func (s *service) SendTest(ctx context.Context, userID string, req notification.TestNotificationRequest) (*notification.DeliveryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ch := req.Channel.Normalize()
	if ch == "" {
		prefs, err := s.loadPreferences(ctx, userID)
		if err != nil {
			return nil, err
		}
		ch = prefs.Normalize().PreferredChannel
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, "notification:test:"+userID, s.config.TestSendLimit, s.config.TestSendWindow)
		if err != nil {
			slog.Warn("Test send rate limiter unavailable", "user_id", userID, "error", err)
		} else if !allowed {
			return nil, notification.ErrTestRateLimited
		}
	}

	if _, ok := s.senders.Get(ch); !ok {
		return nil, notification.ErrChannelNotConfigured
	}

	to, err := s.recipient(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := req.Message
	if message == "" {
		message = "This is a test notification from AI Cost Guardian."
	}
	msg := notification.OutboundMessage{
		NotificationID: newID(),
		UserID:         userID,
		Type:           notification.TypeSystemMaintenance,
		Category:       notification.CategorySystem,
		Priority:       notification.PriorityLow,
		Title:          "Test notification",
		Message:        message,
		CreatedAt:      s.config.Now().UTC(),
		Test:           true,
	}

	results := s.out.dispatch(ctx, msg, to, []notification.Channel{ch})
	return &results[0], nil
}

// GetNotifications retrieves paginated notifications for a user
func (s *service) GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, total, err := s.repos.Notifications.GetByUserID(ctx, userID, page, pageSize, unreadOnly)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.repos.Notifications.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = notification.ToResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unreadCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

// GetUnreadCount returns the count of unread notifications
func (s *service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	return s.repos.Notifications.GetUnreadCount(ctx, userID)
}

// Acknowledge marks one notification read and disarms its escalation.
// Acknowledging twice is not an error.
func (s *service) Acknowledge(ctx context.Context, userID string, notificationID string) error {
	n, err := s.repos.Notifications.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return notification.ErrUnauthorized
	}

	if _, err := s.repos.Notifications.MarkAsRead(ctx, []string{notificationID}, userID); err != nil {
		return err
	}
	return s.timer.Disarm(ctx, notificationID)
}

// MarkAsRead marks specified notifications as read and disarms their escalations
func (s *service) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	changed, err := s.repos.Notifications.MarkAsRead(ctx, req.NotificationIDs, userID)
	if err != nil {
		return err
	}
	return s.timer.Disarm(ctx, changed...)
}

// MarkAllAsRead marks all notifications as read for a user
func (s *service) MarkAllAsRead(ctx context.Context, userID string) error {
	changed, err := s.repos.Notifications.MarkAllAsRead(ctx, userID)
	if err != nil {
		return err
	}
	return s.timer.Disarm(ctx, changed...)
}

// Delete removes a notification together with any pending escalation
func (s *service) Delete(ctx context.Context, userID string, notificationID string) error {
	if err := s.repos.Notifications.Delete(ctx, notificationID, userID); err != nil {
		return err
	}
	return s.timer.Disarm(ctx, notificationID)
}

// GetPreferences returns the stored preferences, or the defaults when the
// user never saved any
func (s *service) GetPreferences(ctx context.Context, userID string) (*notification.NotificationPreferences, error) {
	prefs, err := s.loadPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpdatePreferences merges patch into the stored record field by field
func (s *service) UpdatePreferences(ctx context.Context, userID string, patch notification.PreferencesPatch) (*notification.NotificationPreferences, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.GetPreferences(ctx, userID)
	}
	return s.repos.Preferences.Upsert(ctx, userID, patch)
}

// ReplacePreferences overwrites the record. Fields missing from the body
// take their default values.
func (s *service) ReplacePreferences(ctx context.Context, userID string, patch notification.PreferencesPatch) (*notification.NotificationPreferences, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	prefs := patch.Apply(notification.DefaultPreferences(userID))
	prefs.UpdatedAt = s.config.Now().UTC()
	return s.repos.Preferences.Replace(ctx, &prefs)
}

// GetContacts returns the addresses adapters deliver to
func (s *service) GetContacts(ctx context.Context, userID string) (*notification.ContactsResponse, error) {
	r, err := s.repos.Contacts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toContactsResponse(r), nil
}

// UpdateContacts replaces the stored addresses
func (s *service) UpdateContacts(ctx context.Context, userID string, req notification.UpdateContactsRequest) (*notification.ContactsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r := &notification.Recipient{
		UserID:          userID,
		Email:           req.Email,
		Phone:           req.Phone,
		SlackWebhookURL: req.SlackWebhookURL,
		TeamsWebhookURL: req.TeamsWebhookURL,
	}
	if err := s.repos.Contacts.Upsert(ctx, r); err != nil {
		return nil, err
	}
	return toContactsResponse(r), nil
}

// Subscribe creates an SSE subscription for a user
func (s *service) Subscribe(ctx context.Context, userID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(userID)

	out := make(chan notification.SSEEvent, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(notification.NotificationResponse)
				if !ok {
					continue
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// ProcessEscalations fires every due escalation. The notification is re-read
// inside the handler so an acknowledgment that won the race turns the fire
// into a no-op.
func (s *service) ProcessEscalations(ctx context.Context) error {
	due, err := s.repos.Escalations.ClaimDue(ctx, s.config.Now(), s.config.EscalationLease, s.config.EscalationBatch)
	if err != nil {
		return fmt.Errorf("failed to claim due escalations: %w", err)
	}

	for _, e := range due {
		if err := s.fire(ctx, e); err != nil {
			// left in firing; the lease expires and the next sweep retries
			slog.Error("Escalation failed", "notification_id", e.NotificationID, "attempts", e.Attempts, "error", err)
		}
	}
	return nil
}

func (s *service) fire(ctx context.Context, e *notification.Escalation) error {
	n, err := s.repos.Notifications.GetByID(ctx, e.NotificationID)
	if errors.Is(err, notification.ErrNotificationNotFound) {
		return s.skipEscalation(ctx, e, "notification deleted")
	}
	if err != nil {
		return err
	}
	if n.IsRead {
		return s.skipEscalation(ctx, e, "already acknowledged")
	}

	prefs, err := s.loadPreferences(ctx, n.UserID)
	if err != nil {
		return err
	}

	now := s.config.Now()
	decision := Evaluate(notification.Candidate{
		UserID:    n.UserID,
		Type:      n.Type,
		Priority:  notification.PriorityCritical,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}, prefs, now)
	if decision.Channels.Len() == 0 {
		return s.skipEscalation(ctx, e, decision.SuppressedReason)
	}

	to, err := s.recipient(ctx, n.UserID)
	if err != nil {
		return err
	}

	n.Priority = notification.PriorityCritical
	results := s.out.dispatch(ctx, outbound(n, true), to, decision.Channels.Slice())

	if err := s.repos.Notifications.MarkEscalated(ctx, n.ID, now.UTC()); err != nil {
		slog.Error("Failed to mark notification escalated", "notification_id", n.ID, "error", err)
	}
	if err := s.repos.Escalations.Complete(ctx, n.ID, notification.EscalationFired); err != nil {
		return err
	}

	metrics.EscalationsTotal.WithLabelValues(metrics.EscalationFired).Inc()
	slog.Info("Notification escalated", "notification_id", n.ID, "user_id", n.UserID, "deliveries", len(results))
	return nil
}

func (s *service) skipEscalation(ctx context.Context, e *notification.Escalation, reason string) error {
	if err := s.repos.Escalations.Complete(ctx, e.NotificationID, notification.EscalationDisarmed); err != nil {
		return err
	}
	metrics.EscalationsTotal.WithLabelValues(metrics.EscalationSkipped).Inc()
	slog.Debug("Escalation skipped", "notification_id", e.NotificationID, "reason", reason)
	return nil
}

// FlushDigests sends one email per user for every digest window that closed
func (s *service) FlushDigests(ctx context.Context) error {
	items, err := s.repos.Digests.ClaimDue(ctx, s.config.Now(), s.config.DigestLease, s.config.DigestBatch)
	if err != nil {
		return fmt.Errorf("failed to claim digest items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	sent := 0
	for _, d := range groupDigests(items) {
		ids := digestItemIDs(d)
		if err := s.sendDigest(ctx, d); err != nil {
			if isPermanentDigestError(err) {
				// Retrying cannot succeed until the user stores an address
				slog.Warn("Dropping undeliverable digest", "user_id", d.UserID, "items", len(ids), "error", err)
				if err := s.repos.Digests.Complete(ctx, ids); err != nil {
					slog.Error("Failed to drop digest items", "user_id", d.UserID, "error", err)
				}
				metrics.DigestItemsTotal.WithLabelValues(string(d.Frequency), "dropped").Add(float64(len(ids)))
				continue
			}
			slog.Error("Failed to send digest", "user_id", d.UserID, "items", len(ids), "error", err)
			if err := s.repos.Digests.Release(ctx, ids); err != nil {
				slog.Error("Failed to release digest items", "user_id", d.UserID, "error", err)
			}
			continue
		}
		if err := s.repos.Digests.Complete(ctx, ids); err != nil {
			slog.Error("Failed to complete digest items", "user_id", d.UserID, "error", err)
		}
		metrics.DigestItemsTotal.WithLabelValues(string(d.Frequency), "sent").Add(float64(len(ids)))
		sent++
	}

	slog.Info("Digests flushed", "digests", sent, "items", len(items))
	return nil
}

func isPermanentDigestError(err error) bool {
	return errors.Is(err, notification.ErrNoRecipientAddress) || errors.Is(err, notification.ErrChannelNotConfigured)
}

func (s *service) sendDigest(ctx context.Context, d notification.Digest) error {
	if s.digest == nil {
		return notification.ErrChannelNotConfigured
	}
	to, err := s.recipient(ctx, d.UserID)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.config.DeliveryTimeout)
	defer cancel()
	return s.digest.SendDigest(sendCtx, to, d)
}

// Stop gracefully stops the notification service
func (s *service) Stop() {
	s.once.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("Notification service stopped")
	})
}

func (s *service) loadPreferences(ctx context.Context, userID string) (notification.NotificationPreferences, error) {
	prefs, err := s.repos.Preferences.Get(ctx, userID)
	if errors.Is(err, notification.ErrPreferenceNotFound) {
		return notification.DefaultPreferences(userID), nil
	}
	if err != nil {
		return notification.NotificationPreferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	return *prefs, nil
}

func (s *service) recipient(ctx context.Context, userID string) (notification.Recipient, error) {
	r, err := s.repos.Contacts.Get(ctx, userID)
	if err != nil {
		return notification.Recipient{}, fmt.Errorf("failed to load contacts: %w", err)
	}
	to := *r
	to.UserID = userID
	return to, nil
}

func outbound(n *notification.Notification, escalation bool) notification.OutboundMessage {
	return notification.OutboundMessage{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Category:       n.Category,
		Priority:       n.Priority,
		Title:          n.Title,
		Message:        n.Message,
		Data:           n.Data,
		CreatedAt:      n.CreatedAt,
		Escalation:     escalation,
	}
}

func toContactsResponse(r *notification.Recipient) *notification.ContactsResponse {
	return &notification.ContactsResponse{
		Email:           r.Email,
		Phone:           r.Phone,
		SlackWebhookURL: r.SlackWebhookURL,
		TeamsWebhookURL: r.TeamsWebhookURL,
	}
}
