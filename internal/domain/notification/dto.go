package notification

import (
	"strings"
	"time"

	"github.com/aicostguardian/guardian-backend-go/internal/pkg/validator"
)

// ============= Request DTOs =============

// SubmitNotificationRequest is a candidate sent by an upstream monitor
type SubmitNotificationRequest struct {
	UserID   string                 `json:"user_id"`
	Type     NotificationType       `json:"type"`
	Priority Priority               `json:"priority"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

func (r *SubmitNotificationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}
	if validator.IsEmpty(string(r.Type)) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type is required",
		})
	}
	if r.Priority != "" && !validator.IsInSlice(string(r.Priority), PriorityValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "priority",
			Message: "priority must be one of: " + strings.Join(PriorityValues, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToCandidate builds the evaluator input; an empty priority becomes MEDIUM
func (r *SubmitNotificationRequest) ToCandidate(now time.Time) Candidate {
	priority := r.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	return Candidate{
		UserID:    r.UserID,
		Type:      NotificationType(strings.ToUpper(strings.TrimSpace(string(r.Type)))),
		Priority:  priority,
		Title:     r.Title,
		Message:   r.Message,
		Data:      r.Data,
		CreatedAt: now,
	}
}

// TestNotificationRequest asks for a one-off send through a single adapter
type TestNotificationRequest struct {
	Channel Channel `json:"channel"`
	Message string  `json:"message"`
}

func (r *TestNotificationRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Channel != "" && !r.Channel.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "channel",
			Message: "channel must be one of: EMAIL, SMS, PUSH, IN_APP, SLACK, WEBHOOK",
		})
	}
	if len(r.Message) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "message",
			Message: "message must be at most 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MarkAsReadRequest represents a request to mark notifications as read
type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids" validate:"required,min=1"`
}

// UpdateContactsRequest replaces the addresses used by channel adapters
type UpdateContactsRequest struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SlackWebhookURL string `json:"slack_webhook_url"`
	TeamsWebhookURL string `json:"teams_webhook_url"`
}

func (r *UpdateContactsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Email != "" && !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}
	if r.Phone != "" && !validator.IsValidPhoneNumber(r.Phone) {
		errs = append(errs, validator.ValidationError{
			Field:   "phone",
			Message: "phone must be in international format, e.g. +14155550100",
		})
	}
	if r.SlackWebhookURL != "" && !validator.IsValidHTTPSURL(r.SlackWebhookURL) {
		errs = append(errs, validator.ValidationError{
			Field:   "slack_webhook_url",
			Message: "slack_webhook_url must be an https URL",
		})
	}
	if r.TeamsWebhookURL != "" && !validator.IsValidHTTPSURL(r.TeamsWebhookURL) {
		errs = append(errs, validator.ValidationError{
			Field:   "teams_webhook_url",
			Message: "teams_webhook_url must be an https URL",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ============= Response DTOs =============

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID               string                 `json:"id"`
	Type             NotificationType       `json:"type"`
	Category         Category               `json:"category"`
	Priority         Priority               `json:"priority"`
	Title            string                 `json:"title"`
	Message          string                 `json:"message"`
	Data             map[string]interface{} `json:"data,omitempty"`
	Channels         []Channel              `json:"channels"`
	SuppressedReason string                 `json:"suppressed_reason,omitempty"`
	IsRead           bool                   `json:"is_read"`
	ReadAt           *time.Time             `json:"read_at,omitempty"`
	EscalatedAt      *time.Time             `json:"escalated_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// NotificationListResponse represents a paginated list of notifications
type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	UnreadCount   int                    `json:"unread_count"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
}

// SubmitResponse reports the decision taken for a submitted candidate
type SubmitResponse struct {
	NotificationID   string           `json:"notification_id"`
	Category         Category         `json:"category"`
	Channels         []Channel        `json:"channels"`
	Batched          bool             `json:"batched"`
	SuppressedReason string           `json:"suppressed_reason,omitempty"`
	EscalateAt       *time.Time       `json:"escalate_at,omitempty"`
	Deliveries       []DeliveryResult `json:"deliveries"`
}

// ContactsResponse represents the recipient addresses of a user
type ContactsResponse struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SlackWebhookURL string `json:"slack_webhook_url"`
	TeamsWebhookURL string `json:"teams_webhook_url"`
}

// UnreadCountResponse represents unread count response
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// SSETokenResponse represents the SSE token response
type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// ============= SSE Event =============

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string               `json:"event"`
	Data  NotificationResponse `json:"data"`
}

// ToResponse converts a Notification entity to NotificationResponse
func ToResponse(n *Notification) NotificationResponse {
	channels := n.Channels
	if channels == nil {
		channels = []Channel{}
	}
	return NotificationResponse{
		ID:               n.ID,
		Type:             n.Type,
		Category:         n.Category,
		Priority:         n.Priority,
		Title:            n.Title,
		Message:          n.Message,
		Data:             n.Data,
		Channels:         channels,
		SuppressedReason: n.SuppressedReason,
		IsRead:           n.IsRead,
		ReadAt:           n.ReadAt,
		EscalatedAt:      n.EscalatedAt,
		CreatedAt:        n.CreatedAt,
	}
}
