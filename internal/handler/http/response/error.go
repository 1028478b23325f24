package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, notification.ErrUnauthorized):
		Forbidden(w, "Notification belongs to another user")
	case errors.Is(err, notification.ErrTestRateLimited):
		TooManyRequests(w, "Too many test notifications, try again later")
	case errors.Is(err, notification.ErrChannelNotConfigured):
		BadRequest(w, "Channel is not configured on this server", nil)
	case errors.Is(err, notification.ErrNoRecipientAddress):
		BadRequest(w, "No address stored for this channel", nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
