package http

import (
	"encoding/json"
	"net/http"

	"github.com/aicostguardian/guardian-backend-go/internal/domain/notification"
	"github.com/aicostguardian/guardian-backend-go/internal/handler/http/response"
)

// IngestHandler accepts candidates from upstream monitors
type IngestHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	SubmitBulk(w http.ResponseWriter, r *http.Request)
}

type ingestHandlerImpl struct {
	notifService notification.Service
}

func NewIngestHandler(notifService notification.Service) IngestHandler {
	return &ingestHandlerImpl{notifService: notifService}
}

// BulkSubmitRequest wraps several candidates queued in one call
type BulkSubmitRequest struct {
	Notifications []notification.SubmitNotificationRequest `json:"notifications"`
}

// Submit evaluates and dispatches one candidate synchronously
func (h *ingestHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req notification.SubmitNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.notifService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Notification submitted", result)
}

// SubmitBulk queues candidates for the background workers
func (h *ingestHandlerImpl) SubmitBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if len(req.Notifications) == 0 {
		response.BadRequest(w, "notifications is required", nil)
		return
	}

	if err := h.notifService.QueueBulkNotification(r.Context(), req.Notifications); err != nil {
		response.HandleError(w, err)
		return
	}

	response.Accepted(w, "Notifications queued", map[string]int{"queued": len(req.Notifications)})
}
