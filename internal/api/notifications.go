package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/notify"
)

// Sender delivers one message to a notification person.
type Sender interface {
	Send(ctx context.Context, personID int64, message string) notify.Result
}

// NotificationsHandler handles manual notification sends.
type NotificationsHandler struct {
	Sender Sender
}

type testNotificationRequest struct {
	PersonID int64  `json:"personId"`
	Message  string `json:"message"`
}

// Test handles POST /api/notifications/test. Delivery failures are reported
// in the body with status 200.
func (h *NotificationsHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req testNotificationRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PersonID <= 0 {
		jsonError(w, http.StatusBadRequest, "personId required")
		return
	}

	res := h.Sender.Send(r.Context(), req.PersonID, req.Message)
	slog.Info("test notification", "user", GetClaims(r.Context()).Username, "person_id", req.PersonID,
		"ok", res.OK, "error", res.Error)
	jsonResponse(w, http.StatusOK, res)
}
