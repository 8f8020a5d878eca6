package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-market-triggers/internal/application/notification"
	"github.com/go-market-triggers/internal/domain"
)

// NotificationsEnvelope wraps the unread list.
type NotificationsEnvelope struct {
	Unread int                   `json:"unread"`
	Data   []domain.Notification `json:"data"`
}

// NotificationHandler serves the caller's in-app notifications.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) ListUnread(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	notifications, err := h.svc.ListUnread(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, NotificationsEnvelope{Unread: len(notifications), Data: notifications})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	n, err := h.svc.MarkAsRead(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
