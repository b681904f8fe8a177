package api

import (
	"net/http"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	out, err := h.Notify.List(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "notifications retrieved", out)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notify.UnreadCount(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "unread count retrieved", map[string]int64{"unread_count": n})
}

func (h *Handler) PlatformMessages(w http.ResponseWriter, r *http.Request) {
	out, err := h.Notify.PlatformMessages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "platform messages retrieved", out)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Notify.MarkRead(r.Context(), id, UserFromContext(r.Context()).ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "notification marked as read", nil)
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Notify.Delete(r.Context(), id, UserFromContext(r.Context()).ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "notification deleted", nil)
}
