package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/internal/validate"
)

type broadcastRequest struct {
	Message string `json:"message"`
}

type broadcastResponse struct {
	Message    *models.PlatformMessage `json:"platform_message"`
	Recipients int                     `json:"recipients"`
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := h.page(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var banned *bool
	if v := r.URL.Query().Get("banned"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, apperr.Validation("banned must be true or false"))
			return
		}
		banned = &b
	}

	items, total, err := h.Admin.ListUsers(r.Context(), UserFromContext(r.Context()), banned, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "users retrieved", Page[models.User]{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) AdminBan(w http.ResponseWriter, r *http.Request) {
	u, err := h.Admin.Ban(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "user banned", u)
}

func (h *Handler) AdminUnban(w http.ResponseWriter, r *http.Request) {
	u, err := h.Admin.Unban(r.Context(), UserFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "user unbanned", u)
}

func (h *Handler) AdminListSwaps(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := h.page(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := models.SwapStatus(r.URL.Query().Get("status"))

	items, total, err := h.Admin.ListSwaps(r.Context(), UserFromContext(r.Context()), status, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "swaps retrieved", Page[models.SwapRequest]{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Admin.Stats(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "platform stats retrieved", st)
}

// AdminBroadcast sends a platform message to every eligible user.
func (h *Handler) AdminBroadcast(w http.ResponseWriter, r *http.Request) {
	var req broadcastRequest
	if err := h.decodeBody(r, validate.Broadcast, &req); err != nil {
		writeError(w, r, err)
		return
	}

	msg, n, err := h.Admin.Broadcast(r.Context(), UserFromContext(r.Context()), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "platform message sent", broadcastResponse{Message: msg, Recipients: n})
}
