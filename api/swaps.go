package api

import (
	"context"
	"net/http"

	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/internal/rating"
	"github.com/skillswap/swapd/internal/swap"
	"github.com/skillswap/swapd/internal/validate"
)

type chatMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) CreateSwap(w http.ResponseWriter, r *http.Request) {
	var in swap.CreateInput
	if err := h.decodeBody(r, validate.SwapCreate, &in); err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Swaps.Create(r.Context(), UserFromContext(r.Context()).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "swap request created", s)
}

// ListSwaps returns swaps the caller sent or received.
func (h *Handler) ListSwaps(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := h.page(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := models.SwapStatus(r.URL.Query().Get("status"))

	items, total, err := h.Swaps.List(r.Context(), UserFromContext(r.Context()).ID, status, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "swaps retrieved", Page[models.SwapRequest]{Items: items, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) GetSwap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s, err := h.Swaps.Get(r.Context(), id, UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "swap retrieved", s)
}

type transitionFunc func(ctx context.Context, id int64, actor string) (*models.SwapRequest, error)

// transition adapts a lifecycle operation of the engine to a handler.
func (h *Handler) transition(fn transitionFunc, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}

		s, err := fn(r.Context(), id, UserFromContext(r.Context()).ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeOK(w, http.StatusOK, message, s)
	}
}

func (h *Handler) DeleteSwap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Swaps.Delete(r.Context(), id, UserFromContext(r.Context()).ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "swap deleted", nil)
}

func (h *Handler) RateSwap(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in rating.SubmitInput
	if err := h.decodeBody(r, validate.Rating, &in); err != nil {
		writeError(w, r, err)
		return
	}

	f, err := h.Ratings.Submit(r.Context(), id, UserFromContext(r.Context()).ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "rating submitted", f)
}

func (h *Handler) SwapFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.Ratings.SwapFeedback(r.Context(), id, UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "feedback retrieved", out)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.Chat.List(r.Context(), id, UserFromContext(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "messages retrieved", out)
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req chatMessageRequest
	if err := h.decodeBody(r, validate.ChatMessage, &req); err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.Chat.Post(r.Context(), id, UserFromContext(r.Context()).ID, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "message sent", m)
}
