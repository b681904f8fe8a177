package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/skillswap/swapd/internal/apperr"
)

const maxBodyBytes = 1 << 20

// Envelope wraps every API response.
type Envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Errors  []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func writeOK(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, Envelope{Success: true, Message: message, Data: data, Errors: []string{}}, status)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, Envelope{Success: false, Message: message, Errors: []string{message}}, status)
}

// writeError maps err onto its status code. Unexpected errors are logged in
// full and reported to the client with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.Any("err", err),
		)
	}
	writeFailure(w, status, apperr.Message(err))
}

// decodeBody reads the request body, checks it against the named schema and
// decodes it into dst.
func (h *Handler) decodeBody(r *http.Request, schema string, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return apperr.Validation("failed to read request body")
	}
	if len(body) > maxBodyBytes {
		return apperr.Validation("request body too large")
	}
	if err := h.Validator.Check(r.Context(), schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid id")
	}
	return id, nil
}

// page parses limit and offset query parameters, falling back to the
// configured default and capping at the maximum.
func (h *Handler) page(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	limit = h.defaultLimit
	if l := q.Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v <= 0 {
			return 0, 0, apperr.Validation("limit must be a positive integer")
		}
		limit = min(v, h.maxLimit)
	}
	if o := q.Get("offset"); o != "" {
		v, err := strconv.Atoi(o)
		if err != nil || v < 0 {
			return 0, 0, apperr.Validation("offset must be a non-negative integer")
		}
		offset = v
	}
	return limit, offset, nil
}

// Page is the payload of paginated list responses.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
