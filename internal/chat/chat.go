// Package chat keeps the append-only message log of each swap.
package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository"
)

const maxBody = 4000

type Store interface {
	repository.SwapRepo
	repository.ChatRepo
}

type Channel struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{store: store, logger: logger}
}

// Post appends a message from sender. Any participant may post regardless of
// the swap status.
func (c *Channel) Post(ctx context.Context, swapID int64, sender, body string) (*models.ChatMessage, error) {
	s, err := c.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load swap")
	}
	if s == nil {
		return nil, apperr.NotFound("swap %d not found", swapID)
	}
	if !s.IsParticipant(sender) {
		return nil, apperr.Forbidden("only participants can post in this swap")
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("message is required")
	}
	if len(body) > maxBody {
		return nil, apperr.Validation("message exceeds %d bytes", maxBody)
	}

	m := &models.ChatMessage{SwapID: swapID, SenderID: sender, Body: body}
	if _, err := c.store.CreateMessage(ctx, m); err != nil {
		return nil, apperr.Unexpected(err, "failed to store message")
	}

	return m, nil
}

// List returns the swap's messages oldest first, or an empty list when
// requester is not a participant.
func (c *Channel) List(ctx context.Context, swapID int64, requester string) ([]models.ChatMessage, error) {
	s, err := c.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load swap")
	}
	if s == nil || !s.IsParticipant(requester) {
		return []models.ChatMessage{}, nil
	}

	out, err := c.store.ListMessages(ctx, swapID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to list messages")
	}
	return out, nil
}
