// Package admin implements moderation and reporting operations. Every method
// takes the resolved caller and rejects non-admins.
package admin

import (
	"context"
	"log/slog"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository"
)

type Store interface {
	repository.UserRepo
	repository.SwapRepo
	repository.StatsRepo
}

// Broadcaster fans a platform message out to users.
type Broadcaster interface {
	Broadcast(ctx context.Context, admin *models.User, body string) (*models.PlatformMessage, int, error)
}

type Service struct {
	store       Store
	broadcaster Broadcaster
	logger      *slog.Logger
}

func New(store Store, broadcaster Broadcaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, broadcaster: broadcaster, logger: logger}
}

func requireAdmin(actor *models.User) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin access required")
	}
	return nil
}

// ListUsers pages through users, optionally filtered by the ban flag.
func (s *Service) ListUsers(ctx context.Context, actor *models.User, banned *bool, limit, offset int) ([]models.User, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	out, total, err := s.store.ListUsers(ctx, models.UserFilter{Banned: banned, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, apperr.Unexpected(err, "failed to list users")
	}
	return out, total, nil
}

// Ban sets the ban flag on userID. Admins cannot ban themselves.
func (s *Service) Ban(ctx context.Context, actor *models.User, userID string) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == userID {
		return nil, apperr.Validation("you cannot ban yourself")
	}
	return s.setBanned(ctx, actor, userID, true)
}

func (s *Service) Unban(ctx context.Context, actor *models.User, userID string) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.setBanned(ctx, actor, userID, false)
}

func (s *Service) setBanned(ctx context.Context, actor *models.User, userID string, banned bool) (*models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load user")
	}
	if u == nil {
		return nil, apperr.NotFound("user %s not found", userID)
	}
	if err := s.store.SetBanned(ctx, userID, banned); err != nil {
		return nil, apperr.Unexpected(err, "failed to update user")
	}
	u.IsBanned = banned

	s.logger.Info("user ban updated", slog.String("admin", actor.ID), slog.String("user_id", userID), slog.Bool("banned", banned))
	return u, nil
}

// ListSwaps pages through all swaps, optionally filtered by status.
func (s *Service) ListSwaps(ctx context.Context, actor *models.User, status models.SwapStatus, limit, offset int) ([]models.SwapRequest, int64, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Validation("unknown status %q", status)
	}
	out, total, err := s.store.ListSwaps(ctx, models.SwapFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, apperr.Unexpected(err, "failed to list swaps")
	}
	return out, total, nil
}

// Stats returns platform counters. Closed swaps count as completed.
func (s *Service) Stats(ctx context.Context, actor *models.User) (*models.PlatformStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	st, err := s.store.PlatformStats(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load stats")
	}
	st.AverageRating = models.RoundRating(st.AverageRating)
	return st, nil
}

func (s *Service) Broadcast(ctx context.Context, actor *models.User, body string) (*models.PlatformMessage, int, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, 0, err
	}
	return s.broadcaster.Broadcast(ctx, actor, body)
}
