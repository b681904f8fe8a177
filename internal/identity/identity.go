// Package identity resolves an authenticated caller id to a user record and
// enforces the ban flag and admin role.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository"
)

type Gate struct {
	users  repository.UserRepo
	logger *slog.Logger
}

func New(users repository.UserRepo, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{users: users, logger: logger}
}

// Resolve returns the caller's user. An empty id is unauthenticated, an unknown
// id is not found and a banned user is forbidden.
func (g *Gate) Resolve(ctx context.Context, userID string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Unauthenticated("missing caller identity")
	}

	u, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load user")
	}
	if u == nil {
		return nil, apperr.NotFound("user profile not found; sync your profile first")
	}
	if u.IsBanned {
		return nil, apperr.Forbidden("user is banned")
	}

	return u, nil
}

// RequireAdmin resolves the caller and rejects non-admins.
func (g *Gate) RequireAdmin(ctx context.Context, userID string) (*models.User, error) {
	u, err := g.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !IsAdmin(u) {
		return nil, apperr.Forbidden("admin access required")
	}
	return u, nil
}

// IsAdmin reports whether u holds the admin role.
func IsAdmin(u *models.User) bool {
	return u.IsAdmin()
}

// ProfileInput carries editable profile fields. Empty strings and a nil
// IsPublic leave the stored value unchanged on update.
type ProfileInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Location     string `json:"location"`
	Availability string `json:"availability"`
	IsPublic     *bool  `json:"is_public"`
}

// SyncProfile creates the caller's user on first call and updates it on later
// calls. created reports which happened.
func (g *Gate) SyncProfile(ctx context.Context, userID string, in ProfileInput) (u *models.User, created bool, err error) {
	if strings.TrimSpace(userID) == "" {
		return nil, false, apperr.Unauthenticated("missing caller identity")
	}

	existing, err := g.users.GetUser(ctx, userID)
	if err != nil {
		return nil, false, apperr.Unexpected(err, "failed to load user")
	}
	if existing != nil {
		u, err := g.UpdateProfile(ctx, userID, in)
		return u, false, err
	}

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, false, apperr.Validation("name and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, apperr.Validation("invalid email address")
	}

	u = &models.User{
		ID:           userID,
		Name:         name,
		Email:        email,
		Location:     strings.TrimSpace(in.Location),
		Availability: strings.TrimSpace(in.Availability),
		IsPublic:     true,
		Role:         models.RoleUser,
	}
	if in.IsPublic != nil {
		u.IsPublic = *in.IsPublic
	}
	if err := g.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, false, apperr.Duplicate("email already in use")
		}
		return nil, false, apperr.Unexpected(err, "failed to create user")
	}

	g.logger.Info("user profile created", slog.String("user_id", u.ID))
	return u, true, nil
}

// UpdateProfile applies in to the caller's existing profile.
func (g *Gate) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	u, err := g.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(in.Name); v != "" {
		u.Name = v
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		if _, err := mail.ParseAddress(v); err != nil {
			return nil, apperr.Validation("invalid email address")
		}
		u.Email = v
	}
	if v := strings.TrimSpace(in.Location); v != "" {
		u.Location = v
	}
	if v := strings.TrimSpace(in.Availability); v != "" {
		u.Availability = v
	}
	if in.IsPublic != nil {
		u.IsPublic = *in.IsPublic
	}

	if err := g.users.UpdateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Duplicate("email already in use")
		}
		return nil, apperr.Unexpected(err, "failed to update user")
	}

	return u, nil
}
