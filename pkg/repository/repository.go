package repository

import (
	"context"
	"errors"

	"github.com/skillswap/swapd/internal/models"
)

// Repository interfaces for domain entities. These are the public contracts
// services depend on; concrete implementations live under internal/.
// Lookups return (nil, nil) when the row does not exist.

// ErrConflict is returned (wrapped) when an insert or update violates a unique
// constraint.
var ErrConflict = errors.New("unique constraint violation")

// Transactor runs fn atomically. Repository calls made with the ctx passed to
// fn take part in the transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	SetBanned(ctx context.Context, id string, banned bool) error
	SetRole(ctx context.Context, id string, role models.Role) error
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, int64, error)
	ListPublicUsers(ctx context.Context, skill string, limit, offset int) ([]models.User, error)
	ListBroadcastRecipients(ctx context.Context, excludeID string) ([]string, error)
}

type SkillRepo interface {
	CreateSkill(ctx context.Context, s *models.Skill) (int64, error)
	GetSkill(ctx context.Context, id int64) (*models.Skill, error)
	GetSkillByName(ctx context.Context, name string) (*models.Skill, error)
	SearchSkills(ctx context.Context, name, category string) ([]models.Skill, error)
	AddUserSkill(ctx context.Context, us *models.UserSkill) (int64, error)
	GetUserSkill(ctx context.Context, id int64) (*models.UserSkill, error)
	DeleteUserSkill(ctx context.Context, id int64) error
	ListUserSkills(ctx context.Context, userID string, dir models.Direction) ([]models.UserSkill, error)
	HasUserSkill(ctx context.Context, userID string, skillID int64, dir models.Direction) (bool, error)
}

type SwapRepo interface {
	CreateSwap(ctx context.Context, s *models.SwapRequest) (int64, error)
	GetSwap(ctx context.Context, id int64) (*models.SwapRequest, error)
	// LockSwap reads the swap for update. Must be called inside WithTx.
	LockSwap(ctx context.Context, id int64) (*models.SwapRequest, error)
	FindPendingDuplicate(ctx context.Context, requesterID, counterpartID string, offeredSkillID, wantedSkillID int64) (*models.SwapRequest, error)
	UpdateSwapStatus(ctx context.Context, id int64, status models.SwapStatus) error
	// RecordClosure stores that userID closed swapID and bumps closed_count.
	// Returns ErrConflict when the user already closed the swap.
	RecordClosure(ctx context.Context, swapID int64, userID string) (int, error)
	DeleteSwap(ctx context.Context, id int64) error
	ListSwaps(ctx context.Context, f models.SwapFilter) ([]models.SwapRequest, int64, error)
}

type FeedbackRepo interface {
	CreateFeedback(ctx context.Context, f *models.Feedback) (int64, error)
	GetFeedbackByRater(ctx context.Context, swapID int64, raterID string) (*models.Feedback, error)
	ListFeedbackForUser(ctx context.Context, userID string) ([]models.Feedback, error)
	ListFeedbackForSwap(ctx context.Context, swapID int64) ([]models.Feedback, error)
	RatingSummary(ctx context.Context, userID string) (avg float64, count int, err error)
}

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *models.Notification) (int64, error)
	ListNotifications(ctx context.Context, userID string) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead and DeleteNotification report false when no row owned by userID matched.
	MarkRead(ctx context.Context, id int64, userID string) (bool, error)
	DeleteNotification(ctx context.Context, id int64, userID string) (bool, error)
	CreatePlatformMessage(ctx context.Context, m *models.PlatformMessage) (int64, error)
	ListPlatformMessages(ctx context.Context) ([]models.PlatformMessage, error)
}

type ChatRepo interface {
	CreateMessage(ctx context.Context, m *models.ChatMessage) (int64, error)
	ListMessages(ctx context.Context, swapID int64) ([]models.ChatMessage, error)
}

type StatsRepo interface {
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
}
