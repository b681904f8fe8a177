// Package notify records lifecycle events per recipient and fans out admin
// broadcasts. Notifications are pulled by clients; nothing is pushed.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/metrics"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository"
)

// Store is the persistence the sink needs.
type Store interface {
	repository.Transactor
	repository.NotificationRepo
	repository.UserRepo
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Emit appends n for its recipient. Called with a transaction context it
// joins that transaction, so the event commits or rolls back with the
// transition that produced it.
func (s *Service) Emit(ctx context.Context, n *models.Notification) error {
	if n == nil || n.UserID == "" {
		return apperr.Validation("notification recipient is required")
	}
	if _, err := s.store.CreateNotification(ctx, n); err != nil {
		return apperr.Unexpected(err, "failed to create notification")
	}
	metrics.RecordNotification(string(n.Type))

	return nil
}

// List returns the recipient's notifications newest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.Notification, error) {
	out, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to list notifications")
	}
	return out, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperr.Unexpected(err, "failed to count notifications")
	}
	return n, nil
}

// MarkRead flags one of the caller's notifications as read. Notifications of
// other users are reported as not found.
func (s *Service) MarkRead(ctx context.Context, id int64, userID string) error {
	ok, err := s.store.MarkRead(ctx, id, userID)
	if err != nil {
		return apperr.Unexpected(err, "failed to mark notification")
	}
	if !ok {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64, userID string) error {
	ok, err := s.store.DeleteNotification(ctx, id, userID)
	if err != nil {
		return apperr.Unexpected(err, "failed to delete notification")
	}
	if !ok {
		return apperr.NotFound("notification not found")
	}
	return nil
}

// Broadcast stores a platform message from admin and writes one notification
// to every public, non-banned, non-admin user. It returns the message and the
// number of recipients.
func (s *Service) Broadcast(ctx context.Context, admin *models.User, body string) (*models.PlatformMessage, int, error) {
	if !admin.IsAdmin() {
		return nil, 0, apperr.Forbidden("admin access required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, 0, apperr.Validation("message is required")
	}

	msg := &models.PlatformMessage{AdminID: admin.ID, AdminName: admin.Name, Body: body}
	recipients := 0
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.CreatePlatformMessage(ctx, msg); err != nil {
			return apperr.Unexpected(err, "failed to store platform message")
		}

		ids, err := s.store.ListBroadcastRecipients(ctx, admin.ID)
		if err != nil {
			return apperr.Unexpected(err, "failed to list recipients")
		}

		related := fmt.Sprintf("%d", msg.ID)
		for _, id := range ids {
			n := &models.Notification{
				UserID:    id,
				Type:      models.NotifyPlatformMessage,
				Title:     fmt.Sprintf("Platform Message from %s", admin.Name),
				Body:      body,
				RelatedID: &related,
			}
			if err := s.Emit(ctx, n); err != nil {
				return err
			}
		}
		recipients = len(ids)

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	s.logger.Info("platform message broadcast", slog.Int64("message_id", msg.ID), slog.Int("recipients", recipients))
	return msg, recipients, nil
}

func (s *Service) PlatformMessages(ctx context.Context) ([]models.PlatformMessage, error) {
	out, err := s.store.ListPlatformMessages(ctx)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to list platform messages")
	}
	return out, nil
}
