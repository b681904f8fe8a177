package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/internal/notify"
	"github.com/skillswap/swapd/internal/repository/sqlite/sqlitetest"
	"github.com/skillswap/swapd/pkg/repository/mock"
)

func TestOwnerScopedOperations(t *testing.T) {
	store := mock.NewStore()
	svc := notify.New(store, nil)
	ctx := context.Background()

	n := &models.Notification{UserID: "alice", Type: models.NotifySwapRequest, Title: "t", Body: "b"}
	if err := svc.Emit(ctx, n); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := svc.Emit(ctx, &models.Notification{Title: "no recipient"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation for missing recipient, got %v", err)
	}

	if err := svc.MarkRead(ctx, n.ID, "bob"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound for foreign notification, got %v", err)
	}
	if err := svc.Delete(ctx, n.ID, "bob"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected NotFound for foreign delete, got %v", err)
	}

	unread, err := svc.UnreadCount(ctx, "alice")
	if err != nil || unread != 1 {
		t.Fatalf("UnreadCount: %v %d", err, unread)
	}
	if err := svc.MarkRead(ctx, n.ID, "alice"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	unread, err = svc.UnreadCount(ctx, "alice")
	if err != nil || unread != 0 {
		t.Fatalf("UnreadCount after read: %v %d", err, unread)
	}

	if err := svc.Delete(ctx, n.ID, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, err := svc.List(ctx, "alice")
	if err != nil || len(list) != 0 {
		t.Fatalf("List after delete: %v %#v", err, list)
	}
}

func TestStorageFailureIsUnexpected(t *testing.T) {
	store := mock.NewStore()
	store.Err = errors.New("disk I/O error")
	svc := notify.New(store, nil)

	_, err := svc.List(context.Background(), "alice")
	if apperr.KindOf(err) != apperr.KindUnexpected {
		t.Fatalf("expected Unexpected, got %v", err)
	}
	if apperr.Message(err) != "internal server error" {
		t.Fatalf("storage detail leaked: %q", apperr.Message(err))
	}
}

func TestBroadcastFansOut(t *testing.T) {
	repo := sqlitetest.New(t)
	ctx := context.Background()
	users := []*models.User{
		{ID: "admin", Name: "Root", Email: "root@example.com", IsPublic: true, Role: models.RoleAdmin},
		{ID: "alice", Name: "alice", Email: "alice@example.com", IsPublic: true},
		{ID: "bob", Name: "bob", Email: "bob@example.com", IsPublic: true},
		{ID: "hidden", Name: "hidden", Email: "hidden@example.com", IsPublic: false},
		{ID: "banned", Name: "banned", Email: "banned@example.com", IsPublic: true, IsBanned: true},
	}
	for _, u := range users {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	svc := notify.New(repo, nil)

	if _, _, err := svc.Broadcast(ctx, users[1], "hello"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected Forbidden for non-admin, got %v", err)
	}
	if _, _, err := svc.Broadcast(ctx, users[0], "   "); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation for empty body, got %v", err)
	}

	msg, n, err := svc.Broadcast(ctx, users[0], "Scheduled maintenance tonight")
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if n != 2 || msg.ID == 0 || msg.AdminName != "Root" {
		t.Fatalf("unexpected broadcast result: %d %#v", n, msg)
	}

	for _, id := range []string{"alice", "bob"} {
		list, err := svc.List(ctx, id)
		if err != nil || len(list) != 1 {
			t.Fatalf("List %s: %v %#v", id, err, list)
		}
		if list[0].Type != models.NotifyPlatformMessage || list[0].Title != "Platform Message from Root" {
			t.Fatalf("unexpected notification: %#v", list[0])
		}
	}
	for _, id := range []string{"admin", "hidden", "banned"} {
		list, err := svc.List(ctx, id)
		if err != nil || len(list) != 0 {
			t.Fatalf("%s must not receive the broadcast: %v %#v", id, err, list)
		}
	}

	msgs, err := svc.PlatformMessages(ctx)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("PlatformMessages: %v %#v", err, msgs)
	}
}
