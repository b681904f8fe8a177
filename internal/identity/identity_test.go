package identity_test

import (
	"context"
	"testing"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/identity"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository/mock"
)

func TestResolve(t *testing.T) {
	store := mock.NewStore()
	ctx := context.Background()
	for _, u := range []*models.User{
		{ID: "alice", Name: "Alice", Email: "alice@example.com"},
		{ID: "mallory", Name: "Mallory", Email: "mallory@example.com", IsBanned: true},
		{ID: "root", Name: "Root", Email: "root@example.com", Role: models.RoleAdmin},
	} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	gate := identity.New(store, nil)

	cases := []struct {
		name string
		id   string
		want apperr.Kind
	}{
		{name: "Empty", id: "", want: apperr.KindUnauthenticated},
		{name: "Unknown", id: "ghost", want: apperr.KindNotFound},
		{name: "Banned", id: "mallory", want: apperr.KindForbidden},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := gate.Resolve(ctx, c.id)
			if err == nil || apperr.KindOf(err) != c.want {
				t.Fatalf("want %s got %v", c.want, err)
			}
		})
	}

	u, err := gate.Resolve(ctx, "alice")
	if err != nil || u.Name != "Alice" {
		t.Fatalf("Resolve: %v %#v", err, u)
	}
	if identity.IsAdmin(u) {
		t.Fatalf("alice must not be admin")
	}

	if _, err := gate.RequireAdmin(ctx, "alice"); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected Forbidden for non-admin, got %v", err)
	}
	admin, err := gate.RequireAdmin(ctx, "root")
	if err != nil || !identity.IsAdmin(admin) {
		t.Fatalf("RequireAdmin: %v %#v", err, admin)
	}
}

func TestSyncProfile(t *testing.T) {
	store := mock.NewStore()
	gate := identity.New(store, nil)
	ctx := context.Background()

	if _, _, err := gate.SyncProfile(ctx, "alice", identity.ProfileInput{Name: "Alice"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation without email, got %v", err)
	}
	if _, _, err := gate.SyncProfile(ctx, "alice", identity.ProfileInput{Name: "Alice", Email: "not-an-email"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation for bad email, got %v", err)
	}

	u, created, err := gate.SyncProfile(ctx, "alice", identity.ProfileInput{Name: "Alice", Email: "alice@example.com", Location: "Porto"})
	if err != nil || !created {
		t.Fatalf("first sync: %v created=%v", err, created)
	}
	if !u.IsPublic || u.Role != models.RoleUser {
		t.Fatalf("unexpected defaults: %#v", u)
	}

	private := false
	u, created, err = gate.SyncProfile(ctx, "alice", identity.ProfileInput{Availability: "weekends", IsPublic: &private})
	if err != nil || created {
		t.Fatalf("second sync: %v created=%v", err, created)
	}
	if u.Location != "Porto" || u.Availability != "weekends" || u.IsPublic {
		t.Fatalf("update must keep unspecified fields: %#v", u)
	}

	if _, _, err := gate.SyncProfile(ctx, "bob", identity.ProfileInput{Name: "Bob", Email: "alice@example.com"}); apperr.KindOf(err) != apperr.KindDuplicateAction {
		t.Fatalf("expected DuplicateAction for taken email, got %v", err)
	}

	if err := store.SetBanned(ctx, "alice", true); err != nil {
		t.Fatalf("SetBanned: %v", err)
	}
	if _, err := gate.UpdateProfile(ctx, "alice", identity.ProfileInput{Name: "A"}); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("banned user must not update profile, got %v", err)
	}
}
