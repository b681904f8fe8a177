package admin_test

import (
	"context"
	"testing"

	"github.com/skillswap/swapd/internal/admin"
	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/internal/notify"
	"github.com/skillswap/swapd/pkg/repository/mock"
)

func setup(t *testing.T) (*mock.Store, *admin.Service, *models.User, *models.User) {
	t.Helper()
	ctx := context.Background()
	store := mock.NewStore()
	root := &models.User{ID: "root", Name: "Root", Email: "root@example.com", IsPublic: true, Role: models.RoleAdmin}
	alice := &models.User{ID: "alice", Name: "Alice", Email: "alice@example.com", IsPublic: true}
	for _, u := range []*models.User{root, alice} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}
	return store, admin.New(store, notify.New(store, nil), nil), root, alice
}

func TestNonAdminRejected(t *testing.T) {
	_, svc, _, alice := setup(t)
	ctx := context.Background()

	checks := map[string]error{}
	_, _, checks["ListUsers"] = svc.ListUsers(ctx, alice, nil, 10, 0)
	_, checks["Ban"] = svc.Ban(ctx, alice, "root")
	_, checks["Unban"] = svc.Unban(ctx, alice, "root")
	_, _, checks["ListSwaps"] = svc.ListSwaps(ctx, alice, "", 10, 0)
	_, checks["Stats"] = svc.Stats(ctx, alice)
	_, _, checks["Broadcast"] = svc.Broadcast(ctx, alice, "hi")

	for name, err := range checks {
		if apperr.KindOf(err) != apperr.KindForbidden {
			t.Fatalf("%s: expected Forbidden, got %v", name, err)
		}
	}
}

func TestBanAndUnban(t *testing.T) {
	store, svc, root, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.Ban(ctx, root, "root"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation for self-ban, got %v", err)
	}
	if _, err := svc.Ban(ctx, root, "ghost"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	u, err := svc.Ban(ctx, root, "alice")
	if err != nil || !u.IsBanned {
		t.Fatalf("Ban: %v %#v", err, u)
	}

	banned := true
	list, total, err := svc.ListUsers(ctx, root, &banned, 10, 0)
	if err != nil || total != 1 || list[0].ID != "alice" {
		t.Fatalf("ListUsers banned: %v %d %#v", err, total, list)
	}

	if _, err := svc.Unban(ctx, root, "alice"); err != nil {
		t.Fatalf("Unban: %v", err)
	}
	stored, _ := store.GetUser(ctx, "alice")
	if stored.IsBanned {
		t.Fatalf("expected alice unbanned")
	}
}

func TestSwapsAndStats(t *testing.T) {
	store, svc, root, _ := setup(t)
	ctx := context.Background()

	for i, st := range []models.SwapStatus{models.StatusPending, models.StatusCompleted, models.StatusClosed} {
		s := &models.SwapRequest{RequesterID: "alice", CounterpartID: "root", OfferedSkillID: int64(i + 1), WantedSkillID: 9, Status: st}
		if _, err := store.CreateSwap(ctx, s); err != nil {
			t.Fatalf("CreateSwap: %v", err)
		}
	}
	for i, score := range []int{5, 4, 4} {
		f := &models.Feedback{SwapID: int64(i + 1), RaterID: "root", RatedUserID: "alice", Score: score}
		if _, err := store.CreateFeedback(ctx, f); err != nil {
			t.Fatalf("CreateFeedback: %v", err)
		}
	}

	if _, _, err := svc.ListSwaps(ctx, root, "weird", 10, 0); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected Validation for bad status, got %v", err)
	}
	pending, total, err := svc.ListSwaps(ctx, root, models.StatusPending, 10, 0)
	if err != nil || total != 1 || len(pending) != 1 {
		t.Fatalf("ListSwaps: %v %d %#v", err, total, pending)
	}

	st, err := svc.Stats(ctx, root)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalUsers != 2 || st.TotalSwaps != 3 || st.CompletedSwaps != 2 || st.PendingSwaps != 1 || st.AverageRating != 4.3 {
		t.Fatalf("unexpected stats: %#v", st)
	}
}
