package swap_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/catalog"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/internal/notify"
	"github.com/skillswap/swapd/internal/rating"
	"github.com/skillswap/swapd/internal/repository/sqlite"
	"github.com/skillswap/swapd/internal/repository/sqlite/sqlitetest"
	"github.com/skillswap/swapd/internal/swap"
)

type fixture struct {
	repo   *sqlite.SQLiteRepo
	engine *swap.Engine
	ledger *rating.Ledger
	python int64
	guitar int64
}

// newFixture seeds the marketplace used throughout: alice offers Python, bob
// offers Guitar and wants Python.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := sqlitetest.New(t)

	for _, id := range []string{"alice", "bob", "carol"} {
		u := &models.User{ID: id, Name: id, Email: id + "@example.com", IsPublic: true}
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	f := &fixture{repo: repo}
	var err error
	if f.python, err = repo.CreateSkill(ctx, &models.Skill{Name: "Python"}); err != nil {
		t.Fatalf("CreateSkill: %v", err)
	}
	if f.guitar, err = repo.CreateSkill(ctx, &models.Skill{Name: "Guitar"}); err != nil {
		t.Fatalf("CreateSkill: %v", err)
	}
	for _, us := range []models.UserSkill{
		{UserID: "alice", SkillID: f.python, Direction: models.Offered},
		{UserID: "bob", SkillID: f.guitar, Direction: models.Offered},
		{UserID: "bob", SkillID: f.python, Direction: models.Wanted},
		{UserID: "carol", SkillID: f.guitar, Direction: models.Offered},
	} {
		if _, err := repo.AddUserSkill(ctx, &us); err != nil {
			t.Fatalf("AddUserSkill: %v", err)
		}
	}

	f.engine = swap.New(repo, catalog.New(repo, nil), notify.New(repo, nil), nil)
	f.ledger = rating.New(repo, nil)
	return f
}

func (f *fixture) request(t *testing.T) *models.SwapRequest {
	t.Helper()
	s, err := f.engine.Create(context.Background(), "alice", swap.CreateInput{
		CounterpartID: "bob", OfferedSkillID: f.python, WantedSkillID: f.guitar, Message: "hi",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s
}

func wantKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

func TestCreateEmitsNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.request(t)

	if s.Status != models.StatusPending || s.ClosedCount != 0 {
		t.Fatalf("unexpected new swap: %#v", s)
	}

	list, err := f.repo.ListNotifications(ctx, "bob")
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 1 || list[0].Type != models.NotifySwapRequest {
		t.Fatalf("expected swap request notification for bob: %#v", list)
	}
	if list[0].Title != "New Swap Request from alice" || list[0].Body != "alice wants to swap 'Python' for 'Guitar'" {
		t.Fatalf("unexpected notification text: %#v", list[0])
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := int64(9999)

	cases := []struct {
		name      string
		requester string
		in        swap.CreateInput
		want      apperr.Kind
	}{
		{name: "MissingFields", requester: "alice", in: swap.CreateInput{}, want: apperr.KindValidation},
		{name: "Self", requester: "alice", in: swap.CreateInput{CounterpartID: "alice", OfferedSkillID: f.python, WantedSkillID: f.guitar}, want: apperr.KindValidation},
		{name: "UnknownCounterpart", requester: "alice", in: swap.CreateInput{CounterpartID: "zed", OfferedSkillID: f.python, WantedSkillID: f.guitar}, want: apperr.KindNotFound},
		{name: "UnknownSkill", requester: "alice", in: swap.CreateInput{CounterpartID: "bob", OfferedSkillID: missing, WantedSkillID: f.guitar}, want: apperr.KindNotFound},
		{name: "RequesterLacksOffered", requester: "alice", in: swap.CreateInput{CounterpartID: "bob", OfferedSkillID: f.guitar, WantedSkillID: f.guitar}, want: apperr.KindInvalidState},
		{name: "CounterpartLacksWanted", requester: "alice", in: swap.CreateInput{CounterpartID: "bob", OfferedSkillID: f.python, WantedSkillID: f.python}, want: apperr.KindNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.engine.Create(ctx, c.requester, c.in)
			wantKind(t, err, c.want)
		})
	}
}

type denyingCatalog struct {
	*catalog.Service
	checked []string
}

func (c *denyingCatalog) HasOffered(_ context.Context, userID string, _ int64) (bool, error) {
	c.checked = append(c.checked, userID)
	return false, nil
}

func TestCreateConsultsCatalog(t *testing.T) {
	f := newFixture(t)
	cat := &denyingCatalog{Service: catalog.New(f.repo, nil)}
	engine := swap.New(f.repo, cat, notify.New(f.repo, nil), nil)

	_, err := engine.Create(context.Background(), "alice", swap.CreateInput{CounterpartID: "bob", OfferedSkillID: f.python, WantedSkillID: f.guitar})
	wantKind(t, err, apperr.KindInvalidState)
	if len(cat.checked) != 1 || cat.checked[0] != "alice" {
		t.Fatalf("unexpected ownership checks: %v", cat.checked)
	}
}

func TestCreateDuplicatePending(t *testing.T) {
	f := newFixture(t)
	f.request(t)

	_, err := f.engine.Create(context.Background(), "alice", swap.CreateInput{
		CounterpartID: "bob", OfferedSkillID: f.python, WantedSkillID: f.guitar,
	})
	wantKind(t, err, apperr.KindInvalidState)
}

func TestCreateAgainstBannedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.repo.SetBanned(ctx, "bob", true); err != nil {
		t.Fatalf("SetBanned: %v", err)
	}

	_, err := f.engine.Create(ctx, "alice", swap.CreateInput{
		CounterpartID: "bob", OfferedSkillID: f.python, WantedSkillID: f.guitar,
	})
	if !errors.Is(err, apperr.ErrForbidden) && !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected Forbidden or NotFound, got %v", err)
	}
}

func TestAcceptRejectOnlyFromPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// accepted, completed, closed and rejected swaps all refuse accept/reject
	accepted := f.request(t)
	if _, err := f.engine.Accept(ctx, accepted.ID, "bob"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	_, err := f.engine.Accept(ctx, accepted.ID, "bob")
	wantKind(t, err, apperr.KindInvalidState)
	_, err = f.engine.Reject(ctx, accepted.ID, "bob")
	wantKind(t, err, apperr.KindInvalidState)

	if _, err := f.engine.Complete(ctx, accepted.ID, "alice"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	_, err = f.engine.Accept(ctx, accepted.ID, "bob")
	wantKind(t, err, apperr.KindInvalidState)

	for _, who := range []string{"alice", "bob"} {
		if _, err := f.engine.Close(ctx, accepted.ID, who); err != nil {
			t.Fatalf("Close %s: %v", who, err)
		}
	}
	_, err = f.engine.Reject(ctx, accepted.ID, "bob")
	wantKind(t, err, apperr.KindInvalidState)

	rejected := f.request(t)
	if _, err := f.engine.Reject(ctx, rejected.ID, "bob"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	_, err = f.engine.Accept(ctx, rejected.ID, "bob")
	wantKind(t, err, apperr.KindInvalidState)
}

func TestAcceptAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.request(t)

	_, err := f.engine.Accept(ctx, s.ID, "alice")
	wantKind(t, err, apperr.KindForbidden)
	_, err = f.engine.Reject(ctx, s.ID, "carol")
	wantKind(t, err, apperr.KindForbidden)
	_, err = f.engine.Accept(ctx, 4242, "bob")
	wantKind(t, err, apperr.KindNotFound)

	got, err := f.engine.Accept(ctx, s.ID, "bob")
	if err != nil || got.Status != models.StatusAccepted {
		t.Fatalf("Accept: %v %#v", err, got)
	}

	list, err := f.repo.ListNotifications(ctx, "alice")
	if err != nil || len(list) != 1 || list[0].Title != "Swap Request Accepted" {
		t.Fatalf("expected accepted notification: %v %#v", err, list)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.request(t)

	_, err := f.engine.Cancel(ctx, s.ID, "bob")
	wantKind(t, err, apperr.KindForbidden)

	got, err := f.engine.Cancel(ctx, s.ID, "alice")
	if err != nil || got.Status != models.StatusCancelled {
		t.Fatalf("Cancel: %v %#v", err, got)
	}
	_, err = f.engine.Cancel(ctx, s.ID, "alice")
	wantKind(t, err, apperr.KindInvalidState)

	// a cancelled request frees the tuple
	f.request(t)
}

func TestCompleteTwiceIsInvalidState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.request(t)

	_, err := f.engine.Complete(ctx, s.ID, "alice")
	wantKind(t, err, apperr.KindInvalidState)

	if _, err := f.engine.Accept(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	_, err = f.engine.Complete(ctx, s.ID, "carol")
	wantKind(t, err, apperr.KindForbidden)

	if _, err := f.engine.Complete(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	_, err = f.engine.Complete(ctx, s.ID, "alice")
	wantKind(t, err, apperr.KindInvalidState)
}

func TestCloseCountsDistinctParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.request(t)

	_, err := f.engine.Close(ctx, s.ID, "alice")
	wantKind(t, err, apperr.KindInvalidState)

	if _, err := f.engine.Accept(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	got, err := f.engine.Close(ctx, s.ID, "alice")
	if err != nil || got.ClosedCount != 1 || got.Status != models.StatusAccepted {
		t.Fatalf("first close: %v %#v", err, got)
	}

	_, err = f.engine.Close(ctx, s.ID, "alice")
	wantKind(t, err, apperr.KindDuplicateAction)

	stored, err := f.repo.GetSwap(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSwap: %v", err)
	}
	if stored.ClosedCount != 1 || stored.Status != models.StatusAccepted {
		t.Fatalf("repeat close must not advance the counter: %#v", stored)
	}

	_, err = f.engine.Close(ctx, s.ID, "carol")
	wantKind(t, err, apperr.KindForbidden)

	got, err = f.engine.Close(ctx, s.ID, "bob")
	if err != nil || got.ClosedCount != 2 || got.Status != models.StatusClosed {
		t.Fatalf("second close: %v %#v", err, got)
	}

	_, err = f.engine.Close(ctx, s.ID, "bob")
	wantKind(t, err, apperr.KindInvalidState)
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.request(t)
	wantKind(t, f.engine.Delete(ctx, pending.ID, "bob"), apperr.KindForbidden)
	wantKind(t, f.engine.Delete(ctx, pending.ID, "carol"), apperr.KindForbidden)
	if err := f.engine.Delete(ctx, pending.ID, "alice"); err != nil {
		t.Fatalf("requester delete of pending: %v", err)
	}
	_, err := f.engine.Get(ctx, pending.ID, "alice")
	wantKind(t, err, apperr.KindNotFound)

	active := f.request(t)
	if _, err := f.engine.Accept(ctx, active.ID, "bob"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	wantKind(t, f.engine.Delete(ctx, active.ID, "alice"), apperr.KindInvalidState)
	wantKind(t, f.engine.Delete(ctx, 31337, "alice"), apperr.KindNotFound)
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.request(t)

	if _, err := f.engine.Get(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("Get by participant: %v", err)
	}
	_, err := f.engine.Get(ctx, s.ID, "carol")
	wantKind(t, err, apperr.KindNotFound)

	out, total, err := f.engine.List(ctx, "bob", "", 10, 0)
	if err != nil || total != 1 || len(out) != 1 {
		t.Fatalf("List: %v %d %#v", err, total, out)
	}
	for _, who := range []string{"alice", "bob"} {
		out, total, err = f.engine.List(ctx, who, models.StatusPending, 10, 0)
		if err != nil || total != 1 || len(out) != 1 {
			t.Fatalf("List pending for %s: %v %d %#v", who, err, total, out)
		}
	}
	out, total, err = f.engine.List(ctx, "bob", models.StatusAccepted, 10, 0)
	if err != nil || total != 0 || len(out) != 0 {
		t.Fatalf("List accepted: %v %d %#v", err, total, out)
	}
	_, _, err = f.engine.List(ctx, "bob", "bogus", 10, 0)
	wantKind(t, err, apperr.KindValidation)
}

func TestScenarioFullLifecycleWithRating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.request(t)
	if s.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", s.Status)
	}

	s, err := f.engine.Accept(ctx, s.ID, "bob")
	if err != nil || s.Status != models.StatusAccepted {
		t.Fatalf("Accept: %v %#v", err, s)
	}
	s, err = f.engine.Complete(ctx, s.ID, "alice")
	if err != nil || s.Status != models.StatusCompleted {
		t.Fatalf("Complete: %v %#v", err, s)
	}
	s, err = f.engine.Close(ctx, s.ID, "alice")
	if err != nil || s.ClosedCount != 1 || s.Status != models.StatusCompleted {
		t.Fatalf("Close alice: %v %#v", err, s)
	}
	s, err = f.engine.Close(ctx, s.ID, "bob")
	if err != nil || s.ClosedCount != 2 || s.Status != models.StatusClosed {
		t.Fatalf("Close bob: %v %#v", err, s)
	}

	if _, err := f.ledger.Submit(ctx, s.ID, "alice", rating.SubmitInput{RatedUserID: "bob", Score: 5}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	_, err = f.ledger.Submit(ctx, s.ID, "alice", rating.SubmitInput{RatedUserID: "bob", Score: 4})
	wantKind(t, err, apperr.KindDuplicateAction)

	agg, err := f.ledger.Aggregate(ctx, "bob")
	if err != nil || agg.Average != 5 || agg.Total != 1 {
		t.Fatalf("Aggregate: %v %#v", err, agg)
	}
}

func TestScenarioRejectThenDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.request(t)
	if _, err := f.repo.CreateMessage(ctx, &models.ChatMessage{SwapID: s.ID, SenderID: "alice", Body: "please?"}); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}

	s, err := f.engine.Reject(ctx, s.ID, "bob")
	if err != nil || s.Status != models.StatusRejected {
		t.Fatalf("Reject: %v %#v", err, s)
	}
	_, err = f.engine.Accept(ctx, s.ID, "bob")
	wantKind(t, err, apperr.KindInvalidState)

	if err := f.engine.Delete(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("counterpart Delete: %v", err)
	}
	gone, err := f.repo.GetSwap(ctx, s.ID)
	if err != nil || gone != nil {
		t.Fatalf("expected swap removed: %v %#v", err, gone)
	}
	msgs, err := f.repo.ListMessages(ctx, s.ID)
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected chat removed: %v %#v", err, msgs)
	}
}

func TestDeleteClosedSwapRemovesFeedback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.request(t)
	if _, err := f.engine.Accept(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if _, err := f.engine.Complete(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := f.ledger.Submit(ctx, s.ID, "alice", rating.SubmitInput{RatedUserID: "bob", Score: 4}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for _, who := range []string{"alice", "bob"} {
		if _, err := f.engine.Close(ctx, s.ID, who); err != nil {
			t.Fatalf("Close %s: %v", who, err)
		}
	}

	if err := f.engine.Delete(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	gone, err := f.repo.GetSwap(ctx, s.ID)
	if err != nil || gone != nil {
		t.Fatalf("expected swap removed: %v %#v", err, gone)
	}
	fb, err := f.repo.ListFeedbackForSwap(ctx, s.ID)
	if err != nil || len(fb) != 0 {
		t.Fatalf("expected feedback removed: %v %#v", err, fb)
	}
	agg, err := f.ledger.Aggregate(ctx, "bob")
	if err != nil || agg.Total != 0 {
		t.Fatalf("Aggregate after delete: %v %#v", err, agg)
	}
}

func TestConcurrentAcceptAndReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.request(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.engine.Accept(ctx, s.ID, "bob")
			} else {
				_, err = f.engine.Reject(ctx, s.ID, "bob")
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case apperr.KindOf(err) != apperr.KindInvalidState:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one transition to win, got %d", wins)
	}
}

func TestConcurrentCloseBySameActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.request(t)
	if _, err := f.engine.Accept(ctx, s.ID, "bob"); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Close(ctx, s.ID, "alice")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case apperr.KindOf(err) != apperr.KindDuplicateAction:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected a single recorded closure, got %d", wins)
	}

	stored, err := f.repo.GetSwap(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSwap: %v", err)
	}
	if stored.ClosedCount != 1 || stored.Status != models.StatusAccepted {
		t.Fatalf("same actor must not close alone: %#v", stored)
	}
}
