// Package swap implements the swap request lifecycle:
//
//	pending -> accepted -> completed -> closed
//	pending -> rejected
//	pending -> cancelled
//
// Rejected, cancelled and closed are terminal. A swap closes once both
// participants have signalled closure; each participant counts once.
//
// Every transition re-reads the swap inside one transaction and mutates it
// only if the status still allows the action, so concurrent callers cannot
// both win a conflicting transition.
package swap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/metrics"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository"
)

// Store is the persistence the engine needs.
type Store interface {
	repository.Transactor
	repository.SwapRepo
	repository.UserRepo
}

// Catalog resolves skills and skill ownership. Calls receive the transaction
// context of the operation.
type Catalog interface {
	GetSkill(ctx context.Context, id int64) (*models.Skill, error)
	HasOffered(ctx context.Context, userID string, skillID int64) (bool, error)
}

// Notifier receives lifecycle events. Emit is called with the transaction
// context of the transition.
type Notifier interface {
	Emit(ctx context.Context, n *models.Notification) error
}

type Engine struct {
	store    Store
	catalog  Catalog
	notifier Notifier
	logger   *slog.Logger
}

func New(store Store, catalog Catalog, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, catalog: catalog, notifier: notifier, logger: logger}
}

type CreateInput struct {
	CounterpartID  string `json:"counterpart_id"`
	OfferedSkillID int64  `json:"offered_skill_id"`
	WantedSkillID  int64  `json:"wanted_skill_id"`
	Message        string `json:"message"`
}

// Create opens a pending swap from requesterID to the counterpart. The
// requester must offer the offered skill and the counterpart must offer the
// wanted skill.
func (e *Engine) Create(ctx context.Context, requesterID string, in CreateInput) (*models.SwapRequest, error) {
	s, err := e.create(ctx, requesterID, in)
	record("create", err)
	return s, err
}

func (e *Engine) create(ctx context.Context, requesterID string, in CreateInput) (*models.SwapRequest, error) {
	in.CounterpartID = strings.TrimSpace(in.CounterpartID)
	if in.CounterpartID == "" || in.OfferedSkillID <= 0 || in.WantedSkillID <= 0 {
		return nil, apperr.Validation("counterpart_id, offered_skill_id and wanted_skill_id are required")
	}
	if in.CounterpartID == requesterID {
		return nil, apperr.Validation("cannot request a swap with yourself")
	}

	var out *models.SwapRequest
	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		requester, err := e.store.GetUser(ctx, requesterID)
		if err != nil {
			return apperr.Unexpected(err, "failed to load requester")
		}
		if requester == nil {
			return apperr.NotFound("requester not found")
		}

		counterpart, err := e.store.GetUser(ctx, in.CounterpartID)
		if err != nil {
			return apperr.Unexpected(err, "failed to load counterpart")
		}
		if counterpart == nil {
			return apperr.NotFound("user %s not found", in.CounterpartID)
		}
		if counterpart.IsBanned {
			return apperr.Forbidden("cannot request a swap with a banned user")
		}

		offered, err := e.catalog.GetSkill(ctx, in.OfferedSkillID)
		if err != nil {
			return err
		}
		wanted, err := e.catalog.GetSkill(ctx, in.WantedSkillID)
		if err != nil {
			return err
		}

		ok, err := e.catalog.HasOffered(ctx, requesterID, offered.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InvalidState("you do not offer %s", offered.Name)
		}
		ok, err = e.catalog.HasOffered(ctx, counterpart.ID, wanted.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("%s does not offer %s", counterpart.Name, wanted.Name)
		}

		dup, err := e.store.FindPendingDuplicate(ctx, requesterID, counterpart.ID, offered.ID, wanted.ID)
		if err != nil {
			return apperr.Unexpected(err, "failed to check pending swaps")
		}
		if dup != nil {
			return apperr.InvalidState("an identical swap request is already pending")
		}

		s := &models.SwapRequest{
			RequesterID:    requesterID,
			CounterpartID:  counterpart.ID,
			OfferedSkillID: offered.ID,
			WantedSkillID:  wanted.ID,
			Message:        strings.TrimSpace(in.Message),
			Status:         models.StatusPending,
		}
		if _, err := e.store.CreateSwap(ctx, s); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperr.InvalidState("an identical swap request is already pending")
			}
			return apperr.Unexpected(err, "failed to create swap")
		}

		if err := e.emit(ctx, counterpart.ID, models.NotifySwapRequest, s.ID,
			fmt.Sprintf("New Swap Request from %s", requester.Name),
			fmt.Sprintf("%s wants to swap '%s' for '%s'", requester.Name, offered.Name, wanted.Name)); err != nil {
			return err
		}

		out = s
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create swap")
	}

	e.logger.Info("swap requested", slog.Int64("swap_id", out.ID), slog.String("requester", out.RequesterID), slog.String("counterpart", out.CounterpartID))
	return out, nil
}

// Accept moves a pending swap to accepted. Only the counterpart may accept.
func (e *Engine) Accept(ctx context.Context, id int64, actor string) (*models.SwapRequest, error) {
	return e.respond(ctx, "accept", id, actor, models.StatusAccepted)
}

// Reject moves a pending swap to rejected. Only the counterpart may reject.
func (e *Engine) Reject(ctx context.Context, id int64, actor string) (*models.SwapRequest, error) {
	return e.respond(ctx, "reject", id, actor, models.StatusRejected)
}

func (e *Engine) respond(ctx context.Context, action string, id int64, actor string, to models.SwapStatus) (*models.SwapRequest, error) {
	s, err := e.transition(ctx, action, id, func(ctx context.Context, s *models.SwapRequest) error {
		if s.CounterpartID != actor {
			return apperr.Forbidden("only the recipient can %s this swap", action)
		}
		if s.Status != models.StatusPending {
			return apperr.InvalidState("cannot %s a swap that is %s", action, s.Status)
		}
		if err := e.setStatus(ctx, s, to); err != nil {
			return err
		}

		responder, err := e.store.GetUser(ctx, actor)
		if err != nil {
			return apperr.Unexpected(err, "failed to load user")
		}
		name := actor
		if responder != nil {
			name = responder.Name
		}

		if to == models.StatusAccepted {
			return e.emit(ctx, s.RequesterID, models.NotifySwapAccepted, s.ID,
				"Swap Request Accepted", fmt.Sprintf("%s has accepted your swap request", name))
		}
		return e.emit(ctx, s.RequesterID, models.NotifySwapRejected, s.ID,
			"Swap Request Rejected", fmt.Sprintf("%s has declined your swap request", name))
	})
	return s, err
}

// Cancel withdraws a pending swap. Only the requester may cancel.
func (e *Engine) Cancel(ctx context.Context, id int64, actor string) (*models.SwapRequest, error) {
	return e.transition(ctx, "cancel", id, func(ctx context.Context, s *models.SwapRequest) error {
		if s.RequesterID != actor {
			return apperr.Forbidden("only the requester can cancel this swap")
		}
		if s.Status != models.StatusPending {
			return apperr.InvalidState("cannot cancel a swap that is %s", s.Status)
		}
		return e.setStatus(ctx, s, models.StatusCancelled)
	})
}

// Complete marks an accepted swap as completed. Either participant may
// complete; completing twice is an error.
func (e *Engine) Complete(ctx context.Context, id int64, actor string) (*models.SwapRequest, error) {
	return e.transition(ctx, "complete", id, func(ctx context.Context, s *models.SwapRequest) error {
		if !s.IsParticipant(actor) {
			return apperr.Forbidden("only participants can complete this swap")
		}
		if s.Status != models.StatusAccepted {
			return apperr.InvalidState("cannot complete a swap that is %s", s.Status)
		}
		return e.setStatus(ctx, s, models.StatusCompleted)
	})
}

// Close records that actor considers the swap finished. The first distinct
// participant moves the counter to 1; the second closes the swap. A repeat by
// the same participant fails with DuplicateAction and changes nothing.
func (e *Engine) Close(ctx context.Context, id int64, actor string) (*models.SwapRequest, error) {
	return e.transition(ctx, "close", id, func(ctx context.Context, s *models.SwapRequest) error {
		if !s.IsParticipant(actor) {
			return apperr.Forbidden("only participants can close this swap")
		}
		if s.Status != models.StatusAccepted && s.Status != models.StatusCompleted {
			return apperr.InvalidState("cannot close a swap that is %s", s.Status)
		}
		if s.HasClosed(actor) {
			return apperr.Duplicate("you already closed this swap")
		}

		count, err := e.store.RecordClosure(ctx, s.ID, actor)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperr.Duplicate("you already closed this swap")
			}
			return apperr.Unexpected(err, "failed to record closure")
		}
		s.ClosedCount = count
		s.ClosedBy = append(s.ClosedBy, actor)

		if count >= 2 {
			return e.setStatus(ctx, s, models.StatusClosed)
		}
		return nil
	})
}

// Delete removes a swap with its feedback and chat. The requester may delete
// a pending swap; either participant may delete a terminal one.
func (e *Engine) Delete(ctx context.Context, id int64, actor string) error {
	_, err := e.transition(ctx, "delete", id, func(ctx context.Context, s *models.SwapRequest) error {
		if !s.IsParticipant(actor) {
			return apperr.Forbidden("only participants can delete this swap")
		}
		switch {
		case s.Status == models.StatusPending:
			if s.RequesterID != actor {
				return apperr.Forbidden("only the requester can delete a pending swap")
			}
		case s.Status.Terminal():
		default:
			return apperr.InvalidState("cannot delete a swap that is %s", s.Status)
		}

		if err := e.store.DeleteSwap(ctx, s.ID); err != nil {
			return apperr.Unexpected(err, "failed to delete swap")
		}
		return nil
	})
	return err
}

// Get returns the swap if actor participates in it. Non-participants get
// NotFound.
func (e *Engine) Get(ctx context.Context, id int64, actor string) (*models.SwapRequest, error) {
	s, err := e.store.GetSwap(ctx, id)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load swap")
	}
	if s == nil || !s.IsParticipant(actor) {
		return nil, apperr.NotFound("swap %d not found", id)
	}
	return s, nil
}

// List returns swaps actor sent or received, newest first, and the total
// number matching.
func (e *Engine) List(ctx context.Context, actor string, status models.SwapStatus, limit, offset int) ([]models.SwapRequest, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, apperr.Validation("unknown status %q", status)
	}
	out, total, err := e.store.ListSwaps(ctx, models.SwapFilter{UserID: actor, Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, apperr.Unexpected(err, "failed to list swaps")
	}
	return out, total, nil
}

// transition locks the swap, runs apply and commits. apply sees the current
// row and must return a domain error when the action is not allowed.
func (e *Engine) transition(ctx context.Context, action string, id int64, apply func(ctx context.Context, s *models.SwapRequest) error) (*models.SwapRequest, error) {
	var out *models.SwapRequest
	err := e.store.WithTx(ctx, func(ctx context.Context) error {
		s, err := e.store.LockSwap(ctx, id)
		if err != nil {
			return apperr.Unexpected(err, "failed to load swap")
		}
		if s == nil {
			return apperr.NotFound("swap %d not found", id)
		}
		from := s.Status
		if err := apply(ctx, s); err != nil {
			return err
		}
		if s.Status != from {
			e.logger.Info("swap transition", slog.Int64("swap_id", s.ID), slog.String("action", action),
				slog.String("from", string(from)), slog.String("to", string(s.Status)))
		}
		out = s
		return nil
	})
	record(action, err)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to "+action+" swap")
	}
	return out, nil
}

func (e *Engine) setStatus(ctx context.Context, s *models.SwapRequest, to models.SwapStatus) error {
	if err := e.store.UpdateSwapStatus(ctx, s.ID, to); err != nil {
		return apperr.Unexpected(err, "failed to update swap")
	}
	s.Status = to
	return nil
}

func (e *Engine) emit(ctx context.Context, to string, typ models.NotificationType, swapID int64, title, body string) error {
	if e.notifier == nil {
		return nil
	}
	related := strconv.FormatInt(swapID, 10)
	return e.notifier.Emit(ctx, &models.Notification{
		UserID:    to,
		Type:      typ,
		Title:     title,
		Body:      body,
		RelatedID: &related,
	})
}

func record(action string, err error) {
	result := "ok"
	if err != nil {
		result = string(apperr.KindOf(err))
	}
	metrics.RecordTransition(action, result)
}
