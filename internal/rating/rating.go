// Package rating records one rating per participant per swap and aggregates
// the ratings a user received.
package rating

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/metrics"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository"
)

type Store interface {
	repository.Transactor
	repository.SwapRepo
	repository.FeedbackRepo
	repository.UserRepo
}

type Ledger struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger}
}

type SubmitInput struct {
	// RatedUserID defaults to the other participant when empty.
	RatedUserID string `json:"rated_user_id"`
	Score       int    `json:"rating"`
	Comment     string `json:"comment"`
}

// Submit stores rater's feedback on the other participant of a completed or
// closed swap.
func (l *Ledger) Submit(ctx context.Context, swapID int64, raterID string, in SubmitInput) (*models.Feedback, error) {
	f, err := l.submit(ctx, swapID, raterID, in)
	result := "ok"
	if err != nil {
		result = string(apperr.KindOf(err))
	}
	metrics.RecordRating(result)
	return f, err
}

func (l *Ledger) submit(ctx context.Context, swapID int64, raterID string, in SubmitInput) (*models.Feedback, error) {
	if in.Score < 1 || in.Score > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	var out *models.Feedback
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		s, err := l.store.LockSwap(ctx, swapID)
		if err != nil {
			return apperr.Unexpected(err, "failed to load swap")
		}
		if s == nil {
			return apperr.NotFound("swap %d not found", swapID)
		}
		if s.Status != models.StatusCompleted && s.Status != models.StatusClosed {
			return apperr.InvalidState("can only rate a completed swap, this one is %s", s.Status)
		}
		if !s.IsParticipant(raterID) {
			return apperr.Forbidden("only participants can rate this swap")
		}

		rated := strings.TrimSpace(in.RatedUserID)
		if rated == "" {
			rated = s.Other(raterID)
		}
		if rated == raterID || !s.IsParticipant(rated) {
			return apperr.Forbidden("you can only rate the other participant")
		}

		prior, err := l.store.GetFeedbackByRater(ctx, s.ID, raterID)
		if err != nil {
			return apperr.Unexpected(err, "failed to check feedback")
		}
		if prior != nil {
			return apperr.Duplicate("you have already rated this swap")
		}

		f := &models.Feedback{
			SwapID:      s.ID,
			RaterID:     raterID,
			RatedUserID: rated,
			Score:       in.Score,
			Comment:     strings.TrimSpace(in.Comment),
		}
		if _, err := l.store.CreateFeedback(ctx, f); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return apperr.Duplicate("you have already rated this swap")
			}
			return apperr.Unexpected(err, "failed to store feedback")
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "failed to submit rating")
	}

	l.logger.Info("rating submitted", slog.Int64("swap_id", out.SwapID), slog.String("rated", out.RatedUserID), slog.Int("score", out.Score))
	return out, nil
}

// Aggregate returns the mean score (one decimal), count and feedback received
// by userID. A user without ratings gets 0 and an empty list.
func (l *Ledger) Aggregate(ctx context.Context, userID string) (*models.AggregateRating, error) {
	u, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load user")
	}
	if u == nil {
		return nil, apperr.NotFound("user %s not found", userID)
	}

	avg, count, err := l.store.RatingSummary(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load rating")
	}
	fb, err := l.store.ListFeedbackForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to list feedback")
	}

	return &models.AggregateRating{
		UserID:   userID,
		Average:  models.RoundRating(avg),
		Total:    count,
		Feedback: fb,
	}, nil
}

// SwapFeedback lists the feedback left on a swap. Only participants see it.
func (l *Ledger) SwapFeedback(ctx context.Context, swapID int64, actor string) ([]models.Feedback, error) {
	s, err := l.store.GetSwap(ctx, swapID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load swap")
	}
	if s == nil || !s.IsParticipant(actor) {
		return nil, apperr.NotFound("swap %d not found", swapID)
	}

	fb, err := l.store.ListFeedbackForSwap(ctx, swapID)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to list feedback")
	}
	return fb, nil
}
