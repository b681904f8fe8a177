package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillswap/swapd/internal/models"
)

const feedbackColumns = `id, swap_id, rater_id, rated_user_id, score, comment, created`

func scanFeedback(row rowScanner) (*models.Feedback, error) {
	var f models.Feedback
	if err := row.Scan(&f.ID, &f.SwapID, &f.RaterID, &f.RatedUserID, &f.Score, &f.Comment, &f.Created); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *SQLiteRepo) CreateFeedback(ctx context.Context, f *models.Feedback) (int64, error) {
	if f == nil {
		return 0, fmt.Errorf("feedback is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO feedback (swap_id, rater_id, rated_user_id, score, comment, created) VALUES (?, ?, ?, ?, ?, ?)`,
		f.SwapID, f.RaterID, f.RatedUserID, f.Score, f.Comment, ts)
	if err != nil {
		return 0, conflict(err, "insert feedback")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	f.ID = id
	f.Created = ts

	return id, nil
}

func (r *SQLiteRepo) GetFeedbackByRater(ctx context.Context, swapID int64, raterID string) (*models.Feedback, error) {
	f, err := scanFeedback(r.conn.QueryRow(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE swap_id = ? AND rater_id = ?`, swapID, raterID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}

	return f, nil
}

func (r *SQLiteRepo) listFeedback(ctx context.Context, where string, arg any) ([]models.Feedback, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE `+where+` ORDER BY created DESC, id DESC`, arg)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	out := []models.Feedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}

	return out, rows.Err()
}

// ListFeedbackForUser returns feedback received by userID, newest first.
func (r *SQLiteRepo) ListFeedbackForUser(ctx context.Context, userID string) ([]models.Feedback, error) {
	return r.listFeedback(ctx, `rated_user_id = ?`, userID)
}

func (r *SQLiteRepo) ListFeedbackForSwap(ctx context.Context, swapID int64) ([]models.Feedback, error) {
	return r.listFeedback(ctx, `swap_id = ?`, swapID)
}

// RatingSummary returns the unrounded mean score and count for userID.
func (r *SQLiteRepo) RatingSummary(ctx context.Context, userID string) (float64, int, error) {
	var avg float64
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COALESCE(AVG(score), 0.0), COUNT(*) FROM feedback WHERE rated_user_id = ?`, userID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("rating summary: %w", err)
	}

	return avg, count, nil
}
