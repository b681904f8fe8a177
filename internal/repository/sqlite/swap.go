package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillswap/swapd/internal/models"
)

const swapColumns = `id, requester_id, counterpart_id, offered_skill_id, wanted_skill_id, message, status, closed_count, created, updated`

func scanSwap(row rowScanner) (*models.SwapRequest, error) {
	var s models.SwapRequest
	var status string
	if err := row.Scan(&s.ID, &s.RequesterID, &s.CounterpartID, &s.OfferedSkillID, &s.WantedSkillID, &s.Message, &status, &s.ClosedCount, &s.Created, &s.Updated); err != nil {
		return nil, err
	}
	s.Status = models.SwapStatus(status)
	s.ClosedBy = []string{}

	return &s, nil
}

func (r *SQLiteRepo) CreateSwap(ctx context.Context, s *models.SwapRequest) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("swap is nil")
	}
	if s.Status == "" {
		s.Status = models.StatusPending
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO swap_requests (requester_id, counterpart_id, offered_skill_id, wanted_skill_id, message, status, closed_count, created, updated) VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		s.RequesterID, s.CounterpartID, s.OfferedSkillID, s.WantedSkillID, s.Message, string(s.Status), ts, ts)
	if err != nil {
		return 0, conflict(err, "insert swap")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.ID = id
	s.ClosedCount = 0
	s.ClosedBy = []string{}
	s.Created, s.Updated = ts, ts

	return id, nil
}

func (r *SQLiteRepo) GetSwap(ctx context.Context, id int64) (*models.SwapRequest, error) {
	s, err := scanSwap(r.conn.QueryRow(ctx, `SELECT `+swapColumns+` FROM swap_requests WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get swap: %w", err)
	}
	if s.ClosedBy, err = r.closures(ctx, id); err != nil {
		return nil, err
	}

	return s, nil
}

// LockSwap is GetSwap issued inside an immediate transaction: the write lock
// is already held, so no other writer can change the row until commit.
func (r *SQLiteRepo) LockSwap(ctx context.Context, id int64) (*models.SwapRequest, error) {
	return r.GetSwap(ctx, id)
}

func (r *SQLiteRepo) closures(ctx context.Context, swapID int64) ([]string, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT user_id FROM swap_closures WHERE swap_id = ? ORDER BY created, user_id`, swapID)
	if err != nil {
		return nil, fmt.Errorf("list closures: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) FindPendingDuplicate(ctx context.Context, requesterID, counterpartID string, offeredSkillID, wantedSkillID int64) (*models.SwapRequest, error) {
	s, err := scanSwap(r.conn.QueryRow(ctx, `SELECT `+swapColumns+` FROM swap_requests WHERE requester_id = ? AND counterpart_id = ? AND offered_skill_id = ? AND wanted_skill_id = ? AND status = 'pending' LIMIT 1`,
		requesterID, counterpartID, offeredSkillID, wantedSkillID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending swap: %w", err)
	}

	return s, nil
}

func (r *SQLiteRepo) UpdateSwapStatus(ctx context.Context, id int64, status models.SwapStatus) error {
	_, err := r.conn.Exec(ctx, `UPDATE swap_requests SET status = ?, updated = ? WHERE id = ?`, string(status), now(), id)
	if err != nil {
		return fmt.Errorf("update swap status: %w", err)
	}
	return nil
}

func (r *SQLiteRepo) RecordClosure(ctx context.Context, swapID int64, userID string) (int, error) {
	ts := now()
	if _, err := r.conn.Exec(ctx, `INSERT INTO swap_closures (swap_id, user_id, created) VALUES (?, ?, ?)`, swapID, userID, ts); err != nil {
		return 0, conflict(err, "insert closure")
	}
	if _, err := r.conn.Exec(ctx, `UPDATE swap_requests SET closed_count = closed_count + 1, updated = ? WHERE id = ?`, ts, swapID); err != nil {
		return 0, fmt.Errorf("bump closed_count: %w", err)
	}

	var count int
	if err := r.conn.QueryRow(ctx, `SELECT closed_count FROM swap_requests WHERE id = ?`, swapID).Scan(&count); err != nil {
		return 0, fmt.Errorf("read closed_count: %w", err)
	}

	return count, nil
}

// DeleteSwap removes the swap and its children. Callers wrap it in WithTx.
func (r *SQLiteRepo) DeleteSwap(ctx context.Context, id int64) error {
	for _, q := range []string{
		`DELETE FROM feedback WHERE swap_id = ?`,
		`DELETE FROM chat_messages WHERE swap_id = ?`,
		`DELETE FROM swap_closures WHERE swap_id = ?`,
		`DELETE FROM swap_requests WHERE id = ?`,
	} {
		if _, err := r.conn.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("delete swap: %w", err)
		}
	}

	return nil
}

// ListSwaps returns swaps newest first with the total matching count. A
// non-empty UserID matches swaps the user sent or received.
func (r *SQLiteRepo) ListSwaps(ctx context.Context, f models.SwapFilter) ([]models.SwapRequest, int64, error) {
	where := ` WHERE 1 = 1`
	args := []any{}
	if f.UserID != "" {
		where += ` AND (requester_id = ? OR counterpart_id = ?)`
		args = append(args, f.UserID, f.UserID)
	}
	if f.Status != "" {
		// The unary + keeps the planner off the partial pending index, which
		// sqlite cannot combine with the participant OR.
		where += ` AND +status = ?`
		args = append(args, string(f.Status))
	}

	var total int64
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM swap_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count swaps: %w", err)
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+swapColumns+` FROM swap_requests`+where+` ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list swaps: %w", err)
	}

	out := []models.SwapRequest{}
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, err
	}
	// The pool holds a single connection: release the cursor before issuing
	// the closure lookups.
	rows.Close()

	for i := range out {
		if out[i].ClosedCount == 0 {
			continue
		}
		if out[i].ClosedBy, err = r.closures(ctx, out[i].ID); err != nil {
			return nil, 0, err
		}
	}

	return out, total, nil
}
