package sqlite

import (
	"context"
	"fmt"

	"github.com/skillswap/swapd/internal/models"
)

func (r *SQLiteRepo) CreateMessage(ctx context.Context, m *models.ChatMessage) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("message is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO chat_messages (swap_id, sender_id, body, created) VALUES (?, ?, ?, ?)`, m.SwapID, m.SenderID, m.Body, ts)
	if err != nil {
		return 0, fmt.Errorf("insert chat message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	m.Created = ts

	return id, nil
}

// ListMessages returns the swap's chat log oldest first.
func (r *SQLiteRepo) ListMessages(ctx context.Context, swapID int64) ([]models.ChatMessage, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, swap_id, sender_id, body, created FROM chat_messages WHERE swap_id = ? ORDER BY created, id`, swapID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	out := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.SwapID, &m.SenderID, &m.Body, &m.Created); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}
