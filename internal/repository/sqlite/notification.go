package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillswap/swapd/internal/models"
)

func (r *SQLiteRepo) CreateNotification(ctx context.Context, n *models.Notification) (int64, error) {
	if n == nil {
		return 0, fmt.Errorf("notification is nil")
	}

	var related sql.NullString
	if n.RelatedID != nil {
		related = sql.NullString{String: *n.RelatedID, Valid: true}
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO notifications (user_id, type, title, body, related_id, is_read, created) VALUES (?, ?, ?, ?, ?, 0, ?)`,
		n.UserID, string(n.Type), n.Title, n.Body, related, ts)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	n.ID = id
	n.IsRead = false
	n.Created = ts

	return id, nil
}

func (r *SQLiteRepo) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, type, title, body, related_id, is_read, created FROM notifications WHERE user_id = ? ORDER BY created DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var typ string
		var related sql.NullString
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &related, &read, &n.Created); err != nil {
			return nil, err
		}
		n.Type = models.NotificationType(typ)
		n.IsRead = read == 1
		if related.Valid {
			v := related.String
			n.RelatedID = &v
		}
		out = append(out, n)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepo) MarkRead(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.conn.Exec(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *SQLiteRepo) DeleteNotification(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// Platform messages

func (r *SQLiteRepo) CreatePlatformMessage(ctx context.Context, m *models.PlatformMessage) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("platform message is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO platform_messages (admin_id, admin_name, body, created) VALUES (?, ?, ?, ?)`, m.AdminID, m.AdminName, m.Body, ts)
	if err != nil {
		return 0, fmt.Errorf("insert platform message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	m.Created = ts

	return id, nil
}

func (r *SQLiteRepo) ListPlatformMessages(ctx context.Context) ([]models.PlatformMessage, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, admin_id, admin_name, body, created FROM platform_messages ORDER BY created DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list platform messages: %w", err)
	}
	defer rows.Close()

	out := []models.PlatformMessage{}
	for rows.Next() {
		var m models.PlatformMessage
		if err := rows.Scan(&m.ID, &m.AdminID, &m.AdminName, &m.Body, &m.Created); err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	return out, rows.Err()
}
