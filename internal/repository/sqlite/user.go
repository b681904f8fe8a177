package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillswap/swapd/internal/models"
)

const userColumns = `id, name, email, location, availability, is_public, is_banned, role, created, updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var public, banned int
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Location, &u.Availability, &public, &banned, &role, &u.Created, &u.Updated); err != nil {
		return nil, err
	}
	u.IsPublic = public == 1
	u.IsBanned = banned == 1
	u.Role = models.Role(role)

	return &u, nil
}

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	ts := now()
	_, err := r.conn.Exec(ctx, `INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Location, u.Availability, boolToInt(u.IsPublic), boolToInt(u.IsBanned), string(u.Role), ts, ts)
	if err != nil {
		return conflict(err, "insert user")
	}
	u.Created, u.Updated = ts, ts

	return nil
}

func (r *SQLiteRepo) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	return u, nil
}

// UpdateUser writes the editable profile fields. Ban flag and role have their
// own setters.
func (r *SQLiteRepo) UpdateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	ts := now()
	_, err := r.conn.Exec(ctx, `UPDATE users SET name = ?, email = ?, location = ?, availability = ?, is_public = ?, updated = ? WHERE id = ?`,
		u.Name, u.Email, u.Location, u.Availability, boolToInt(u.IsPublic), ts, u.ID)
	if err != nil {
		return conflict(err, "update user")
	}
	u.Updated = ts

	return nil
}

func (r *SQLiteRepo) SetBanned(ctx context.Context, id string, banned bool) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET is_banned = ?, updated = ? WHERE id = ?`, boolToInt(banned), now(), id)
	return err
}

func (r *SQLiteRepo) SetRole(ctx context.Context, id string, role models.Role) error {
	_, err := r.conn.Exec(ctx, `UPDATE users SET role = ?, updated = ? WHERE id = ?`, string(role), now(), id)
	return err
}

func (r *SQLiteRepo) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, int64, error) {
	where := ""
	args := []any{}
	if f.Banned != nil {
		where = ` WHERE is_banned = ?`
		args = append(args, boolToInt(*f.Banned))
	}

	var total int64
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+userColumns+` FROM users`+where+` ORDER BY created DESC, id LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}

	return out, total, rows.Err()
}

// ListPublicUsers returns public, non-banned users. A non-empty skill filters
// to users with an offered or wanted skill whose name contains it.
func (r *SQLiteRepo) ListPublicUsers(ctx context.Context, skill string, limit, offset int) ([]models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users u WHERE u.is_public = 1 AND u.is_banned = 0`
	args := []any{}
	if skill != "" {
		q += ` AND EXISTS (SELECT 1 FROM user_skills us JOIN skills s ON s.id = us.skill_id WHERE us.user_id = u.id AND s.name LIKE ? ESCAPE '\')`
		args = append(args, likePattern(skill))
	}
	q += ` ORDER BY u.name, u.id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list public users: %w", err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}

	return out, rows.Err()
}

// ListBroadcastRecipients returns ids of public, non-banned, non-admin users
// other than excludeID.
func (r *SQLiteRepo) ListBroadcastRecipients(ctx context.Context, excludeID string) ([]string, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id FROM users WHERE is_public = 1 AND is_banned = 0 AND role <> 'admin' AND id <> ? ORDER BY id`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}

	return out, rows.Err()
}
