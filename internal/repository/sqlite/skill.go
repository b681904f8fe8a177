package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skillswap/swapd/internal/models"
)

func (r *SQLiteRepo) CreateSkill(ctx context.Context, s *models.Skill) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("skill is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO skills (name, category, created) VALUES (?, ?, ?)`, s.Name, s.Category, ts)
	if err != nil {
		return 0, conflict(err, "insert skill")
	}
	s.Created = ts

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetSkill(ctx context.Context, id int64) (*models.Skill, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, category, created FROM skills WHERE id = ?`, id)
	var s models.Skill
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get skill: %w", err)
	}

	return &s, nil
}

// GetSkillByName matches case-insensitively (the column is COLLATE NOCASE).
func (r *SQLiteRepo) GetSkillByName(ctx context.Context, name string) (*models.Skill, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, category, created FROM skills WHERE name = ?`, name)
	var s models.Skill
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get skill by name: %w", err)
	}

	return &s, nil
}

func (r *SQLiteRepo) SearchSkills(ctx context.Context, name, category string) ([]models.Skill, error) {
	q := `SELECT id, name, category, created FROM skills WHERE 1 = 1`
	args := []any{}
	if name != "" {
		q += ` AND name LIKE ? ESCAPE '\'`
		args = append(args, likePattern(name))
	}
	if category != "" {
		q += ` AND category LIKE ? ESCAPE '\'`
		args = append(args, likePattern(category))
	}
	q += ` ORDER BY name`

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search skills: %w", err)
	}
	defer rows.Close()

	out := []models.Skill{}
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.Created); err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// User skill methods

const userSkillSelect = `SELECT us.id, us.user_id, us.skill_id, s.name, s.category, us.direction, us.proficiency, us.created FROM user_skills us JOIN skills s ON s.id = us.skill_id`

func scanUserSkill(row rowScanner) (*models.UserSkill, error) {
	var us models.UserSkill
	var dir string
	if err := row.Scan(&us.ID, &us.UserID, &us.SkillID, &us.SkillName, &us.Category, &dir, &us.Proficiency, &us.Created); err != nil {
		return nil, err
	}
	us.Direction = models.Direction(dir)

	return &us, nil
}

func (r *SQLiteRepo) AddUserSkill(ctx context.Context, us *models.UserSkill) (int64, error) {
	if us == nil {
		return 0, fmt.Errorf("user skill is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO user_skills (user_id, skill_id, direction, proficiency, created) VALUES (?, ?, ?, ?, ?)`,
		us.UserID, us.SkillID, string(us.Direction), us.Proficiency, ts)
	if err != nil {
		return 0, conflict(err, "insert user skill")
	}
	us.Created = ts

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserSkill(ctx context.Context, id int64) (*models.UserSkill, error) {
	us, err := scanUserSkill(r.conn.QueryRow(ctx, userSkillSelect+` WHERE us.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user skill: %w", err)
	}

	return us, nil
}

func (r *SQLiteRepo) DeleteUserSkill(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM user_skills WHERE id = ?`, id)
	return err
}

// ListUserSkills lists a user's skills; an empty dir returns both directions.
func (r *SQLiteRepo) ListUserSkills(ctx context.Context, userID string, dir models.Direction) ([]models.UserSkill, error) {
	q := userSkillSelect + ` WHERE us.user_id = ?`
	args := []any{userID}
	if dir != "" {
		q += ` AND us.direction = ?`
		args = append(args, string(dir))
	}
	q += ` ORDER BY s.name`

	rows, err := r.conn.QueryRows(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}
	defer rows.Close()

	out := []models.UserSkill{}
	for rows.Next() {
		us, err := scanUserSkill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *us)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) HasUserSkill(ctx context.Context, userID string, skillID int64, dir models.Direction) (bool, error) {
	var n int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM user_skills WHERE user_id = ? AND skill_id = ? AND direction = ?`, userID, skillID, string(dir)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check user skill: %w", err)
	}

	return n > 0, nil
}
