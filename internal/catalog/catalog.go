// Package catalog maps skill ids to names and categories, keeps each user's
// offered and wanted skills, and backs public user browsing.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/skillswap/swapd/internal/apperr"
	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository"
)

type Store interface {
	repository.SkillRepo
	repository.UserRepo
	repository.FeedbackRepo
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// CreateSkill adds a skill to the catalog. Names are unique ignoring case.
func (s *Service) CreateSkill(ctx context.Context, name, category string) (*models.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("skill name is required")
	}

	existing, err := s.store.GetSkillByName(ctx, name)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to look up skill")
	}
	if existing != nil {
		return nil, apperr.Duplicate("skill %q already exists", existing.Name)
	}

	sk := &models.Skill{Name: name, Category: strings.TrimSpace(category)}
	id, err := s.store.CreateSkill(ctx, sk)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Duplicate("skill %q already exists", name)
		}
		return nil, apperr.Unexpected(err, "failed to create skill")
	}
	sk.ID = id

	return sk, nil
}

// EnsureSkill returns the skill called name, creating it when missing.
func (s *Service) EnsureSkill(ctx context.Context, name, category string) (*models.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("skill name is required")
	}

	existing, err := s.store.GetSkillByName(ctx, name)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to look up skill")
	}
	if existing != nil {
		return existing, nil
	}

	sk, err := s.CreateSkill(ctx, name, category)
	if errors.Is(err, apperr.ErrDuplicateAction) {
		// lost a race with a concurrent create
		existing, err := s.store.GetSkillByName(ctx, name)
		if err != nil || existing == nil {
			return nil, apperr.Unexpected(err, "failed to look up skill")
		}
		return existing, nil
	}

	return sk, err
}

func (s *Service) GetSkill(ctx context.Context, id int64) (*models.Skill, error) {
	sk, err := s.store.GetSkill(ctx, id)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to load skill")
	}
	if sk == nil {
		return nil, apperr.NotFound("skill %d not found", id)
	}
	return sk, nil
}

// SearchSkills filters the catalog by case-insensitive substrings.
func (s *Service) SearchSkills(ctx context.Context, name, category string) ([]models.Skill, error) {
	out, err := s.store.SearchSkills(ctx, name, category)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to search skills")
	}
	return out, nil
}

// AddUserSkillInput names the skill either by id or by name. A name that is
// not in the catalog yet is created.
type AddUserSkillInput struct {
	SkillID     int64            `json:"skill_id"`
	SkillName   string           `json:"skill_name"`
	Category    string           `json:"category"`
	Direction   models.Direction `json:"direction"`
	Proficiency string           `json:"proficiency"`
}

func (s *Service) AddUserSkill(ctx context.Context, userID string, in AddUserSkillInput) (*models.UserSkill, error) {
	if !in.Direction.Valid() {
		return nil, apperr.Validation("direction must be offered or wanted")
	}

	var sk *models.Skill
	var err error
	switch {
	case in.SkillID > 0:
		sk, err = s.GetSkill(ctx, in.SkillID)
	case strings.TrimSpace(in.SkillName) != "":
		sk, err = s.EnsureSkill(ctx, in.SkillName, in.Category)
	default:
		err = apperr.Validation("skill_id or skill_name is required")
	}
	if err != nil {
		return nil, err
	}

	us := &models.UserSkill{
		UserID:      userID,
		SkillID:     sk.ID,
		SkillName:   sk.Name,
		Category:    sk.Category,
		Direction:   in.Direction,
		Proficiency: strings.TrimSpace(in.Proficiency),
	}
	id, err := s.store.AddUserSkill(ctx, us)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperr.Duplicate("%s is already listed as %s", sk.Name, in.Direction)
		}
		return nil, apperr.Unexpected(err, "failed to add user skill")
	}
	us.ID = id

	return us, nil
}

// RemoveUserSkill deletes one of the caller's skills. Another user's entry is
// reported as not found.
func (s *Service) RemoveUserSkill(ctx context.Context, userID string, id int64) error {
	us, err := s.store.GetUserSkill(ctx, id)
	if err != nil {
		return apperr.Unexpected(err, "failed to load user skill")
	}
	if us == nil || us.UserID != userID {
		return apperr.NotFound("user skill not found")
	}
	if err := s.store.DeleteUserSkill(ctx, id); err != nil {
		return apperr.Unexpected(err, "failed to delete user skill")
	}
	return nil
}

func (s *Service) ListUserSkills(ctx context.Context, userID string, dir models.Direction) ([]models.UserSkill, error) {
	if dir != "" && !dir.Valid() {
		return nil, apperr.Validation("direction must be offered or wanted")
	}
	out, err := s.store.ListUserSkills(ctx, userID, dir)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to list user skills")
	}
	return out, nil
}

// HasOffered reports whether userID lists skillID as offered.
func (s *Service) HasOffered(ctx context.Context, userID string, skillID int64) (bool, error) {
	ok, err := s.store.HasUserSkill(ctx, userID, skillID, models.Offered)
	if err != nil {
		return false, apperr.Unexpected(err, "failed to check user skill")
	}
	return ok, nil
}

// Browse lists public, non-banned users, optionally only those with a skill
// whose name contains skill, with their skills and rating summary.
func (s *Service) Browse(ctx context.Context, skill string, limit, offset int) ([]models.PublicProfile, error) {
	users, err := s.store.ListPublicUsers(ctx, strings.TrimSpace(skill), limit, offset)
	if err != nil {
		return nil, apperr.Unexpected(err, "failed to list users")
	}

	out := make([]models.PublicProfile, 0, len(users))
	for _, u := range users {
		skills, err := s.store.ListUserSkills(ctx, u.ID, "")
		if err != nil {
			return nil, apperr.Unexpected(err, "failed to list user skills")
		}
		avg, count, err := s.store.RatingSummary(ctx, u.ID)
		if err != nil {
			return nil, apperr.Unexpected(err, "failed to load rating")
		}

		p := models.PublicProfile{
			User:          u,
			Offered:       []models.UserSkill{},
			Wanted:        []models.UserSkill{},
			AverageRating: models.RoundRating(avg),
			TotalRatings:  count,
		}
		for _, us := range skills {
			if us.Direction == models.Offered {
				p.Offered = append(p.Offered, us)
			} else {
				p.Wanted = append(p.Wanted, us)
			}
		}
		out = append(out, p)
	}

	return out, nil
}
