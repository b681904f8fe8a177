package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skillswap/swapd/internal/models"
	"github.com/skillswap/swapd/pkg/repository"
)

// Store is an in-memory implementation of every repository interface for
// service and handler tests. WithTx runs fn directly without rollback. When
// Err is set every call returns it.
type Store struct {
	mu sync.Mutex

	Err error

	users         map[string]*models.User
	skills        map[int64]*models.Skill
	userSkills    map[int64]*models.UserSkill
	swaps         map[int64]*models.SwapRequest
	feedback      map[int64]*models.Feedback
	notifications map[int64]*models.Notification
	platform      []models.PlatformMessage
	chat          []models.ChatMessage

	seq int64
}

var _ repository.Transactor = (*Store)(nil)
var _ repository.UserRepo = (*Store)(nil)
var _ repository.SkillRepo = (*Store)(nil)
var _ repository.SwapRepo = (*Store)(nil)
var _ repository.FeedbackRepo = (*Store)(nil)
var _ repository.NotificationRepo = (*Store)(nil)
var _ repository.ChatRepo = (*Store)(nil)
var _ repository.StatsRepo = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:         map[string]*models.User{},
		skills:        map[int64]*models.Skill{},
		userSkills:    map[int64]*models.UserSkill{},
		swaps:         map[int64]*models.SwapRequest{},
		feedback:      map[int64]*models.Feedback{},
		notifications: map[int64]*models.Notification{},
	}
}

func (m *Store) next() (int64, int64) {
	m.seq++
	return m.seq, time.Now().UnixMilli()
}

func (m *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}

// Users

func (m *Store) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("insert user: %w", repository.ErrConflict)
	}
	for _, other := range m.users {
		if strings.EqualFold(other.Email, u.Email) {
			return fmt.Errorf("insert user: %w", repository.ErrConflict)
		}
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	_, ts := m.next()
	u.Created, u.Updated = ts, ts
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *Store) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if u == nil {
		return fmt.Errorf("user is nil")
	}
	stored, ok := m.users[u.ID]
	if !ok {
		return nil
	}
	for id, other := range m.users {
		if id != u.ID && strings.EqualFold(other.Email, u.Email) {
			return fmt.Errorf("update user: %w", repository.ErrConflict)
		}
	}
	stored.Name, stored.Email, stored.Location, stored.Availability, stored.IsPublic = u.Name, u.Email, u.Location, u.Availability, u.IsPublic
	_, stored.Updated = m.next()
	u.Updated = stored.Updated
	return nil
}

func (m *Store) SetBanned(ctx context.Context, id string, banned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if u, ok := m.users[id]; ok {
		u.IsBanned = banned
	}
	return nil
}

func (m *Store) SetRole(ctx context.Context, id string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if u, ok := m.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (m *Store) sortedUsers() []models.User {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (m *Store) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	out := []models.User{}
	for _, u := range m.sortedUsers() {
		if f.Banned != nil && u.IsBanned != *f.Banned {
			continue
		}
		out = append(out, u)
	}
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

func (m *Store) ListPublicUsers(ctx context.Context, skill string, limit, offset int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.User{}
	for _, u := range m.sortedUsers() {
		if !u.IsPublic || u.IsBanned {
			continue
		}
		if skill != "" && !m.hasSkillLike(u.ID, skill) {
			continue
		}
		out = append(out, u)
	}
	return page(out, limit, offset), nil
}

func (m *Store) hasSkillLike(userID, sub string) bool {
	sub = strings.ToLower(sub)
	for _, us := range m.userSkills {
		if us.UserID != userID {
			continue
		}
		if sk, ok := m.skills[us.SkillID]; ok && strings.Contains(strings.ToLower(sk.Name), sub) {
			return true
		}
	}
	return false
}

func (m *Store) ListBroadcastRecipients(ctx context.Context, excludeID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []string
	for _, u := range m.sortedUsers() {
		if u.IsPublic && !u.IsBanned && !u.IsAdmin() && u.ID != excludeID {
			out = append(out, u.ID)
		}
	}
	return out, nil
}

// Skills

func (m *Store) CreateSkill(ctx context.Context, s *models.Skill) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if s == nil {
		return 0, fmt.Errorf("skill is nil")
	}
	for _, sk := range m.skills {
		if strings.EqualFold(sk.Name, s.Name) {
			return 0, fmt.Errorf("insert skill: %w", repository.ErrConflict)
		}
	}
	id, ts := m.next()
	s.ID, s.Created = id, ts
	cp := *s
	m.skills[id] = &cp
	return id, nil
}

func (m *Store) GetSkill(ctx context.Context, id int64) (*models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if sk, ok := m.skills[id]; ok {
		cp := *sk
		return &cp, nil
	}
	return nil, nil
}

func (m *Store) GetSkillByName(ctx context.Context, name string) (*models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, sk := range m.skills {
		if strings.EqualFold(sk.Name, name) {
			cp := *sk
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) SearchSkills(ctx context.Context, name, category string) ([]models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.Skill{}
	for _, sk := range m.skills {
		if name != "" && !strings.Contains(strings.ToLower(sk.Name), strings.ToLower(name)) {
			continue
		}
		if category != "" && !strings.Contains(strings.ToLower(sk.Category), strings.ToLower(category)) {
			continue
		}
		out = append(out, *sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) AddUserSkill(ctx context.Context, us *models.UserSkill) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if us == nil {
		return 0, fmt.Errorf("user skill is nil")
	}
	for _, other := range m.userSkills {
		if other.UserID == us.UserID && other.SkillID == us.SkillID && other.Direction == us.Direction {
			return 0, fmt.Errorf("insert user skill: %w", repository.ErrConflict)
		}
	}
	id, ts := m.next()
	us.ID, us.Created = id, ts
	cp := *us
	m.userSkills[id] = &cp
	return id, nil
}

func (m *Store) GetUserSkill(ctx context.Context, id int64) (*models.UserSkill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if us, ok := m.userSkills[id]; ok {
		return m.withSkill(*us), nil
	}
	return nil, nil
}

func (m *Store) withSkill(us models.UserSkill) *models.UserSkill {
	if sk, ok := m.skills[us.SkillID]; ok {
		us.SkillName, us.Category = sk.Name, sk.Category
	}
	return &us
}

func (m *Store) DeleteUserSkill(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.userSkills, id)
	return nil
}

func (m *Store) ListUserSkills(ctx context.Context, userID string, dir models.Direction) ([]models.UserSkill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.UserSkill{}
	for _, us := range m.userSkills {
		if us.UserID == userID && (dir == "" || us.Direction == dir) {
			out = append(out, *m.withSkill(*us))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) HasUserSkill(ctx context.Context, userID string, skillID int64, dir models.Direction) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, us := range m.userSkills {
		if us.UserID == userID && us.SkillID == skillID && us.Direction == dir {
			return true, nil
		}
	}
	return false, nil
}

// Swaps

func (m *Store) CreateSwap(ctx context.Context, s *models.SwapRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if s == nil {
		return 0, fmt.Errorf("swap is nil")
	}
	if s.Status == "" {
		s.Status = models.StatusPending
	}
	if s.Status == models.StatusPending && m.pendingDuplicate(s.RequesterID, s.CounterpartID, s.OfferedSkillID, s.WantedSkillID) != nil {
		return 0, fmt.Errorf("insert swap: %w", repository.ErrConflict)
	}
	id, ts := m.next()
	s.ID, s.Created, s.Updated = id, ts, ts
	s.ClosedCount, s.ClosedBy = 0, []string{}
	cp := *s
	cp.ClosedBy = []string{}
	m.swaps[id] = &cp
	return id, nil
}

func (m *Store) copySwap(s *models.SwapRequest) *models.SwapRequest {
	cp := *s
	cp.ClosedBy = append([]string{}, s.ClosedBy...)
	return &cp
}

func (m *Store) GetSwap(ctx context.Context, id int64) (*models.SwapRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if s, ok := m.swaps[id]; ok {
		return m.copySwap(s), nil
	}
	return nil, nil
}

func (m *Store) LockSwap(ctx context.Context, id int64) (*models.SwapRequest, error) {
	return m.GetSwap(ctx, id)
}

func (m *Store) pendingDuplicate(requesterID, counterpartID string, offeredSkillID, wantedSkillID int64) *models.SwapRequest {
	for _, s := range m.swaps {
		if s.Status == models.StatusPending && s.RequesterID == requesterID && s.CounterpartID == counterpartID &&
			s.OfferedSkillID == offeredSkillID && s.WantedSkillID == wantedSkillID {
			return s
		}
	}
	return nil
}

func (m *Store) FindPendingDuplicate(ctx context.Context, requesterID, counterpartID string, offeredSkillID, wantedSkillID int64) (*models.SwapRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if s := m.pendingDuplicate(requesterID, counterpartID, offeredSkillID, wantedSkillID); s != nil {
		return m.copySwap(s), nil
	}
	return nil, nil
}

func (m *Store) UpdateSwapStatus(ctx context.Context, id int64, status models.SwapStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if s, ok := m.swaps[id]; ok {
		s.Status = status
		_, s.Updated = m.next()
	}
	return nil
}

func (m *Store) RecordClosure(ctx context.Context, swapID int64, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	s, ok := m.swaps[swapID]
	if !ok {
		return 0, fmt.Errorf("swap %d not found", swapID)
	}
	if s.HasClosed(userID) {
		return 0, fmt.Errorf("insert closure: %w", repository.ErrConflict)
	}
	s.ClosedBy = append(s.ClosedBy, userID)
	s.ClosedCount++
	return s.ClosedCount, nil
}

func (m *Store) DeleteSwap(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for fid, f := range m.feedback {
		if f.SwapID == id {
			delete(m.feedback, fid)
		}
	}
	kept := m.chat[:0]
	for _, c := range m.chat {
		if c.SwapID != id {
			kept = append(kept, c)
		}
	}
	m.chat = kept
	delete(m.swaps, id)
	return nil
}

func (m *Store) ListSwaps(ctx context.Context, f models.SwapFilter) ([]models.SwapRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	out := []models.SwapRequest{}
	for _, s := range m.swaps {
		if f.UserID != "" && !s.IsParticipant(f.UserID) {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, *m.copySwap(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, f.Limit, f.Offset), int64(len(out)), nil
}

// Feedback

func (m *Store) CreateFeedback(ctx context.Context, f *models.Feedback) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if f == nil {
		return 0, fmt.Errorf("feedback is nil")
	}
	for _, other := range m.feedback {
		if other.SwapID == f.SwapID && other.RaterID == f.RaterID {
			return 0, fmt.Errorf("insert feedback: %w", repository.ErrConflict)
		}
	}
	id, ts := m.next()
	f.ID, f.Created = id, ts
	cp := *f
	m.feedback[id] = &cp
	return id, nil
}

func (m *Store) GetFeedbackByRater(ctx context.Context, swapID int64, raterID string) (*models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, f := range m.feedback {
		if f.SwapID == swapID && f.RaterID == raterID {
			cp := *f
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) filterFeedback(keep func(f *models.Feedback) bool) []models.Feedback {
	out := []models.Feedback{}
	for _, f := range m.feedback {
		if keep(f) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *Store) ListFeedbackForUser(ctx context.Context, userID string) ([]models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.filterFeedback(func(f *models.Feedback) bool { return f.RatedUserID == userID }), nil
}

func (m *Store) ListFeedbackForSwap(ctx context.Context, swapID int64) ([]models.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.filterFeedback(func(f *models.Feedback) bool { return f.SwapID == swapID }), nil
}

func (m *Store) RatingSummary(ctx context.Context, userID string) (float64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, 0, m.Err
	}
	sum, n := 0, 0
	for _, f := range m.feedback {
		if f.RatedUserID == userID {
			sum += f.Score
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

// Notifications

func (m *Store) CreateNotification(ctx context.Context, n *models.Notification) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if n == nil {
		return 0, fmt.Errorf("notification is nil")
	}
	id, ts := m.next()
	n.ID, n.Created, n.IsRead = id, ts, false
	cp := *n
	m.notifications[id] = &cp
	return id, nil
}

func (m *Store) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Store) CountUnread(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var c int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (m *Store) MarkRead(ctx context.Context, id int64, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (m *Store) DeleteNotification(ctx context.Context, id int64, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	n, ok := m.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	delete(m.notifications, id)
	return true, nil
}

func (m *Store) CreatePlatformMessage(ctx context.Context, pm *models.PlatformMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if pm == nil {
		return 0, fmt.Errorf("platform message is nil")
	}
	id, ts := m.next()
	pm.ID, pm.Created = id, ts
	m.platform = append(m.platform, *pm)
	return id, nil
}

func (m *Store) ListPlatformMessages(ctx context.Context) ([]models.PlatformMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.PlatformMessage, 0, len(m.platform))
	for i := len(m.platform) - 1; i >= 0; i-- {
		out = append(out, m.platform[i])
	}
	return out, nil
}

// Chat

func (m *Store) CreateMessage(ctx context.Context, c *models.ChatMessage) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if c == nil {
		return 0, fmt.Errorf("message is nil")
	}
	id, ts := m.next()
	c.ID, c.Created = id, ts
	m.chat = append(m.chat, *c)
	return id, nil
}

func (m *Store) ListMessages(ctx context.Context, swapID int64) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []models.ChatMessage{}
	for _, c := range m.chat {
		if c.SwapID == swapID {
			out = append(out, c)
		}
	}
	return out, nil
}

// Stats

func (m *Store) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	st := &models.PlatformStats{
		TotalUsers:  int64(len(m.users)),
		TotalSkills: int64(len(m.skills)),
		TotalSwaps:  int64(len(m.swaps)),
	}
	for _, s := range m.swaps {
		switch s.Status {
		case models.StatusCompleted, models.StatusClosed:
			st.CompletedSwaps++
		case models.StatusPending:
			st.PendingSwaps++
		}
	}
	sum := 0
	for _, f := range m.feedback {
		sum += f.Score
	}
	if len(m.feedback) > 0 {
		st.AverageRating = float64(sum) / float64(len(m.feedback))
	}
	return st, nil
}
