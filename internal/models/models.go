package models

import "math"

// Timestamps are unix milliseconds (UTC).

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	Location     string `json:"location,omitempty" db:"location"`
	Availability string `json:"availability,omitempty" db:"availability"`
	IsPublic     bool   `json:"is_public" db:"is_public"`
	IsBanned     bool   `json:"is_banned" db:"is_banned"`
	Role         Role   `json:"role" db:"role"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Skill struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category,omitempty" db:"category"`
	Created  int64  `json:"created" db:"created"`
}

type Direction string

const (
	Offered Direction = "offered"
	Wanted  Direction = "wanted"
)

func (d Direction) Valid() bool {
	return d == Offered || d == Wanted
}

type UserSkill struct {
	ID          int64     `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	SkillID     int64     `json:"skill_id" db:"skill_id"`
	SkillName   string    `json:"skill_name" db:"skill_name"`
	Category    string    `json:"category,omitempty" db:"category"`
	Direction   Direction `json:"direction" db:"direction"`
	Proficiency string    `json:"proficiency,omitempty" db:"proficiency"`
	Created     int64     `json:"created" db:"created"`
}

type SwapStatus string

const (
	StatusPending   SwapStatus = "pending"
	StatusAccepted  SwapStatus = "accepted"
	StatusRejected  SwapStatus = "rejected"
	StatusCancelled SwapStatus = "cancelled"
	StatusCompleted SwapStatus = "completed"
	StatusClosed    SwapStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s SwapStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusCompleted, StatusClosed:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle transition is allowed from s.
func (s SwapStatus) Terminal() bool {
	return s == StatusRejected || s == StatusCancelled || s == StatusClosed
}

type SwapRequest struct {
	ID             int64      `json:"id" db:"id"`
	RequesterID    string     `json:"requester_id" db:"requester_id"`
	CounterpartID  string     `json:"counterpart_id" db:"counterpart_id"`
	OfferedSkillID int64      `json:"offered_skill_id" db:"offered_skill_id"`
	WantedSkillID  int64      `json:"wanted_skill_id" db:"wanted_skill_id"`
	Message        string     `json:"message,omitempty" db:"message"`
	Status         SwapStatus `json:"status" db:"status"`
	ClosedCount    int        `json:"closed_count" db:"closed_count"`
	ClosedBy       []string   `json:"closed_by" db:"-"`
	Created        int64      `json:"created" db:"created"`
	Updated        int64      `json:"updated" db:"updated"`
}

// IsParticipant reports whether userID is the requester or the counterpart.
func (s *SwapRequest) IsParticipant(userID string) bool {
	return userID != "" && (s.RequesterID == userID || s.CounterpartID == userID)
}

// Other returns the participant that is not userID.
func (s *SwapRequest) Other(userID string) string {
	if s.RequesterID == userID {
		return s.CounterpartID
	}
	return s.RequesterID
}

// HasClosed reports whether userID already signalled closure.
func (s *SwapRequest) HasClosed(userID string) bool {
	for _, id := range s.ClosedBy {
		if id == userID {
			return true
		}
	}
	return false
}

type SwapFilter struct {
	UserID string
	Status SwapStatus
	Limit  int
	Offset int
}

type Feedback struct {
	ID          int64  `json:"id" db:"id"`
	SwapID      int64  `json:"swap_id" db:"swap_id"`
	RaterID     string `json:"rater_id" db:"rater_id"`
	RatedUserID string `json:"rated_user_id" db:"rated_user_id"`
	Score       int    `json:"score" db:"score"`
	Comment     string `json:"comment,omitempty" db:"comment"`
	Created     int64  `json:"created" db:"created"`
}

// RoundRating rounds an average score to one decimal.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

type AggregateRating struct {
	UserID   string     `json:"user_id"`
	Average  float64    `json:"average_rating"`
	Total    int        `json:"total_ratings"`
	Feedback []Feedback `json:"feedback"`
}

type NotificationType string

const (
	NotifySwapRequest     NotificationType = "swap_request"
	NotifySwapAccepted    NotificationType = "swap_accepted"
	NotifySwapRejected    NotificationType = "swap_rejected"
	NotifyPlatformMessage NotificationType = "platform_message"
)

type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Body      string           `json:"message" db:"body"`
	RelatedID *string          `json:"related_id,omitempty" db:"related_id"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	Created   int64            `json:"created" db:"created"`
}

type PlatformMessage struct {
	ID        int64  `json:"id" db:"id"`
	AdminID   string `json:"admin_id" db:"admin_id"`
	AdminName string `json:"admin_name" db:"admin_name"`
	Body      string `json:"message" db:"body"`
	Created   int64  `json:"created" db:"created"`
}

type ChatMessage struct {
	ID       int64  `json:"id" db:"id"`
	SwapID   int64  `json:"swap_id" db:"swap_id"`
	SenderID string `json:"sender_id" db:"sender_id"`
	Body     string `json:"message" db:"body"`
	Created  int64  `json:"created" db:"created"`
}

// PublicProfile is a browsable user with their skills and rating summary.
type PublicProfile struct {
	User          User        `json:"user"`
	Offered       []UserSkill `json:"skills_offered"`
	Wanted        []UserSkill `json:"skills_wanted"`
	AverageRating float64     `json:"average_rating"`
	TotalRatings  int         `json:"total_ratings"`
}

type UserFilter struct {
	Banned *bool
	Limit  int
	Offset int
}

type PlatformStats struct {
	TotalUsers     int64   `json:"total_users"`
	TotalSkills    int64   `json:"total_skills"`
	TotalSwaps     int64   `json:"total_swaps"`
	CompletedSwaps int64   `json:"completed_swaps"`
	PendingSwaps   int64   `json:"pending_swaps"`
	AverageRating  float64 `json:"average_rating"`
}
