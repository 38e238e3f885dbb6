package domain

import "time"

// MaxTeamNameLength bounds team names
const MaxTeamNameLength = 80

// TeamState is derived from the completion and lock flags
type TeamState string

const (
	TeamStateForming  TeamState = "forming"
	TeamStateComplete TeamState = "complete"
	TeamStateLocked   TeamState = "locked"
)

// TeamLimits carries the event's team size bounds into store operations
type TeamLimits struct {
	Min int
	Max int
}

// IsComplete reports whether count active members satisfy the minimum
func (l TeamLimits) IsComplete(count int) bool {
	return count >= l.Min
}

// Team is a group of users registering jointly for a team event
type Team struct {
	ID          string       `json:"id"`
	EventID     string       `json:"event_id"`
	Name        string       `json:"name"`
	LeaderID    string       `json:"leader_id"`
	IsComplete  bool         `json:"is_complete"`
	IsLocked    bool         `json:"is_locked"`
	MemberCount int          `json:"member_count"`
	Members     []TeamMember `json:"members,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// State derives the team state machine position
func (t *Team) State() TeamState {
	switch {
	case t.IsLocked:
		return TeamStateLocked
	case t.IsComplete:
		return TeamStateComplete
	default:
		return TeamStateForming
	}
}

// IsFull reports whether no further member fits
func (t *Team) IsFull(limits TeamLimits) bool {
	return t.MemberCount >= limits.Max
}

// MemberStatus tracks membership for audit
type MemberStatus string

const (
	MemberStatusActive MemberStatus = "active"
	MemberStatusLeft   MemberStatus = "left"
)

// TeamMember is one user's membership in a team
type TeamMember struct {
	TeamID   string       `json:"team_id"`
	EventID  string       `json:"event_id"`
	UserID   string       `json:"user_id"`
	IsLeader bool         `json:"is_leader"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joined_at"`
	LeftAt   *time.Time   `json:"left_at,omitempty"`
}

// JoinRequestType tells who initiated a join request
type JoinRequestType string

const (
	// JoinRequestSent is a user asking to join a team
	JoinRequestSent JoinRequestType = "sent"
	// JoinRequestReceived is a team inviting a user
	JoinRequestReceived JoinRequestType = "received"
)

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is an invite or a join request; terminal once responded
type JoinRequest struct {
	ID          string            `json:"id"`
	TeamID      string            `json:"team_id"`
	EventID     string            `json:"event_id"`
	UserID      string            `json:"user_id"`
	RequestType JoinRequestType   `json:"request_type"`
	Status      JoinRequestStatus `json:"status"`
	CreatedBy   string            `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	RespondedAt *time.Time        `json:"responded_at,omitempty"`
	RespondedBy string            `json:"responded_by,omitempty"`
}

// Responder returns the user allowed to answer the request
func (r *JoinRequest) Responder(team *Team) string {
	if r.RequestType == JoinRequestSent {
		return team.LeaderID
	}
	return r.UserID
}
