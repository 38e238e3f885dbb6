package domain

import "time"

// NotificationKind identifies the message template downstream
type NotificationKind string

const (
	NotifyRegistrationConfirmed NotificationKind = "registration_confirmed"
	NotifyRegistrationCancelled NotificationKind = "registration_cancelled"
	NotifyTeamInvite            NotificationKind = "team_invite"
	NotifySubmissionReceived    NotificationKind = "submission_received"
	NotifySubmissionEvaluated   NotificationKind = "submission_evaluated"
	NotifyResultsPublished      NotificationKind = "results_published"
)

// Notification is a snapshot of committed state handed to the delivery pipeline
type Notification struct {
	ID        string                 `json:"id"`
	Kind      NotificationKind       `json:"kind"`
	UserID    string                 `json:"user_id"`
	EventID   string                 `json:"event_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
