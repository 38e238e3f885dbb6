package domain

import (
	"math"
	"time"
)

type ParticipationType string

const (
	ParticipationIndividual ParticipationType = "individual"
	ParticipationTeam       ParticipationType = "team"
)

type PaymentStatus string

const (
	PaymentStatusNotApplicable PaymentStatus = "n/a"
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusCompleted     PaymentStatus = "completed"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Registration is a user's participation in an event
type Registration struct {
	ID                string             `json:"id"`
	EventID           string             `json:"event_id"`
	UserID            string             `json:"user_id"`
	TeamID            *string            `json:"team_id,omitempty"`
	ParticipationType ParticipationType  `json:"participation_type"`
	PaymentStatus     PaymentStatus      `json:"payment_status"`
	Status            RegistrationStatus `json:"status"`
	AmountPaid        float64            `json:"amount_paid"`
	PaymentID         string             `json:"payment_id,omitempty"`
	OrderID           string             `json:"order_id,omitempty"`
	PaidAt            *time.Time         `json:"paid_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// RegisterRequest is the input shared by register, payment order and payment finalisation
type RegisterRequest struct {
	EventID           string
	UserID            string
	ParticipationType ParticipationType
	TeamID            string
}

// RegistrationResult is either a confirmed registration or a payment requirement
type RegistrationResult struct {
	RequiresPayment bool            `json:"requires_payment"`
	Amount          float64         `json:"amount,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	Registration    *Registration   `json:"registration,omitempty"`
	TeamMembers     []*Registration `json:"team_registrations,omitempty"`
}

// PaymentOrder is a provider-side order awaiting payment
type PaymentOrder struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"key_id"`
	Receipt  string  `json:"receipt,omitempty"`
	// Notes bind the order to the registration it was opened for
	Notes map[string]string `json:"notes,omitempty"`
}

// PaymentDetails is the provider's view of a payment
type PaymentDetails struct {
	ID       string  `json:"id"`
	OrderID  string  `json:"order_id"`
	Status   string  `json:"status"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Order note keys written when a payment order is opened
const (
	OrderNoteEventID           = "event_id"
	OrderNoteUserID            = "user_id"
	OrderNoteTeamID            = "team_id"
	OrderNoteParticipationType = "participation_type"
)

// OrderNotes describes the registration an order pays for
func (r RegisterRequest) OrderNotes() map[string]string {
	kind := r.ParticipationType
	if kind == "" {
		kind = ParticipationIndividual
	}
	notes := map[string]string{
		OrderNoteEventID:           r.EventID,
		OrderNoteUserID:            r.UserID,
		OrderNoteParticipationType: string(kind),
	}
	if kind == ParticipationTeam && r.TeamID != "" {
		notes[OrderNoteTeamID] = r.TeamID
	}
	return notes
}

// CapturedPayment is a settled payment ready to back a registration
type CapturedPayment struct {
	PaymentID string
	OrderID   string
	Amount    float64
	Currency  string
}

// PaymentCaptured is the provider status of a settled payment
const PaymentCaptured = "captured"

// PaymentVerification is the client's proof of payment
type PaymentVerification struct {
	RegisterRequest
	OrderID   string
	PaymentID string
	Signature string
}

// RoundMoney rounds to two decimals
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// SplitAmount divides total into n shares rounded to two decimals.
// The first share absorbs the rounding remainder.
func SplitAmount(total float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	share := math.Floor(total*100/float64(n)) / 100
	shares := make([]float64, n)
	for i := range shares {
		shares[i] = share
	}
	shares[0] = RoundMoney(total - share*float64(n-1))
	return shares
}
