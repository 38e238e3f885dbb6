package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/database"
)

type registrationRepository struct {
	db *database.PostgresDB
}

// NewRegistrationRepository creates a Postgres-backed registration repository
func NewRegistrationRepository(db *database.PostgresDB) RegistrationRepository {
	return &registrationRepository{db: db}
}

// CreateRegistrations inserts the batch atomically. The event row lock
// serializes concurrent registrations for one event so the capacity re-check
// cannot be raced; the team row lock does the same for team membership.
func (r *registrationRepository) CreateRegistrations(ctx context.Context, batch RegistrationBatch) error {
	if len(batch.Registrations) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, batch.EventID).Scan(&locked)
		if isNoRows(err) {
			return domain.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		if batch.MaxParticipants != nil {
			var confirmed int
			err := tx.QueryRow(ctx, `
				SELECT COUNT(*) FROM event_registrations
				WHERE event_id = $1 AND status = 'confirmed'`, batch.EventID).Scan(&confirmed)
			if err != nil {
				return fmt.Errorf("failed to count registrations: %w", err)
			}
			if confirmed+len(batch.Registrations) > *batch.MaxParticipants {
				return domain.ErrCapacityExceeded
			}
		}

		if paymentID := batch.PaymentID(); paymentID != "" {
			// one captured payment backs exactly one batch, across all events
			if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('payment'), hashtext($1))`, paymentID); err != nil {
				return fmt.Errorf("failed to lock payment: %w", err)
			}
			var used bool
			err := tx.QueryRow(ctx, `
				SELECT EXISTS (SELECT 1 FROM event_registrations WHERE payment_id = $1)`, paymentID).Scan(&used)
			if err != nil {
				return fmt.Errorf("failed to check payment: %w", err)
			}
			if used {
				return domain.ErrPaymentAlreadyUsed
			}
		}

		if batch.TeamID != "" {
			team, err := lockTeam(ctx, tx, batch.TeamID)
			if err != nil {
				return err
			}
			if team.IsLocked {
				return domain.ErrTeamLocked
			}
			if !sameMembers(team, batch.Registrations) {
				return domain.ErrTeamChanged
			}
		}

		for _, reg := range batch.Registrations {
			_, err := tx.Exec(ctx, `
				INSERT INTO event_registrations (
					id, event_id, user_id, team_id, participation_type, payment_status, status,
					amount_paid, payment_id, order_id, paid_at, created_at
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12)`,
				reg.ID,
				reg.EventID,
				reg.UserID,
				reg.TeamID,
				string(reg.ParticipationType),
				string(reg.PaymentStatus),
				string(reg.Status),
				reg.AmountPaid,
				reg.PaymentID,
				reg.OrderID,
				reg.PaidAt,
				reg.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create registration: %w", classify(err))
			}
		}

		if batch.TeamID != "" {
			_, err := tx.Exec(ctx, `UPDATE teams SET is_locked = true, updated_at = NOW() WHERE id = $1`, batch.TeamID)
			if err != nil {
				return fmt.Errorf("failed to lock team: %w", err)
			}
		}
		return nil
	})
}

// sameMembers reports whether the registrations cover exactly the active members
func sameMembers(team *domain.Team, regs []*domain.Registration) bool {
	if len(team.Members) != len(regs) {
		return false
	}
	members := make(map[string]bool, len(team.Members))
	for _, m := range team.Members {
		members[m.UserID] = true
	}
	for _, reg := range regs {
		if !members[reg.UserID] {
			return false
		}
	}
	return true
}

const registrationColumns = `
	id, event_id, user_id, team_id, participation_type, payment_status, status,
	amount_paid, COALESCE(payment_id, ''), COALESCE(order_id, ''), paid_at, created_at`

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	reg := &domain.Registration{}
	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.TeamID,
		&reg.ParticipationType,
		&reg.PaymentStatus,
		&reg.Status,
		&reg.AmountPaid,
		&reg.PaymentID,
		&reg.OrderID,
		&reg.PaidAt,
		&reg.CreatedAt,
	)
	return reg, err
}

// GetByEventAndUser retrieves a user's registration for an event
func (r *registrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	reg, err := scanRegistration(r.db.Pool.QueryRow(ctx, `
		SELECT `+registrationColumns+`
		FROM event_registrations
		WHERE event_id = $1 AND user_id = $2`, eventID, userID))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// ListByPaymentID returns the registrations paid with paymentID
func (r *registrationRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]*domain.Registration, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+registrationColumns+`
		FROM event_registrations
		WHERE payment_id = $1
		ORDER BY created_at, id`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by payment: %w", err)
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// CountConfirmed returns the confirmed registrations of an event
func (r *registrationRepository) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM event_registrations
		WHERE event_id = $1 AND status = 'confirmed'`, eventID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return n, nil
}

// CountByTeam returns the registrations carrying a team ID
func (r *registrationRepository) CountByTeam(ctx context.Context, teamID string) (int, error) {
	return countTeamRegistrations(ctx, r.db.Pool, teamID)
}

// Delete removes a user's registration
func (r *registrationRepository) Delete(ctx context.Context, eventID, userID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM event_registrations WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRegistrationNotFound
	}
	return nil
}

// DeleteTeamRegistrations removes a team's registrations and unlocks the team
func (r *registrationRepository) DeleteTeamRegistrations(ctx context.Context, eventID, teamID string) ([]string, error) {
	var users []string
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockTeam(ctx, tx, teamID); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			DELETE FROM event_registrations
			WHERE event_id = $1 AND team_id = $2
			RETURNING user_id`, eventID, teamID)
		if err != nil {
			return fmt.Errorf("failed to delete team registrations: %w", err)
		}
		users, err = pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("failed to delete team registrations: %w", err)
		}
		if len(users) == 0 {
			return domain.ErrRegistrationNotFound
		}

		_, err = tx.Exec(ctx, `UPDATE teams SET is_locked = false, updated_at = NOW() WHERE id = $1`, teamID)
		if err != nil {
			return fmt.Errorf("failed to unlock team: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// MarkPaymentFailed flags every registration paid with paymentID
func (r *registrationRepository) MarkPaymentFailed(ctx context.Context, paymentID string) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE event_registrations SET payment_status = 'failed'
		WHERE payment_id = $1`, paymentID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark payment failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
