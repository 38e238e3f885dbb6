package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/database"
)

const eventColumns = `
	id, title, description, registration_start, registration_end, event_start, event_end,
	has_submission, submission_start, submission_deadline, max_participants,
	is_team_event, allow_individual, min_team_size, max_team_size, team_formation_deadline,
	is_paid, registration_fee, currency, status, created_by, created_at, updated_at`

type eventRepository struct {
	db *database.PostgresDB
}

// NewEventRepository creates a Postgres-backed event repository
func NewEventRepository(db *database.PostgresDB) EventRepository {
	return &eventRepository{db: db}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.RegistrationStart,
		&e.RegistrationEnd,
		&e.EventStart,
		&e.EventEnd,
		&e.HasSubmission,
		&e.SubmissionStart,
		&e.SubmissionDeadline,
		&e.MaxParticipants,
		&e.IsTeamEvent,
		&e.AllowIndividual,
		&e.MinTeamSize,
		&e.MaxTeamSize,
		&e.TeamFormationDeadline,
		&e.IsPaid,
		&e.RegistrationFee,
		&e.Currency,
		&e.Status,
		&e.CreatedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create stores a new event
func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		        $17, $18, $19, $20, $21, $22, $23)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		e.ID,
		e.Title,
		e.Description,
		e.RegistrationStart,
		e.RegistrationEnd,
		e.EventStart,
		e.EventEnd,
		e.HasSubmission,
		e.SubmissionStart,
		e.SubmissionDeadline,
		e.MaxParticipants,
		e.IsTeamEvent,
		e.AllowIndividual,
		e.MinTeamSize,
		e.MaxTeamSize,
		e.TeamFormationDeadline,
		e.IsPaid,
		e.RegistrationFee,
		e.Currency,
		string(e.Status),
		e.CreatedBy,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.db.Pool.QueryRow(ctx, query, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// List returns events ordered by event start
func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY event_start ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// UpdateStatus performs a compare-and-set on the event status
func (r *eventRepository) UpdateStatus(ctx context.Context, id string, from, to domain.EventStatus, at time.Time) error {
	query := `UPDATE events SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`

	tag, err := r.db.Pool.Exec(ctx, query, id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// Delete removes the event and everything it owns when it has no registrations
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx, `SELECT true FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&exists)
		if isNoRows(err) {
			return domain.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}

		var registrations int
		err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, id).Scan(&registrations)
		if err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
		if registrations > 0 {
			return domain.ErrEventHasRegistrations
		}

		for _, stmt := range []string{
			`DELETE FROM event_submissions WHERE event_id = $1`,
			`DELETE FROM team_join_requests WHERE event_id = $1`,
			`DELETE FROM team_members WHERE event_id = $1`,
			`DELETE FROM teams WHERE event_id = $1`,
			`DELETE FROM events WHERE id = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete event: %w", err)
			}
		}
		return nil
	})
}
