package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/database"
)

const joinRequestColumns = `
	id, team_id, event_id, user_id, request_type, status, created_by, created_at,
	responded_at, COALESCE(responded_by, '')`

type teamRepository struct {
	db *database.PostgresDB
}

// NewTeamRepository creates a Postgres-backed team repository
func NewTeamRepository(db *database.PostgresDB) TeamRepository {
	return &teamRepository{db: db}
}

// CreateTeam stores the team and its leader membership atomically
func (r *teamRepository) CreateTeam(ctx context.Context, team *domain.Team, leader *domain.TeamMember) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO teams (id, event_id, name, leader_id, is_complete, is_locked, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, false, $6, $6)`,
			team.ID, team.EventID, team.Name, team.LeaderID, team.IsComplete, team.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create team: %w", classify(err))
		}

		if err := insertMember(ctx, tx, leader); err != nil {
			return err
		}
		return nil
	})
}

// insertMember activates a membership, reviving a row left earlier
func insertMember(ctx context.Context, q querier, m *domain.TeamMember) error {
	_, err := q.Exec(ctx, `
		INSERT INTO team_members (team_id, event_id, user_id, is_leader, status, joined_at)
		VALUES ($1, $2, $3, $4, 'active', $5)
		ON CONFLICT (team_id, user_id) DO UPDATE
		SET status = 'active', left_at = NULL, joined_at = EXCLUDED.joined_at`,
		m.TeamID, m.EventID, m.UserID, m.IsLeader, m.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", classify(err))
	}
	return nil
}

// GetTeam retrieves a team with its active members
func (r *teamRepository) GetTeam(ctx context.Context, id string) (*domain.Team, error) {
	team, err := loadTeam(ctx, r.db.Pool, id, false)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// loadTeam reads the team row, optionally locking it, and its active members
func loadTeam(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Team, error) {
	query := `
		SELECT id, event_id, name, leader_id, is_complete, is_locked, created_at, updated_at
		FROM teams WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	team := &domain.Team{}
	err := q.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.EventID,
		&team.Name,
		&team.LeaderID,
		&team.IsComplete,
		&team.IsLocked,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT team_id, event_id, user_id, is_leader, status, joined_at, left_at
		FROM team_members
		WHERE team_id = $1 AND status = 'active'
		ORDER BY is_leader DESC, joined_at ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.TeamID, &m.EventID, &m.UserID, &m.IsLeader, &m.Status, &m.JoinedAt, &m.LeftAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		team.Members = append(team.Members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team members: %w", err)
	}
	team.MemberCount = len(team.Members)
	return team, nil
}

// lockTeam loads the team under a row lock, mapping absence to ErrTeamNotFound
func lockTeam(ctx context.Context, tx pgx.Tx, id string) (*domain.Team, error) {
	team, err := loadTeam(ctx, tx, id, true)
	if isNoRows(err) {
		return nil, domain.ErrTeamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock team: %w", err)
	}
	return team, nil
}

func setComplete(ctx context.Context, tx pgx.Tx, team *domain.Team, limits domain.TeamLimits, at time.Time) error {
	team.IsComplete = limits.IsComplete(team.MemberCount)
	team.UpdatedAt = at
	_, err := tx.Exec(ctx, `UPDATE teams SET is_complete = $2, updated_at = $3 WHERE id = $1`,
		team.ID, team.IsComplete, at)
	if err != nil {
		return fmt.Errorf("failed to update team completion: %w", err)
	}
	return nil
}

func countTeamRegistrations(ctx context.Context, q querier, teamID string) (int, error) {
	var n int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM event_registrations WHERE team_id = $1`, teamID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count team registrations: %w", err)
	}
	return n, nil
}

// GetActiveMembership returns the user's active membership for an event
func (r *teamRepository) GetActiveMembership(ctx context.Context, eventID, userID string) (*domain.TeamMember, error) {
	var m domain.TeamMember
	err := r.db.Pool.QueryRow(ctx, `
		SELECT team_id, event_id, user_id, is_leader, status, joined_at, left_at
		FROM team_members
		WHERE event_id = $1 AND user_id = $2 AND status = 'active'`, eventID, userID).Scan(
		&m.TeamID, &m.EventID, &m.UserID, &m.IsLeader, &m.Status, &m.JoinedAt, &m.LeftAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// CreateJoinRequest stores a pending request after re-checking the team under lock
func (r *teamRepository) CreateJoinRequest(ctx context.Context, req *domain.JoinRequest, limits domain.TeamLimits) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		team, err := lockTeam(ctx, tx, req.TeamID)
		if err != nil {
			return err
		}
		if team.IsLocked {
			return domain.ErrTeamLocked
		}
		if team.IsFull(limits) {
			return domain.ErrTeamFull
		}

		var teamed bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM team_members
				WHERE event_id = $1 AND user_id = $2 AND status = 'active')`,
			team.EventID, req.UserID).Scan(&teamed)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if teamed {
			return domain.ErrAlreadyInTeam
		}

		req.EventID = team.EventID
		_, err = tx.Exec(ctx, `
			INSERT INTO team_join_requests (id, team_id, event_id, user_id, request_type, status, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7)`,
			req.ID, req.TeamID, req.EventID, req.UserID, string(req.RequestType), req.CreatedBy, req.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create join request: %w", classify(err))
		}
		req.Status = domain.JoinRequestPending
		return nil
	})
}

func scanJoinRequest(row pgx.Row) (*domain.JoinRequest, error) {
	req := &domain.JoinRequest{}
	err := row.Scan(
		&req.ID,
		&req.TeamID,
		&req.EventID,
		&req.UserID,
		&req.RequestType,
		&req.Status,
		&req.CreatedBy,
		&req.CreatedAt,
		&req.RespondedAt,
		&req.RespondedBy,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// GetJoinRequest retrieves a join request by ID
func (r *teamRepository) GetJoinRequest(ctx context.Context, id string) (*domain.JoinRequest, error) {
	req, err := scanJoinRequest(r.db.Pool.QueryRow(ctx,
		`SELECT `+joinRequestColumns+` FROM team_join_requests WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}
	return req, nil
}

// ListJoinRequests returns a team's requests, newest first
func (r *teamRepository) ListJoinRequests(ctx context.Context, teamID string, status domain.JoinRequestStatus) ([]*domain.JoinRequest, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+joinRequestColumns+`
		FROM team_join_requests
		WHERE team_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY created_at DESC`, teamID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*domain.JoinRequest, 0)
	for rows.Next() {
		req, err := scanJoinRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan join request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate join requests: %w", err)
	}
	return requests, nil
}

// AcceptJoinRequest adds the member and closes the request in one transaction.
// The team row is locked before the request row, the same order every other
// team mutation uses.
func (r *teamRepository) AcceptJoinRequest(ctx context.Context, requestID, responderID string, limits domain.TeamLimits, at time.Time) (*domain.Team, error) {
	var team *domain.Team
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var teamID string
		err := tx.QueryRow(ctx, `SELECT team_id FROM team_join_requests WHERE id = $1`, requestID).Scan(&teamID)
		if isNoRows(err) {
			return domain.ErrJoinRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get join request: %w", err)
		}

		team, err = lockTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}

		req, err := scanJoinRequest(tx.QueryRow(ctx,
			`SELECT `+joinRequestColumns+` FROM team_join_requests WHERE id = $1 FOR UPDATE`, requestID))
		if err != nil {
			return fmt.Errorf("failed to lock join request: %w", err)
		}
		if req.Status != domain.JoinRequestPending {
			return domain.ErrRequestNotPending
		}
		if team.IsLocked {
			return domain.ErrTeamLocked
		}
		if team.IsFull(limits) {
			return domain.ErrTeamFull
		}

		member := domain.TeamMember{
			TeamID:   team.ID,
			EventID:  team.EventID,
			UserID:   req.UserID,
			Status:   domain.MemberStatusActive,
			JoinedAt: at,
		}
		if err := insertMember(ctx, tx, &member); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE team_join_requests
			SET status = 'accepted', responded_at = $2, responded_by = $3
			WHERE id = $1`, requestID, at, responderID)
		if err != nil {
			return fmt.Errorf("failed to accept join request: %w", err)
		}

		team.Members = append(team.Members, member)
		team.MemberCount = len(team.Members)
		return setComplete(ctx, tx, team, limits, at)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// RejectJoinRequest closes a pending request
func (r *teamRepository) RejectJoinRequest(ctx context.Context, requestID, responderID string, at time.Time) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE team_join_requests
		SET status = 'rejected', responded_at = $2, responded_by = $3
		WHERE id = $1 AND status = 'pending'`, requestID, at, responderID)
	if err != nil {
		return fmt.Errorf("failed to reject join request: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	req, err := r.GetJoinRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return domain.ErrJoinRequestNotFound
	}
	return domain.ErrRequestNotPending
}

// RemoveMember marks a non-leader member as left and recomputes completion
func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID string, limits domain.TeamLimits, at time.Time) (*domain.Team, error) {
	var team *domain.Team
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var err error
		team, err = lockTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if team.IsLocked {
			return domain.ErrTeamLocked
		}
		registrations, err := countTeamRegistrations(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if registrations > 0 {
			return domain.ErrTeamHasRegistrations
		}

		tag, err := tx.Exec(ctx, `
			UPDATE team_members SET status = 'left', left_at = $3
			WHERE team_id = $1 AND user_id = $2 AND status = 'active' AND NOT is_leader`,
			teamID, userID, at)
		if err != nil {
			return fmt.Errorf("failed to remove team member: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrMemberNotFound
		}

		remaining := team.Members[:0]
		for _, m := range team.Members {
			if m.UserID != userID {
				remaining = append(remaining, m)
			}
		}
		team.Members = remaining
		team.MemberCount = len(remaining)
		return setComplete(ctx, tx, team, limits, at)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam removes requests, members and the team in one transaction
func (r *teamRepository) DeleteTeam(ctx context.Context, teamID string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		team, err := lockTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if team.IsLocked {
			return domain.ErrTeamLocked
		}
		registrations, err := countTeamRegistrations(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if registrations > 0 {
			return domain.ErrTeamHasRegistrations
		}

		for _, stmt := range []string{
			`DELETE FROM team_join_requests WHERE team_id = $1`,
			`DELETE FROM team_members WHERE team_id = $1`,
			`DELETE FROM teams WHERE id = $1`,
		} {
			if _, err := tx.Exec(ctx, stmt, teamID); err != nil {
				return fmt.Errorf("failed to delete team: %w", err)
			}
		}
		return nil
	})
}
