package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/database"
)

// NewRepositories builds the Postgres-backed store
func NewRepositories(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Events:        NewEventRepository(db),
		Teams:         NewTeamRepository(db),
		Registrations: NewRegistrationRepository(db),
		Submissions:   NewSubmissionRepository(db),
	}
}

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolations maps unique constraints to the rule they enforce
var uniqueViolations = map[string]error{
	constraintRegistrationUnique: domain.ErrAlreadyRegistered,
	constraintTeamName:           domain.ErrTeamNameTaken,
	constraintActiveMembership:   domain.ErrAlreadyInTeam,
	constraintPendingRequest:     domain.ErrPendingRequestExists,
}

// classify converts Postgres constraint failures into domain sentinels.
// Other errors are returned unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		if sentinel, ok := uniqueViolations[pgErr.ConstraintName]; ok {
			return sentinel
		}
	case pgerrcode.ForeignKeyViolation:
		// parent row vanished between validation and write
		if strings.HasSuffix(pgErr.ConstraintName, "_team_id_fkey") {
			return domain.ErrTeamNotFound
		}
		return domain.ErrEventNotFound
	}
	return err
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
