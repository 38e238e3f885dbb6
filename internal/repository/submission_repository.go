package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tarunbommali/nxtgen-arena-sub001/internal/domain"
	"github.com/tarunbommali/nxtgen-arena-sub001/pkg/database"
)

const submissionColumns = `
	id, event_id, user_id, team_id, project_title, solution_description, technologies_used,
	ai_tools_integrated, mvp_link, demo_video_url, github_repo_url, presentation_deck_url,
	banner_url, score, feedback, rank, status, submitted_at, evaluated_at, updated_at`

type submissionRepository struct {
	db *database.PostgresDB
}

// NewSubmissionRepository creates a Postgres-backed submission repository
func NewSubmissionRepository(db *database.PostgresDB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	s := &domain.Submission{}
	err := row.Scan(
		&s.ID,
		&s.EventID,
		&s.UserID,
		&s.TeamID,
		&s.ProjectTitle,
		&s.SolutionDescription,
		&s.TechnologiesUsed,
		&s.AIToolsIntegrated,
		&s.MVPLink,
		&s.DemoVideoURL,
		&s.GithubRepoURL,
		&s.PresentationDeckURL,
		&s.BannerURL,
		&s.Score,
		&s.Feedback,
		&s.Rank,
		&s.Status,
		&s.SubmittedAt,
		&s.EvaluatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Upsert creates or replaces a submission's content. The conflict branch only
// fires for rows still in the submitted state; an evaluated row yields no
// returned row.
func (r *submissionRepository) Upsert(ctx context.Context, sub *domain.Submission) (*domain.Submission, error) {
	query := `
		INSERT INTO event_submissions (
			id, event_id, user_id, team_id, project_title, solution_description, technologies_used,
			ai_tools_integrated, mvp_link, demo_video_url, github_repo_url, presentation_deck_url,
			banner_url, status, submitted_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'submitted', $14, $14)
		ON CONFLICT (event_id, user_id) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			project_title = EXCLUDED.project_title,
			solution_description = EXCLUDED.solution_description,
			technologies_used = EXCLUDED.technologies_used,
			ai_tools_integrated = EXCLUDED.ai_tools_integrated,
			mvp_link = EXCLUDED.mvp_link,
			demo_video_url = EXCLUDED.demo_video_url,
			github_repo_url = EXCLUDED.github_repo_url,
			presentation_deck_url = EXCLUDED.presentation_deck_url,
			banner_url = EXCLUDED.banner_url,
			updated_at = EXCLUDED.updated_at
		WHERE event_submissions.status <> 'evaluated'
		RETURNING ` + submissionColumns

	saved, err := scanSubmission(r.db.Pool.QueryRow(ctx, query,
		sub.ID,
		sub.EventID,
		sub.UserID,
		sub.TeamID,
		sub.ProjectTitle,
		sub.SolutionDescription,
		sub.TechnologiesUsed,
		sub.AIToolsIntegrated,
		sub.MVPLink,
		sub.DemoVideoURL,
		sub.GithubRepoURL,
		sub.PresentationDeckURL,
		sub.BannerURL,
		sub.SubmittedAt,
	))
	if isNoRows(err) {
		return nil, domain.ErrSubmissionEvaluated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert submission: %w", classify(err))
	}
	return saved, nil
}

// GetByID retrieves a submission by ID
func (r *submissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	s, err := scanSubmission(r.db.Pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM event_submissions WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

// GetByEventAndUser retrieves a user's submission for an event
func (r *submissionRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Submission, error) {
	s, err := scanSubmission(r.db.Pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM event_submissions WHERE event_id = $1 AND user_id = $2`,
		eventID, userID))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return s, nil
}

// Evaluate stores score and feedback and marks the submission evaluated
func (r *submissionRepository) Evaluate(ctx context.Context, id string, score *float64, feedback string, at time.Time) (*domain.Submission, error) {
	s, err := scanSubmission(r.db.Pool.QueryRow(ctx, `
		UPDATE event_submissions
		SET score = $2, feedback = $3, status = 'evaluated', evaluated_at = $4, updated_at = $4
		WHERE id = $1
		RETURNING `+submissionColumns, id, score, feedback, at))
	if isNoRows(err) {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate submission: %w", err)
	}
	return s, nil
}

// RecomputeRanks reassigns ranks for an event under a transaction-scoped
// advisory lock keyed on the event ID.
func (r *submissionRepository) RecomputeRanks(ctx context.Context, eventID string) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID); err != nil {
			return fmt.Errorf("failed to acquire rank lock: %w", err)
		}

		_, err := tx.Exec(ctx, `
			WITH ranked AS (
				SELECT id, ROW_NUMBER() OVER (
					ORDER BY score DESC NULLS LAST, submitted_at ASC, id ASC
				) AS position
				FROM event_submissions
				WHERE event_id = $1 AND status = 'evaluated'
			)
			UPDATE event_submissions s
			SET rank = ranked.position
			FROM ranked
			WHERE s.id = ranked.id AND s.rank IS DISTINCT FROM ranked.position`, eventID)
		if err != nil {
			return fmt.Errorf("failed to recompute ranks: %w", err)
		}
		return nil
	})
}

// PublishResults applies explicit winner ranks and completes the event
func (r *submissionRepository) PublishResults(ctx context.Context, eventID string, winners []domain.Winner, at time.Time) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, eventID); err != nil {
			return fmt.Errorf("failed to acquire rank lock: %w", err)
		}

		for _, w := range winners {
			tag, err := tx.Exec(ctx, `
				UPDATE event_submissions SET rank = $3, updated_at = $4
				WHERE id = $1 AND event_id = $2`, w.SubmissionID, eventID, w.Position, at)
			if err != nil {
				return fmt.Errorf("failed to apply winner rank: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return domain.ErrSubmissionNotFound
			}
		}

		tag, err := tx.Exec(ctx, `
			UPDATE events SET status = 'completed', updated_at = $2
			WHERE id = $1 AND status NOT IN ('completed', 'cancelled')`, eventID, at)
		if err != nil {
			return fmt.Errorf("failed to complete event: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInvalidTransition
		}
		return nil
	})
}

// Delete removes a submitted (not evaluated) submission
func (r *submissionRepository) Delete(ctx context.Context, eventID, userID string) error {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM event_submissions
		WHERE event_id = $1 AND user_id = $2 AND status <> 'evaluated'`, eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	existing, err := r.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrSubmissionNotFound
	}
	return domain.ErrSubmissionEvaluated
}

// Leaderboard returns ranked submissions in rank order
func (r *submissionRepository) Leaderboard(ctx context.Context, eventID string) ([]*domain.LeaderboardEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT rank, id, user_id, team_id, project_title, score
		FROM event_submissions
		WHERE event_id = $1 AND rank IS NOT NULL
		ORDER BY rank ASC, submitted_at ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.LeaderboardEntry, 0)
	for rows.Next() {
		e := &domain.LeaderboardEntry{}
		if err := rows.Scan(&e.Rank, &e.SubmissionID, &e.UserID, &e.TeamID, &e.ProjectTitle, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}
	return entries, nil
}
