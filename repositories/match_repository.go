package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/caduhr/bolao-system/models"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchInvalidPool = errors.New("invalid pool reference")
	ErrMatchInvalidTeam = errors.New("invalid team reference")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByPool(ctx context.Context, poolID int, finished *bool) ([]*models.Match, error)
	UpdateSchedule(ctx context.Context, id int, match *models.Match) error
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, homeScore, awayScore int, finished bool) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, competition_id, pool_id, home_team_id, away_team_id, start_time,
	home_score, away_score, finished, created_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.CompetitionID, &m.PoolID, &m.HomeTeamID, &m.AwayTeamID, &m.StartTime,
		&m.HomeScore, &m.AwayScore, &m.Finished, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (competition_id, pool_id, home_team_id, away_team_id, start_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		m.CompetitionID, m.PoolID, m.HomeTeamID, m.AwayTeamID, m.StartTime,
	).Scan(&m.ID, &m.CreatedAt)

	return handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByPool(ctx context.Context, poolID int, finished *bool) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE pool_id = $1`
	args := []interface{}{poolID}

	if finished != nil {
		query += " AND finished = $2"
		args = append(args, *finished)
	}
	query += " ORDER BY start_time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) UpdateSchedule(ctx context.Context, id int, m *models.Match) error {
	query := `
		UPDATE matches SET home_team_id = $1, away_team_id = $2, start_time = $3
		WHERE id = $4 AND NOT finished`

	result, err := r.db.ExecContext(ctx, query, m.HomeTeamID, m.AwayTeamID, m.StartTime, id)
	if err != nil {
		return handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, homeScore, awayScore int, finished bool) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET home_score = $1, away_score = $2, finished = $3 WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, homeScore, awayScore, finished, id)
	if err != nil {
		return fmt.Errorf("failed to update match result: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM matches WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "matches_pool_id_fkey":
			return ErrMatchInvalidPool
		case "matches_home_team_id_fkey", "matches_away_team_id_fkey":
			return ErrMatchInvalidTeam
		}
	}
	return err
}
