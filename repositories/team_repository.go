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
	ErrTeamNotFound           = errors.New("team not found")
	ErrTeamNameConflict       = errors.New("team name is already in use for this competition")
	ErrTeamInvalidCompetition = errors.New("invalid competition reference")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	FindByName(ctx context.Context, exec SQLExecutor, competitionID int, name string) (*models.Team, error)
	ListByCompetition(ctx context.Context, competitionID int) ([]models.Team, error)
	UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (competition_id, name, short_name, code)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		team.CompetitionID, team.Name, team.ShortName, team.Code,
	).Scan(&team.ID, &team.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrTeamNameConflict
		case "23503":
			return ErrTeamInvalidCompetition
		}
	}
	return err
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, competition_id, name, short_name, code, logo_key, created_at
		FROM teams WHERE id = $1`

	t := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.CompetitionID, &t.Name, &t.ShortName, &t.Code, &t.LogoKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) FindByName(ctx context.Context, exec SQLExecutor, competitionID int, name string) (*models.Team, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, competition_id, name, short_name, code, logo_key, created_at
		FROM teams WHERE competition_id = $1 AND name = $2`

	t := &models.Team{}
	err := executor.QueryRowContext(ctx, query, competitionID, name).Scan(
		&t.ID, &t.CompetitionID, &t.Name, &t.ShortName, &t.Code, &t.LogoKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTeamRepository) ListByCompetition(ctx context.Context, competitionID int) ([]models.Team, error) {
	query := `
		SELECT id, competition_id, name, short_name, code, logo_key, created_at
		FROM teams WHERE competition_id = $1
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, competitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.CompetitionID, &t.Name, &t.ShortName, &t.Code, &t.LogoKey, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	query := `UPDATE teams SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, teamID)
	if err != nil {
		return fmt.Errorf("failed to update team logo key: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
