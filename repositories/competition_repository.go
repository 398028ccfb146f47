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
	ErrCompetitionNotFound     = errors.New("competition not found")
	ErrCompetitionSlugConflict = errors.New("competition slug is already in use")
	ErrCompetitionInvalidSport = errors.New("invalid sport reference")
)

type ListCompetitionsFilter struct {
	SportID    *int
	ActiveOnly bool
	Limit      int
	Offset     int
}

type CompetitionRepository interface {
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error)
	UpdateLogoKey(ctx context.Context, competitionID int, logoKey *string) error
}

type postgresCompetitionRepository struct {
	db *sql.DB
}

func NewPostgresCompetitionRepository(db *sql.DB) CompetitionRepository {
	return &postgresCompetitionRepository{db: db}
}

const competitionColumns = `
	id, name, slug, sport_id, season, start_date, end_date, description,
	is_active, logo_key, created_at`

func scanCompetition(row interface{ Scan(...interface{}) error }) (*models.Competition, error) {
	c := &models.Competition{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Slug, &c.SportID, &c.Season, &c.StartDate, &c.EndDate,
		&c.Description, &c.IsActive, &c.LogoKey, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *postgresCompetitionRepository) Create(ctx context.Context, c *models.Competition) error {
	query := `
		INSERT INTO competitions (name, slug, sport_id, season, start_date, end_date, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Slug, c.SportID, c.Season, c.StartDate, c.EndDate, c.Description, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrCompetitionSlugConflict
		case "23503":
			return ErrCompetitionInvalidSport
		}
	}
	return err
}

func (r *postgresCompetitionRepository) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE id = $1`
	return scanCompetition(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresCompetitionRepository) List(ctx context.Context, filter ListCompetitionsFilter) ([]models.Competition, error) {
	query := `SELECT ` + competitionColumns + ` FROM competitions WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.SportID != nil {
		query += fmt.Sprintf(" AND sport_id = $%d", argID)
		args = append(args, *filter.SportID)
		argID++
	}
	if filter.ActiveOnly {
		query += " AND is_active"
	}

	query += " ORDER BY start_date DESC, name"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	competitions := make([]models.Competition, 0)
	for rows.Next() {
		c, scanErr := scanCompetition(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		competitions = append(competitions, *c)
	}
	return competitions, rows.Err()
}

func (r *postgresCompetitionRepository) UpdateLogoKey(ctx context.Context, competitionID int, logoKey *string) error {
	query := `UPDATE competitions SET logo_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, logoKey, competitionID)
	if err != nil {
		return fmt.Errorf("failed to update competition logo key: %w", err)
	}
	return checkAffectedRows(result, ErrCompetitionNotFound)
}
