package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/caduhr/bolao-system/models"
)

var (
	ErrPoolNotFound           = errors.New("pool not found")
	ErrPoolSlugConflict       = errors.New("pool slug is already in use")
	ErrPoolInvalidCompetition = errors.New("invalid competition reference")
	ErrPoolInvalidOwner       = errors.New("invalid owner reference")
)

type ListPoolsFilter struct {
	CompetitionID *int
	OwnerID       *int
	MemberID      *int
	Status        *models.PoolStatus
	Visibility    *models.PoolVisibility
	Limit         int
	Offset        int
}

type PoolRepository interface {
	Create(ctx context.Context, exec SQLExecutor, pool *models.Pool) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Pool, error)
	GetBySlug(ctx context.Context, slug string) (*models.Pool, error)
	GetByInvitationCode(ctx context.Context, code string) (*models.Pool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter ListPoolsFilter) ([]models.Pool, error)
	Update(ctx context.Context, pool *models.Pool) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.PoolStatus) error
	Delete(ctx context.Context, id int) error
	ListForAutoLock(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Pool, error)
	ListFinishable(ctx context.Context, exec SQLExecutor) ([]*models.Pool, error)
}

type postgresPoolRepository struct {
	db *sql.DB
}

func NewPostgresPoolRepository(db *sql.DB) PoolRepository {
	return &postgresPoolRepository{db: db}
}

func (r *postgresPoolRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const poolColumns = `
	id, name, slug, description, owner_id, competition_id, entry_fee,
	visibility, status, max_participants, betting_deadline,
	exact_score_points, correct_difference_points, correct_result_points,
	wrong_prediction_points, invitation_code, created_at`

func scanPool(row interface{ Scan(...interface{}) error }) (*models.Pool, error) {
	p := &models.Pool{}
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.OwnerID, &p.CompetitionID, &p.EntryFee,
		&p.Visibility, &p.Status, &p.MaxParticipants, &p.BettingDeadline,
		&p.ExactScorePoints, &p.CorrectDifferencePoints, &p.CorrectResultPoints,
		&p.WrongPredictionPoints, &p.InvitationCode, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPoolNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresPoolRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Pool) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO pools (
			name, slug, description, owner_id, competition_id, entry_fee,
			visibility, status, max_participants, betting_deadline,
			exact_score_points, correct_difference_points, correct_result_points,
			wrong_prediction_points, invitation_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		p.Name, p.Slug, p.Description, p.OwnerID, p.CompetitionID, p.EntryFee,
		p.Visibility, p.Status, p.MaxParticipants, p.BettingDeadline,
		p.ExactScorePoints, p.CorrectDifferencePoints, p.CorrectResultPoints,
		p.WrongPredictionPoints, p.InvitationCode,
	).Scan(&p.ID, &p.CreatedAt)

	return handlePoolError(err)
}

func (r *postgresPoolRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Pool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + poolColumns + ` FROM pools WHERE id = $1`
	return scanPool(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresPoolRepository) GetBySlug(ctx context.Context, slug string) (*models.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE slug = $1`
	return scanPool(r.db.QueryRowContext(ctx, query, slug))
}

func (r *postgresPoolRepository) GetByInvitationCode(ctx context.Context, code string) (*models.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE invitation_code = $1`
	return scanPool(r.db.QueryRowContext(ctx, query, code))
}

func (r *postgresPoolRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pools WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *postgresPoolRepository) List(ctx context.Context, filter ListPoolsFilter) ([]models.Pool, error) {
	query := `SELECT ` + poolColumns + ` FROM pools WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.CompetitionID != nil {
		query += fmt.Sprintf(" AND competition_id = $%d", argID)
		args = append(args, *filter.CompetitionID)
		argID++
	}
	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argID)
		args = append(args, *filter.OwnerID)
		argID++
	}
	if filter.MemberID != nil {
		query += fmt.Sprintf(" AND id IN (SELECT pool_id FROM participations WHERE user_id = $%d)", argID)
		args = append(args, *filter.MemberID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Visibility != nil {
		query += fmt.Sprintf(" AND visibility = $%d", argID)
		args = append(args, *filter.Visibility)
		argID++
	}

	query += " ORDER BY created_at DESC"

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

	pools := make([]models.Pool, 0)
	for rows.Next() {
		p, scanErr := scanPool(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		pools = append(pools, *p)
	}
	return pools, rows.Err()
}

func (r *postgresPoolRepository) Update(ctx context.Context, p *models.Pool) error {
	query := `
		UPDATE pools SET
			name = $1, description = $2, entry_fee = $3, visibility = $4,
			max_participants = $5, betting_deadline = $6,
			exact_score_points = $7, correct_difference_points = $8,
			correct_result_points = $9, wrong_prediction_points = $10
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		p.Name, p.Description, p.EntryFee, p.Visibility,
		p.MaxParticipants, p.BettingDeadline,
		p.ExactScorePoints, p.CorrectDifferencePoints,
		p.CorrectResultPoints, p.WrongPredictionPoints,
		p.ID,
	)
	if err != nil {
		return handlePoolError(err)
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}

func (r *postgresPoolRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.PoolStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE pools SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}

func (r *postgresPoolRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM pools WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPoolNotFound)
}

// ListForAutoLock returns open pools whose betting deadline has passed.
func (r *postgresPoolRepository) ListForAutoLock(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Pool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + poolColumns + ` FROM pools
		WHERE status = $1 AND betting_deadline IS NOT NULL AND betting_deadline <= $2`

	return r.queryPools(ctx, executor, query, models.PoolStatusOpen, now)
}

// ListFinishable returns locked pools where every match is finished.
func (r *postgresPoolRepository) ListFinishable(ctx context.Context, exec SQLExecutor) ([]*models.Pool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + poolColumns + ` FROM pools p
		WHERE status = $1
		AND EXISTS (SELECT 1 FROM matches m WHERE m.pool_id = p.id)
		AND NOT EXISTS (SELECT 1 FROM matches m WHERE m.pool_id = p.id AND NOT m.finished)`

	return r.queryPools(ctx, executor, query, models.PoolStatusLocked)
}

func (r *postgresPoolRepository) queryPools(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Pool, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []*models.Pool
	for rows.Next() {
		p, scanErr := scanPool(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

func handlePoolError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "pools_slug_key" {
				return ErrPoolSlugConflict
			}
		case "23503":
			switch pqErr.Constraint {
			case "pools_competition_id_fkey":
				return ErrPoolInvalidCompetition
			case "pools_owner_id_fkey":
				return ErrPoolInvalidOwner
			}
		}
	}
	return err
}
