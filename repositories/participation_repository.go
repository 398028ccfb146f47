package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/caduhr/bolao-system/models"
)

var (
	ErrParticipationNotFound    = errors.New("participation not found")
	ErrParticipationConflict    = errors.New("user already participates in this pool")
	ErrParticipationInvalidPool = errors.New("invalid pool reference")
	ErrParticipationInvalidUser = errors.New("invalid user reference")
)

type ParticipationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participation *models.Participation) error
	GetByUserAndPool(ctx context.Context, exec SQLExecutor, userID, poolID int) (*models.Participation, error)
	ListByPool(ctx context.Context, exec SQLExecutor, poolID int) ([]*models.Participation, error)
	CountByPool(ctx context.Context, exec SQLExecutor, poolID int) (int, error)
	UpdatePoints(ctx context.Context, exec SQLExecutor, id, points int) error
	UpdatePaymentStatus(ctx context.Context, id int, status models.PaymentStatus) error
	Delete(ctx context.Context, userID, poolID int) error
	Leaderboard(ctx context.Context, poolID int) ([]models.LeaderboardEntry, error)
}

type postgresParticipationRepository struct {
	db *sql.DB
}

func NewPostgresParticipationRepository(db *sql.DB) ParticipationRepository {
	return &postgresParticipationRepository{db: db}
}

func (r *postgresParticipationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipationRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participation) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participations (user_id, pool_id, payment_status)
		VALUES ($1, $2, $3)
		RETURNING id, points, joined_at`

	err := executor.QueryRowContext(ctx, query, p.UserID, p.PoolID, p.PaymentStatus).
		Scan(&p.ID, &p.Points, &p.JoinedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrParticipationConflict
		case "23503":
			if pqErr.Constraint == "participations_pool_id_fkey" {
				return ErrParticipationInvalidPool
			}
			return ErrParticipationInvalidUser
		}
	}
	return err
}

func (r *postgresParticipationRepository) GetByUserAndPool(ctx context.Context, exec SQLExecutor, userID, poolID int) (*models.Participation, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, user_id, pool_id, payment_status, points, joined_at
		FROM participations WHERE user_id = $1 AND pool_id = $2`

	p := &models.Participation{}
	err := executor.QueryRowContext(ctx, query, userID, poolID).Scan(
		&p.ID, &p.UserID, &p.PoolID, &p.PaymentStatus, &p.Points, &p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipationNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipationRepository) ListByPool(ctx context.Context, exec SQLExecutor, poolID int) ([]*models.Participation, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, user_id, pool_id, payment_status, points, joined_at
		FROM participations WHERE pool_id = $1
		ORDER BY joined_at`

	rows, err := executor.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participations := make([]*models.Participation, 0)
	for rows.Next() {
		p := &models.Participation{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.PoolID, &p.PaymentStatus, &p.Points, &p.JoinedAt); err != nil {
			return nil, err
		}
		participations = append(participations, p)
	}
	return participations, rows.Err()
}

func (r *postgresParticipationRepository) CountByPool(ctx context.Context, exec SQLExecutor, poolID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM participations WHERE pool_id = $1`, poolID).Scan(&count)
	return count, err
}

func (r *postgresParticipationRepository) UpdatePoints(ctx context.Context, exec SQLExecutor, id, points int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE participations SET points = $1 WHERE id = $2`, points, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

func (r *postgresParticipationRepository) UpdatePaymentStatus(ctx context.Context, id int, status models.PaymentStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE participations SET payment_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

func (r *postgresParticipationRepository) Delete(ctx context.Context, userID, poolID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM participations WHERE user_id = $1 AND pool_id = $2`, userID, poolID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipationNotFound)
}

// Leaderboard returns ranked entries for the pool. The ordering here is the
// canonical tie-break: points descending, then join date, then user id.
func (r *postgresParticipationRepository) Leaderboard(ctx context.Context, poolID int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT p.user_id, u.username, p.points, p.joined_at
		FROM participations p
		JOIN users u ON u.id = p.user_id
		WHERE p.pool_id = $1
		ORDER BY p.points DESC, p.joined_at ASC, p.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	rank := 0
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.JoinedAt); err != nil {
			return nil, err
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
