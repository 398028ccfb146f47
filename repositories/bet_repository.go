package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/caduhr/bolao-system/models"
)

var (
	ErrBetNotFound     = errors.New("bet not found")
	ErrBetConflict     = errors.New("bet already exists for this user, match and pool")
	ErrBetInvalidMatch = errors.New("invalid match reference")
	ErrBetInvalidPool  = errors.New("invalid pool reference")
	ErrBetInvalidUser  = errors.New("invalid user reference")
)

type BetRepository interface {
	Create(ctx context.Context, bet *models.Bet) error
	Update(ctx context.Context, bet *models.Bet) error
	GetByUserMatchPool(ctx context.Context, userID, matchID, poolID int) (*models.Bet, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Bet, error)
	ListByUserAndPool(ctx context.Context, userID, poolID int) ([]*models.Bet, error)
	UpdatePoints(ctx context.Context, exec SQLExecutor, betID, points int) error
	SumPointsForUser(ctx context.Context, exec SQLExecutor, userID, poolID int) (int, error)
}

type postgresBetRepository struct {
	db *sql.DB
}

func NewPostgresBetRepository(db *sql.DB) BetRepository {
	return &postgresBetRepository{db: db}
}

func (r *postgresBetRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const betColumns = `
	id, user_id, match_id, pool_id, predicted_home, predicted_away,
	points_earned, created_at, updated_at`

func scanBet(row interface{ Scan(...interface{}) error }) (*models.Bet, error) {
	b := &models.Bet{}
	err := row.Scan(
		&b.ID, &b.UserID, &b.MatchID, &b.PoolID, &b.PredictedHome, &b.PredictedAway,
		&b.PointsEarned, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBetNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *postgresBetRepository) Create(ctx context.Context, b *models.Bet) error {
	query := `
		INSERT INTO bets (user_id, match_id, pool_id, predicted_home, predicted_away)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, points_earned, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		b.UserID, b.MatchID, b.PoolID, b.PredictedHome, b.PredictedAway,
	).Scan(&b.ID, &b.PointsEarned, &b.CreatedAt, &b.UpdatedAt)

	return handleBetError(err)
}

func (r *postgresBetRepository) Update(ctx context.Context, b *models.Bet) error {
	query := `
		UPDATE bets SET predicted_home = $1, predicted_away = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, b.PredictedHome, b.PredictedAway, b.ID).Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBetNotFound
	}
	return err
}

func (r *postgresBetRepository) GetByUserMatchPool(ctx context.Context, userID, matchID, poolID int) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE user_id = $1 AND match_id = $2 AND pool_id = $3`
	return scanBet(r.db.QueryRowContext(ctx, query, userID, matchID, poolID))
}

func (r *postgresBetRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Bet, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + betColumns + ` FROM bets WHERE match_id = $1 ORDER BY id`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bets := make([]*models.Bet, 0)
	for rows.Next() {
		b, scanErr := scanBet(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

func (r *postgresBetRepository) ListByUserAndPool(ctx context.Context, userID, poolID int) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE user_id = $1 AND pool_id = $2 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bets := make([]*models.Bet, 0)
	for rows.Next() {
		b, scanErr := scanBet(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

func (r *postgresBetRepository) UpdatePoints(ctx context.Context, exec SQLExecutor, betID, points int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE bets SET points_earned = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, points, betID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrBetNotFound)
}

// SumPointsForUser totals the user's points over finished-match bets in the
// pool. Bets on unfinished matches carry zero points by invariant but are
// excluded anyway so a correction pass cannot double count.
func (r *postgresBetRepository) SumPointsForUser(ctx context.Context, exec SQLExecutor, userID, poolID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COALESCE(SUM(b.points_earned), 0)
		FROM bets b
		JOIN matches m ON m.id = b.match_id
		WHERE b.user_id = $1 AND b.pool_id = $2 AND m.finished`

	var total int
	err := executor.QueryRowContext(ctx, query, userID, poolID).Scan(&total)
	return total, err
}

func handleBetError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrBetConflict
		case "23503":
			switch pqErr.Constraint {
			case "bets_match_id_fkey":
				return ErrBetInvalidMatch
			case "bets_pool_id_fkey":
				return ErrBetInvalidPool
			case "bets_user_id_fkey":
				return ErrBetInvalidUser
			}
		}
	}
	return err
}
