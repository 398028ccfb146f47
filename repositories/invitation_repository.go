package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/caduhr/bolao-system/models"
)

var (
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvitationTokenConflict = errors.New("invitation token conflict")
	ErrInvitationInvalidPool   = errors.New("invalid pool reference")
)

type InvitationRepository interface {
	Create(ctx context.Context, invitation *models.Invitation) error
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	ListByPool(ctx context.Context, poolID int) ([]*models.Invitation, error)
	Delete(ctx context.Context, id int) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresInvitationRepository struct {
	db *sql.DB
}

func NewPostgresInvitationRepository(db *sql.DB) InvitationRepository {
	return &postgresInvitationRepository{db: db}
}

func (r *postgresInvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	query := `
		INSERT INTO invitations (pool_id, email, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, inv.PoolID, inv.Email, inv.Token, inv.ExpiresAt).
		Scan(&inv.ID, &inv.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505":
			return ErrInvitationTokenConflict
		case "23503":
			return ErrInvitationInvalidPool
		}
	}
	return err
}

func (r *postgresInvitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := `
		SELECT id, pool_id, email, token, expires_at, created_at
		FROM invitations WHERE token = $1`

	inv := &models.Invitation{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&inv.ID, &inv.PoolID, &inv.Email, &inv.Token, &inv.ExpiresAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *postgresInvitationRepository) ListByPool(ctx context.Context, poolID int) ([]*models.Invitation, error) {
	query := `
		SELECT id, pool_id, email, token, expires_at, created_at
		FROM invitations WHERE pool_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invitations := make([]*models.Invitation, 0)
	for rows.Next() {
		inv := &models.Invitation{}
		if err := rows.Scan(&inv.ID, &inv.PoolID, &inv.Email, &inv.Token, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *postgresInvitationRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInvitationNotFound)
}

func (r *postgresInvitationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
