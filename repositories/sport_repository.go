package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/caduhr/bolao-system/models"
)

var (
	ErrSportNotFound     = errors.New("sport not found")
	ErrSportNameConflict = errors.New("sport name is already in use")
)

type SportRepository interface {
	Create(ctx context.Context, sport *models.Sport) error
	GetByID(ctx context.Context, id int) (*models.Sport, error)
	List(ctx context.Context) ([]models.Sport, error)
}

type postgresSportRepository struct {
	db *sql.DB
}

func NewPostgresSportRepository(db *sql.DB) SportRepository {
	return &postgresSportRepository{db: db}
}

func (r *postgresSportRepository) Create(ctx context.Context, sport *models.Sport) error {
	query := `INSERT INTO sports (name, slug, icon) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, sport.Name, sport.Slug, sport.Icon).Scan(&sport.ID)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return ErrSportNameConflict
	}
	return err
}

func (r *postgresSportRepository) GetByID(ctx context.Context, id int) (*models.Sport, error) {
	query := `SELECT id, name, slug, icon FROM sports WHERE id = $1`
	s := &models.Sport{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Slug, &s.Icon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSportNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSportRepository) List(ctx context.Context) ([]models.Sport, error) {
	query := `SELECT id, name, slug, icon FROM sports ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sports := make([]models.Sport, 0)
	for rows.Next() {
		var s models.Sport
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &s.Icon); err != nil {
			return nil, err
		}
		sports = append(sports, s)
	}
	return sports, rows.Err()
}
