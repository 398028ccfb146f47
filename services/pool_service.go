package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
	"github.com/caduhr/bolao-system/scoring"
	"github.com/caduhr/bolao-system/utils"
)

// slugAttempts bounds the suffix search when a pool name collides.
const slugAttempts = 20

type CreatePoolInput struct {
	Name            string                `json:"name"`
	Description     *string               `json:"description"`
	CompetitionID   int                   `json:"competition_id"`
	EntryFee        decimal.Decimal       `json:"entry_fee"`
	Visibility      models.PoolVisibility `json:"visibility"`
	MaxParticipants int                   `json:"max_participants"`
	BettingDeadline *time.Time            `json:"betting_deadline"`

	ExactScorePoints        *int `json:"exact_score_points"`
	CorrectDifferencePoints *int `json:"correct_difference_points"`
	CorrectResultPoints     *int `json:"correct_result_points"`
	WrongPredictionPoints   *int `json:"wrong_prediction_points"`
}

type UpdatePoolInput struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	EntryFee        *decimal.Decimal `json:"entry_fee"`
	Visibility      *models.PoolVisibility
	MaxParticipants *int       `json:"max_participants"`
	BettingDeadline *time.Time `json:"betting_deadline"`
}

// PoolDetails is a pool together with the aggregates list views need.
type PoolDetails struct {
	Pool             *models.Pool    `json:"pool"`
	ParticipantCount int             `json:"participant_count"`
	TotalPot         decimal.Decimal `json:"total_pot"`
}

type PoolService interface {
	Create(ctx context.Context, ownerID int, input CreatePoolInput) (*models.Pool, error)
	GetBySlug(ctx context.Context, slug string) (*PoolDetails, error)
	List(ctx context.Context, filter repositories.ListPoolsFilter) ([]models.Pool, error)
	Update(ctx context.Context, slug string, userID int, input UpdatePoolInput) (*models.Pool, error)
	Delete(ctx context.Context, slug string, userID int) error
	Join(ctx context.Context, slug string, userID int) (*models.Participation, error)
	JoinByInvitationCode(ctx context.Context, code string, userID int) (*models.Participation, error)
	Leave(ctx context.Context, slug string, userID int) error
	ChangeStatus(ctx context.Context, slug string, userID int, status models.PoolStatus) (*models.Pool, error)
	SetPaymentStatus(ctx context.Context, slug string, ownerID, targetUserID int, status models.PaymentStatus) error
	AutoUpdateStatuses(ctx context.Context) error
}

type poolService struct {
	db                *sql.DB
	poolRepo          repositories.PoolRepository
	participationRepo repositories.ParticipationRepository
	competitionRepo   repositories.CompetitionRepository
	logger            *slog.Logger
}

func NewPoolService(
	db *sql.DB,
	poolRepo repositories.PoolRepository,
	participationRepo repositories.ParticipationRepository,
	competitionRepo repositories.CompetitionRepository,
	logger *slog.Logger,
) PoolService {
	return &poolService{
		db:                db,
		poolRepo:          poolRepo,
		participationRepo: participationRepo,
		competitionRepo:   competitionRepo,
		logger:            logger,
	}
}

// Create inserts the pool and the owner's participation in one transaction,
// so a pool can never exist without its owner on the leaderboard.
func (s *poolService) Create(ctx context.Context, ownerID int, input CreatePoolInput) (*models.Pool, error) {
	if input.Name == "" {
		return nil, ErrPoolNameRequired
	}
	if input.EntryFee.IsNegative() {
		return nil, ErrInvalidEntryFee
	}
	if input.MaxParticipants < 0 {
		return nil, ErrValidationFailed
	}
	if input.Visibility == "" {
		input.Visibility = models.VisibilityPublic
	}
	if input.Visibility != models.VisibilityPublic && input.Visibility != models.VisibilityPrivate {
		return nil, ErrValidationFailed
	}

	if _, err := s.competitionRepo.GetByID(ctx, input.CompetitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}

	rubric := rubricFromInput(input)
	if rubric.ExactScore < 0 || rubric.CorrectDifference < 0 || rubric.CorrectResult < 0 || rubric.WrongPrediction < 0 {
		return nil, ErrInvalidRubric
	}

	slug, err := s.uniqueSlug(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	pool := &models.Pool{
		Name:                    input.Name,
		Slug:                    slug,
		Description:             input.Description,
		OwnerID:                 ownerID,
		CompetitionID:           input.CompetitionID,
		EntryFee:                input.EntryFee,
		Visibility:              input.Visibility,
		Status:                  models.PoolStatusOpen,
		MaxParticipants:         input.MaxParticipants,
		BettingDeadline:         input.BettingDeadline,
		ExactScorePoints:        rubric.ExactScore,
		CorrectDifferencePoints: rubric.CorrectDifference,
		CorrectResultPoints:     rubric.CorrectResult,
		WrongPredictionPoints:   rubric.WrongPrediction,
		InvitationCode:          uuid.New(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.poolRepo.Create(ctx, tx, pool); err != nil {
		if errors.Is(err, repositories.ErrPoolSlugConflict) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	ownerParticipation := &models.Participation{
		UserID:        ownerID,
		PoolID:        pool.ID,
		PaymentStatus: models.PaymentPaid,
	}
	if err := s.participationRepo.Create(ctx, tx, ownerParticipation); err != nil {
		return nil, fmt.Errorf("failed to create owner participation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pool creation: %w", err)
	}

	return pool, nil
}

func (s *poolService) GetBySlug(ctx context.Context, slug string) (*PoolDetails, error) {
	pool, err := s.poolRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	count, err := s.participationRepo.CountByPool(ctx, nil, pool.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}

	return &PoolDetails{
		Pool:             pool,
		ParticipantCount: count,
		TotalPot:         pool.TotalPot(count),
	}, nil
}

func (s *poolService) List(ctx context.Context, filter repositories.ListPoolsFilter) ([]models.Pool, error) {
	return s.poolRepo.List(ctx, filter)
}

func (s *poolService) Update(ctx context.Context, slug string, userID int, input UpdatePoolInput) (*models.Pool, error) {
	pool, err := s.ownedPool(ctx, slug, userID)
	if err != nil {
		return nil, err
	}
	if pool.Status == models.PoolStatusFinished {
		return nil, ErrPoolNotOpen
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrPoolNameRequired
		}
		pool.Name = *input.Name
	}
	if input.Description != nil {
		pool.Description = input.Description
	}
	if input.EntryFee != nil {
		if input.EntryFee.IsNegative() {
			return nil, ErrInvalidEntryFee
		}
		pool.EntryFee = *input.EntryFee
	}
	if input.Visibility != nil {
		if *input.Visibility != models.VisibilityPublic && *input.Visibility != models.VisibilityPrivate {
			return nil, ErrValidationFailed
		}
		pool.Visibility = *input.Visibility
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < 0 {
			return nil, ErrValidationFailed
		}
		if *input.MaxParticipants > 0 {
			count, err := s.participationRepo.CountByPool(ctx, nil, pool.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to count participants: %w", err)
			}
			if count > *input.MaxParticipants {
				return nil, ErrPoolFull
			}
		}
		pool.MaxParticipants = *input.MaxParticipants
	}
	if input.BettingDeadline != nil {
		pool.BettingDeadline = input.BettingDeadline
	}

	if err := s.poolRepo.Update(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to update pool: %w", err)
	}
	return pool, nil
}

func (s *poolService) Delete(ctx context.Context, slug string, userID int) error {
	pool, err := s.ownedPool(ctx, slug, userID)
	if err != nil {
		return err
	}
	if err := s.poolRepo.Delete(ctx, pool.ID); err != nil {
		return fmt.Errorf("failed to delete pool: %w", err)
	}
	return nil
}

// Join adds the user to a public pool. Private pools require an invitation
// token or the pool's invitation code.
func (s *poolService) Join(ctx context.Context, slug string, userID int) (*models.Participation, error) {
	pool, err := s.poolRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	if pool.Visibility == models.VisibilityPrivate {
		return nil, ErrPoolPrivate
	}
	return s.join(ctx, pool, userID)
}

func (s *poolService) JoinByInvitationCode(ctx context.Context, code string, userID int) (*models.Participation, error) {
	if _, err := uuid.Parse(code); err != nil {
		return nil, ErrPoolNotFound
	}
	pool, err := s.poolRepo.GetByInvitationCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	return s.join(ctx, pool, userID)
}

// join holds the capacity check and the insert in one transaction so two
// concurrent joins cannot both pass the limit.
func (s *poolService) join(ctx context.Context, pool *models.Pool, userID int) (*models.Participation, error) {
	if pool.Status != models.PoolStatusOpen {
		return nil, ErrPoolNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if pool.MaxParticipants > 0 {
		count, err := s.participationRepo.CountByPool(ctx, tx, pool.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count participants: %w", err)
		}
		if count >= pool.MaxParticipants {
			return nil, ErrPoolFull
		}
	}

	participation := &models.Participation{
		UserID:        userID,
		PoolID:        pool.ID,
		PaymentStatus: models.PaymentPending,
	}
	if pool.EntryFee.IsZero() {
		participation.PaymentStatus = models.PaymentPaid
	}

	if err := s.participationRepo.Create(ctx, tx, participation); err != nil {
		if errors.Is(err, repositories.ErrParticipationConflict) {
			return nil, ErrAlreadyParticipant
		}
		return nil, fmt.Errorf("failed to create participation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit join: %w", err)
	}
	return participation, nil
}

func (s *poolService) Leave(ctx context.Context, slug string, userID int) error {
	pool, err := s.poolRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return ErrPoolNotFound
		}
		return fmt.Errorf("failed to load pool: %w", err)
	}
	if pool.OwnerID == userID {
		return ErrForbiddenOperation
	}
	if pool.Status != models.PoolStatusOpen {
		return ErrPoolNotOpen
	}

	if err := s.participationRepo.Delete(ctx, userID, pool.ID); err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return ErrNotParticipant
		}
		return fmt.Errorf("failed to delete participation: %w", err)
	}
	return nil
}

var allowedTransitions = map[models.PoolStatus][]models.PoolStatus{
	models.PoolStatusOpen:   {models.PoolStatusLocked},
	models.PoolStatusLocked: {models.PoolStatusOpen, models.PoolStatusFinished},
}

func transitionAllowed(from, to models.PoolStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *poolService) ChangeStatus(ctx context.Context, slug string, userID int, status models.PoolStatus) (*models.Pool, error) {
	pool, err := s.ownedPool(ctx, slug, userID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(pool.Status, status) {
		return nil, ErrInvalidTransition
	}

	if err := s.poolRepo.UpdateStatus(ctx, nil, pool.ID, status); err != nil {
		return nil, fmt.Errorf("failed to update pool status: %w", err)
	}
	pool.Status = status
	return pool, nil
}

// SetPaymentStatus lets the owner track who has paid the entry fee.
func (s *poolService) SetPaymentStatus(ctx context.Context, slug string, ownerID, targetUserID int, status models.PaymentStatus) error {
	switch status {
	case models.PaymentPending, models.PaymentPaid, models.PaymentFailed:
	default:
		return ErrValidationFailed
	}

	pool, err := s.ownedPool(ctx, slug, ownerID)
	if err != nil {
		return err
	}

	participation, err := s.participationRepo.GetByUserAndPool(ctx, nil, targetUserID, pool.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return ErrNotParticipant
		}
		return fmt.Errorf("failed to load participation: %w", err)
	}

	if err := s.participationRepo.UpdatePaymentStatus(ctx, participation.ID, status); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}

// AutoUpdateStatuses is called by the background scheduler. It locks open
// pools with an elapsed betting deadline and finishes locked pools whose
// matches are all done.
func (s *poolService) AutoUpdateStatuses(ctx context.Context) error {
	now := time.Now()

	toLock, err := s.poolRepo.ListForAutoLock(ctx, nil, now)
	if err != nil {
		return fmt.Errorf("failed to list pools for auto lock: %w", err)
	}
	for _, pool := range toLock {
		if err := s.poolRepo.UpdateStatus(ctx, nil, pool.ID, models.PoolStatusLocked); err != nil {
			s.logger.Error("failed to auto lock pool", slog.String("slug", pool.Slug), slog.Any("error", err))
			continue
		}
		s.logger.Info("pool locked after betting deadline", slog.String("slug", pool.Slug))
	}

	finishable, err := s.poolRepo.ListFinishable(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to list finishable pools: %w", err)
	}
	for _, pool := range finishable {
		if err := s.poolRepo.UpdateStatus(ctx, nil, pool.ID, models.PoolStatusFinished); err != nil {
			s.logger.Error("failed to auto finish pool", slog.String("slug", pool.Slug), slog.Any("error", err))
			continue
		}
		s.logger.Info("pool finished, all matches done", slog.String("slug", pool.Slug))
	}

	return nil
}

func (s *poolService) ownedPool(ctx context.Context, slug string, userID int) (*models.Pool, error) {
	pool, err := s.poolRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	if pool.OwnerID != userID {
		return nil, ErrOwnerActionForbidden
	}
	return pool, nil
}

func (s *poolService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		return "", ErrPoolNameRequired
	}

	slug := base
	for i := 2; i <= slugAttempts; i++ {
		exists, err := s.poolRepo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("could not find a free slug for %q", base)
}

func rubricFromInput(input CreatePoolInput) scoring.Rubric {
	rubric := scoring.DefaultRubric()

	if input.ExactScorePoints != nil {
		rubric.ExactScore = *input.ExactScorePoints
	}
	if input.CorrectDifferencePoints != nil {
		rubric.CorrectDifference = *input.CorrectDifferencePoints
	}
	if input.CorrectResultPoints != nil {
		rubric.CorrectResult = *input.CorrectResultPoints
	}
	if input.WrongPredictionPoints != nil {
		rubric.WrongPrediction = *input.WrongPredictionPoints
	}
	return rubric
}
