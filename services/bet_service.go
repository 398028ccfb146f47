package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/caduhr/bolao-system/metrics"
	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
)

type PlaceBetInput struct {
	PredictedHome int `json:"predicted_home"`
	PredictedAway int `json:"predicted_away"`
}

type BetService interface {
	PlaceBet(ctx context.Context, userID int, poolSlug string, matchID int, input PlaceBetInput) (*models.Bet, error)
	ListUserBets(ctx context.Context, userID int, poolSlug string) ([]*models.Bet, error)
	ListMatchBets(ctx context.Context, userID int, matchID int) ([]*models.Bet, error)
}

type betService struct {
	betRepo           repositories.BetRepository
	matchRepo         repositories.MatchRepository
	poolRepo          repositories.PoolRepository
	participationRepo repositories.ParticipationRepository
	userRepo          repositories.UserRepository

	// now is swapped out in tests.
	now func() time.Time
}

func NewBetService(
	betRepo repositories.BetRepository,
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	participationRepo repositories.ParticipationRepository,
	userRepo repositories.UserRepository,
) BetService {
	return &betService{
		betRepo:           betRepo,
		matchRepo:         matchRepo,
		poolRepo:          poolRepo,
		participationRepo: participationRepo,
		userRepo:          userRepo,
		now:               time.Now,
	}
}

// PlaceBet creates the user's prediction for a match, or updates it when one
// already exists. Either way the bet must land before the pool's betting
// deadline and before the match kicks off.
func (s *betService) PlaceBet(ctx context.Context, userID int, poolSlug string, matchID int, input PlaceBetInput) (*models.Bet, error) {
	if input.PredictedHome < 0 || input.PredictedAway < 0 {
		return nil, ErrNegativePrediction
	}

	pool, err := s.poolRepo.GetBySlug(ctx, poolSlug)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	if match.PoolID != pool.ID {
		return nil, ErrMatchNotInPool
	}

	now := s.now()
	if !pool.IsOpenForBetting(now) {
		return nil, ErrBettingClosed
	}
	if match.HasStarted(now) {
		return nil, ErrMatchAlreadyStarted
	}

	if _, err := s.participationRepo.GetByUserAndPool(ctx, nil, userID, pool.ID); err != nil {
		if errors.Is(err, repositories.ErrParticipationNotFound) {
			return nil, ErrNotParticipant
		}
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}

	existing, err := s.betRepo.GetByUserMatchPool(ctx, userID, matchID, pool.ID)
	switch {
	case err == nil:
		existing.PredictedHome = input.PredictedHome
		existing.PredictedAway = input.PredictedAway
		if err := s.betRepo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update bet: %w", err)
		}
		metrics.BetsPlaced.Inc()
		return existing, nil

	case errors.Is(err, repositories.ErrBetNotFound):
		bet := &models.Bet{
			UserID:        userID,
			MatchID:       matchID,
			PoolID:        pool.ID,
			PredictedHome: input.PredictedHome,
			PredictedAway: input.PredictedAway,
		}
		if err := s.betRepo.Create(ctx, bet); err != nil {
			// A concurrent insert won the unique constraint race. Fall back
			// to updating the row that got there first.
			if errors.Is(err, repositories.ErrBetConflict) {
				return s.PlaceBet(ctx, userID, poolSlug, matchID, input)
			}
			return nil, fmt.Errorf("failed to create bet: %w", err)
		}
		metrics.BetsPlaced.Inc()
		return bet, nil

	default:
		return nil, fmt.Errorf("failed to look up existing bet: %w", err)
	}
}

func (s *betService) ListUserBets(ctx context.Context, userID int, poolSlug string) ([]*models.Bet, error) {
	pool, err := s.poolRepo.GetBySlug(ctx, poolSlug)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	return s.betRepo.ListByUserAndPool(ctx, userID, pool.ID)
}

// ListMatchBets returns everyone's bets once the match has started. Before
// kickoff only the caller's own bet is visible, so nobody can copy
// predictions.
func (s *betService) ListMatchBets(ctx context.Context, userID int, matchID int) ([]*models.Bet, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}

	bets, err := s.betRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}

	if !match.HasStarted(s.now()) {
		own := make([]*models.Bet, 0, 1)
		for _, bet := range bets {
			if bet.UserID == userID {
				own = append(own, bet)
			}
		}
		return own, nil
	}

	for _, bet := range bets {
		user, err := s.userRepo.GetByID(ctx, bet.UserID)
		if err != nil {
			continue
		}
		user.PasswordHash = ""
		bet.User = user
	}
	return bets, nil
}
