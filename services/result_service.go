package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/caduhr/bolao-system/events"
	"github.com/caduhr/bolao-system/live"
	"github.com/caduhr/bolao-system/metrics"
	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
	"github.com/caduhr/bolao-system/scoring"
)

type ResultService interface {
	FinalizeMatch(ctx context.Context, userID, matchID int, homeScore, awayScore *int) error
	CorrectMatchResult(ctx context.Context, userID, matchID int, homeScore, awayScore *int) error
}

// dbTx is the part of *sql.Tx the result path uses.
type dbTx interface {
	repositories.SQLExecutor
	Commit() error
	Rollback() error
}

// txBeginner abstracts BeginTx so tests can drive applyResult with in-memory
// repositories instead of a live database.
type txBeginner interface {
	Begin(ctx context.Context) (dbTx, error)
}

type sqlTxBeginner struct {
	db *sql.DB
}

func (b sqlTxBeginner) Begin(ctx context.Context) (dbTx, error) {
	return b.db.BeginTx(ctx, nil)
}

type resultService struct {
	db                txBeginner
	matchRepo         repositories.MatchRepository
	betRepo           repositories.BetRepository
	participationRepo repositories.ParticipationRepository
	poolRepo          repositories.PoolRepository
	leaderboard       LeaderboardService
	publisher         *events.Publisher
	hub               *live.Hub
	logger            *slog.Logger
}

func NewResultService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	betRepo repositories.BetRepository,
	participationRepo repositories.ParticipationRepository,
	poolRepo repositories.PoolRepository,
	leaderboard LeaderboardService,
	publisher *events.Publisher,
	hub *live.Hub,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db:                sqlTxBeginner{db: db},
		matchRepo:         matchRepo,
		betRepo:           betRepo,
		participationRepo: participationRepo,
		poolRepo:          poolRepo,
		leaderboard:       leaderboard,
		publisher:         publisher,
		hub:               hub,
		logger:            logger,
	}
}

// FinalizeMatch records the final score and scores every bet on the match.
// Both scores are required: a match is never marked finished without them.
func (s *resultService) FinalizeMatch(ctx context.Context, userID, matchID int, homeScore, awayScore *int) error {
	return s.applyResult(ctx, userID, matchID, homeScore, awayScore, false)
}

// CorrectMatchResult replaces an already posted score and rescores from
// scratch. Because participation points are recomputed as a sum over the
// user's bets, running this any number of times converges to the same totals.
func (s *resultService) CorrectMatchResult(ctx context.Context, userID, matchID int, homeScore, awayScore *int) error {
	return s.applyResult(ctx, userID, matchID, homeScore, awayScore, true)
}

func (s *resultService) applyResult(ctx context.Context, userID, matchID int, homeScore, awayScore *int, correction bool) error {
	if homeScore == nil || awayScore == nil {
		return ErrScoresRequired
	}
	home, away := *homeScore, *awayScore
	if home < 0 || away < 0 {
		return ErrNegativeScore
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	match, err := s.matchRepo.GetByID(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to load match: %w", err)
	}
	if correction && !(match.Finished && match.HasFullResult()) {
		return ErrMatchNotFinished
	}
	if !correction && match.Finished {
		return ErrMatchAlreadyFinished
	}

	pool, err := s.poolRepo.GetByID(ctx, tx, match.PoolID)
	if err != nil {
		return fmt.Errorf("failed to load pool: %w", err)
	}
	if pool.OwnerID != userID {
		return ErrOwnerActionForbidden
	}

	if err := s.matchRepo.UpdateResult(ctx, tx, matchID, home, away, true); err != nil {
		return fmt.Errorf("failed to update match result: %w", err)
	}

	rubric := pool.Rubric()
	bets, err := s.betRepo.ListByMatch(ctx, tx, matchID)
	if err != nil {
		return fmt.Errorf("failed to list bets: %w", err)
	}

	scored := make([]*models.Bet, 0, len(bets))
	for _, bet := range bets {
		points := scoring.Points(bet.PredictedHome, bet.PredictedAway, home, away, rubric)
		if points != bet.PointsEarned {
			if err := s.betRepo.UpdatePoints(ctx, tx, bet.ID, points); err != nil {
				return fmt.Errorf("failed to update bet points: %w", err)
			}
			bet.PointsEarned = points
		}
		scored = append(scored, bet)
	}

	// Recompute every bettor's total from scratch rather than applying a
	// delta. This keeps corrections and retries idempotent.
	for _, bet := range scored {
		total, err := s.betRepo.SumPointsForUser(ctx, tx, bet.UserID, pool.ID)
		if err != nil {
			return fmt.Errorf("failed to sum points for user %d: %w", bet.UserID, err)
		}
		participation, err := s.participationRepo.GetByUserAndPool(ctx, tx, bet.UserID, pool.ID)
		if err != nil {
			return fmt.Errorf("failed to load participation for user %d: %w", bet.UserID, err)
		}
		if participation.Points != total {
			if err := s.participationRepo.UpdatePoints(ctx, tx, participation.ID, total); err != nil {
				return fmt.Errorf("failed to update participation points: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit result: %w", err)
	}

	metrics.MatchesFinalized.Inc()
	metrics.BetsRescored.Add(float64(len(scored)))

	s.afterCommit(ctx, pool, matchID, home, away, correction, scored)
	return nil
}

// afterCommit handles the side effects that must not roll scoring back:
// cache invalidation, Kafka events and the WebSocket push. Failures here are
// logged and otherwise ignored.
func (s *resultService) afterCommit(ctx context.Context, pool *models.Pool, matchID, homeScore, awayScore int, corrected bool, bets []*models.Bet) {
	if s.leaderboard != nil {
		if err := s.leaderboard.Invalidate(ctx, pool.Slug); err != nil {
			s.logger.Error("failed to invalidate leaderboard cache",
				slog.String("pool", pool.Slug), slog.Any("error", err))
		}
	}

	if s.publisher != nil {
		now := time.Now()
		if err := s.publisher.PublishResultAvailable(ctx, events.ResultAvailable{
			PoolID:    pool.ID,
			PoolSlug:  pool.Slug,
			MatchID:   matchID,
			HomeScore: homeScore,
			AwayScore: awayScore,
			Corrected: corrected,
			At:        now,
		}); err != nil {
			s.logger.Error("failed to publish result event",
				slog.String("pool", pool.Slug), slog.Any("error", err))
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(4)
		for _, bet := range bets {
			bet := bet
			group.Go(func() error {
				return s.publisher.PublishBetScored(groupCtx, events.BetScored{
					PoolID:       pool.ID,
					PoolSlug:     pool.Slug,
					MatchID:      matchID,
					BetID:        bet.ID,
					UserID:       bet.UserID,
					PointsEarned: bet.PointsEarned,
					At:           now,
				})
			})
		}
		if err := group.Wait(); err != nil {
			s.logger.Error("failed to publish bet scored events",
				slog.String("pool", pool.Slug), slog.Any("error", err))
		}
	}

	if s.hub != nil {
		s.hub.BroadcastToPool(pool.Slug, live.Message{
			Type: live.MessageResultPosted,
			Payload: map[string]interface{}{
				"match_id":   matchID,
				"home_score": homeScore,
				"away_score": awayScore,
				"corrected":  corrected,
			},
		})

		if s.leaderboard != nil {
			entries, err := s.leaderboard.Get(ctx, pool.Slug)
			if err != nil {
				s.logger.Error("failed to load leaderboard for broadcast",
					slog.String("pool", pool.Slug), slog.Any("error", err))
				return
			}
			s.hub.BroadcastToPool(pool.Slug, live.Message{
				Type:    live.MessageLeaderboardUpdated,
				Payload: entries,
			})
		}
	}
}
