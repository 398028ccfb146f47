package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/caduhr/bolao-system/metrics"
	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
)

const leaderboardTTL = 60 * time.Second

type LeaderboardService interface {
	Get(ctx context.Context, poolSlug string) ([]models.LeaderboardEntry, error)
	Invalidate(ctx context.Context, poolSlug string) error
}

type leaderboardService struct {
	poolRepo          repositories.PoolRepository
	participationRepo repositories.ParticipationRepository
	rdb               *redis.Client
	group             singleflight.Group
	logger            *slog.Logger
}

// NewLeaderboardService caches rankings in Redis. A nil client degrades to
// querying Postgres on every read.
func NewLeaderboardService(
	poolRepo repositories.PoolRepository,
	participationRepo repositories.ParticipationRepository,
	rdb *redis.Client,
	logger *slog.Logger,
) LeaderboardService {
	return &leaderboardService{
		poolRepo:          poolRepo,
		participationRepo: participationRepo,
		rdb:               rdb,
		logger:            logger,
	}
}

func leaderboardKey(poolSlug string) string {
	return "pool:" + poolSlug + ":leaderboard"
}

func (s *leaderboardService) Get(ctx context.Context, poolSlug string) ([]models.LeaderboardEntry, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, leaderboardKey(poolSlug)).Bytes()
		if err == nil {
			var entries []models.LeaderboardEntry
			if unmarshalErr := json.Unmarshal(cached, &entries); unmarshalErr == nil {
				metrics.LeaderboardCacheHits.WithLabelValues("hit").Inc()
				return entries, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("leaderboard cache read failed",
				slog.String("pool", poolSlug), slog.Any("error", err))
		}
	}
	metrics.LeaderboardCacheHits.WithLabelValues("miss").Inc()

	// Collapse concurrent misses for the same pool into one query.
	result, err, _ := s.group.Do(poolSlug, func() (interface{}, error) {
		return s.load(ctx, poolSlug)
	})
	if err != nil {
		return nil, err
	}
	return result.([]models.LeaderboardEntry), nil
}

func (s *leaderboardService) load(ctx context.Context, poolSlug string) ([]models.LeaderboardEntry, error) {
	pool, err := s.poolRepo.GetBySlug(ctx, poolSlug)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	entries, err := s.participationRepo.Leaderboard(ctx, pool.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}

	if s.rdb != nil {
		payload, marshalErr := json.Marshal(entries)
		if marshalErr == nil {
			if err := s.rdb.Set(ctx, leaderboardKey(poolSlug), payload, leaderboardTTL).Err(); err != nil {
				s.logger.Warn("leaderboard cache write failed",
					slog.String("pool", poolSlug), slog.Any("error", err))
			}
		}
	}

	return entries, nil
}

func (s *leaderboardService) Invalidate(ctx context.Context, poolSlug string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, leaderboardKey(poolSlug)).Err()
}
