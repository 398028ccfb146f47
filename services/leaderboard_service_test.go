package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduhr/bolao-system/models"
)

func (f *fakeParticipationRepo) Leaderboard(_ context.Context, _ int) ([]models.LeaderboardEntry, error) {
	joined := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return []models.LeaderboardEntry{
		{Rank: 1, UserID: 7, Username: "cadu", Points: 23, JoinedAt: joined},
		{Rank: 2, UserID: 9, Username: "ana", Points: 23, JoinedAt: joined.Add(time.Hour)},
		{Rank: 3, UserID: 4, Username: "leo", Points: 11, JoinedAt: joined},
	}, nil
}

func TestLeaderboardWithoutCache(t *testing.T) {
	pools := &fakePoolRepo{pools: map[string]*models.Pool{
		"bolao-da-copa": {ID: 1, Slug: "bolao-da-copa"},
	}}

	svc := NewLeaderboardService(pools, &fakeParticipationRepo{}, nil, slog.Default())

	entries, err := svc.Get(context.Background(), "bolao-da-copa")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Ranks come from the repository ordering: points desc, join date asc.
	assert.Equal(t, "cadu", entries[0].Username)
	assert.Equal(t, "ana", entries[1].Username)
	assert.Equal(t, 11, entries[2].Points)

	// Invalidate is a no-op without Redis.
	assert.NoError(t, svc.Invalidate(context.Background(), "bolao-da-copa"))
}

func TestLeaderboardUnknownPool(t *testing.T) {
	svc := NewLeaderboardService(&fakePoolRepo{pools: map[string]*models.Pool{}}, &fakeParticipationRepo{}, nil, slog.Default())

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPoolNotFound)
}
