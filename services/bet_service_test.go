package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
)

// Fakes embed the repository interface so only the methods a test exercises
// need an implementation.

type fakePoolRepo struct {
	repositories.PoolRepository
	pools map[string]*models.Pool
}

func (f *fakePoolRepo) GetBySlug(_ context.Context, slug string) (*models.Pool, error) {
	pool, ok := f.pools[slug]
	if !ok {
		return nil, repositories.ErrPoolNotFound
	}
	return pool, nil
}

type fakeMatchRepo struct {
	repositories.MatchRepository
	matches map[int]*models.Match
}

func (f *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	match, ok := f.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return match, nil
}

func (f *fakeMatchRepo) UpdateResult(_ context.Context, _ repositories.SQLExecutor, id, homeScore, awayScore int, finished bool) error {
	match, ok := f.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	home, away := homeScore, awayScore
	match.HomeScore = &home
	match.AwayScore = &away
	match.Finished = finished
	return nil
}

type fakeParticipationRepo struct {
	repositories.ParticipationRepository
	members map[int]bool // userID -> participates
	points  map[int]int  // userID -> stored total
}

func (f *fakeParticipationRepo) GetByUserAndPool(_ context.Context, _ repositories.SQLExecutor, userID, poolID int) (*models.Participation, error) {
	if !f.members[userID] {
		return nil, repositories.ErrParticipationNotFound
	}
	return &models.Participation{ID: userID, UserID: userID, PoolID: poolID, Points: f.points[userID]}, nil
}

func (f *fakeParticipationRepo) UpdatePoints(_ context.Context, _ repositories.SQLExecutor, id, points int) error {
	if f.points == nil {
		f.points = make(map[int]int)
	}
	// the fake issues participation IDs equal to user IDs
	f.points[id] = points
	return nil
}

type fakeBetRepo struct {
	repositories.BetRepository
	bets    map[string]*models.Bet
	matches *fakeMatchRepo // set when SumPointsForUser must see match state
	nextID  int
	updated int
}

func betKey(userID, matchID, poolID int) string {
	return fmt.Sprintf("%d/%d/%d", userID, matchID, poolID)
}

func (f *fakeBetRepo) GetByUserMatchPool(_ context.Context, userID, matchID, poolID int) (*models.Bet, error) {
	bet, ok := f.bets[betKey(userID, matchID, poolID)]
	if !ok {
		return nil, repositories.ErrBetNotFound
	}
	return bet, nil
}

func (f *fakeBetRepo) Create(_ context.Context, bet *models.Bet) error {
	key := betKey(bet.UserID, bet.MatchID, bet.PoolID)
	if _, exists := f.bets[key]; exists {
		return repositories.ErrBetConflict
	}
	f.nextID++
	bet.ID = f.nextID
	f.bets[key] = bet
	return nil
}

func (f *fakeBetRepo) Update(_ context.Context, bet *models.Bet) error {
	f.updated++
	f.bets[betKey(bet.UserID, bet.MatchID, bet.PoolID)] = bet
	return nil
}

func (f *fakeBetRepo) UpdatePoints(_ context.Context, _ repositories.SQLExecutor, betID, points int) error {
	for _, bet := range f.bets {
		if bet.ID == betID {
			bet.PointsEarned = points
			return nil
		}
	}
	return repositories.ErrBetNotFound
}

// SumPointsForUser mirrors the SQL query: only bets on finished matches count.
func (f *fakeBetRepo) SumPointsForUser(_ context.Context, _ repositories.SQLExecutor, userID, poolID int) (int, error) {
	total := 0
	for _, bet := range f.bets {
		if bet.UserID != userID || bet.PoolID != poolID {
			continue
		}
		if f.matches != nil {
			match, ok := f.matches.matches[bet.MatchID]
			if !ok || !match.Finished {
				continue
			}
		}
		total += bet.PointsEarned
	}
	return total, nil
}

func newBetFixture(t *testing.T) (*betService, *fakeBetRepo, *fakePoolRepo, *fakeMatchRepo, *fakeParticipationRepo) {
	t.Helper()

	deadline := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	pools := &fakePoolRepo{pools: map[string]*models.Pool{
		"bolao-da-copa": {
			ID:              1,
			Slug:            "bolao-da-copa",
			Status:          models.PoolStatusOpen,
			BettingDeadline: &deadline,
		},
	}}
	matches := &fakeMatchRepo{matches: map[int]*models.Match{
		10: {ID: 10, PoolID: 1, StartTime: time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC)},
		11: {ID: 11, PoolID: 2, StartTime: time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC)},
	}}
	participations := &fakeParticipationRepo{members: map[int]bool{7: true}}
	bets := &fakeBetRepo{bets: map[string]*models.Bet{}}

	svc := NewBetService(bets, matches, pools, participations, nil).(*betService)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC) }

	return svc, bets, pools, matches, participations
}

func TestPlaceBetCreatesNewBet(t *testing.T) {
	svc, bets, _, _, _ := newBetFixture(t)

	bet, err := svc.PlaceBet(context.Background(), 7, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 2, PredictedAway: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, bet.PredictedHome)
	assert.Equal(t, 1, bet.PredictedAway)
	assert.Len(t, bets.bets, 1)
}

func TestPlaceBetUpdatesExistingBet(t *testing.T) {
	svc, bets, _, _, _ := newBetFixture(t)
	ctx := context.Background()

	first, err := svc.PlaceBet(ctx, 7, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 2, PredictedAway: 1})
	require.NoError(t, err)

	second, err := svc.PlaceBet(ctx, 7, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 0, PredictedAway: 0})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 0, second.PredictedHome)
	assert.Len(t, bets.bets, 1)
	assert.Equal(t, 1, bets.updated)
}

func TestPlaceBetRejectsNegativePrediction(t *testing.T) {
	svc, _, _, _, _ := newBetFixture(t)

	_, err := svc.PlaceBet(context.Background(), 7, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: -1, PredictedAway: 0})
	assert.ErrorIs(t, err, ErrNegativePrediction)
}

func TestPlaceBetRejectsNonParticipant(t *testing.T) {
	svc, _, _, _, _ := newBetFixture(t)

	_, err := svc.PlaceBet(context.Background(), 99, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 1, PredictedAway: 1})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestPlaceBetRejectsMatchFromAnotherPool(t *testing.T) {
	svc, _, _, _, _ := newBetFixture(t)

	_, err := svc.PlaceBet(context.Background(), 7, "bolao-da-copa", 11, PlaceBetInput{PredictedHome: 1, PredictedAway: 1})
	assert.ErrorIs(t, err, ErrMatchNotInPool)
}

func TestPlaceBetAfterDeadline(t *testing.T) {
	svc, _, _, _, _ := newBetFixture(t)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 13, 0, 0, 0, time.UTC) }

	_, err := svc.PlaceBet(context.Background(), 7, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 1, PredictedAway: 1})
	assert.ErrorIs(t, err, ErrBettingClosed)
}

func TestPlaceBetOnLockedPool(t *testing.T) {
	svc, _, pools, _, _ := newBetFixture(t)
	pools.pools["bolao-da-copa"].Status = models.PoolStatusLocked

	_, err := svc.PlaceBet(context.Background(), 7, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 1, PredictedAway: 1})
	assert.ErrorIs(t, err, ErrBettingClosed)
}

func TestPlaceBetAfterKickoff(t *testing.T) {
	svc, _, _, matches, _ := newBetFixture(t)
	matches.matches[10].StartTime = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := svc.PlaceBet(context.Background(), 7, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 1, PredictedAway: 1})
	assert.ErrorIs(t, err, ErrMatchAlreadyStarted)
}

func (f *fakeBetRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]*models.Bet, error) {
	var bets []*models.Bet
	for _, bet := range f.bets {
		if bet.MatchID == matchID {
			bets = append(bets, bet)
		}
	}
	return bets, nil
}

func TestListMatchBetsHidesOthersBeforeKickoff(t *testing.T) {
	svc, bets, _, _, participations := newBetFixture(t)
	participations.members[8] = true
	ctx := context.Background()

	_, err := svc.PlaceBet(ctx, 7, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 2, PredictedAway: 1})
	require.NoError(t, err)
	_, err = svc.PlaceBet(ctx, 8, "bolao-da-copa", 10, PlaceBetInput{PredictedHome: 0, PredictedAway: 0})
	require.NoError(t, err)
	require.Len(t, bets.bets, 2)

	visible, err := svc.ListMatchBets(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, 7, visible[0].UserID)
}

func TestPlaceBetUnknownPool(t *testing.T) {
	svc, _, _, _, _ := newBetFixture(t)

	_, err := svc.PlaceBet(context.Background(), 7, "no-such-pool", 10, PlaceBetInput{PredictedHome: 1, PredictedAway: 1})
	assert.ErrorIs(t, err, ErrPoolNotFound)
}
