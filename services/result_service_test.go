package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduhr/bolao-system/models"
)

// fakeTx satisfies dbTx. The repository fakes ignore the executor, so the
// statement methods are never reached.
type fakeTx struct{}

func (fakeTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (fakeTx) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (fakeTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (fakeTx) Commit() error                                                    { return nil }
func (fakeTx) Rollback() error                                                  { return nil }

type fakeTxBeginner struct {
	begun int
}

func (b *fakeTxBeginner) Begin(context.Context) (dbTx, error) {
	b.begun++
	return fakeTx{}, nil
}

func intPtr(v int) *int { return &v }

// newResultFixture sets up pool 1 owned by user 3 with two unfinished
// matches. User 7 predicted 2-1 on match 10 and 1-0 on match 11, user 8
// predicted 0-0 on match 10.
func newResultFixture(t *testing.T) (*resultService, *fakeTxBeginner, *fakeBetRepo, *fakeMatchRepo, *fakeParticipationRepo) {
	t.Helper()

	pools := &fakePoolRepo{pools: map[string]*models.Pool{
		"bolao-da-copa": {
			ID:                      1,
			Slug:                    "bolao-da-copa",
			OwnerID:                 3,
			Status:                  models.PoolStatusOpen,
			ExactScorePoints:        10,
			CorrectDifferencePoints: 5,
			CorrectResultPoints:     3,
		},
	}}
	kickoff := time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC)
	matches := &fakeMatchRepo{matches: map[int]*models.Match{
		10: {ID: 10, PoolID: 1, StartTime: kickoff},
		11: {ID: 11, PoolID: 1, StartTime: kickoff},
	}}
	bets := &fakeBetRepo{
		matches: matches,
		bets: map[string]*models.Bet{
			betKey(7, 10, 1): {ID: 1, UserID: 7, MatchID: 10, PoolID: 1, PredictedHome: 2, PredictedAway: 1},
			betKey(8, 10, 1): {ID: 2, UserID: 8, MatchID: 10, PoolID: 1, PredictedHome: 0, PredictedAway: 0},
			betKey(7, 11, 1): {ID: 3, UserID: 7, MatchID: 11, PoolID: 1, PredictedHome: 1, PredictedAway: 0},
		},
	}
	participations := &fakeParticipationRepo{members: map[int]bool{7: true, 8: true}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewResultService(nil, matches, bets, participations, pools, nil, nil, nil, logger).(*resultService)
	beginner := &fakeTxBeginner{}
	svc.db = beginner

	return svc, beginner, bets, matches, participations
}

func TestFinalizeMatchScoresBetsAndParticipations(t *testing.T) {
	svc, beginner, bets, matches, participations := newResultFixture(t)

	err := svc.FinalizeMatch(context.Background(), 3, 10, intPtr(2), intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 1, beginner.begun)

	match := matches.matches[10]
	assert.True(t, match.Finished)
	require.True(t, match.HasFullResult())
	assert.Equal(t, 2, *match.HomeScore)
	assert.Equal(t, 1, *match.AwayScore)

	// exact score for user 7, wrong outcome for user 8
	assert.Equal(t, 10, bets.bets[betKey(7, 10, 1)].PointsEarned)
	assert.Equal(t, 0, bets.bets[betKey(8, 10, 1)].PointsEarned)
	assert.Equal(t, 10, participations.points[7])
	assert.Equal(t, 0, participations.points[8])
}

func TestFinalizeMatchTwiceRejected(t *testing.T) {
	svc, _, _, _, _ := newResultFixture(t)

	require.NoError(t, svc.FinalizeMatch(context.Background(), 3, 10, intPtr(2), intPtr(1)))

	err := svc.FinalizeMatch(context.Background(), 3, 10, intPtr(2), intPtr(1))
	assert.ErrorIs(t, err, ErrMatchAlreadyFinished)
}

func TestCorrectResultIsIdempotent(t *testing.T) {
	svc, _, bets, _, participations := newResultFixture(t)

	require.NoError(t, svc.FinalizeMatch(context.Background(), 3, 10, intPtr(2), intPtr(1)))

	// Re-running the same correction any number of times converges to the
	// same bet points and participation totals.
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.CorrectMatchResult(context.Background(), 3, 10, intPtr(2), intPtr(1)))
		assert.Equal(t, 10, bets.bets[betKey(7, 10, 1)].PointsEarned)
		assert.Equal(t, 0, bets.bets[betKey(8, 10, 1)].PointsEarned)
		assert.Equal(t, 10, participations.points[7])
		assert.Equal(t, 0, participations.points[8])
	}
}

func TestCorrectResultReplacesStalePoints(t *testing.T) {
	svc, _, bets, _, participations := newResultFixture(t)

	require.NoError(t, svc.FinalizeMatch(context.Background(), 3, 10, intPtr(2), intPtr(1)))
	require.NoError(t, svc.FinalizeMatch(context.Background(), 3, 11, intPtr(1), intPtr(0)))
	require.Equal(t, 20, participations.points[7])

	// Correcting match 10 to a draw turns user 7's exact hit into a miss and
	// user 8's 0-0 into a correct-result draw.
	require.NoError(t, svc.CorrectMatchResult(context.Background(), 3, 10, intPtr(1), intPtr(1)))

	assert.Equal(t, 0, bets.bets[betKey(7, 10, 1)].PointsEarned)
	assert.Equal(t, 3, bets.bets[betKey(8, 10, 1)].PointsEarned)

	// totals are recomputed from scratch: nothing of the old 2-1 scoring
	// survives for user 7 beyond the untouched match 11
	assert.Equal(t, 10, participations.points[7])
	assert.Equal(t, 3, participations.points[8])
}

func TestCorrectResultBeforeFinalize(t *testing.T) {
	svc, _, _, _, _ := newResultFixture(t)

	err := svc.CorrectMatchResult(context.Background(), 3, 10, intPtr(1), intPtr(1))
	assert.ErrorIs(t, err, ErrMatchNotFinished)
}

func TestCorrectResultRequiresRecordedScores(t *testing.T) {
	svc, _, _, matches, _ := newResultFixture(t)

	// A finished row without scores violates the schema; refuse to rescore
	// from it instead of treating the missing result as 0-0.
	matches.matches[10].Finished = true

	err := svc.CorrectMatchResult(context.Background(), 3, 10, intPtr(1), intPtr(1))
	assert.ErrorIs(t, err, ErrMatchNotFinished)
}

func TestFinalizeMatchRequiresBothScores(t *testing.T) {
	svc, beginner, _, _, _ := newResultFixture(t)

	err := svc.FinalizeMatch(context.Background(), 3, 10, intPtr(2), nil)
	assert.ErrorIs(t, err, ErrScoresRequired)

	err = svc.FinalizeMatch(context.Background(), 3, 10, nil, intPtr(1))
	assert.ErrorIs(t, err, ErrScoresRequired)

	assert.Zero(t, beginner.begun)
}

func TestFinalizeMatchRejectsNegativeScores(t *testing.T) {
	svc, _, _, _, _ := newResultFixture(t)

	err := svc.FinalizeMatch(context.Background(), 3, 10, intPtr(-1), intPtr(0))
	assert.ErrorIs(t, err, ErrNegativeScore)
}

func TestFinalizeMatchRequiresPoolOwner(t *testing.T) {
	svc, _, _, _, _ := newResultFixture(t)

	err := svc.FinalizeMatch(context.Background(), 9, 10, intPtr(2), intPtr(1))
	assert.ErrorIs(t, err, ErrOwnerActionForbidden)
}

func TestFinalizeMatchUnknownMatch(t *testing.T) {
	svc, _, _, _, _ := newResultFixture(t)

	err := svc.FinalizeMatch(context.Background(), 3, 99, intPtr(2), intPtr(1))
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
