package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
)

func (f *fakePoolRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	_, exists := f.pools[slug]
	return exists, nil
}

func (f *fakePoolRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.PoolStatus) error {
	for _, pool := range f.pools {
		if pool.ID == id {
			pool.Status = status
			return nil
		}
	}
	return repositories.ErrPoolNotFound
}

type fakeCompetitionRepo struct {
	repositories.CompetitionRepository
	known map[int]bool
}

func (f *fakeCompetitionRepo) GetByID(_ context.Context, id int) (*models.Competition, error) {
	if !f.known[id] {
		return nil, repositories.ErrCompetitionNotFound
	}
	return &models.Competition{ID: id}, nil
}

func newPoolFixture() (*poolService, *fakePoolRepo) {
	pools := &fakePoolRepo{pools: map[string]*models.Pool{
		"bolao-da-copa": {ID: 1, Slug: "bolao-da-copa", OwnerID: 7, Status: models.PoolStatusOpen},
	}}
	competitions := &fakeCompetitionRepo{known: map[int]bool{3: true}}

	svc := NewPoolService(nil, pools, &fakeParticipationRepo{}, competitions, slog.Default()).(*poolService)
	return svc, pools
}

func TestCreatePoolValidation(t *testing.T) {
	svc, _ := newPoolFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, CreatePoolInput{CompetitionID: 3})
	assert.ErrorIs(t, err, ErrPoolNameRequired)

	_, err = svc.Create(ctx, 7, CreatePoolInput{Name: "x", CompetitionID: 3, EntryFee: decimal.NewFromInt(-5)})
	assert.ErrorIs(t, err, ErrInvalidEntryFee)

	_, err = svc.Create(ctx, 7, CreatePoolInput{Name: "x", CompetitionID: 3, Visibility: "friends-only"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Create(ctx, 7, CreatePoolInput{Name: "x", CompetitionID: 99})
	assert.ErrorIs(t, err, ErrCompetitionNotFound)

	negative := -1
	_, err = svc.Create(ctx, 7, CreatePoolInput{Name: "x", CompetitionID: 3, ExactScorePoints: &negative})
	assert.ErrorIs(t, err, ErrInvalidRubric)
}

func TestUniqueSlugAppendsSuffix(t *testing.T) {
	svc, pools := newPoolFixture()

	slug, err := svc.uniqueSlug(context.Background(), "Bolão da Copa")
	require.NoError(t, err)
	assert.Equal(t, "bolao-da-copa-2", slug)

	pools.pools["bolao-da-copa-2"] = &models.Pool{ID: 2, Slug: "bolao-da-copa-2"}
	slug, err = svc.uniqueSlug(context.Background(), "Bolão da Copa")
	require.NoError(t, err)
	assert.Equal(t, "bolao-da-copa-3", slug)
}

func TestChangeStatusTransitions(t *testing.T) {
	svc, pools := newPoolFixture()
	ctx := context.Background()

	// open -> finished skips the locked step and is rejected
	_, err := svc.ChangeStatus(ctx, "bolao-da-copa", 7, models.PoolStatusFinished)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	pool, err := svc.ChangeStatus(ctx, "bolao-da-copa", 7, models.PoolStatusLocked)
	require.NoError(t, err)
	assert.Equal(t, models.PoolStatusLocked, pool.Status)

	pool, err = svc.ChangeStatus(ctx, "bolao-da-copa", 7, models.PoolStatusFinished)
	require.NoError(t, err)
	assert.Equal(t, models.PoolStatusFinished, pool.Status)

	// finished is terminal
	_, err = svc.ChangeStatus(ctx, "bolao-da-copa", 7, models.PoolStatusOpen)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, models.PoolStatusFinished, pools.pools["bolao-da-copa"].Status)
}

func TestChangeStatusRequiresOwner(t *testing.T) {
	svc, _ := newPoolFixture()

	_, err := svc.ChangeStatus(context.Background(), "bolao-da-copa", 99, models.PoolStatusLocked)
	assert.ErrorIs(t, err, ErrOwnerActionForbidden)
}

func TestJoinPrivatePoolRequiresInvitation(t *testing.T) {
	svc, pools := newPoolFixture()
	pools.pools["bolao-da-copa"].Visibility = models.VisibilityPrivate

	_, err := svc.Join(context.Background(), "bolao-da-copa", 42)
	assert.ErrorIs(t, err, ErrPoolPrivate)
}

func TestSetPaymentStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newPoolFixture()

	err := svc.SetPaymentStatus(context.Background(), "bolao-da-copa", 7, 42, "refunded")
	assert.ErrorIs(t, err, ErrValidationFailed)
}
