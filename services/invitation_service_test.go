package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
)

type fakeInvitationRepo struct {
	repositories.InvitationRepository
	byToken map[string]*models.Invitation
	deleted []int
}

func (f *fakeInvitationRepo) GetByToken(_ context.Context, token string) (*models.Invitation, error) {
	inv, ok := f.byToken[token]
	if !ok {
		return nil, repositories.ErrInvitationNotFound
	}
	return inv, nil
}

func (f *fakeInvitationRepo) Create(_ context.Context, inv *models.Invitation) error {
	inv.ID = len(f.byToken) + 1
	f.byToken[inv.Token] = inv
	return nil
}

func (f *fakeInvitationRepo) Delete(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakePoolService struct {
	PoolService
	joined []int
}

func (f *fakePoolService) JoinByInvitationCode(_ context.Context, _ string, userID int) (*models.Participation, error) {
	f.joined = append(f.joined, userID)
	return &models.Participation{UserID: userID, PoolID: 1}, nil
}

func (f *fakePoolRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Pool, error) {
	for _, pool := range f.pools {
		if pool.ID == id {
			return pool, nil
		}
	}
	return nil, repositories.ErrPoolNotFound
}

func newInvitationFixture() (InvitationService, *fakeInvitationRepo, *fakePoolService) {
	pools := &fakePoolRepo{pools: map[string]*models.Pool{
		"bolao-da-copa": {ID: 1, Slug: "bolao-da-copa", OwnerID: 7, Status: models.PoolStatusOpen},
	}}
	invitations := &fakeInvitationRepo{byToken: map[string]*models.Invitation{}}
	poolSvc := &fakePoolService{}

	svc := NewInvitationService(invitations, pools, poolSvc, nil, nil, slog.Default())
	return svc, invitations, poolSvc
}

func TestAcceptInvitationJoinsAndBurnsToken(t *testing.T) {
	svc, invitations, poolSvc := newInvitationFixture()
	invitations.byToken["tok"] = &models.Invitation{
		ID: 5, PoolID: 1, Token: "tok", ExpiresAt: time.Now().Add(time.Hour),
	}

	participation, err := svc.Accept(context.Background(), 42, "tok")
	require.NoError(t, err)
	assert.Equal(t, 42, participation.UserID)
	assert.Equal(t, []int{42}, poolSvc.joined)
	assert.Equal(t, []int{5}, invitations.deleted)
}

func TestAcceptExpiredInvitation(t *testing.T) {
	svc, invitations, _ := newInvitationFixture()
	invitations.byToken["tok"] = &models.Invitation{
		ID: 5, PoolID: 1, Token: "tok", ExpiresAt: time.Now().Add(-time.Minute),
	}

	_, err := svc.Accept(context.Background(), 42, "tok")
	assert.ErrorIs(t, err, ErrInvitationExpired)
}

func TestInviteRequiresOwner(t *testing.T) {
	svc, _, _ := newInvitationFixture()

	_, err := svc.Invite(context.Background(), 99, "bolao-da-copa", []string{"friend@example.com"})
	assert.ErrorIs(t, err, ErrOwnerActionForbidden)
}

func TestInviteRejectsMalformedEmail(t *testing.T) {
	svc, _, _ := newInvitationFixture()

	_, err := svc.Invite(context.Background(), 7, "bolao-da-copa", []string{"not-an-email"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
