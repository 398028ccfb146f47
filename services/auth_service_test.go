package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
)

type fakeUserRepo struct {
	repositories.UserRepository
	byEmail map[string]*models.User
	nextID  int
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return repositories.ErrUserEmailConflict
	}
	f.nextID++
	user.ID = f.nextID
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*models.User{}}
	svc := NewAuthService(repo)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, RegisterInput{
		Username: "cadu",
		Email:    "Cadu@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "cadu@example.com", user.Email)
	assert.Equal(t, models.RolePlayer, user.Role)
	assert.False(t, user.EmailConfirmed)

	logged, err := svc.Login(ctx, LoginInput{Email: "cadu@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Empty(t, logged.PasswordHash)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewAuthService(&fakeUserRepo{byEmail: map[string]*models.User{}})

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "cadu",
		Email:    "cadu@example.com",
		Password: "short",
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := NewAuthService(&fakeUserRepo{byEmail: map[string]*models.User{}})
	ctx := context.Background()

	input := RegisterInput{Username: "cadu", Email: "cadu@example.com", Password: "correct-horse"}
	_, _, err := svc.Register(ctx, input)
	require.NoError(t, err)

	input.Username = "cadu2"
	_, _, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &fakeUserRepo{byEmail: map[string]*models.User{}}
	svc := NewAuthService(repo)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Username: "cadu", Email: "cadu@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "cadu@example.com", Password: "wrong-horse"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}
