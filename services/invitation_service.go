package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caduhr/bolao-system/events"
	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
)

const invitationTTL = 7 * 24 * time.Hour

type InvitationService interface {
	Invite(ctx context.Context, userID int, poolSlug string, emails []string) ([]*models.Invitation, error)
	Accept(ctx context.Context, userID int, token string) (*models.Participation, error)
	ListByPool(ctx context.Context, userID int, poolSlug string) ([]*models.Invitation, error)
	Revoke(ctx context.Context, userID int, poolSlug string, invitationID int) error
	CleanupExpired(ctx context.Context) error
}

type invitationService struct {
	invitationRepo repositories.InvitationRepository
	poolRepo       repositories.PoolRepository
	pools          PoolService
	email          *EmailService
	publisher      *events.Publisher
	logger         *slog.Logger
}

func NewInvitationService(
	invitationRepo repositories.InvitationRepository,
	poolRepo repositories.PoolRepository,
	pools PoolService,
	email *EmailService,
	publisher *events.Publisher,
	logger *slog.Logger,
) InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		poolRepo:       poolRepo,
		pools:          pools,
		email:          email,
		publisher:      publisher,
		logger:         logger,
	}
}

// Invite creates one tokenized invitation per email and sends the emails.
// Delivery is best effort: a failed send leaves the invitation valid, the
// owner can reshare the link.
func (s *invitationService) Invite(ctx context.Context, userID int, poolSlug string, emails []string) ([]*models.Invitation, error) {
	if len(emails) == 0 {
		return nil, ErrValidationFailed
	}

	pool, err := s.ownedPool(ctx, userID, poolSlug)
	if err != nil {
		return nil, err
	}
	if pool.Status != models.PoolStatusOpen {
		return nil, ErrPoolNotOpen
	}

	invitations := make([]*models.Invitation, 0, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(strings.ToLower(email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, ErrValidationFailed
		}

		token, err := generateSecureToken(32)
		if err != nil {
			return nil, err
		}

		invitation := &models.Invitation{
			PoolID:    pool.ID,
			Email:     email,
			Token:     token,
			ExpiresAt: time.Now().Add(invitationTTL),
		}
		if err := s.invitationRepo.Create(ctx, invitation); err != nil {
			return nil, fmt.Errorf("failed to create invitation for %s: %w", email, err)
		}
		invitations = append(invitations, invitation)

		if s.email != nil {
			if err := s.email.SendInvitationEmail(email, pool.Name, token); err != nil {
				s.logger.Error("failed to send invitation email",
					slog.String("pool", pool.Slug), slog.String("email", email), slog.Any("error", err))
			}
		}
		if s.publisher != nil {
			if err := s.publisher.PublishInvitationCreated(ctx, events.InvitationCreated{
				PoolID:   pool.ID,
				PoolSlug: pool.Slug,
				Email:    email,
				At:       time.Now(),
			}); err != nil {
				s.logger.Error("failed to publish invitation event",
					slog.String("pool", pool.Slug), slog.Any("error", err))
			}
		}
	}

	return invitations, nil
}

// Accept joins the caller to the invited pool and burns the token. Private
// visibility is bypassed here, the token is the authorization.
func (s *invitationService) Accept(ctx context.Context, userID int, token string) (*models.Participation, error) {
	invitation, err := s.invitationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInvitationNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	if invitation.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvitationExpired
	}

	pool, err := s.poolRepo.GetByID(ctx, nil, invitation.PoolID)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	participation, err := s.pools.JoinByInvitationCode(ctx, pool.InvitationCode.String(), userID)
	if err != nil {
		return nil, err
	}

	if err := s.invitationRepo.Delete(ctx, invitation.ID); err != nil {
		s.logger.Error("failed to delete accepted invitation",
			slog.Int("invitation_id", invitation.ID), slog.Any("error", err))
	}

	return participation, nil
}

func (s *invitationService) ListByPool(ctx context.Context, userID int, poolSlug string) ([]*models.Invitation, error) {
	pool, err := s.ownedPool(ctx, userID, poolSlug)
	if err != nil {
		return nil, err
	}
	return s.invitationRepo.ListByPool(ctx, pool.ID)
}

func (s *invitationService) Revoke(ctx context.Context, userID int, poolSlug string, invitationID int) error {
	pool, err := s.ownedPool(ctx, userID, poolSlug)
	if err != nil {
		return err
	}

	invitations, err := s.invitationRepo.ListByPool(ctx, pool.ID)
	if err != nil {
		return fmt.Errorf("failed to list invitations: %w", err)
	}
	for _, invitation := range invitations {
		if invitation.ID == invitationID {
			return s.invitationRepo.Delete(ctx, invitationID)
		}
	}
	return ErrInvitationNotFound
}

// CleanupExpired is called by the background scheduler.
func (s *invitationService) CleanupExpired(ctx context.Context) error {
	deleted, err := s.invitationRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired invitations: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("expired invitations removed", slog.Int64("count", deleted))
	}
	return nil
}

func (s *invitationService) ownedPool(ctx context.Context, userID int, poolSlug string) (*models.Pool, error) {
	pool, err := s.poolRepo.GetBySlug(ctx, poolSlug)
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
