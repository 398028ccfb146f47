package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
	"github.com/caduhr/bolao-system/storage"
	"github.com/caduhr/bolao-system/utils"
)

type CreateCompetitionInput struct {
	Name        string    `json:"name"`
	SportID     int       `json:"sport_id"`
	Season      string    `json:"season"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Description *string   `json:"description"`
}

type CompetitionService interface {
	Create(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error)
	GetByID(ctx context.Context, id int) (*models.Competition, error)
	List(ctx context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error)
	UploadLogo(ctx context.Context, competitionID int, contentType string, file io.Reader) (*models.Competition, error)
	ListSports(ctx context.Context) ([]models.Sport, error)
	CreateSport(ctx context.Context, name, icon string) (*models.Sport, error)
}

type competitionService struct {
	competitionRepo repositories.CompetitionRepository
	sportRepo       repositories.SportRepository
	uploader        storage.FileUploader
}

func NewCompetitionService(
	competitionRepo repositories.CompetitionRepository,
	sportRepo repositories.SportRepository,
	uploader storage.FileUploader,
) CompetitionService {
	return &competitionService{
		competitionRepo: competitionRepo,
		sportRepo:       sportRepo,
		uploader:        uploader,
	}
}

func (s *competitionService) Create(ctx context.Context, input CreateCompetitionInput) (*models.Competition, error) {
	if input.Name == "" || input.Season == "" {
		return nil, ErrValidationFailed
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, ErrValidationFailed
	}
	if _, err := s.sportRepo.GetByID(ctx, input.SportID); err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to load sport: %w", err)
	}

	competition := &models.Competition{
		Name:        input.Name,
		Slug:        utils.Slugify(input.Name + " " + input.Season),
		SportID:     input.SportID,
		Season:      input.Season,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.competitionRepo.Create(ctx, competition); err != nil {
		if errors.Is(err, repositories.ErrCompetitionSlugConflict) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to create competition: %w", err)
	}
	return competition, nil
}

func (s *competitionService) GetByID(ctx context.Context, id int) (*models.Competition, error) {
	competition, err := s.competitionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to load competition: %w", err)
	}
	s.attachLogoURL(competition)
	return competition, nil
}

func (s *competitionService) List(ctx context.Context, filter repositories.ListCompetitionsFilter) ([]models.Competition, error) {
	competitions, err := s.competitionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	for i := range competitions {
		s.attachLogoURL(&competitions[i])
	}
	return competitions, nil
}

func (s *competitionService) UploadLogo(ctx context.Context, competitionID int, contentType string, file io.Reader) (*models.Competition, error) {
	if s.uploader == nil {
		return nil, ErrForbiddenOperation
	}
	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return nil, ErrUnsupportedImageType
	}

	competition, err := s.GetByID(ctx, competitionID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("competitions/%d/%s.%s", competitionID, uuid.NewString(), ext)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}

	oldKey := competition.LogoKey
	if err := s.competitionRepo.UpdateLogoKey(ctx, competitionID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store logo key: %w", err)
	}
	if oldKey != nil {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	competition.LogoKey = &result.Key
	s.attachLogoURL(competition)
	return competition, nil
}

func (s *competitionService) ListSports(ctx context.Context) ([]models.Sport, error) {
	return s.sportRepo.List(ctx)
}

func (s *competitionService) CreateSport(ctx context.Context, name, icon string) (*models.Sport, error) {
	if name == "" {
		return nil, ErrValidationFailed
	}
	sport := &models.Sport{
		Name: name,
		Slug: utils.Slugify(name),
		Icon: icon,
	}
	if err := s.sportRepo.Create(ctx, sport); err != nil {
		if errors.Is(err, repositories.ErrSportNameConflict) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to create sport: %w", err)
	}
	return sport, nil
}

func (s *competitionService) attachLogoURL(competition *models.Competition) {
	if s.uploader == nil || competition.LogoKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*competition.LogoKey)
	competition.LogoURL = &url
}
