package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caduhr/bolao-system/models"
	"github.com/caduhr/bolao-system/repositories"
)

type FixtureInput struct {
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
}

type RescheduleMatchInput struct {
	StartTime time.Time `json:"start_time"`
}

type MatchService interface {
	ImportFixtures(ctx context.Context, userID int, poolSlug string, fixtures []FixtureInput) ([]*models.Match, error)
	ListByPool(ctx context.Context, poolSlug string, finished *bool) ([]*models.Match, error)
	Reschedule(ctx context.Context, userID, matchID int, input RescheduleMatchInput) (*models.Match, error)
	Delete(ctx context.Context, userID, matchID int) error
}

type matchService struct {
	db        *sql.DB
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	poolRepo  repositories.PoolRepository
}

func NewMatchService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	poolRepo repositories.PoolRepository,
) MatchService {
	return &matchService{
		db:        db,
		matchRepo: matchRepo,
		teamRepo:  teamRepo,
		poolRepo:  poolRepo,
	}
}

// ImportFixtures loads a batch of fixtures into the pool. Team names are
// resolved within the pool's competition, creating teams that do not exist
// yet. The whole batch lands in one transaction, either all fixtures import
// or none do.
func (s *matchService) ImportFixtures(ctx context.Context, userID int, poolSlug string, fixtures []FixtureInput) ([]*models.Match, error) {
	if len(fixtures) == 0 {
		return nil, ErrValidationFailed
	}

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
	if pool.Status == models.PoolStatusFinished {
		return nil, ErrPoolNotOpen
	}

	for i := range fixtures {
		fixtures[i].HomeTeam = strings.TrimSpace(fixtures[i].HomeTeam)
		fixtures[i].AwayTeam = strings.TrimSpace(fixtures[i].AwayTeam)
		if fixtures[i].HomeTeam == "" || fixtures[i].AwayTeam == "" {
			return nil, ErrValidationFailed
		}
		if strings.EqualFold(fixtures[i].HomeTeam, fixtures[i].AwayTeam) {
			return nil, ErrSameTeam
		}
		if fixtures[i].StartTime.IsZero() {
			return nil, ErrValidationFailed
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	teamCache := make(map[string]*models.Team)
	matches := make([]*models.Match, 0, len(fixtures))

	for _, fixture := range fixtures {
		home, err := s.resolveTeam(ctx, tx, teamCache, pool.CompetitionID, fixture.HomeTeam)
		if err != nil {
			return nil, err
		}
		away, err := s.resolveTeam(ctx, tx, teamCache, pool.CompetitionID, fixture.AwayTeam)
		if err != nil {
			return nil, err
		}

		match := &models.Match{
			CompetitionID: pool.CompetitionID,
			PoolID:        pool.ID,
			HomeTeamID:    home.ID,
			AwayTeamID:    away.ID,
			StartTime:     fixture.StartTime,
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return nil, fmt.Errorf("failed to create match %s x %s: %w", fixture.HomeTeam, fixture.AwayTeam, err)
		}
		match.HomeTeam = home
		match.AwayTeam = away
		matches = append(matches, match)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fixture import: %w", err)
	}
	return matches, nil
}

func (s *matchService) resolveTeam(ctx context.Context, tx *sql.Tx, cache map[string]*models.Team, competitionID int, name string) (*models.Team, error) {
	if team, ok := cache[name]; ok {
		return team, nil
	}

	team, err := s.teamRepo.FindByName(ctx, tx, competitionID, name)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		team = &models.Team{CompetitionID: competitionID, Name: name}
		err = s.teamRepo.Create(ctx, tx, team)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team %q: %w", name, err)
	}

	cache[name] = team
	return team, nil
}

// ListByPool returns the pool's fixtures in kickoff order, with team rows
// attached.
func (s *matchService) ListByPool(ctx context.Context, poolSlug string, finished *bool) ([]*models.Match, error) {
	pool, err := s.poolRepo.GetBySlug(ctx, poolSlug)
	if err != nil {
		if errors.Is(err, repositories.ErrPoolNotFound) {
			return nil, ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	matches, err := s.matchRepo.ListByPool(ctx, pool.ID, finished)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	teams, err := s.teamRepo.ListByCompetition(ctx, pool.CompetitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	byID := make(map[int]*models.Team, len(teams))
	for i := range teams {
		byID[teams[i].ID] = &teams[i]
	}
	for _, match := range matches {
		match.HomeTeam = byID[match.HomeTeamID]
		match.AwayTeam = byID[match.AwayTeamID]
	}

	return matches, nil
}

func (s *matchService) Reschedule(ctx context.Context, userID, matchID int, input RescheduleMatchInput) (*models.Match, error) {
	match, _, err := s.ownedMatch(ctx, userID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Finished {
		return nil, ErrMatchAlreadyFinished
	}
	if input.StartTime.IsZero() {
		return nil, ErrValidationFailed
	}

	match.StartTime = input.StartTime
	if err := s.matchRepo.UpdateSchedule(ctx, matchID, match); err != nil {
		return nil, fmt.Errorf("failed to reschedule match: %w", err)
	}
	return match, nil
}

// Delete removes a fixture and, through cascade, its bets. Finished matches
// stay put because their points already count toward the leaderboard.
func (s *matchService) Delete(ctx context.Context, userID, matchID int) error {
	match, _, err := s.ownedMatch(ctx, userID, matchID)
	if err != nil {
		return err
	}
	if match.Finished {
		return ErrMatchAlreadyFinished
	}
	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}

func (s *matchService) ownedMatch(ctx context.Context, userID, matchID int) (*models.Match, *models.Pool, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, nil, ErrMatchNotFound
		}
		return nil, nil, fmt.Errorf("failed to load match: %w", err)
	}

	pool, err := s.poolRepo.GetByID(ctx, nil, match.PoolID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load pool: %w", err)
	}
	if pool.OwnerID != userID {
		return nil, nil, ErrOwnerActionForbidden
	}
	return match, pool, nil
}
