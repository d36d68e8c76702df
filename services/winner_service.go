package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
)

type WinnerInput struct {
	TeamName    string `json:"team_name"`
	ProjectName string `json:"project_name"`
	Points      int    `json:"points"`
}

type WinnerService interface {
	// List returns winners sorted by points, highest first. Ties keep their
	// stored order.
	List(ctx context.Context, event string) ([]models.Winner, error)
	Add(ctx context.Context, event string, input WinnerInput) (*models.Winner, error)
	Update(ctx context.Context, event, teamName string, input WinnerInput) (*models.Winner, error)
	Delete(ctx context.Context, event, teamName string) error
}

type winnerService struct {
	store    repositories.Store
	events   EventService
	locks    *CollectionLocks
	notifier Notifier
}

func NewWinnerService(store repositories.Store, events EventService, locks *CollectionLocks, notifier Notifier) WinnerService {
	return &winnerService{store: store, events: events, locks: locks, notifier: notifierOrNop(notifier)}
}

func sortWinners(winners []models.Winner) {
	sort.SliceStable(winners, func(i, j int) bool {
		return winners[i].Points > winners[j].Points
	})
}

func findWinner(winners []models.Winner, teamName string) int {
	teamName = strings.TrimSpace(teamName)
	for i, w := range winners {
		if strings.EqualFold(w.TeamName, teamName) {
			return i
		}
	}
	return -1
}

func (s *winnerService) List(ctx context.Context, event string) ([]models.Winner, error) {
	ev, err := s.events.Resolve(ctx, event)
	if err != nil {
		return nil, err
	}
	winners, err := s.store.LoadWinners(ctx, ev.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load winners: %w", mapEventRepoError(err))
	}
	sortWinners(winners)
	return winners, nil
}

func (s *winnerService) mutate(ctx context.Context, event string, fn func([]models.Winner) ([]models.Winner, error)) error {
	ev, err := s.events.Writable(ctx, event)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(ev.Name, repositories.CollectionWinners)
	defer unlock()

	winners, err := s.store.LoadWinners(ctx, ev.Name)
	if err != nil {
		return fmt.Errorf("failed to load winners: %w", mapEventRepoError(err))
	}
	updated, err := fn(winners)
	if err != nil {
		return err
	}
	sortWinners(updated)
	if err := s.store.SaveWinners(ctx, ev.Name, updated); err != nil {
		return fmt.Errorf("failed to save winners: %w", err)
	}
	s.notifier.Notify(ev.Name, MessageWinnersUpdated, updated)
	return nil
}

func (in *WinnerInput) normalize() error {
	in.TeamName = strings.TrimSpace(in.TeamName)
	in.ProjectName = strings.TrimSpace(in.ProjectName)
	if in.TeamName == "" {
		return ErrTeamNameRequired
	}
	if in.Points < 0 {
		return fmt.Errorf("%w: points must not be negative", ErrValidationFailed)
	}
	return nil
}

func (s *winnerService) Add(ctx context.Context, event string, input WinnerInput) (*models.Winner, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	winner := models.Winner{TeamName: input.TeamName, ProjectName: input.ProjectName, Points: input.Points}
	err := s.mutate(ctx, event, func(winners []models.Winner) ([]models.Winner, error) {
		if findWinner(winners, winner.TeamName) >= 0 {
			return nil, ErrWinnerExists
		}
		return append(winners, winner), nil
	})
	if err != nil {
		return nil, err
	}
	return &winner, nil
}

func (s *winnerService) Update(ctx context.Context, event, teamName string, input WinnerInput) (*models.Winner, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	winner := models.Winner{TeamName: input.TeamName, ProjectName: input.ProjectName, Points: input.Points}
	err := s.mutate(ctx, event, func(winners []models.Winner) ([]models.Winner, error) {
		i := findWinner(winners, teamName)
		if i < 0 {
			return nil, ErrWinnerNotFound
		}
		if j := findWinner(winners, winner.TeamName); j >= 0 && j != i {
			return nil, ErrWinnerExists
		}
		winners[i] = winner
		return winners, nil
	})
	if err != nil {
		return nil, err
	}
	return &winner, nil
}

func (s *winnerService) Delete(ctx context.Context, event, teamName string) error {
	return s.mutate(ctx, event, func(winners []models.Winner) ([]models.Winner, error) {
		i := findWinner(winners, teamName)
		if i < 0 {
			return nil, ErrWinnerNotFound
		}
		return append(winners[:i], winners[i+1:]...), nil
	})
}
