package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
)

type TeamService interface {
	// List returns the teams of an event with members derived from the
	// participants' team assignments.
	List(ctx context.Context, event string) ([]models.Team, error)
	Add(ctx context.Context, event, name string) (*models.Team, error)
	// Rename also moves every participant of the old team to the new name.
	Rename(ctx context.Context, event, oldName, newName string) (*models.Team, error)
	// Delete clears the team of its members.
	Delete(ctx context.Context, event, name string) error
}

type teamService struct {
	store  repositories.Store
	events EventService
	locks  *CollectionLocks
	logger *slog.Logger
}

func NewTeamService(store repositories.Store, events EventService, locks *CollectionLocks, logger *slog.Logger) TeamService {
	return &teamService{store: store, events: events, locks: locks, logger: logger}
}

// findTeam matches team names case-insensitively.
func findTeam(teams []models.Team, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, t := range teams {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	return -1
}

func (s *teamService) List(ctx context.Context, event string) ([]models.Team, error) {
	ev, err := s.events.Resolve(ctx, event)
	if err != nil {
		return nil, err
	}
	teams, err := s.store.LoadTeams(ctx, ev.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", mapEventRepoError(err))
	}
	participants, err := s.store.LoadParticipants(ctx, ev.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", mapEventRepoError(err))
	}

	for i := range teams {
		teams[i].Members = []string{}
	}
	for _, p := range participants {
		if i := findTeam(teams, p.TeamName); i >= 0 {
			teams[i].Members = append(teams[i].Members, p.Email)
		}
	}
	return teams, nil
}

func (s *teamService) Add(ctx context.Context, event, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	ev, err := s.events.Writable(ctx, event)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(ev.Name, repositories.CollectionTeams)
	defer unlock()

	teams, err := s.store.LoadTeams(ctx, ev.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", mapEventRepoError(err))
	}
	if findTeam(teams, name) >= 0 {
		return nil, ErrTeamExists
	}
	team := models.Team{Name: name, Members: []string{}}
	if err := s.store.SaveTeams(ctx, ev.Name, append(teams, models.Team{Name: name})); err != nil {
		return nil, fmt.Errorf("failed to save teams: %w", err)
	}
	return &team, nil
}

func (s *teamService) Rename(ctx context.Context, event, oldName, newName string) (*models.Team, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrTeamNameRequired
	}
	ev, err := s.events.Writable(ctx, event)
	if err != nil {
		return nil, err
	}

	unlockTeams := s.locks.lock(ev.Name, repositories.CollectionTeams)
	defer unlockTeams()
	unlockParticipants := s.locks.lock(ev.Name, repositories.CollectionParticipants)
	defer unlockParticipants()

	teams, err := s.store.LoadTeams(ctx, ev.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", mapEventRepoError(err))
	}
	i := findTeam(teams, oldName)
	if i < 0 {
		return nil, ErrTeamNotFound
	}
	if j := findTeam(teams, newName); j >= 0 && j != i {
		return nil, ErrTeamExists
	}
	previous := teams[i].Name
	teams[i].Name = newName

	participants, err := s.store.LoadParticipants(ctx, ev.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", mapEventRepoError(err))
	}
	members := []string{}
	for k := range participants {
		if strings.EqualFold(participants[k].TeamName, previous) {
			participants[k].TeamName = newName
			members = append(members, participants[k].Email)
		}
	}

	if err := s.store.SaveTeams(ctx, ev.Name, teams); err != nil {
		return nil, fmt.Errorf("failed to save teams: %w", err)
	}
	if err := s.store.SaveParticipants(ctx, ev.Name, participants); err != nil {
		// Teams are already saved under the new name; the participants
		// still reference the old one until the rename is retried.
		s.logger.ErrorContext(ctx, "Team renamed but participants were not updated",
			slog.String("event", ev.Name),
			slog.String("from", previous),
			slog.String("to", newName),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to save participants: %w", err)
	}
	return &models.Team{Name: newName, Members: members}, nil
}

func (s *teamService) Delete(ctx context.Context, event, name string) error {
	ev, err := s.events.Writable(ctx, event)
	if err != nil {
		return err
	}

	unlockTeams := s.locks.lock(ev.Name, repositories.CollectionTeams)
	defer unlockTeams()
	unlockParticipants := s.locks.lock(ev.Name, repositories.CollectionParticipants)
	defer unlockParticipants()

	teams, err := s.store.LoadTeams(ctx, ev.Name)
	if err != nil {
		return fmt.Errorf("failed to load teams: %w", mapEventRepoError(err))
	}
	i := findTeam(teams, name)
	if i < 0 {
		return ErrTeamNotFound
	}
	removed := teams[i].Name
	teams = append(teams[:i], teams[i+1:]...)

	participants, err := s.store.LoadParticipants(ctx, ev.Name)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", mapEventRepoError(err))
	}
	changed := false
	for k := range participants {
		if strings.EqualFold(participants[k].TeamName, removed) {
			participants[k].TeamName = ""
			changed = true
		}
	}

	if changed {
		if err := s.store.SaveParticipants(ctx, ev.Name, participants); err != nil {
			return fmt.Errorf("failed to save participants: %w", err)
		}
	}
	if err := s.store.SaveTeams(ctx, ev.Name, teams); err != nil {
		return fmt.Errorf("failed to save teams: %w", err)
	}
	return nil
}
