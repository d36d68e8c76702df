package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
	"github.com/Dosada05/hackathon-portal/utils"
)

// Lock order for admin mutations is teams before participants.

type ParticipantService interface {
	List(ctx context.Context, event string) ([]models.Participant, error)
	Add(ctx context.Context, event, email, teamName string) (*models.Participant, error)
	UpdateEmail(ctx context.Context, event, oldEmail, newEmail string) (*models.Participant, error)
	UpdateTeam(ctx context.Context, event, email, teamName string) (*models.Participant, error)
	Delete(ctx context.Context, event, email string) error
	// Import adds the rows of a CSV file with header email[,team_name].
	// Existing or repeated emails are skipped.
	Import(ctx context.Context, event string, r io.Reader) (*ImportResult, error)
}

type ImportResult struct {
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"`
	Invalid []string `json:"invalid,omitempty"`
}

type participantService struct {
	store  repositories.Store
	events EventService
	locks  *CollectionLocks
	logger *slog.Logger
}

func NewParticipantService(store repositories.Store, events EventService, locks *CollectionLocks, logger *slog.Logger) ParticipantService {
	return &participantService{store: store, events: events, locks: locks, logger: logger}
}

func (s *participantService) List(ctx context.Context, event string) ([]models.Participant, error) {
	ev, err := s.events.Resolve(ctx, event)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.LoadParticipants(ctx, ev.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", mapEventRepoError(err))
	}
	return participants, nil
}

func normalizeParticipantEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &MissingFieldsError{Fields: []string{FieldEmail}}
	}
	if !utils.IsValidEmail(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// mutate runs fn over the participants of the writable event under the
// collection locks and saves the result. withTeams also locks teams and
// passes them in so fn can create missing ones.
func (s *participantService) mutate(
	ctx context.Context,
	event string,
	withTeams bool,
	fn func(participants []models.Participant, teams *[]models.Team) ([]models.Participant, error),
) error {
	ev, err := s.events.Writable(ctx, event)
	if err != nil {
		return err
	}

	var teams []models.Team
	teamsBefore := 0
	if withTeams {
		unlockTeams := s.locks.lock(ev.Name, repositories.CollectionTeams)
		defer unlockTeams()
		if teams, err = s.store.LoadTeams(ctx, ev.Name); err != nil {
			return fmt.Errorf("failed to load teams: %w", mapEventRepoError(err))
		}
		teamsBefore = len(teams)
	}

	unlock := s.locks.lock(ev.Name, repositories.CollectionParticipants)
	defer unlock()

	participants, err := s.store.LoadParticipants(ctx, ev.Name)
	if err != nil {
		return fmt.Errorf("failed to load participants: %w", mapEventRepoError(err))
	}

	updated, err := fn(participants, &teams)
	if err != nil {
		return err
	}

	if withTeams && len(teams) != teamsBefore {
		if err := s.store.SaveTeams(ctx, ev.Name, teams); err != nil {
			return fmt.Errorf("failed to save teams: %w", err)
		}
	}
	if err := s.store.SaveParticipants(ctx, ev.Name, updated); err != nil {
		return fmt.Errorf("failed to save participants: %w", err)
	}
	return nil
}

// ensureTeam appends name to teams when no team matches it and returns the
// canonical spelling.
func ensureTeam(teams *[]models.Team, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if i := findTeam(*teams, name); i >= 0 {
		return (*teams)[i].Name
	}
	*teams = append(*teams, models.Team{Name: name})
	return name
}

func (s *participantService) Add(ctx context.Context, event, email, teamName string) (*models.Participant, error) {
	email, err := normalizeParticipantEmail(email)
	if err != nil {
		return nil, err
	}

	var added models.Participant
	err = s.mutate(ctx, event, strings.TrimSpace(teamName) != "", func(participants []models.Participant, teams *[]models.Team) ([]models.Participant, error) {
		if findParticipant(participants, email) >= 0 {
			return nil, ErrParticipantExists
		}
		added = models.Participant{Email: email, TeamName: ensureTeam(teams, teamName)}
		return append(participants, added), nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (s *participantService) UpdateEmail(ctx context.Context, event, oldEmail, newEmail string) (*models.Participant, error) {
	newEmail, err := normalizeParticipantEmail(newEmail)
	if err != nil {
		return nil, err
	}

	var updated models.Participant
	err = s.mutate(ctx, event, false, func(participants []models.Participant, _ *[]models.Team) ([]models.Participant, error) {
		i := findParticipant(participants, oldEmail)
		if i < 0 {
			return nil, ErrParticipantNotFound
		}
		if j := findParticipant(participants, newEmail); j >= 0 && j != i {
			return nil, ErrParticipantExists
		}
		participants[i].Email = newEmail
		updated = participants[i]
		return participants, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *participantService) UpdateTeam(ctx context.Context, event, email, teamName string) (*models.Participant, error) {
	var updated models.Participant
	err := s.mutate(ctx, event, strings.TrimSpace(teamName) != "", func(participants []models.Participant, teams *[]models.Team) ([]models.Participant, error) {
		i := findParticipant(participants, email)
		if i < 0 {
			return nil, ErrParticipantNotFound
		}
		participants[i].TeamName = ensureTeam(teams, teamName)
		updated = participants[i]
		return participants, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *participantService) Delete(ctx context.Context, event, email string) error {
	return s.mutate(ctx, event, false, func(participants []models.Participant, _ *[]models.Team) ([]models.Participant, error) {
		i := findParticipant(participants, email)
		if i < 0 {
			return nil, ErrParticipantNotFound
		}
		return append(participants[:i], participants[i+1:]...), nil
	})
}

func (s *participantService) Import(ctx context.Context, event string, r io.Reader) (*ImportResult, error) {
	rows, err := readParticipantsCSV(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	err = s.mutate(ctx, event, true, func(participants []models.Participant, teams *[]models.Team) ([]models.Participant, error) {
		for _, row := range rows {
			email := strings.TrimSpace(row.Email)
			if !utils.IsValidEmail(email) {
				result.Invalid = append(result.Invalid, row.Email)
				continue
			}
			if findParticipant(participants, email) >= 0 {
				result.Skipped++
				continue
			}
			participants = append(participants, models.Participant{Email: email, TeamName: ensureTeam(teams, row.TeamName)})
			result.Added++
		}
		return participants, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Participants imported",
		slog.String("event", event),
		slog.Int("added", result.Added),
		slog.Int("skipped", result.Skipped),
		slog.Int("invalid", len(result.Invalid)),
	)
	return result, nil
}

func readParticipantsCSV(r io.Reader) ([]models.Participant, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", ErrInvalidImport)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	emailCol, teamCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "email":
			emailCol = i
		case "team_name", "team":
			teamCol = i
		}
	}
	if emailCol < 0 {
		return nil, fmt.Errorf("%w: header must contain an email column", ErrInvalidImport)
	}

	var rows []models.Participant
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		var p models.Participant
		if emailCol < len(record) {
			p.Email = record[emailCol]
		}
		if teamCol >= 0 && teamCol < len(record) {
			p.TeamName = strings.TrimSpace(record[teamCol])
		}
		if strings.TrimSpace(p.Email) == "" {
			continue
		}
		rows = append(rows, p)
	}
	return rows, nil
}
