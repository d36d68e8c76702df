package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
	"github.com/Dosada05/hackathon-portal/utils"
)

type DashboardService interface {
	GetStats(ctx context.Context, event string) (models.DashboardStats, error)
}

type dashboardService struct {
	store  repositories.Store
	events EventService
}

func NewDashboardService(store repositories.Store, events EventService) DashboardService {
	return &dashboardService{store: store, events: events}
}

func (s *dashboardService) GetStats(ctx context.Context, event string) (models.DashboardStats, error) {
	ev, err := s.events.Resolve(ctx, event)
	if err != nil {
		return models.DashboardStats{}, err
	}

	var (
		submissions  []models.Submission
		participants []models.Participant
		teams        []models.Team
		winners      []models.Winner
		allEvents    []models.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { submissions, err = s.store.LoadSubmissions(gctx, ev.Name); return })
	g.Go(func() (err error) { participants, err = s.store.LoadParticipants(gctx, ev.Name); return })
	g.Go(func() (err error) { teams, err = s.store.LoadTeams(gctx, ev.Name); return })
	g.Go(func() (err error) { winners, err = s.store.LoadWinners(gctx, ev.Name); return })
	g.Go(func() (err error) { allEvents, err = s.store.ListEvents(gctx); return })
	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to load dashboard data: %w", mapEventRepoError(err))
	}

	submitted := make(map[string]struct{}, len(submissions))
	for _, sub := range submissions {
		submitted[utils.NormalizeEmail(sub.Email)] = struct{}{}
	}
	registeredSubmitted := 0
	for _, p := range participants {
		if _, ok := submitted[utils.NormalizeEmail(p.Email)]; ok {
			registeredSubmitted++
		}
	}
	percent := 0
	if len(participants) > 0 {
		percent = registeredSubmitted * 100 / len(participants)
	}

	return models.DashboardStats{
		Event:             ev,
		SubmissionsTotal:  len(submissions),
		ParticipantsTotal: len(participants),
		SubmittedPercent:  percent,
		TeamsTotal:        len(teams),
		WinnersTotal:      len(winners),
		EventsTotal:       len(allEvents),
	}, nil
}
