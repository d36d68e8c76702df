package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
	"github.com/Dosada05/hackathon-portal/storage"
)

type EventService interface {
	List(ctx context.Context) ([]models.Event, error)
	ListSummaries(ctx context.Context) ([]models.EventSummary, error)
	Get(ctx context.Context, name string) (*models.Event, error)
	Summary(ctx context.Context, name string) (*models.EventSummary, error)
	Active(ctx context.Context) (*models.Event, error)
	// Resolve returns the named event, or the active one when name is empty.
	Resolve(ctx context.Context, name string) (*models.Event, error)
	// Writable is Resolve that also rejects ended events.
	Writable(ctx context.Context, name string) (*models.Event, error)

	Create(ctx context.Context, input CreateEventInput) (*models.Event, error)
	Update(ctx context.Context, name string, input UpdateEventInput) (*models.Event, error)
	SetLogo(ctx context.Context, name, contentType string, logo io.Reader) (*models.Event, error)

	End(ctx context.Context, name string) (*models.Event, error)
	Deactivate(ctx context.Context, name string) (*models.Event, error)
	Activate(ctx context.Context, name string) (*models.Event, error)

	// Bootstrap creates an active event named name when no events exist.
	Bootstrap(ctx context.Context, name string) error
}

type CreateEventInput struct {
	Name        string         `json:"name"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Deadline    string         `json:"deadline"`
	Rules       []string       `json:"rules"`
	Prizes      []models.Prize `json:"prizes"`
	// EndCurrent ends the currently active event instead of failing.
	EndCurrent bool `json:"end_current"`
}

// UpdateEventInput carries a partial update; nil fields are left alone.
type UpdateEventInput struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Deadline    *string         `json:"deadline"`
	Rules       *[]string       `json:"rules"`
	Prizes      *[]models.Prize `json:"prizes"`
}

type eventService struct {
	store    repositories.Store
	uploader storage.FileUploader
	locks    *CollectionLocks
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes lifecycle transitions so at most one event is active.
	mu sync.Mutex
}

// NewEventService принимает те же locks, что и сервис заявок: выход из
// активного состояния ждёт приёма заявки, который уже держит замок.
func NewEventService(store repositories.Store, uploader storage.FileUploader, locks *CollectionLocks, notifier Notifier, logger *slog.Logger) EventService {
	if locks == nil {
		locks = NewCollectionLocks()
	}
	return &eventService{
		store:    store,
		uploader: uploader,
		locks:    locks,
		notifier: notifierOrNop(notifier),
		logger:   logger,
		now:      time.Now,
	}
}

func mapEventRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrEventNotFound):
		return ErrEventNotFound
	case errors.Is(err, repositories.ErrInvalidEventKey):
		return ErrInvalidEventName
	}
	return err
}

func (s *eventService) List(ctx context.Context) ([]models.Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list hackathons: %w", err)
	}
	return events, nil
}

func (s *eventService) ListSummaries(ctx context.Context) ([]models.EventSummary, error) {
	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.EventSummary, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range events {
		i := i
		g.Go(func() error {
			summary, err := s.summarize(gctx, &events[i])
			if err != nil {
				return err
			}
			summaries[i] = *summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *eventService) Get(ctx context.Context, name string) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, mapEventRepoError(err)
	}
	return event, nil
}

func (s *eventService) Summary(ctx context.Context, name string) (*models.EventSummary, error) {
	event, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, event)
}

// summarize loads the four collections of event concurrently and counts them.
func (s *eventService) summarize(ctx context.Context, event *models.Event) (*models.EventSummary, error) {
	summary := &models.EventSummary{Event: *event}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subs, err := s.store.LoadSubmissions(gctx, event.Name)
		summary.SubmissionsCount = len(subs)
		return err
	})
	g.Go(func() error {
		parts, err := s.store.LoadParticipants(gctx, event.Name)
		summary.ParticipantsCount = len(parts)
		return err
	})
	g.Go(func() error {
		teams, err := s.store.LoadTeams(gctx, event.Name)
		summary.TeamsCount = len(teams)
		return err
	})
	g.Go(func() error {
		winners, err := s.store.LoadWinners(gctx, event.Name)
		summary.WinnersCount = len(winners)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to summarize hackathon %s: %w", event.Name, mapEventRepoError(err))
	}
	return summary, nil
}

func (s *eventService) Active(ctx context.Context) (*models.Event, error) {
	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if active := findActive(events); active != nil {
		return active, nil
	}
	return nil, ErrNoActiveEvent
}

func findActive(events []models.Event) *models.Event {
	for i := range events {
		if events[i].IsActive() {
			return &events[i]
		}
	}
	return nil
}

func (s *eventService) Resolve(ctx context.Context, name string) (*models.Event, error) {
	if strings.TrimSpace(name) == "" {
		return s.Active(ctx)
	}
	return s.Get(ctx, name)
}

func (s *eventService) Writable(ctx context.Context, name string) (*models.Event, error) {
	event, err := s.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}
	if event.State == models.EventEnded {
		return nil, ErrEventReadOnly
	}
	return event, nil
}

func (s *eventService) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	name := strings.TrimSpace(input.Name)
	if !repositories.ValidEventName(name) {
		return nil, ErrInvalidEventName
	}
	deadline, err := NormalizeDeadline(input.Deadline)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = name
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.Name == name {
			return nil, ErrEventExists
		}
	}

	if active := findActive(events); active != nil {
		if !input.EndCurrent {
			return nil, fmt.Errorf("%w: %s", ErrEventConflict, active.Name)
		}
		if _, err := s.transition(ctx, active, models.EventEnded); err != nil {
			return nil, err
		}
	}

	event := &models.Event{
		Name:        name,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Deadline:    deadline,
		Rules:       cleanRules(input.Rules),
		Prizes:      input.Prizes,
		State:       models.EventActive,
		CreatedAt:   s.now().UTC(),
	}
	if event.Prizes == nil {
		event.Prizes = []models.Prize{}
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create hackathon %s: %w", name, mapEventRepoError(err))
	}

	s.logger.InfoContext(ctx, "Hackathon created", slog.String("event", name))
	s.notifier.Notify(name, MessageEventStateChanged, event)
	return event, nil
}

func (s *eventService) Update(ctx context.Context, name string, input UpdateEventInput) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.Writable(ctx, name)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if t := strings.TrimSpace(*input.Title); t != "" {
			event.Title = t
		}
	}
	if input.Description != nil {
		event.Description = strings.TrimSpace(*input.Description)
	}
	if input.Deadline != nil {
		deadline, err := NormalizeDeadline(*input.Deadline)
		if err != nil {
			return nil, err
		}
		event.Deadline = deadline
	}
	if input.Rules != nil {
		event.Rules = cleanRules(*input.Rules)
	}
	if input.Prizes != nil {
		event.Prizes = *input.Prizes
	}

	if err := s.store.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update hackathon %s: %w", event.Name, err)
	}
	s.notifier.Notify(event.Name, MessageEventUpdated, event)
	return event, nil
}

func (s *eventService) SetLogo(ctx context.Context, name, contentType string, logo io.Reader) (*models.Event, error) {
	if s.uploader == nil {
		return nil, errors.New("file uploads are not configured")
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.Writable(ctx, name)
	if err != nil {
		return nil, err
	}

	key := storage.LogoKey(event.Name, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, logo)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}

	oldKey := event.LogoKey
	event.LogoKey = &result.Key
	url := result.Location
	if url == "" {
		url = s.uploader.GetPublicURL(result.Key)
	}
	event.LogoURL = &url

	if err := s.store.SaveEvent(ctx, event); err != nil {
		if delErr := s.uploader.Delete(ctx, result.Key); delErr != nil {
			s.logger.WarnContext(ctx, "Failed to remove orphaned logo", slog.String("key", result.Key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to save hackathon logo: %w", err)
	}
	if oldKey != nil && *oldKey != "" && *oldKey != result.Key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete previous logo", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	s.notifier.Notify(event.Name, MessageEventUpdated, event)
	return event, nil
}

func (s *eventService) End(ctx context.Context, name string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if event.State != models.EventActive {
		return nil, fmt.Errorf("%w: cannot end a %s hackathon", ErrInvalidStateTransition, event.State)
	}
	return s.transition(ctx, event, models.EventEnded)
}

func (s *eventService) Deactivate(ctx context.Context, name string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if event.State != models.EventActive {
		return nil, fmt.Errorf("%w: cannot deactivate a %s hackathon", ErrInvalidStateTransition, event.State)
	}
	return s.transition(ctx, event, models.EventDeactivated)
}

func (s *eventService) Activate(ctx context.Context, name string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if event.State != models.EventDeactivated {
		return nil, fmt.Errorf("%w: cannot activate a %s hackathon", ErrInvalidStateTransition, event.State)
	}

	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if active := findActive(events); active != nil && active.Name != event.Name {
		return nil, fmt.Errorf("%w: %s", ErrEventConflict, active.Name)
	}
	return s.transition(ctx, event, models.EventActive)
}

// transition persists event in state next. Callers hold s.mu and have
// checked that the move is legal.
func (s *eventService) transition(ctx context.Context, event *models.Event, next models.EventState) (*models.Event, error) {
	if event.IsActive() && next != models.EventActive {
		unlock := s.locks.lock(event.Name, repositories.CollectionSubmissions)
		defer unlock()
	}

	now := s.now().UTC()
	prev := event.State
	event.State = next
	switch next {
	case models.EventEnded:
		event.EndedAt = &now
	case models.EventDeactivated:
		event.DeactivatedAt = &now
	case models.EventActive:
		event.DeactivatedAt = nil
	}

	if err := s.store.SaveEvent(ctx, event); err != nil {
		event.State = prev
		return nil, fmt.Errorf("failed to change state of hackathon %s: %w", event.Name, err)
	}

	s.logger.InfoContext(ctx, "Hackathon state changed",
		slog.String("event", event.Name),
		slog.String("from", string(prev)),
		slog.String("to", string(next)),
	)
	s.notifier.Notify(event.Name, MessageEventStateChanged, event)
	return event, nil
}

func (s *eventService) Bootstrap(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	events, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		return nil
	}
	_, err = s.Create(ctx, CreateEventInput{Name: name})
	return err
}

func cleanRules(rules []string) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
