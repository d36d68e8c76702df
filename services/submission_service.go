package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
)

type SubmissionService interface {
	// Submit validates input against the active hackathon and stores it.
	Submit(ctx context.Context, input SubmissionInput) (*models.Submission, error)
	List(ctx context.Context, event string) ([]models.Submission, error)
	// Deadline returns the active hackathon's deadline, empty when none is set.
	Deadline(ctx context.Context) (string, error)
	VerifyEmail(ctx context.Context, email string) (*EmailStatus, error)
}

// EmailStatus answers /verify_email for the active hackathon.
type EmailStatus struct {
	Registered       bool   `json:"registered"`
	AlreadySubmitted bool   `json:"already_submitted"`
	TeamName         string `json:"team_name,omitempty"`
	DeadlinePassed   bool   `json:"deadline_passed"`
}

// Mailer sends the confirmation that follows a successful submission.
type Mailer interface {
	SendSubmissionConfirmation(ctx context.Context, event *models.Event, submission *models.Submission) error
}

type submissionService struct {
	store     repositories.Store
	events    EventService
	validator *SubmissionValidator
	locks     *CollectionLocks
	notifier  Notifier
	mailer    Mailer
	logger    *slog.Logger
}

func NewSubmissionService(
	store repositories.Store,
	events EventService,
	validator *SubmissionValidator,
	locks *CollectionLocks,
	notifier Notifier,
	mailer Mailer,
	logger *slog.Logger,
) SubmissionService {
	return &submissionService{
		store:     store,
		events:    events,
		validator: validator,
		locks:     locks,
		notifier:  notifierOrNop(notifier),
		mailer:    mailer,
		logger:    logger,
	}
}

func (s *submissionService) Submit(ctx context.Context, input SubmissionInput) (*models.Submission, error) {
	event, err := s.events.Active(ctx)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(event.Name, repositories.CollectionSubmissions)
	defer unlock()

	// Хакатон мог завершиться, пока ждали замок; переходы из активного
	// состояния берут этот же замок, поэтому здесь состояние актуально.
	if event, err = s.events.Get(ctx, event.Name); err != nil {
		return nil, err
	}
	if !event.IsActive() {
		return nil, ErrNoActiveEvent
	}

	submissions, err := s.store.LoadSubmissions(ctx, event.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", mapEventRepoError(err))
	}
	participants, err := s.store.LoadParticipants(ctx, event.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", mapEventRepoError(err))
	}

	state := &SubmissionState{Event: event, Submissions: submissions, Participants: participants}
	if err := s.validator.Validate(&input, state); err != nil {
		return nil, err
	}

	teamName := input.TeamName
	if teamName == "" {
		if i := findParticipant(participants, input.Email); i >= 0 {
			teamName = participants[i].TeamName
		}
	}

	submission := models.Submission{
		ID:                  uuid.NewString(),
		Email:               input.Email,
		TeamName:            teamName,
		ProjectName:         input.ProjectName,
		GithubRepo:          input.GithubRepo,
		DemoVideo:           input.DemoVideo,
		LiveDemoURL:         input.LiveDemoURL,
		LiveDemoCredentials: input.LiveDemoCredentials,
		SubmittedAt:         s.validator.Now().UTC(),
	}
	if err := s.store.SaveSubmissions(ctx, event.Name, append(submissions, submission)); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	s.logger.InfoContext(ctx, "Submission accepted",
		slog.String("event", event.Name),
		slog.String("submission_id", submission.ID),
	)
	s.notifier.Notify(event.Name, MessageSubmissionCreated, submission.Public())
	s.sendConfirmation(event, &submission)
	return &submission, nil
}

// sendConfirmation mails the submitter in the background. Failures are
// logged only.
func (s *submissionService) sendConfirmation(event *models.Event, submission *models.Submission) {
	if s.mailer == nil {
		return
	}
	ev, sub := *event, *submission
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.mailer.SendSubmissionConfirmation(ctx, &ev, &sub); err != nil {
			s.logger.Error("Failed to send submission confirmation",
				slog.String("event", ev.Name),
				slog.String("submission_id", sub.ID),
				slog.Any("error", err),
			)
		}
	}()
}

func (s *submissionService) List(ctx context.Context, event string) ([]models.Submission, error) {
	ev, err := s.events.Resolve(ctx, event)
	if err != nil {
		return nil, err
	}
	submissions, err := s.store.LoadSubmissions(ctx, ev.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", mapEventRepoError(err))
	}
	return submissions, nil
}

func (s *submissionService) Deadline(ctx context.Context) (string, error) {
	event, err := s.events.Active(ctx)
	if err != nil {
		return "", err
	}
	return event.Deadline, nil
}

func (s *submissionService) VerifyEmail(ctx context.Context, email string) (*EmailStatus, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &MissingFieldsError{Fields: []string{FieldEmail}}
	}
	event, err := s.events.Active(ctx)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.LoadParticipants(ctx, event.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", mapEventRepoError(err))
	}
	submissions, err := s.store.LoadSubmissions(ctx, event.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", mapEventRepoError(err))
	}

	status := &EmailStatus{}
	if i := findParticipant(participants, email); i >= 0 {
		status.Registered = true
		status.TeamName = participants[i].TeamName
	}
	for _, sub := range submissions {
		if sub.Email == email {
			status.AlreadySubmitted = true
			break
		}
	}
	if status.DeadlinePassed, err = s.validator.DeadlinePassed(event); err != nil {
		s.logger.WarnContext(ctx, "Unreadable deadline", slog.String("event", event.Name), slog.Any("error", err))
	}
	return status, nil
}
