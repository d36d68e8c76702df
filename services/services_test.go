package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
	"github.com/Dosada05/hackathon-portal/utils"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

type recordedMessage struct {
	Event   string
	Type    string
	Payload interface{}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []recordedMessage
}

func (n *recordingNotifier) Notify(event, messageType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, recordedMessage{event, messageType, payload})
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	for i, m := range n.messages {
		out[i] = m.Type
	}
	return out
}

type testEnv struct {
	store        repositories.Store
	locks        *CollectionLocks
	notifier     *recordingNotifier
	events       EventService
	validator    *SubmissionValidator
	submissions  SubmissionService
	participants ParticipantService
	teams        TeamService
	winners      WinnerService
	auth         AuthService
	dashboard    DashboardService
	now          time.Time
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := repositories.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return newTestEnvWithStore(t, store)
}

func newTestEnvWithStore(t *testing.T, store repositories.Store) *testEnv {
	t.Helper()
	logger := discardLogger()
	env := &testEnv{
		store:    store,
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	locks := NewCollectionLocks()
	env.locks = locks
	env.events = NewEventService(store, newMemoryUploader(), locks, env.notifier, logger)
	env.validator = newValidator(t, []string{FieldEmail, FieldGithubRepo, FieldDemoVideo}, true, time.UTC)
	env.validator.Now = func() time.Time { return env.now }
	env.submissions = NewSubmissionService(store, env.events, env.validator, locks, env.notifier, nil, logger)
	env.participants = NewParticipantService(store, env.events, locks, logger)
	env.teams = NewTeamService(store, env.events, locks, logger)
	env.winners = NewWinnerService(store, env.events, locks, env.notifier)
	env.auth = NewAuthService(store, "test-secret", time.Hour, logger)
	env.dashboard = NewDashboardService(store, env.events)
	return env
}

func (env *testEnv) createEvent(t *testing.T, name, deadline string) *models.Event {
	t.Helper()
	ev, err := env.events.Create(context.Background(), CreateEventInput{Name: name, Deadline: deadline})
	if err != nil {
		t.Fatalf("Create(%s): %v", name, err)
	}
	return ev
}

func (env *testEnv) register(t *testing.T, emails ...string) {
	t.Helper()
	for _, e := range emails {
		if _, err := env.participants.Add(context.Background(), "", e, ""); err != nil {
			t.Fatalf("Add(%s): %v", e, err)
		}
	}
}
