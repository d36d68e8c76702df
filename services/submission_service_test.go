package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
)

func TestSubmissionService_ExampleScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createEvent(t, "spring", "2025-03-20 18:00:00")
	env.register(t, "a@x.com")

	sub, err := env.submissions.Submit(ctx, SubmissionInput{Email: "a@x.com", GithubRepo: "repo1", DemoVideo: "v1"})
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if sub.ID == "" || !sub.SubmittedAt.Equal(env.now) {
		t.Errorf("unexpected submission %+v", sub)
	}

	_, err = env.submissions.Submit(ctx, SubmissionInput{Email: "a@x.com", GithubRepo: "repo2", DemoVideo: "v2"})
	if !errors.Is(err, ErrEmailAlreadySubmitted) {
		t.Errorf("expected ErrEmailAlreadySubmitted, got %v", err)
	}

	_, err = env.submissions.Submit(ctx, SubmissionInput{Email: "b@x.com", GithubRepo: "repo1", DemoVideo: "v3"})
	if !errors.Is(err, ErrRepositoryAlreadySubmitted) {
		t.Errorf("expected ErrRepositoryAlreadySubmitted, got %v", err)
	}

	list, err := env.submissions.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Email != "a@x.com" {
		t.Errorf("expected the single accepted submission, got %+v", list)
	}

	again, err := env.submissions.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(list, again) {
		t.Error("expected listing twice to return identical results")
	}

	if got := env.notifier.types(); len(got) == 0 || got[len(got)-1] != MessageSubmissionCreated {
		t.Errorf("expected submission_created notification, got %v", got)
	}
}

func TestSubmissionService_AfterDeadline(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createEvent(t, "spring", "2025-03-10 18:00:00")
	env.register(t, "a@x.com")

	_, err := env.submissions.Submit(ctx, SubmissionInput{Email: "a@x.com", GithubRepo: "repo1", DemoVideo: "v1"})
	if !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("expected ErrDeadlinePassed, got %v", err)
	}
	list, _ := env.submissions.List(ctx, "")
	if len(list) != 0 {
		t.Errorf("expected nothing stored, got %+v", list)
	}
}

func TestSubmissionService_NoActiveEvent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.submissions.Submit(context.Background(), SubmissionInput{Email: "a@x.com", GithubRepo: "r", DemoVideo: "v"})
	if !errors.Is(err, ErrNoActiveEvent) {
		t.Errorf("expected ErrNoActiveEvent, got %v", err)
	}
}

// pausingEvents задерживает Submit между чтением активного хакатона и
// захватом замка заявок.
type pausingEvents struct {
	EventService
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (p *pausingEvents) Active(ctx context.Context) (*models.Event, error) {
	event, err := p.EventService.Active(ctx)
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
	return event, err
}

func TestSubmissionService_RejectedWhenEventEndsMidSubmit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createEvent(t, "spring", "")
	env.register(t, "a@x.com")

	events := &pausingEvents{EventService: env.events, read: make(chan struct{}), release: make(chan struct{})}
	submissions := NewSubmissionService(env.store, events, env.validator, env.locks, nil, nil, discardLogger())

	errc := make(chan error, 1)
	go func() {
		_, err := submissions.Submit(ctx, SubmissionInput{Email: "a@x.com", GithubRepo: "repo1", DemoVideo: "v"})
		errc <- err
	}()

	<-events.read
	if _, err := env.events.End(ctx, "spring"); err != nil {
		t.Fatal(err)
	}
	close(events.release)

	if err := <-errc; !errors.Is(err, ErrNoActiveEvent) {
		t.Fatalf("expected ErrNoActiveEvent, got %v", err)
	}
	list, err := env.submissions.List(ctx, "spring")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("expected ended hackathon to stay empty, got %+v", list)
	}
}

func TestSubmissionService_EndWaitsForInFlightSubmit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createEvent(t, "spring", "")

	unlock := env.locks.lock("spring", repositories.CollectionSubmissions)
	ended := make(chan struct{})
	go func() {
		defer close(ended)
		if _, err := env.events.End(ctx, "spring"); err != nil {
			t.Errorf("End: %v", err)
		}
	}()

	select {
	case <-ended:
		t.Fatal("expected End to wait for the submissions lock")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	<-ended

	ev, err := env.events.Get(ctx, "spring")
	if err != nil {
		t.Fatal(err)
	}
	if ev.State != models.EventEnded {
		t.Errorf("expected ended state, got %s", ev.State)
	}
}

func TestSubmissionService_TeamFromRegistration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createEvent(t, "spring", "")
	if _, err := env.participants.Add(ctx, "", "a@x.com", "Owls"); err != nil {
		t.Fatal(err)
	}

	sub, err := env.submissions.Submit(ctx, SubmissionInput{Email: "a@x.com", GithubRepo: "repo1", DemoVideo: "v1"})
	if err != nil {
		t.Fatal(err)
	}
	if sub.TeamName != "Owls" {
		t.Errorf("expected team from registration, got %q", sub.TeamName)
	}
}

func TestSubmissionService_ConcurrentSubmissionsAreNotLost(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createEvent(t, "spring", "")
	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com", "f@x.com"}
	env.register(t, emails...)

	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			repo := "repo" + string(rune('a'+i))
			if _, err := env.submissions.Submit(ctx, SubmissionInput{Email: email, GithubRepo: repo, DemoVideo: "v"}); err != nil {
				t.Errorf("submit %s: %v", email, err)
			}
		}(i, email)
	}
	wg.Wait()

	list, err := env.submissions.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(emails) {
		t.Errorf("expected %d submissions, got %d", len(emails), len(list))
	}
}

func TestSubmissionService_VerifyEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createEvent(t, "spring", "2025-03-20 18:00:00")
	if _, err := env.participants.Add(ctx, "", "a@x.com", "Owls"); err != nil {
		t.Fatal(err)
	}

	status, err := env.submissions.VerifyEmail(ctx, "A@X.COM")
	if err != nil {
		t.Fatal(err)
	}
	if !status.Registered || status.TeamName != "Owls" || status.AlreadySubmitted || status.DeadlinePassed {
		t.Errorf("unexpected status %+v", status)
	}

	if _, err := env.submissions.Submit(ctx, SubmissionInput{Email: "a@x.com", GithubRepo: "r", DemoVideo: "v"}); err != nil {
		t.Fatal(err)
	}
	env.now = env.now.Add(30 * 24 * time.Hour)
	status, err = env.submissions.VerifyEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if !status.AlreadySubmitted || !status.DeadlinePassed {
		t.Errorf("expected submitted and deadline passed, got %+v", status)
	}

	status, err = env.submissions.VerifyEmail(ctx, "nobody@x.com")
	if err != nil {
		t.Fatal(err)
	}
	if status.Registered {
		t.Error("expected unknown email to be unregistered")
	}
}

func TestSubmissionService_Deadline(t *testing.T) {
	env := newTestEnv(t)
	env.createEvent(t, "spring", "2025-03-20T18:00")
	got, err := env.submissions.Deadline(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-03-20 18:00:00" {
		t.Errorf("expected normalized deadline, got %q", got)
	}
}
