package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/hackathon-portal/models"
)

func newValidator(t *testing.T, required []string, requireRegistration bool, loc *time.Location) *SubmissionValidator {
	t.Helper()
	v, err := NewSubmissionValidator(required, requireRegistration, loc)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestNewSubmissionValidator_UnknownRequiredField(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		wantErr  bool
	}{
		{"known fields", []string{FieldEmail, FieldGithubRepo, FieldDemoVideo}, false},
		{"empty list", nil, false},
		{"typo", []string{FieldEmail, "github"}, true},
		{"wrong case", []string{"Email"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSubmissionValidator(tt.required, true, time.UTC)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSubmissionValidator(%v) error = %v, wantErr %v", tt.required, err, tt.wantErr)
			}
		})
	}
}

func TestSubmissionValidator_Order(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	v := newValidator(t, []string{FieldEmail, FieldGithubRepo, FieldDemoVideo}, true, time.UTC)
	v.Now = func() time.Time { return now }

	open := &models.Event{Name: "spring", Deadline: "2025-03-20 18:00:00"}
	closed := &models.Event{Name: "spring", Deadline: "2025-03-10 18:00:00"}
	existing := []models.Submission{{Email: "a@x.com", GithubRepo: "repo1"}}
	registered := []models.Participant{{Email: "A@X.com"}, {Email: "c@x.com"}}

	tests := []struct {
		name    string
		event   *models.Event
		input   SubmissionInput
		wantErr error
	}{
		{"valid", open, SubmissionInput{Email: "c@x.com", GithubRepo: "repo3", DemoVideo: "v"}, nil},
		{"deadline wins over missing fields", closed, SubmissionInput{}, ErrDeadlinePassed},
		{"deadline wins over valid fields", closed, SubmissionInput{Email: "c@x.com", GithubRepo: "repo3", DemoVideo: "v"}, ErrDeadlinePassed},
		{"missing fields", open, SubmissionInput{Email: "c@x.com"}, ErrMissingFields},
		{"whitespace only counts as missing", open, SubmissionInput{Email: "c@x.com", GithubRepo: "  ", DemoVideo: "v"}, ErrMissingFields},
		{"invalid email", open, SubmissionInput{Email: "nope", GithubRepo: "repo3", DemoVideo: "v"}, ErrInvalidEmail},
		{"duplicate email", open, SubmissionInput{Email: "a@x.com", GithubRepo: "repo2", DemoVideo: "v"}, ErrEmailAlreadySubmitted},
		{"duplicate repo before registration", open, SubmissionInput{Email: "b@x.com", GithubRepo: "repo1", DemoVideo: "v"}, ErrRepositoryAlreadySubmitted},
		{"not registered", open, SubmissionInput{Email: "b@x.com", GithubRepo: "repo2", DemoVideo: "v"}, ErrEmailNotRegistered},
		{"no deadline", &models.Event{Name: "spring"}, SubmissionInput{Email: "c@x.com", GithubRepo: "repo3", DemoVideo: "v"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			st := &SubmissionState{Event: tt.event, Submissions: existing, Participants: registered}
			err := v.Validate(&in, st)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSubmissionValidator_EmailCaseSensitiveDuplicates(t *testing.T) {
	v := newValidator(t, []string{FieldEmail}, false, time.UTC)
	st := &SubmissionState{
		Event:       &models.Event{Name: "spring"},
		Submissions: []models.Submission{{Email: "a@x.com", GithubRepo: "repo1"}},
	}
	in := SubmissionInput{Email: "A@x.com", GithubRepo: "repo2"}
	if err := v.Validate(&in, st); err != nil {
		t.Errorf("expected differently cased email to pass the duplicate check, got %v", err)
	}
}

func TestSubmissionValidator_RegistrationDisabled(t *testing.T) {
	v := newValidator(t, []string{FieldEmail}, false, time.UTC)
	in := SubmissionInput{Email: "stranger@x.com"}
	if err := v.Validate(&in, &SubmissionState{Event: &models.Event{Name: "spring"}}); err != nil {
		t.Errorf("expected unregistered email to pass, got %v", err)
	}
}

func TestSubmissionValidator_MissingFieldsListed(t *testing.T) {
	v := newValidator(t, []string{FieldEmail, FieldGithubRepo, FieldDemoVideo}, true, time.UTC)
	in := SubmissionInput{Email: "a@x.com"}
	err := v.Validate(&in, &SubmissionState{Event: &models.Event{Name: "spring"}})

	var mf *MissingFieldsError
	if !errors.As(err, &mf) {
		t.Fatalf("expected MissingFieldsError, got %v", err)
	}
	if len(mf.Fields) != 2 || mf.Fields[0] != FieldGithubRepo || mf.Fields[1] != FieldDemoVideo {
		t.Errorf("unexpected missing fields %v", mf.Fields)
	}
}

func TestSubmissionValidator_DeadlineUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	v := newValidator(t, nil, false, loc)
	// 18:00 at UTC+3 is 15:00 UTC.
	v.Now = func() time.Time { return time.Date(2025, 3, 20, 16, 0, 0, 0, time.UTC) }

	passed, err := v.DeadlinePassed(&models.Event{Deadline: "2025-03-20 18:00:00"})
	if err != nil {
		t.Fatal(err)
	}
	if !passed {
		t.Error("expected deadline in UTC+3 to have passed at 16:00 UTC")
	}
}

func TestSubmissionValidator_MalformedStoredDeadline(t *testing.T) {
	v := newValidator(t, nil, false, time.UTC)
	in := SubmissionInput{}
	err := v.Validate(&in, &SubmissionState{Event: &models.Event{Name: "spring", Deadline: "next friday"}})
	if err == nil {
		t.Fatal("expected error for malformed stored deadline")
	}
	if errors.Is(err, ErrInvalidDeadline) || errors.Is(err, ErrDeadlinePassed) {
		t.Errorf("expected an internal error, got %v", err)
	}
}

func TestNormalizeDeadline(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"2025-04-01 18:00:00", "2025-04-01 18:00:00", false},
		{"2025-04-01T18:00", "2025-04-01 18:00:00", false},
		{"2025-04-01 18:30", "2025-04-01 18:30:00", false},
		{"01/04/2025", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeDeadline(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeDeadline(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeDeadline(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
