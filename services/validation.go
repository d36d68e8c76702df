package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/utils"
)

// Submission field names, shared with form/JSON decoding and
// SUBMISSION_REQUIRED_FIELDS.
const (
	FieldEmail               = "email"
	FieldTeamName            = "team_name"
	FieldProjectName         = "project_name"
	FieldGithubRepo          = "github_repo"
	FieldDemoVideo           = "demo_video"
	FieldLiveDemoURL         = "live_demo_url"
	FieldLiveDemoCredentials = "live_demo_credentials"
)

var submissionFields = []string{
	FieldEmail, FieldTeamName, FieldProjectName, FieldGithubRepo,
	FieldDemoVideo, FieldLiveDemoURL, FieldLiveDemoCredentials,
}

// IsSubmissionField reports whether name is a known submission field.
func IsSubmissionField(name string) bool {
	for _, f := range submissionFields {
		if f == name {
			return true
		}
	}
	return false
}

type SubmissionInput struct {
	Email               string `json:"email"`
	TeamName            string `json:"team_name"`
	ProjectName         string `json:"project_name"`
	GithubRepo          string `json:"github_repo"`
	DemoVideo           string `json:"demo_video"`
	LiveDemoURL         string `json:"live_demo_url"`
	LiveDemoCredentials string `json:"live_demo_credentials"`
}

func (in *SubmissionInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.TeamName = strings.TrimSpace(in.TeamName)
	in.ProjectName = strings.TrimSpace(in.ProjectName)
	in.GithubRepo = strings.TrimSpace(in.GithubRepo)
	in.DemoVideo = strings.TrimSpace(in.DemoVideo)
	in.LiveDemoURL = strings.TrimSpace(in.LiveDemoURL)
	in.LiveDemoCredentials = strings.TrimSpace(in.LiveDemoCredentials)
}

func (in *SubmissionInput) field(name string) string {
	switch name {
	case FieldEmail:
		return in.Email
	case FieldTeamName:
		return in.TeamName
	case FieldProjectName:
		return in.ProjectName
	case FieldGithubRepo:
		return in.GithubRepo
	case FieldDemoVideo:
		return in.DemoVideo
	case FieldLiveDemoURL:
		return in.LiveDemoURL
	case FieldLiveDemoCredentials:
		return in.LiveDemoCredentials
	}
	return ""
}

// SubmissionState is the snapshot the pipeline validates against.
type SubmissionState struct {
	Event        *models.Event
	Submissions  []models.Submission
	Participants []models.Participant
}

type submissionRule func(v *SubmissionValidator, in *SubmissionInput, st *SubmissionState) error

// SubmissionValidator is the single validation pipeline for every entry
// point that accepts a submission. Rules run in order and the first failure
// wins: deadline, required fields, duplicate email, duplicate repository,
// registration.
type SubmissionValidator struct {
	RequiredFields      []string
	RequireRegistration bool
	Location            *time.Location
	Now                 func() time.Time

	rules []submissionRule
}

// NewSubmissionValidator отклоняет неизвестные имена обязательных полей,
// иначе опечатка в SUBMISSION_REQUIRED_FIELDS молча отключала бы проверку.
func NewSubmissionValidator(required []string, requireRegistration bool, loc *time.Location) (*SubmissionValidator, error) {
	for _, f := range required {
		if !IsSubmissionField(f) {
			return nil, fmt.Errorf("unknown submission field %q, expected one of %s", f, strings.Join(submissionFields, ", "))
		}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SubmissionValidator{
		RequiredFields:      required,
		RequireRegistration: requireRegistration,
		Location:            loc,
		Now:                 time.Now,
		rules: []submissionRule{
			checkDeadline,
			checkRequiredFields,
			checkDuplicateEmail,
			checkDuplicateRepository,
			checkRegistration,
		},
	}, nil
}

// Validate normalizes in and runs the pipeline against st.
func (v *SubmissionValidator) Validate(in *SubmissionInput, st *SubmissionState) error {
	in.normalize()
	for _, rule := range v.rules {
		if err := rule(v, in, st); err != nil {
			return err
		}
	}
	return nil
}

// DeadlinePassed reports whether event's deadline lies in the past. An empty
// deadline is never passed.
func (v *SubmissionValidator) DeadlinePassed(event *models.Event) (bool, error) {
	deadline, ok, err := ParseDeadline(event.Deadline, v.Location)
	if err != nil || !ok {
		return false, err
	}
	return v.Now().After(deadline), nil
}

func checkDeadline(v *SubmissionValidator, _ *SubmissionInput, st *SubmissionState) error {
	if st.Event == nil {
		return nil
	}
	passed, err := v.DeadlinePassed(st.Event)
	if err != nil {
		return fmt.Errorf("stored deadline of %s is unreadable: %v", st.Event.Name, err)
	}
	if passed {
		return ErrDeadlinePassed
	}
	return nil
}

func checkRequiredFields(v *SubmissionValidator, in *SubmissionInput, _ *SubmissionState) error {
	var missing []string
	for _, name := range v.RequiredFields {
		if in.field(name) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	if in.Email != "" && !utils.IsValidEmail(in.Email) {
		return ErrInvalidEmail
	}
	return nil
}

func checkDuplicateEmail(_ *SubmissionValidator, in *SubmissionInput, st *SubmissionState) error {
	if in.Email == "" {
		return nil
	}
	for _, s := range st.Submissions {
		if s.Email == in.Email {
			return ErrEmailAlreadySubmitted
		}
	}
	return nil
}

func checkDuplicateRepository(_ *SubmissionValidator, in *SubmissionInput, st *SubmissionState) error {
	if in.GithubRepo == "" {
		return nil
	}
	for _, s := range st.Submissions {
		if s.GithubRepo == in.GithubRepo {
			return ErrRepositoryAlreadySubmitted
		}
	}
	return nil
}

func checkRegistration(v *SubmissionValidator, in *SubmissionInput, st *SubmissionState) error {
	if !v.RequireRegistration {
		return nil
	}
	if findParticipant(st.Participants, in.Email) < 0 {
		return ErrEmailNotRegistered
	}
	return nil
}

// findParticipant returns the index of email in participants, compared
// case-insensitively, or -1.
func findParticipant(participants []models.Participant, email string) int {
	want := utils.NormalizeEmail(email)
	if want == "" {
		return -1
	}
	for i, p := range participants {
		if utils.NormalizeEmail(p.Email) == want {
			return i
		}
	}
	return -1
}

var deadlineInputLayouts = []string{
	models.DeadlineLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseDeadline parses a stored deadline in loc. ok is false for an empty
// value, which means no deadline is enforced.
func ParseDeadline(value string, loc *time.Location) (deadline time.Time, ok bool, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(models.DeadlineLayout, value, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDeadline, value)
	}
	return t, true, nil
}

// NormalizeDeadline accepts the stored layout or an HTML datetime-local value
// and returns it in the stored layout. Empty input clears the deadline.
func NormalizeDeadline(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	for _, layout := range deadlineInputLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(models.DeadlineLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDeadline, value)
}
