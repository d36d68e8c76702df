package services

import (
	"errors"
	"strings"

	"github.com/Dosada05/hackathon-portal/repositories"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")
	// ErrDuplicateRecord: сохранение нарушило уникальный индекс хранилища.
	ErrDuplicateRecord = repositories.ErrDuplicateRecord

	// Submission pipeline
	ErrDeadlinePassed             = errors.New("submission deadline has passed")
	ErrMissingFields              = errors.New("required fields are missing")
	ErrInvalidEmail               = errors.New("invalid email address")
	ErrEmailAlreadySubmitted      = errors.New("email already used for submission")
	ErrRepositoryAlreadySubmitted = errors.New("repository has already been submitted")
	ErrEmailNotRegistered         = errors.New("email is not registered for this hackathon")

	// Participants, teams, winners
	ErrParticipantExists   = errors.New("email is already registered")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrTeamExists          = errors.New("team already exists")
	ErrTeamNotFound        = errors.New("team not found")
	ErrWinnerExists        = errors.New("team is already in the winners list")
	ErrWinnerNotFound      = errors.New("winner not found")
	ErrInvalidImport       = errors.New("invalid participants file")

	// Event lifecycle
	ErrEventNotFound          = errors.New("hackathon not found")
	ErrEventExists            = errors.New("hackathon with this name already exists")
	ErrEventConflict          = errors.New("another hackathon is already active")
	ErrEventReadOnly          = errors.New("hackathon has ended and is read-only")
	ErrInvalidStateTransition = errors.New("invalid hackathon state transition")
	ErrNoActiveEvent          = errors.New("no active hackathon")
	ErrInvalidEventName       = errors.New("hackathon name must be lowercase letters, digits, '-' or '_'")
	ErrInvalidDeadline        = errors.New("deadline must be formatted as YYYY-MM-DD HH:MM:SS")
	ErrInvalidLogo            = errors.New("logo must be an image")

	// Auth
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrAdminNotConfigured = errors.New("admin credential is not configured")
)

// MissingFieldsError lists the required submission fields that were empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingFields
}
