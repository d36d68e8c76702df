package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/hackathon-portal/models"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrAdminNotFound   = errors.New("admin credential not found")
	ErrStorageCorrupt  = errors.New("stored collection is malformed")
	ErrInvalidEventKey = errors.New("invalid event name")
)

// Store is the persistence adapter. Every Save call replaces the whole
// collection of one event; callers do load-modify-save and are responsible
// for serializing concurrent writers. Loading a collection that was never
// saved returns an empty slice.
type Store interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, name string) (*models.Event, error)
	// SaveEvent inserts or updates an event record. Inserting initializes
	// empty collections for it.
	SaveEvent(ctx context.Context, event *models.Event) error

	LoadSubmissions(ctx context.Context, event string) ([]models.Submission, error)
	SaveSubmissions(ctx context.Context, event string, submissions []models.Submission) error

	LoadParticipants(ctx context.Context, event string) ([]models.Participant, error)
	SaveParticipants(ctx context.Context, event string, participants []models.Participant) error

	LoadTeams(ctx context.Context, event string) ([]models.Team, error)
	SaveTeams(ctx context.Context, event string, teams []models.Team) error

	LoadWinners(ctx context.Context, event string) ([]models.Winner, error)
	SaveWinners(ctx context.Context, event string, winners []models.Winner) error

	LoadAdmin(ctx context.Context) (*models.AdminCredential, error)
	SaveAdmin(ctx context.Context, admin *models.AdminCredential) error

	Close() error
}

// Collection names, used as cache keys and file names.
const (
	CollectionSubmissions  = "submissions"
	CollectionParticipants = "participants"
	CollectionTeams        = "teams"
	CollectionWinners      = "winners"
)
