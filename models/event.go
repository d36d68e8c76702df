package models

import "time"

// EventState is the lifecycle tag of a hackathon. "No event" is the absence
// of a record.
type EventState string

const (
	EventActive      EventState = "active"
	EventEnded       EventState = "ended"
	EventDeactivated EventState = "deactivated"
)

// DeadlineLayout is the fixed format of Event.Deadline.
const DeadlineLayout = "2006-01-02 15:04:05"

type Prize struct {
	Place  string `json:"place"`
	Title  string `json:"title,omitempty"`
	Amount string `json:"amount,omitempty"`
}

// Event holds the metadata of one hackathon. Name is its identity and the
// name of its storage directory in the files backend.
type Event struct {
	Name          string     `json:"name" db:"name"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Deadline      string     `json:"deadline" db:"deadline"`
	Rules         []string   `json:"rules" db:"rules"`
	Prizes        []Prize    `json:"prizes" db:"prizes"`
	State         EventState `json:"state" db:"state"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty" db:"deactivated_at"`

	LogoKey *string `json:"logo_key,omitempty" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"logo_url"`
}

func (e *Event) IsActive() bool {
	return e.State == EventActive
}

// EventSummary is an Event with the sizes of its collections, used by the
// admin panel.
type EventSummary struct {
	Event
	SubmissionsCount  int `json:"submissions_count"`
	ParticipantsCount int `json:"participants_count"`
	TeamsCount        int `json:"teams_count"`
	WinnersCount      int `json:"winners_count"`
}
