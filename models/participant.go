package models

// Participant is an email pre-authorized to submit. Email is unique within
// an event, compared case-insensitively.
type Participant struct {
	Email    string `json:"email" db:"email"`
	TeamName string `json:"team_name" db:"team_name"`
}
