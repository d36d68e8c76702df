package models

type Team struct {
	Name string `json:"name" db:"name"`

	// Members is derived from participants referencing the team.
	Members []string `json:"members" db:"-"`
}
