package models

type Winner struct {
	TeamName    string `json:"team_name" db:"team_name"`
	ProjectName string `json:"project_name" db:"project_name"`
	Points      int    `json:"points" db:"points"`
}
