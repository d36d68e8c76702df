package models

import "time"

type Submission struct {
	ID                  string    `json:"id" db:"id"`
	Email               string    `json:"email" db:"email"`
	TeamName            string    `json:"team_name" db:"team_name"`
	ProjectName         string    `json:"project_name" db:"project_name"`
	GithubRepo          string    `json:"github_repo" db:"github_repo"`
	DemoVideo           string    `json:"demo_video" db:"demo_video"`
	LiveDemoURL         string    `json:"live_demo_url" db:"live_demo_url"`
	LiveDemoCredentials string    `json:"live_demo_credentials,omitempty" db:"live_demo_credentials"`
	SubmittedAt         time.Time `json:"submitted_at" db:"submitted_at"`
}

// PublicSubmission is what the live feed broadcasts: no email, no demo
// credentials.
type PublicSubmission struct {
	TeamName    string    `json:"team_name"`
	ProjectName string    `json:"project_name"`
	GithubRepo  string    `json:"github_repo"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (s Submission) Public() PublicSubmission {
	return PublicSubmission{
		TeamName:    s.TeamName,
		ProjectName: s.ProjectName,
		GithubRepo:  s.GithubRepo,
		SubmittedAt: s.SubmittedAt,
	}
}
