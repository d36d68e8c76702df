package models

type DashboardStats struct {
	Event             *Event `json:"event"`
	SubmissionsTotal  int    `json:"submissions_total"`
	ParticipantsTotal int    `json:"participants_total"`
	SubmittedPercent  int    `json:"submitted_percent"`
	TeamsTotal        int    `json:"teams_total"`
	WinnersTotal      int    `json:"winners_total"`
	EventsTotal       int    `json:"events_total"`
}
