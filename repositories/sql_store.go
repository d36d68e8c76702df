package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/hackathon-portal/models"
)

// sqlStore backs the Store contract with the relational schema from
// db.CreateSchema. Queries are written with '?' placeholders and rebound
// for PostgreSQL.
type sqlStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(conn *sql.DB, driver string) Store {
	return &sqlStore{db: conn, driver: driver}
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (s *sqlStore) q(query string) string {
	return rebind(s.driver, query)
}

const eventColumns = `name, title, description, deadline, rules, prizes, state, created_at, ended_at, deactivated_at, logo_key, logo_url`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		event                  models.Event
		rules, prizes          string
		createdAt              string
		endedAt, deactivatedAt sql.NullString
		logoKey, logoURL       sql.NullString
	)
	err := row.Scan(
		&event.Name, &event.Title, &event.Description, &event.Deadline,
		&rules, &prizes, &event.State, &createdAt,
		&endedAt, &deactivatedAt, &logoKey, &logoURL,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rules), &event.Rules); err != nil {
		return nil, fmt.Errorf("%w: event %s rules: %v", ErrStorageCorrupt, event.Name, err)
	}
	if err := json.Unmarshal([]byte(prizes), &event.Prizes); err != nil {
		return nil, fmt.Errorf("%w: event %s prizes: %v", ErrStorageCorrupt, event.Name, err)
	}
	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if event.EndedAt, err = parseNullTime(endedAt); err != nil {
		return nil, err
	}
	if event.DeactivatedAt, err = parseNullTime(deactivatedAt); err != nil {
		return nil, err
	}
	if logoKey.Valid {
		event.LogoKey = &logoKey.String
	}
	if logoURL.Valid {
		event.LogoURL = &logoURL.String
	}
	return &event, nil
}

func (s *sqlStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (s *sqlStore) GetEvent(ctx context.Context, name string) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+eventColumns+` FROM events WHERE name = ?`), name)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %s: %w", name, err)
	}
	return event, nil
}

func (s *sqlStore) SaveEvent(ctx context.Context, event *models.Event) error {
	if !ValidEventName(event.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidEventKey, event.Name)
	}
	rules, err := json.Marshal(nonNilStrings(event.Rules))
	if err != nil {
		return err
	}
	prizes, err := json.Marshal(nonNilPrizes(event.Prizes))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			deadline = excluded.deadline,
			rules = excluded.rules,
			prizes = excluded.prizes,
			state = excluded.state,
			ended_at = excluded.ended_at,
			deactivated_at = excluded.deactivated_at,
			logo_key = excluded.logo_key,
			logo_url = excluded.logo_url`

	_, err = s.db.ExecContext(ctx, s.q(query),
		event.Name, event.Title, event.Description, event.Deadline,
		string(rules), string(prizes), string(event.State), formatTime(event.CreatedAt),
		formatNullTime(event.EndedAt), formatNullTime(event.DeactivatedAt),
		nullString(event.LogoKey), nullString(event.LogoURL),
	)
	if err != nil {
		return fmt.Errorf("failed to save event %s: %w", event.Name, err)
	}
	return nil
}

func (s *sqlStore) ensureEvent(ctx context.Context, q SQLExecutor, event string) error {
	var one int
	err := q.QueryRowContext(ctx, s.q(`SELECT 1 FROM events WHERE name = ?`), event).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check event %s: %w", event, err)
	}
	return nil
}

// replaceCollection deletes every row of table for event and inserts rows in
// their slice order, in one transaction.
func (s *sqlStore) replaceCollection(ctx context.Context, table, event string, columns []string, rows [][]interface{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ensureEvent(ctx, tx, event); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE event_name = ?`), event); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+2), ", ")
	insert := s.q(`INSERT INTO ` + table + ` (event_name, position, ` + strings.Join(columns, ", ") + `) VALUES (` + placeholders + `)`)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		args := append([]interface{}{event, i}, row...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w in %s: %v", ErrDuplicateRecord, table, err)
			}
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

func (s *sqlStore) LoadSubmissions(ctx context.Context, event string) ([]models.Submission, error) {
	if err := s.ensureEvent(ctx, s.db, event); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT id, email, team_name, project_name, github_repo, demo_video, live_demo_url, live_demo_credentials, submitted_at
		FROM submissions WHERE event_name = ? ORDER BY position`), event)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}
	defer rows.Close()

	submissions := []models.Submission{}
	for rows.Next() {
		var sub models.Submission
		var submittedAt string
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.TeamName, &sub.ProjectName, &sub.GithubRepo,
			&sub.DemoVideo, &sub.LiveDemoURL, &sub.LiveDemoCredentials, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		if sub.SubmittedAt, err = parseTime(submittedAt); err != nil {
			return nil, err
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

func (s *sqlStore) SaveSubmissions(ctx context.Context, event string, submissions []models.Submission) error {
	rows := make([][]interface{}, 0, len(submissions))
	for _, sub := range submissions {
		rows = append(rows, []interface{}{
			sub.ID, sub.Email, sub.TeamName, sub.ProjectName, sub.GithubRepo,
			sub.DemoVideo, sub.LiveDemoURL, sub.LiveDemoCredentials, formatTime(sub.SubmittedAt),
		})
	}
	return s.replaceCollection(ctx, "submissions", event, []string{
		"id", "email", "team_name", "project_name", "github_repo",
		"demo_video", "live_demo_url", "live_demo_credentials", "submitted_at",
	}, rows)
}

func (s *sqlStore) LoadParticipants(ctx context.Context, event string) ([]models.Participant, error) {
	if err := s.ensureEvent(ctx, s.db, event); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT email, team_name FROM participants WHERE event_name = ? ORDER BY position`), event)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.Email, &p.TeamName); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (s *sqlStore) SaveParticipants(ctx context.Context, event string, participants []models.Participant) error {
	rows := make([][]interface{}, 0, len(participants))
	for _, p := range participants {
		rows = append(rows, []interface{}{p.Email, p.TeamName})
	}
	return s.replaceCollection(ctx, "participants", event, []string{"email", "team_name"}, rows)
}

func (s *sqlStore) LoadTeams(ctx context.Context, event string) ([]models.Team, error) {
	if err := s.ensureEvent(ctx, s.db, event); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT name FROM teams WHERE event_name = ? ORDER BY position`), event)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *sqlStore) SaveTeams(ctx context.Context, event string, teams []models.Team) error {
	rows := make([][]interface{}, 0, len(teams))
	for _, t := range teams {
		rows = append(rows, []interface{}{t.Name})
	}
	return s.replaceCollection(ctx, "teams", event, []string{"name"}, rows)
}

func (s *sqlStore) LoadWinners(ctx context.Context, event string) ([]models.Winner, error) {
	if err := s.ensureEvent(ctx, s.db, event); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT team_name, project_name, points FROM winners WHERE event_name = ? ORDER BY position`), event)
	if err != nil {
		return nil, fmt.Errorf("failed to load winners: %w", err)
	}
	defer rows.Close()

	winners := []models.Winner{}
	for rows.Next() {
		var w models.Winner
		if err := rows.Scan(&w.TeamName, &w.ProjectName, &w.Points); err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

func (s *sqlStore) SaveWinners(ctx context.Context, event string, winners []models.Winner) error {
	rows := make([][]interface{}, 0, len(winners))
	for _, w := range winners {
		rows = append(rows, []interface{}{w.TeamName, w.ProjectName, w.Points})
	}
	return s.replaceCollection(ctx, "winners", event, []string{"team_name", "project_name", "points"}, rows)
}

func (s *sqlStore) LoadAdmin(ctx context.Context) (*models.AdminCredential, error) {
	var admin models.AdminCredential
	err := s.db.QueryRowContext(ctx, `SELECT email, password_hash FROM admin_credential WHERE id = 1`).
		Scan(&admin.Email, &admin.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin credential: %w", err)
	}
	return &admin, nil
}

func (s *sqlStore) SaveAdmin(ctx context.Context, admin *models.AdminCredential) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO admin_credential (id, email, password_hash) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email, password_hash = excluded.password_hash`),
		admin.Email, admin.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to save admin credential: %w", err)
	}
	return nil
}

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatNullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrStorageCorrupt, s)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilPrizes(p []models.Prize) []models.Prize {
	if p == nil {
		return []models.Prize{}
	}
	return p
}
