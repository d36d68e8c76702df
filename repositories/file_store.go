package repositories

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Dosada05/hackathon-portal/models"
)

const (
	eventsDirName   = "hackathons"
	eventFileName   = "event.json"
	adminFileName   = "admin.json"
	submissionsFile = "submissions.json"
	winnersFile     = "winners.json"
	participantsCSV = "participants.csv"
	teamsCSV        = "teams.csv"
)

var eventNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidEventName reports whether name can be used as an event identity. It
// is also a directory name in the files backend, so nothing that could
// escape DATA_DIR passes.
func ValidEventName(name string) bool {
	return eventNameRe.MatchString(name)
}

// fileStore keeps one directory per event under <root>/hackathons. JSON for
// submissions, winners and event metadata; CSV with a header row for
// participants and teams.
type fileStore struct {
	root string
}

func NewFileStore(root string) (Store, error) {
	if err := os.MkdirAll(filepath.Join(root, eventsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", root, err)
	}
	return &fileStore{root: root}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) eventDir(name string) (string, error) {
	if !ValidEventName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventKey, name)
	}
	return filepath.Join(s.root, eventsDirName, name), nil
}

// collectionPath returns the path of a collection file, failing with
// ErrEventNotFound when the event directory does not exist.
func (s *fileStore) collectionPath(event, file string) (string, error) {
	dir, err := s.eventDir(event)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrEventNotFound
		}
		return "", fmt.Errorf("failed to stat event directory: %w", err)
	}
	return filepath.Join(dir, file), nil
}

func (s *fileStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, eventsDirName))
	if err != nil {
		return nil, fmt.Errorf("failed to read events directory: %w", err)
	}

	events := make([]models.Event, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !ValidEventName(entry.Name()) {
			continue
		}
		var event models.Event
		found, err := readJSONFile(filepath.Join(s.root, eventsDirName, entry.Name(), eventFileName), &event)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}

func (s *fileStore) GetEvent(ctx context.Context, name string) (*models.Event, error) {
	dir, err := s.eventDir(name)
	if err != nil {
		return nil, err
	}
	var event models.Event
	found, err := readJSONFile(filepath.Join(dir, eventFileName), &event)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrEventNotFound
	}
	return &event, nil
}

func (s *fileStore) SaveEvent(ctx context.Context, event *models.Event) error {
	dir, err := s.eventDir(event.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create event directory: %w", err)
	}

	eventPath := filepath.Join(dir, eventFileName)
	if _, err := os.Stat(eventPath); errors.Is(err, fs.ErrNotExist) {
		if err := s.initCollections(event.Name); err != nil {
			return err
		}
	}

	return writeJSONFile(eventPath, event)
}

func (s *fileStore) initCollections(event string) error {
	if err := s.SaveSubmissions(context.Background(), event, nil); err != nil {
		return err
	}
	if err := s.SaveParticipants(context.Background(), event, nil); err != nil {
		return err
	}
	if err := s.SaveTeams(context.Background(), event, nil); err != nil {
		return err
	}
	return s.SaveWinners(context.Background(), event, nil)
}

func (s *fileStore) LoadSubmissions(ctx context.Context, event string) ([]models.Submission, error) {
	path, err := s.collectionPath(event, submissionsFile)
	if err != nil {
		return nil, err
	}
	submissions := []models.Submission{}
	if _, err := readJSONFile(path, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (s *fileStore) SaveSubmissions(ctx context.Context, event string, submissions []models.Submission) error {
	path, err := s.collectionPath(event, submissionsFile)
	if err != nil {
		return err
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}
	return writeJSONFile(path, submissions)
}

func (s *fileStore) LoadWinners(ctx context.Context, event string) ([]models.Winner, error) {
	path, err := s.collectionPath(event, winnersFile)
	if err != nil {
		return nil, err
	}
	winners := []models.Winner{}
	if _, err := readJSONFile(path, &winners); err != nil {
		return nil, err
	}
	return winners, nil
}

func (s *fileStore) SaveWinners(ctx context.Context, event string, winners []models.Winner) error {
	path, err := s.collectionPath(event, winnersFile)
	if err != nil {
		return err
	}
	if winners == nil {
		winners = []models.Winner{}
	}
	return writeJSONFile(path, winners)
}

func (s *fileStore) LoadParticipants(ctx context.Context, event string) ([]models.Participant, error) {
	path, err := s.collectionPath(event, participantsCSV)
	if err != nil {
		return nil, err
	}
	rows, err := readCSVFile(path, []string{"email"})
	if err != nil {
		return nil, err
	}
	participants := make([]models.Participant, 0, len(rows))
	for _, row := range rows {
		participants = append(participants, models.Participant{
			Email:    row["email"],
			TeamName: row["team_name"],
		})
	}
	return participants, nil
}

func (s *fileStore) SaveParticipants(ctx context.Context, event string, participants []models.Participant) error {
	path, err := s.collectionPath(event, participantsCSV)
	if err != nil {
		return err
	}
	records := make([][]string, 0, len(participants))
	for _, p := range participants {
		records = append(records, []string{p.Email, p.TeamName})
	}
	return writeCSVFile(path, []string{"email", "team_name"}, records)
}

func (s *fileStore) LoadTeams(ctx context.Context, event string) ([]models.Team, error) {
	path, err := s.collectionPath(event, teamsCSV)
	if err != nil {
		return nil, err
	}
	rows, err := readCSVFile(path, []string{"name"})
	if err != nil {
		return nil, err
	}
	teams := make([]models.Team, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, models.Team{Name: row["name"]})
	}
	return teams, nil
}

func (s *fileStore) SaveTeams(ctx context.Context, event string, teams []models.Team) error {
	path, err := s.collectionPath(event, teamsCSV)
	if err != nil {
		return err
	}
	records := make([][]string, 0, len(teams))
	for _, t := range teams {
		records = append(records, []string{t.Name})
	}
	return writeCSVFile(path, []string{"name"}, records)
}

func (s *fileStore) LoadAdmin(ctx context.Context) (*models.AdminCredential, error) {
	var admin models.AdminCredential
	found, err := readJSONFile(filepath.Join(s.root, adminFileName), &admin)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrAdminNotFound
	}
	return &admin, nil
}

func (s *fileStore) SaveAdmin(ctx context.Context, admin *models.AdminCredential) error {
	return writeJSONFile(filepath.Join(s.root, adminFileName), admin)
}

// readJSONFile decodes path into dst. A missing file is reported as
// found=false with no error.
func readJSONFile(path string, dst interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return true, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrStorageCorrupt, filepath.Base(path), err)
	}
	return true, nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// readCSVFile returns the data rows of a CSV file keyed by header name.
// Columns listed in required must be present in the header.
func readCSVFile(path string, required []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrStorageCorrupt, filepath.Base(path), err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s: missing column %q", ErrStorageCorrupt, filepath.Base(path), col)
		}
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStorageCorrupt, filepath.Base(path), err)
		}
		row := make(map[string]string, len(index))
		for name, i := range index {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeCSVFile(path string, header []string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over path, so readers never observe a partially written collection.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
