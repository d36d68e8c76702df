package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/hackathon-portal/handlers"
	"github.com/Dosada05/hackathon-portal/logging"
	"github.com/Dosada05/hackathon-portal/metrics"
	"github.com/Dosada05/hackathon-portal/middleware"
	"github.com/Dosada05/hackathon-portal/repositories"
	"github.com/Dosada05/hackathon-portal/services"
	"github.com/Dosada05/hackathon-portal/storage"
	"github.com/Dosada05/hackathon-portal/utils"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct-horse"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, interface{}) {}

type testApp struct {
	t      *testing.T
	router *chi.Mux
	cookie *http.Cookie
	logs   *logging.Files
}

func newTestApp(t *testing.T, rateLimit int) *testApp {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := repositories.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	uploadDir := t.TempDir()
	uploader, err := storage.NewLocalUploader(uploadDir, "/uploads")
	if err != nil {
		t.Fatal(err)
	}
	logs, err := logging.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { logs.Close() })

	locks := services.NewCollectionLocks()
	events := services.NewEventService(store, uploader, locks, nopNotifier{}, logger)
	validator, err := services.NewSubmissionValidator([]string{"email", "github_repo", "demo_video"}, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	submissions := services.NewSubmissionService(store, events, validator, locks, nopNotifier{}, nil, logger)
	participants := services.NewParticipantService(store, events, locks, logger)
	teams := services.NewTeamService(store, events, locks, logger)
	winners := services.NewWinnerService(store, events, locks, nopNotifier{})
	auth := services.NewAuthService(store, "test-secret", time.Hour, logger)
	dashboard := services.NewDashboardService(store, events)

	if err := auth.Bootstrap(ctx, adminEmail, adminPassword, ""); err != nil {
		t.Fatal(err)
	}

	m := metrics.New(prometheus.NewRegistry())
	router := chi.NewRouter()
	SetupRoutes(router, Options{
		Logger:          logger,
		Metrics:         m,
		TokenParser:     auth,
		AllowedOrigins:  []string{"*"},
		RateLimitPerMin: rateLimit,
		UploadDir:       uploadDir,
	}, Handlers{
		Page:        handlers.NewPageHandler(events, winners),
		Hackathon:   handlers.NewHackathonHandler(events),
		Submission:  handlers.NewSubmissionHandler(submissions, m),
		Participant: handlers.NewParticipantHandler(participants),
		Team:        handlers.NewTeamHandler(teams),
		Winner:      handlers.NewWinnerHandler(winners),
		Admin:       handlers.NewAdminHandler(auth, dashboard, events, m, false),
		Log:         handlers.NewLogHandler(logs),
		WebSocket:   handlers.NewWebSocketHandler(nil, events, []string{"*"}),
	})
	return &testApp{t: t, router: router, logs: logs}
}

type envelope map[string]interface{}

func (a *testApp) do(req *http.Request) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var body envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			a.t.Fatalf("%s %s: invalid JSON %q: %v", req.Method, req.URL, rec.Body.String(), err)
		}
	}
	return rec, body
}

func (a *testApp) postJSON(path string, v interface{}) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		a.t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func (a *testApp) postForm(path string, values url.Values) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *testApp) get(path string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *testApp) login() {
	a.t.Helper()
	rec, body := a.postJSON("/admin/login", map[string]string{"email": adminEmail, "password": adminPassword})
	if rec.Code != http.StatusOK {
		a.t.Fatalf("login: expected 200, got %d: %v", rec.Code, body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			a.cookie = c
			return
		}
	}
	a.t.Fatal("login did not set a session cookie")
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, body envelope, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %v", want, rec.Code, body)
	}
}

func TestPublicEndpointsWithoutActiveHackathon(t *testing.T) {
	app := newTestApp(t, 0)

	rec, body := app.get("/hackathon-details")
	expectStatus(t, rec, body, http.StatusNotFound)
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}

	rec, body = app.get("/get_deadline")
	expectStatus(t, rec, body, http.StatusOK)
	if body["deadline"] != "" {
		t.Errorf("expected empty deadline, got %v", body["deadline"])
	}

	rec, body = app.get("/winners")
	expectStatus(t, rec, body, http.StatusOK)
	if list, ok := body["winners"].([]interface{}); !ok || len(list) != 0 {
		t.Errorf("expected empty winners list, got %v", body["winners"])
	}

	rec, _ = app.get("/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No active hackathon") {
		t.Errorf("unexpected landing page: %d %s", rec.Code, rec.Body.String())
	}

	rec, body = app.get("/health")
	expectStatus(t, rec, body, http.StatusOK)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	app := newTestApp(t, 0)

	paths := []string{"/admin/dashboard", "/admin/emails", "/admin/teams", "/admin/winners", "/admin/hackathons", "/admin/logs"}
	for _, p := range paths {
		rec, body := app.get(p)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", p, rec.Code)
		}
		if body["message"] != "Unauthorized" {
			t.Errorf("%s: unexpected message %v", p, body["message"])
		}
	}

	rec, body := app.postJSON("/admin/login", map[string]string{"email": adminEmail, "password": "wrong-password"})
	expectStatus(t, rec, body, http.StatusUnauthorized)
	if body["message"] != "Invalid credentials" {
		t.Errorf("unexpected message %v", body["message"])
	}
}

func TestAdminMutationsRequireSession(t *testing.T) {
	app := newTestApp(t, 0)
	app.login()
	rec, body := app.postJSON("/admin/hackathons", map[string]interface{}{"name": "spring", "title": "Spring Hack"})
	expectStatus(t, rec, body, http.StatusCreated)
	rec, body = app.postJSON("/admin/emails/add", map[string]string{"email": "alice@example.com", "team_name": "Alpha"})
	expectStatus(t, rec, body, http.StatusCreated)

	count := func(path, key string) int {
		t.Helper()
		rec, body := app.get(path)
		expectStatus(t, rec, body, http.StatusOK)
		list, _ := body[key].([]interface{})
		return len(list)
	}
	participants := count("/admin/emails", "participants")
	teams := count("/admin/teams", "teams")

	session := app.cookie
	app.cookie = nil

	requests := []struct {
		path string
		body map[string]interface{}
	}{
		{"/admin/emails/add", map[string]interface{}{"email": "mallory@example.com"}},
		{"/admin/emails/delete", map[string]interface{}{"email": "alice@example.com"}},
		{"/admin/teams/add", map[string]interface{}{"name": "Intruders"}},
		{"/admin/teams/update", map[string]interface{}{"old_name": "Alpha", "new_name": "Owned"}},
		{"/admin/winners/add", map[string]interface{}{"team_name": "Alpha", "points": 100}},
		{"/admin/update", map[string]interface{}{"title": "Defaced"}},
		{"/admin/password", map[string]interface{}{"current_password": adminPassword, "new_password": "hijacked-password"}},
		{"/admin/hackathons", map[string]interface{}{"name": "autumn", "end_current": true}},
		{"/admin/hackathons/spring/end", nil},
		{"/admin/hackathons/spring/deactivate", nil},
	}
	for _, tt := range requests {
		rec, body := app.postJSON(tt.path, tt.body)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d: %v", tt.path, rec.Code, body)
		}
	}

	app.cookie = session
	if got := count("/admin/emails", "participants"); got != participants {
		t.Errorf("expected %d participants, got %d", participants, got)
	}
	if got := count("/admin/teams", "teams"); got != teams {
		t.Errorf("expected %d teams, got %d", teams, got)
	}
	if got := count("/admin/winners", "winners"); got != 0 {
		t.Errorf("expected no winners, got %d", got)
	}
	if got := count("/admin/hackathons", "hackathons"); got != 1 {
		t.Errorf("expected a single hackathon, got %d", got)
	}
	rec, body = app.get("/hackathon-details")
	expectStatus(t, rec, body, http.StatusOK)
	hackathon, _ := body["hackathon"].(map[string]interface{})
	if hackathon["title"] != "Spring Hack" || hackathon["state"] != "active" {
		t.Errorf("expected hackathon unchanged, got %v", hackathon)
	}

	// Пароль не изменился.
	app.cookie = nil
	app.login()
}

func TestUpdateEventRejectsBadLogoBeforeSaving(t *testing.T) {
	app := newTestApp(t, 0)
	app.login()
	rec, body := app.postJSON("/admin/hackathons", map[string]interface{}{"name": "spring", "title": "Spring Hack"})
	expectStatus(t, rec, body, http.StatusCreated)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("title", "Renamed"); err != nil {
		t.Fatal(err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="logo"; filename="logo.txt"`)
	h.Set("Content-Type", "text/plain")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("not an image"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/update", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec, body = app.do(req)
	expectStatus(t, rec, body, http.StatusBadRequest)

	rec, body = app.get("/hackathon-details")
	expectStatus(t, rec, body, http.StatusOK)
	hackathon, _ := body["hackathon"].(map[string]interface{})
	if hackathon["title"] != "Spring Hack" {
		t.Errorf("expected title unchanged after rejected logo, got %v", hackathon["title"])
	}
	if _, ok := hackathon["logo_url"]; ok {
		t.Errorf("expected no logo, got %v", hackathon["logo_url"])
	}
}

func TestSubmissionFlow(t *testing.T) {
	app := newTestApp(t, 0)
	app.login()

	rec, body := app.postJSON("/admin/hackathons", map[string]interface{}{
		"name":     "spring",
		"title":    "Spring Hack",
		"deadline": "2099-01-01 00:00:00",
		"rules":    []string{"Be nice"},
	})
	expectStatus(t, rec, body, http.StatusCreated)

	rec, body = app.postJSON("/admin/emails/add", map[string]string{"email": "alice@example.com", "team_name": "Alpha"})
	expectStatus(t, rec, body, http.StatusCreated)

	rec, body = app.postForm("/verify_email", url.Values{"email": {"alice@example.com"}})
	expectStatus(t, rec, body, http.StatusOK)
	if body["registered"] != true || body["already_submitted"] != false || body["team_name"] != "Alpha" {
		t.Errorf("unexpected verify response %v", body)
	}

	submission := url.Values{
		"email":                 {"alice@example.com"},
		"github_repo":           {"https://github.com/alice/project"},
		"demo_video":            {"https://youtu.be/demo"},
		"live_demo_credentials": {"user / pass"},
	}
	rec, body = app.postForm("/submit", submission)
	expectStatus(t, rec, body, http.StatusOK)
	if body["message"] != "Submission successful!" {
		t.Errorf("unexpected message %v", body["message"])
	}

	rec, body = app.postForm("/submit", submission)
	expectStatus(t, rec, body, http.StatusBadRequest)
	if body["message"] != "Email already used for submission" {
		t.Errorf("unexpected duplicate message %v", body["message"])
	}

	rec, body = app.postForm("/submit", url.Values{"email": {"bob@example.com"}})
	expectStatus(t, rec, body, http.StatusBadRequest)
	if msg, _ := body["message"].(string); !strings.HasPrefix(msg, "Please fill in all required fields") {
		t.Errorf("unexpected missing fields message %v", body["message"])
	}

	rec, body = app.get("/submissions")
	expectStatus(t, rec, body, http.StatusOK)
	list, _ := body["submissions"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("expected 1 public submission, got %v", body["submissions"])
	}
	if _, ok := list[0].(map[string]interface{})["live_demo_credentials"]; ok {
		t.Error("public submission list must not expose demo credentials")
	}

	rec, body = app.get("/admin/submissions")
	expectStatus(t, rec, body, http.StatusOK)
	list, _ = body["submissions"].([]interface{})
	if len(list) != 1 || list[0].(map[string]interface{})["live_demo_credentials"] != "user / pass" {
		t.Errorf("admin list should carry demo credentials, got %v", body["submissions"])
	}

	rec, body = app.get("/admin/dashboard")
	expectStatus(t, rec, body, http.StatusOK)
	stats, _ := body["stats"].(map[string]interface{})
	if stats["submissions_total"] != float64(1) {
		t.Errorf("unexpected dashboard stats %v", stats)
	}
}

func TestHackathonLifecycle(t *testing.T) {
	app := newTestApp(t, 0)
	app.login()

	rec, body := app.postJSON("/admin/hackathons", map[string]string{"name": "a"})
	expectStatus(t, rec, body, http.StatusCreated)
	rec, body = app.postJSON("/admin/hackathons", map[string]string{"name": "b"})
	expectStatus(t, rec, body, http.StatusConflict)

	rec, body = app.postJSON("/admin/hackathons/a/deactivate", nil)
	expectStatus(t, rec, body, http.StatusOK)
	rec, body = app.postJSON("/admin/hackathons", map[string]string{"name": "b"})
	expectStatus(t, rec, body, http.StatusCreated)
	rec, body = app.postJSON("/admin/hackathons/a/activate", nil)
	expectStatus(t, rec, body, http.StatusConflict)

	rec, body = app.postJSON("/admin/hackathons/b/end", nil)
	expectStatus(t, rec, body, http.StatusOK)
	rec, body = app.postJSON("/admin/emails/add?event=b", map[string]string{"email": "late@example.com"})
	expectStatus(t, rec, body, http.StatusConflict)

	rec, body = app.postJSON("/admin/hackathons/a/activate", nil)
	expectStatus(t, rec, body, http.StatusOK)

	rec, body = app.get("/admin/hackathons")
	expectStatus(t, rec, body, http.StatusOK)
	if list, _ := body["hackathons"].([]interface{}); len(list) != 2 {
		t.Errorf("expected 2 hackathons, got %v", body["hackathons"])
	}

	rec, body = app.get("/admin/hackathons/missing")
	expectStatus(t, rec, body, http.StatusNotFound)
}

func TestTeamsAndWinners(t *testing.T) {
	app := newTestApp(t, 0)
	app.login()
	app.postJSON("/admin/hackathons", map[string]string{"name": "h"})

	rec, body := app.postForm("/admin/teams/add", url.Values{"name": {"Alpha"}})
	expectStatus(t, rec, body, http.StatusCreated)
	rec, body = app.postForm("/admin/teams/add", url.Values{"name": {"alpha"}})
	expectStatus(t, rec, body, http.StatusConflict)
	rec, body = app.postForm("/admin/teams/update", url.Values{"old_name": {"Alpha"}, "new_name": {"Omega"}})
	expectStatus(t, rec, body, http.StatusOK)

	app.postJSON("/admin/winners/add", map[string]interface{}{"team_name": "Omega", "project_name": "X", "points": 10})
	app.postJSON("/admin/winners/add", map[string]interface{}{"team_name": "Beta", "project_name": "Y", "points": 30})

	rec, body = app.get("/winners")
	expectStatus(t, rec, body, http.StatusOK)
	list, _ := body["winners"].([]interface{})
	if len(list) != 2 || list[0].(map[string]interface{})["team_name"] != "Beta" {
		t.Fatalf("expected Beta first, got %v", body["winners"])
	}

	rec, body = app.postJSON("/admin/winners/update", map[string]interface{}{
		"original_team_name": "Omega", "team_name": "Omega", "project_name": "X2", "points": 50,
	})
	expectStatus(t, rec, body, http.StatusOK)
	_, body = app.get("/winners")
	list, _ = body["winners"].([]interface{})
	if list[0].(map[string]interface{})["team_name"] != "Omega" {
		t.Errorf("expected Omega first after update, got %v", list)
	}

	rec, body = app.postJSON("/admin/winners/delete", map[string]string{"team_name": "Nobody"})
	expectStatus(t, rec, body, http.StatusNotFound)
}

func TestParticipantImport(t *testing.T) {
	app := newTestApp(t, 0)
	app.login()
	app.postJSON("/admin/hackathons", map[string]string{"name": "h"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "participants.csv")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, "email,team_name\nx@example.com,Red\ny@example.com,\nnot-an-email,Red\n")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/emails/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec, body := app.do(req)
	expectStatus(t, rec, body, http.StatusOK)
	result, _ := body["result"].(map[string]interface{})
	if result["added"] != float64(2) {
		t.Errorf("expected 2 added, got %v", result)
	}

	rec, body = app.get("/admin/teams")
	expectStatus(t, rec, body, http.StatusOK)
	if teams, _ := body["teams"].([]interface{}); len(teams) != 1 {
		t.Errorf("expected the Red team to be created, got %v", body["teams"])
	}
}

func TestClientErrorLog(t *testing.T) {
	app := newTestApp(t, 0)

	rec, body := app.postJSON("/log_error", map[string]interface{}{"message": "TypeError: x is undefined", "line": 12})
	expectStatus(t, rec, body, http.StatusOK)
	rec, body = app.postJSON("/log_error", map[string]interface{}{"message": "  "})
	expectStatus(t, rec, body, http.StatusBadRequest)

	app.login()
	rec, body = app.get("/admin/logs?type=client&lines=10")
	expectStatus(t, rec, body, http.StatusOK)
	lines, _ := body["lines"].([]interface{})
	if len(lines) != 1 || !strings.Contains(lines[0].(string), "x is undefined") {
		t.Errorf("unexpected client log lines %v", lines)
	}

	rec, body = app.get("/admin/logs?type=kernel")
	expectStatus(t, rec, body, http.StatusBadRequest)

	rec, body = app.get("/admin/logs?type=client&lines=2000000000")
	expectStatus(t, rec, body, http.StatusBadRequest)
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, 2)

	for i := 0; i < 2; i++ {
		rec, _ := app.postJSON("/admin/login", map[string]string{"email": adminEmail, "password": "nope-nope"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, rec.Code)
		}
	}
	rec, body := app.postJSON("/admin/login", map[string]string{"email": adminEmail, "password": adminPassword})
	expectStatus(t, rec, body, http.StatusTooManyRequests)
	if body["success"] != false {
		t.Errorf("expected envelope on 429, got %v", body)
	}

	// Публичные GET не ограничены.
	for i := 0; i < 5; i++ {
		if rec, _ := app.get("/get_deadline"); rec.Code != http.StatusOK {
			t.Fatalf("get_deadline: expected 200, got %d", rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, 0)
	app.get("/health")

	rec, _ := app.get("/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hackathon_http_request_duration_seconds") {
		t.Error("expected request duration histogram in /metrics output")
	}
}

func TestWebSocketUnknownHackathon(t *testing.T) {
	app := newTestApp(t, 0)

	rec, body := app.get("/ws/hackathons/nope")
	expectStatus(t, rec, body, http.StatusNotFound)
}
