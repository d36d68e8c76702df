package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/services"
)

func TestDecodeForm(t *testing.T) {
	var input struct {
		Name       string          `json:"name"`
		Points     int             `json:"points"`
		EndCurrent bool            `json:"end_current"`
		Rules      []string        `json:"rules"`
		Tags       []string        `json:"tags"`
		Title      *string         `json:"title"`
		Deadline   *string         `json:"deadline"`
		Prizes     []models.Prize  `json:"prizes"`
		Skipped    string          `json:"-"`
		Optional   *[]models.Prize `json:"optional"`
	}
	values := url.Values{
		"name":        {"spring"},
		"points":      {"42"},
		"end_current": {"on"},
		"rules":       {"First\n\n  Second  \n"},
		"tags":        {"a", "b"},
		"title":       {""},
		"prizes":      {`[{"place":"1st","amount":"$100"}]`},
		"-":           {"ignored"},
	}

	if err := decodeForm(values, &input); err != nil {
		t.Fatal(err)
	}
	if input.Name != "spring" || input.Points != 42 || !input.EndCurrent {
		t.Errorf("unexpected scalars: %+v", input)
	}
	if len(input.Rules) != 2 || input.Rules[0] != "First" || input.Rules[1] != "Second" {
		t.Errorf("unexpected rules %q", input.Rules)
	}
	if len(input.Tags) != 2 {
		t.Errorf("unexpected tags %q", input.Tags)
	}
	if input.Title == nil || *input.Title != "" {
		t.Error("present empty field must set the pointer")
	}
	if input.Deadline != nil || input.Optional != nil {
		t.Error("absent fields must leave pointers nil")
	}
	if len(input.Prizes) != 1 || input.Prizes[0].Amount != "$100" {
		t.Errorf("unexpected prizes %+v", input.Prizes)
	}
	if input.Skipped != "" {
		t.Error("fields tagged json:\"-\" must be ignored")
	}
}

func TestDecodeForm_JSONList(t *testing.T) {
	var input struct {
		Rules []string `json:"rules"`
	}
	if err := decodeForm(url.Values{"rules": {`["One", " Two "]`}}, &input); err != nil {
		t.Fatal(err)
	}
	if len(input.Rules) != 2 || input.Rules[0] != "One" {
		t.Errorf("unexpected rules %q", input.Rules)
	}
}

func TestDecodeForm_Errors(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{"bad int", url.Values{"points": {"ten"}}},
		{"bad bool", url.Values{"flag": {"maybe"}}},
		{"bad json", url.Values{"prizes": {"[{"}}},
		{"bad rules json", url.Values{"rules": {"[1, 2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var input struct {
				Points int            `json:"points"`
				Flag   bool           `json:"flag"`
				Prizes []models.Prize `json:"prizes"`
				Rules  []string       `json:"rules"`
			}
			if err := decodeForm(tt.values, &input); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestReadInput(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		var p payload
		if err := readInput(httptest.NewRecorder(), req, &p); err != nil {
			t.Fatal(err)
		}
		if p.Email != "a@example.com" {
			t.Errorf("unexpected email %q", p.Email)
		}
	})

	t.Run("form", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("email=b%40example.com"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		var p payload
		if err := readInput(httptest.NewRecorder(), req, &p); err != nil {
			t.Fatal(err)
		}
		if p.Email != "b@example.com" {
			t.Errorf("unexpected email %q", p.Email)
		}
	})

	t.Run("unknown json key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","admin":true}`))
		req.Header.Set("Content-Type", "application/json")
		var p payload
		err := readInput(httptest.NewRecorder(), req, &p)
		if err == nil || !strings.Contains(err.Error(), "unknown key") {
			t.Errorf("expected unknown key error, got %v", err)
		}
	})

	t.Run("two json values", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a"}{"email":"b"}`))
		req.Header.Set("Content-Type", "application/json")
		var p payload
		if err := readInput(httptest.NewRecorder(), req, &p); err == nil {
			t.Error("expected error for trailing JSON value")
		}
	})
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{services.ErrNoActiveEvent, http.StatusNotFound, "No active hackathon"},
		{fmt.Errorf("%w: spring", services.ErrEventConflict), http.StatusConflict, "Another hackathon is already active: spring"},
		{services.ErrEventReadOnly, http.StatusConflict, "Hackathon has ended and is read-only"},
		{&services.MissingFieldsError{Fields: []string{"github_repo", "demo_video"}}, http.StatusBadRequest, "Please fill in all required fields: github_repo, demo_video"},
		{services.ErrDeadlinePassed, http.StatusBadRequest, "Submission deadline has passed"},
		{services.ErrRepositoryAlreadySubmitted, http.StatusBadRequest, "This repository has already been submitted"},
		{services.ErrAdminNotConfigured, http.StatusUnauthorized, "Invalid credentials"},
		{fmt.Errorf("failed to save submission: %w", fmt.Errorf("%w in submissions: UNIQUE constraint failed", services.ErrDuplicateRecord)), http.StatusConflict, "This record already exists"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "An error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			var body map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["success"] != false {
				t.Errorf("expected success=false, got %v", body["success"])
			}
			if body["message"] != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, body["message"])
			}
		})
	}
}
