package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-playground/form/v4"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/services"
)

type jsonResponse map[string]interface{}

const (
	maxJSONBytes   = 1_048_576 // 1MB
	maxUploadBytes = 10 << 20
)

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxJSONBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxJSONBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func isJSONRequest(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}

// readInput decodes a JSON body, or a urlencoded/multipart form, into dst.
// The browser frontend posts FormData; API clients post JSON.
func readInput(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if isJSONRequest(r) {
		return readJSON(w, r, dst)
	}
	if err := parseForm(w, r); err != nil {
		return err
	}
	return decodeForm(r.Form, dst)
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	if r.Form != nil {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	var err error
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		err = r.ParseMultipartForm(maxUploadBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("invalid form data: %w", err)
	}
	return nil
}

// formDecoder maps form keys onto the same json tags the JSON API uses, so
// one input struct serves both the browser and API clients.
var formDecoder = newFormDecoder()

func newFormDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("json")
	d.RegisterCustomTypeFunc(decodeStringList, []string{})
	d.RegisterCustomTypeFunc(decodePrizes, []models.Prize{})
	return d
}

// decodeForm fills dst from values. Pointer fields are set only when the key
// is present.
func decodeForm(values url.Values, dst interface{}) error {
	err := formDecoder.Decode(dst, values)
	if err == nil {
		return nil
	}
	var errs form.DecodeErrors
	if errors.As(err, &errs) {
		for field, fieldErr := range errs {
			return fmt.Errorf("invalid value for %s: %w", field, fieldErr)
		}
	}
	return fmt.Errorf("invalid form data: %w", err)
}

// decodeStringList принимает textarea с построчным списком, JSON-массив или
// несколько одноимённых полей.
func decodeStringList(vals []string) (interface{}, error) {
	if len(vals) == 0 {
		return []string{}, nil
	}
	lines := vals
	if len(vals) == 1 {
		value := strings.TrimSpace(vals[0])
		if strings.HasPrefix(value, "[") {
			var out []string
			if err := json.Unmarshal([]byte(value), &out); err != nil {
				return nil, err
			}
			return out, nil
		}
		lines = strings.Split(vals[0], "\n")
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out, nil
}

func decodePrizes(vals []string) (interface{}, error) {
	if len(vals) == 0 {
		return []models.Prize(nil), nil
	}
	value := strings.TrimSpace(vals[0])
	if value == "" {
		return []models.Prize(nil), nil
	}
	var prizes []models.Prize
	if err := json.Unmarshal([]byte(value), &prizes); err != nil {
		return nil, err
	}
	return prizes, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// successResponse writes {"success": true, "message": message, ...data}.
func successResponse(w http.ResponseWriter, r *http.Request, status int, message string, data jsonResponse) {
	env := jsonResponse{"success": true}
	if message != "" {
		env["message"] = message
	}
	for k, v := range data {
		env[k] = v
	}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.ErrorContext(r.Context(), "Error writing JSON response", slog.Any("error", err))
	}
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	env := jsonResponse{"success": false, "message": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		slog.ErrorContext(r.Context(), "Error writing error JSON response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	errorResponse(w, r, http.StatusInternalServerError, "An error occurred")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, userMessage(err))
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

// userMessage turns an error into the sentence shown to the user.
func userMessage(err error) string {
	var missing *services.MissingFieldsError
	switch {
	case errors.As(err, &missing):
		return "Please fill in all required fields: " + strings.Join(missing.Fields, ", ")
	case errors.Is(err, services.ErrDeadlinePassed):
		return "Submission deadline has passed"
	case errors.Is(err, services.ErrEmailAlreadySubmitted):
		return "Email already used for submission"
	case errors.Is(err, services.ErrRepositoryAlreadySubmitted):
		return "This repository has already been submitted"
	case errors.Is(err, services.ErrEmailNotRegistered):
		return "Email is not registered for this hackathon"
	case errors.Is(err, services.ErrInvalidEmail):
		return "Please enter a valid email address"
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrAdminNotConfigured):
		return "Invalid credentials"
	case errors.Is(err, services.ErrDuplicateRecord):
		// Текст ошибки драйвера наружу не отдаём.
		return "This record already exists"
	}
	return capitalize(err.Error())
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrNoActiveEvent),
		errors.Is(err, services.ErrParticipantNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrWinnerNotFound):
		notFoundResponse(w, r, userMessage(err))

	// Конфликты
	case errors.Is(err, services.ErrEventConflict),
		errors.Is(err, services.ErrEventExists),
		errors.Is(err, services.ErrEventReadOnly),
		errors.Is(err, services.ErrInvalidStateTransition),
		errors.Is(err, services.ErrParticipantExists),
		errors.Is(err, services.ErrTeamExists),
		errors.Is(err, services.ErrWinnerExists),
		errors.Is(err, services.ErrDuplicateRecord):
		conflictResponse(w, r, userMessage(err))

	// Невалидные данные
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrDeadlinePassed),
		errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrEmailAlreadySubmitted),
		errors.Is(err, services.ErrRepositoryAlreadySubmitted),
		errors.Is(err, services.ErrEmailNotRegistered),
		errors.Is(err, services.ErrTeamNameRequired),
		errors.Is(err, services.ErrInvalidImport),
		errors.Is(err, services.ErrInvalidEventName),
		errors.Is(err, services.ErrInvalidDeadline),
		errors.Is(err, services.ErrInvalidLogo),
		errors.Is(err, services.ErrPasswordTooShort):
		badRequestResponse(w, r, err)

	// Авторизация
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAdminNotConfigured),
		errors.Is(err, services.ErrInvalidToken):
		unauthorizedResponse(w, r, userMessage(err))

	default:
		serverErrorResponse(w, r, err)
	}
}

// eventParam is the optional ?event= selector of admin collection endpoints;
// empty means the active hackathon.
func eventParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("event"))
}
