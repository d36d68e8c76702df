package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/hackathon-portal/metrics"
	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/services"
)

type SubmissionHandler struct {
	submissionService services.SubmissionService
	metrics           *metrics.Metrics
}

func NewSubmissionHandler(ss services.SubmissionService, m *metrics.Metrics) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss, metrics: m}
}

// Submit godoc
// @Summary      Submit a project
// @Description  Validates and stores a submission for the active hackathon. Accepts form data or JSON.
// @Tags         submissions
// @Accept       json,mpfd,x-www-form-urlencoded
// @Produce      json
// @Param        input  body      services.SubmissionInput  true  "Submission"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]interface{}
// @Failure      404    {object}  map[string]interface{}
// @Router       /submit [post]
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input services.SubmissionInput
	if err := readInput(w, r, &input); err != nil {
		h.metrics.SubmissionAttempt(metrics.ResultRejected)
		badRequestResponse(w, r, err)
		return
	}

	submission, err := h.submissionService.Submit(r.Context(), input)
	if err != nil {
		h.metrics.SubmissionAttempt(submissionResult(err))
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.metrics.SubmissionAttempt(metrics.ResultAccepted)
	successResponse(w, r, http.StatusOK, "Submission successful!", jsonResponse{
		"submission_id": submission.ID,
		"submitted_at":  submission.SubmittedAt,
	})
}

func submissionResult(err error) string {
	var missing *services.MissingFieldsError
	switch {
	case errors.As(err, &missing),
		errors.Is(err, services.ErrDeadlinePassed),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrEmailAlreadySubmitted),
		errors.Is(err, services.ErrRepositoryAlreadySubmitted),
		errors.Is(err, services.ErrEmailNotRegistered),
		errors.Is(err, services.ErrNoActiveEvent):
		return metrics.ResultRejected
	}
	return metrics.ResultError
}

// VerifyEmail godoc
// @Summary  Check whether an email may submit
// @Tags     submissions
// @Accept   json,mpfd,x-www-form-urlencoded
// @Produce  json
// @Param    email  formData  string  true  "Participant email"
// @Success  200    {object}  map[string]interface{}
// @Router   /verify_email [post]
func (h *SubmissionHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	status, err := h.submissionService.VerifyEmail(r.Context(), input.Email)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	message := ""
	switch {
	case !status.Registered:
		message = "Email is not registered for this hackathon"
	case status.AlreadySubmitted:
		message = "Email already used for submission"
	}
	successResponse(w, r, http.StatusOK, message, jsonResponse{
		"registered":        status.Registered,
		"already_submitted": status.AlreadySubmitted,
		"team_name":         status.TeamName,
		"deadline_passed":   status.DeadlinePassed,
	})
}

// GetDeadline godoc
// @Summary  Deadline of the active hackathon
// @Tags     submissions
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /get_deadline [get]
func (h *SubmissionHandler) GetDeadline(w http.ResponseWriter, r *http.Request) {
	deadline, err := h.submissionService.Deadline(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoActiveEvent) {
			successResponse(w, r, http.StatusOK, "", jsonResponse{"deadline": ""})
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"deadline": deadline})
}

// List godoc
// @Summary  Submissions of the active hackathon
// @Tags     submissions
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /submissions [get]
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.submissionService.List(r.Context(), "")
	if err != nil {
		if errors.Is(err, services.ErrNoActiveEvent) {
			successResponse(w, r, http.StatusOK, "", jsonResponse{"submissions": []models.Submission{}})
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	// Доступы к демо видны только администратору.
	for i := range submissions {
		submissions[i].LiveDemoCredentials = ""
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"submissions": submissions})
}

// AdminList returns full submission records of the selected hackathon.
func (h *SubmissionHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	submissions, err := h.submissionService.List(r.Context(), eventParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"submissions": submissions})
}
