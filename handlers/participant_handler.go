package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/hackathon-portal/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
}

func NewParticipantHandler(ps services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: ps}
}

// List godoc
// @Summary  Registered participants
// @Tags     participants
// @Produce  json
// @Param    event  query     string  false  "Hackathon name (defaults to the active one)"
// @Success  200    {object}  map[string]interface{}
// @Router   /admin/emails [get]
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	participants, err := h.participantService.List(r.Context(), eventParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"participants": participants})
}

func (h *ParticipantHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		TeamName string `json:"team_name"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participantService.Add(r.Context(), eventParam(r), input.Email, input.TeamName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusCreated, "Email added", jsonResponse{"participant": participant})
}

func (h *ParticipantHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	var input struct {
		OldEmail string `json:"old_email"`
		NewEmail string `json:"new_email"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.OldEmail) == "" {
		badRequestResponse(w, r, errors.New("old_email is required"))
		return
	}

	participant, err := h.participantService.UpdateEmail(r.Context(), eventParam(r), input.OldEmail, input.NewEmail)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Email updated", jsonResponse{"participant": participant})
}

func (h *ParticipantHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		TeamName string `json:"team_name"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.participantService.UpdateTeam(r.Context(), eventParam(r), input.Email, input.TeamName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Team updated", jsonResponse{"participant": participant})
}

func (h *ParticipantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participantService.Delete(r.Context(), eventParam(r), input.Email); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Email deleted", nil)
}

// Import godoc
// @Summary  Import participants from CSV
// @Description  Multipart upload of a CSV with header email[,team_name]. Known emails are skipped.
// @Tags     participants
// @Accept   mpfd
// @Produce  json
// @Param    file   formData  file    true   "CSV file"
// @Param    event  query     string  false  "Hackathon name (defaults to the active one)"
// @Success  200    {object}  services.ImportResult
// @Router   /admin/emails/import [post]
func (h *ParticipantHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, errors.New("a CSV file is required in the \"file\" field"))
		return
	}
	defer file.Close()

	result, err := h.participantService.Import(r.Context(), eventParam(r), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Participants imported", jsonResponse{"result": result})
}
