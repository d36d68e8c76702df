package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/services"
)

type WinnerHandler struct {
	winnerService services.WinnerService
}

func NewWinnerHandler(ws services.WinnerService) *WinnerHandler {
	return &WinnerHandler{winnerService: ws}
}

// PublicList godoc
// @Summary  Winners of the active hackathon, highest points first
// @Tags     winners
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /winners [get]
func (h *WinnerHandler) PublicList(w http.ResponseWriter, r *http.Request) {
	winners, err := h.winnerService.List(r.Context(), "")
	if err != nil {
		if errors.Is(err, services.ErrNoActiveEvent) {
			successResponse(w, r, http.StatusOK, "", jsonResponse{"winners": []models.Winner{}})
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"winners": winners})
}

func (h *WinnerHandler) List(w http.ResponseWriter, r *http.Request) {
	winners, err := h.winnerService.List(r.Context(), eventParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"winners": winners})
}

func (h *WinnerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input services.WinnerInput
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	winner, err := h.winnerService.Add(r.Context(), eventParam(r), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusCreated, "Winner added", jsonResponse{"winner": winner})
}

func (h *WinnerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input struct {
		OriginalTeamName string `json:"original_team_name"`
		TeamName         string `json:"team_name"`
		ProjectName      string `json:"project_name"`
		Points           int    `json:"points"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	original := input.OriginalTeamName
	if original == "" {
		original = input.TeamName
	}

	winner, err := h.winnerService.Update(r.Context(), eventParam(r), original, services.WinnerInput{
		TeamName:    input.TeamName,
		ProjectName: input.ProjectName,
		Points:      input.Points,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Winner updated", jsonResponse{"winner": winner})
}

func (h *WinnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var input struct {
		TeamName string `json:"team_name"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.winnerService.Delete(r.Context(), eventParam(r), input.TeamName); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Winner deleted", nil)
}
