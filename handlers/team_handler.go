package handlers

import (
	"net/http"

	"github.com/Dosada05/hackathon-portal/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(ts services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: ts}
}

// List godoc
// @Summary  Teams with their members
// @Tags     teams
// @Produce  json
// @Param    event  query     string  false  "Hackathon name (defaults to the active one)"
// @Success  200    {object}  map[string]interface{}
// @Router   /admin/teams [get]
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.List(r.Context(), eventParam(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"teams": teams})
}

func (h *TeamHandler) Add(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Add(r.Context(), eventParam(r), input.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusCreated, "Team added", jsonResponse{"team": team})
}

// Update renames a team; participants follow the new name.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input struct {
		OldName string `json:"old_name"`
		NewName string `json:"new_name"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.Rename(r.Context(), eventParam(r), input.OldName, input.NewName)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Team updated", jsonResponse{"team": team})
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.teamService.Delete(r.Context(), eventParam(r), input.Name); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Team deleted", nil)
}
