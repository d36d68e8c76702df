package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/services"
)

type HackathonHandler struct {
	eventService services.EventService
}

func NewHackathonHandler(es services.EventService) *HackathonHandler {
	return &HackathonHandler{eventService: es}
}

// Details godoc
// @Summary  Active hackathon metadata
// @Tags     hackathons
// @Produce  json
// @Success  200  {object}  models.Event
// @Failure  404  {object}  map[string]interface{}
// @Router   /hackathon-details [get]
func (h *HackathonHandler) Details(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventService.Active(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"hackathon": event})
}

// List godoc
// @Summary  All hackathons with collection sizes
// @Tags     hackathons
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /admin/hackathons [get]
func (h *HackathonHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.eventService.ListSummaries(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []models.EventSummary{}
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"hackathons": summaries})
}

// Create godoc
// @Summary  Create a hackathon
// @Description  The new hackathon becomes active. With end_current=true the current active one is ended first, otherwise an active hackathon is a conflict.
// @Tags     hackathons
// @Accept   json
// @Produce  json
// @Param    input  body      services.CreateEventInput  true  "Hackathon"
// @Success  201    {object}  models.Event
// @Failure  409    {object}  map[string]interface{}
// @Router   /admin/hackathons [post]
func (h *HackathonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input services.CreateEventInput
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusCreated, "Hackathon created", jsonResponse{"hackathon": event})
}

func (h *HackathonHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.eventService.Summary(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"hackathon": summary})
}

func (h *HackathonHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.eventService.Activate, "Hackathon activated")
}

func (h *HackathonHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.eventService.Deactivate, "Hackathon deactivated")
}

func (h *HackathonHandler) End(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.eventService.End, "Hackathon ended")
}

type transitionFunc func(ctx context.Context, name string) (*models.Event, error)

func (h *HackathonHandler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc, message string) {
	event, err := fn(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, message, jsonResponse{"hackathon": event})
}
