package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/services"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type activeEventGetter interface {
	Active(ctx context.Context) (*models.Event, error)
}

type PageHandler struct {
	events  activeEventGetter
	winners services.WinnerService
}

func NewPageHandler(events activeEventGetter, winners services.WinnerService) *PageHandler {
	return &PageHandler{events: events, winners: winners}
}

type indexPage struct {
	Event   *models.Event
	Winners []models.Winner
}

// Index renders the landing page of the active hackathon.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	var page indexPage

	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		event, err := h.events.Active(gctx)
		if errors.Is(err, services.ErrNoActiveEvent) {
			return nil
		}
		page.Event = event
		return err
	})
	g.Go(func() error {
		winners, err := h.winners.List(gctx, "")
		if errors.Is(err, services.ErrNoActiveEvent) {
			return nil
		}
		page.Winners = winners
		return err
	})
	if err := g.Wait(); err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
