package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Dosada05/hackathon-portal/models"
)

// FeedSubscriber attaches an upgraded connection to an event's live feed.
type FeedSubscriber interface {
	Subscribe(ctx context.Context, conn *websocket.Conn, event string)
}

type eventGetter interface {
	Get(ctx context.Context, name string) (*models.Event, error)
}

type WebSocketHandler struct {
	hub      FeedSubscriber
	events   eventGetter
	upgrader websocket.Upgrader
}

// NewWebSocketHandler разрешает подключения только с allowedOrigins;
// "*" разрешает любой Origin.
func NewWebSocketHandler(hub FeedSubscriber, events eventGetter, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	allowAll := false
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// ServeWs godoc
// @Summary  Live feed of a hackathon
// @Description  Websocket stream of submission, winner and lifecycle messages for one hackathon.
// @Tags     feed
// @Param    name  path  string  true  "Hackathon name"
// @Router   /ws/hackathons/{name} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := h.events.Get(r.Context(), name); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту.
		slog.WarnContext(r.Context(), "Websocket upgrade failed", slog.String("event", name), slog.Any("error", err))
		return
	}
	h.hub.Subscribe(r.Context(), conn, name)
}
