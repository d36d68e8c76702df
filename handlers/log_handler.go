package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/hackathon-portal/logging"
)

// ErrorLog is the sink for browser errors and the source of the admin log viewer.
type ErrorLog interface {
	WriteClientError(e logging.ClientError) error
	RecentLines(kind string, n int) ([]string, error)
}

type LogHandler struct {
	log ErrorLog
}

func NewLogHandler(log ErrorLog) *LogHandler {
	return &LogHandler{log: log}
}

const maxClientMessage = 4096

// LogError godoc
// @Summary  Report a browser-side error
// @Tags     logs
// @Accept   json
// @Produce  json
// @Param    input  body      logging.ClientError  true  "Error report"
// @Success  200    {object}  map[string]interface{}
// @Router   /log_error [post]
func (h *LogHandler) LogError(w http.ResponseWriter, r *http.Request) {
	var input logging.ClientError
	if err := readInput(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.Message = strings.TrimSpace(input.Message)
	if input.Message == "" {
		badRequestResponse(w, r, errors.New("message is required"))
		return
	}
	if len(input.Message) > maxClientMessage {
		input.Message = input.Message[:maxClientMessage]
	}
	if len(input.Stack) > maxClientMessage {
		input.Stack = input.Stack[:maxClientMessage]
	}
	if input.UserAgent == "" {
		input.UserAgent = r.UserAgent()
	}

	if err := h.log.WriteClientError(input); err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "Error logged", nil)
}

// RecentLogs godoc
// @Summary  Recent error log lines
// @Tags     logs
// @Produce  json
// @Param    type   query     string  false  "server or client"  default(server)
// @Param    lines  query     int     false  "Number of lines"    default(100)
// @Success  200    {object}  map[string]interface{}
// @Router   /admin/logs [get]
func (h *LogHandler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("type")
	if kind == "" {
		kind = logging.KindServer
	}
	n := logging.DefaultRecentLines
	if raw := r.URL.Query().Get("lines"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > logging.MaxRecentLines {
			badRequestResponse(w, r, fmt.Errorf("lines must be between 1 and %d", logging.MaxRecentLines))
			return
		}
		n = v
	}

	lines, err := h.log.RecentLines(kind, n)
	if err != nil {
		if errors.Is(err, logging.ErrUnknownKind) {
			badRequestResponse(w, r, errors.New("type must be server or client"))
			return
		}
		serverErrorResponse(w, r, err)
		return
	}
	successResponse(w, r, http.StatusOK, "", jsonResponse{"type": kind, "lines": lines})
}
