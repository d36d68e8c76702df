// Package logging sets up the application's slog logger and the rotating
// error log files behind /log_error and /admin/logs.
package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	KindServer = "server"
	KindClient = "client"

	DefaultRecentLines = 100
	MaxRecentLines     = 1000

	maxFileSizeMB = 1
	maxBackups    = 3
)

var ErrUnknownKind = errors.New("unknown log kind")

// Files owns the two rotating error logs under one directory.
type Files struct {
	dir    string
	server *lumberjack.Logger
	client *lumberjack.Logger

	clientMu sync.Mutex
}

func fileName(kind string) string {
	return kind + "_errors.log"
}

func newRotating(dir, kind string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, fileName(kind)),
		MaxSize:    maxFileSizeMB,
		MaxBackups: maxBackups,
	}
}

func Open(dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return &Files{
		dir:    dir,
		server: newRotating(dir, KindServer),
		client: newRotating(dir, KindClient),
	}, nil
}

func (f *Files) Close() error {
	return errors.Join(f.server.Close(), f.client.Close())
}

// NewLogger returns a logger writing JSON records at level and above to
// stdout, and error records additionally to the server error file.
func (f *Files) NewLogger(stdout io.Writer, level slog.Level) *slog.Logger {
	return slog.New(&fanoutHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: level}),
		slog.NewJSONHandler(f.server, &slog.HandlerOptions{Level: slog.LevelError}),
	}})
}

// ClientError is a browser-side error reported to /log_error.
type ClientError struct {
	Message   string `json:"message"`
	Source    string `json:"source,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	Stack     string `json:"stack,omitempty"`
	URL       string `json:"url,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type clientRecord struct {
	Time string `json:"time"`
	ClientError
}

// WriteClientError appends one JSON line to the client error file.
func (f *Files) WriteClientError(e ClientError) error {
	line, err := json.Marshal(clientRecord{Time: time.Now().UTC().Format(time.RFC3339), ClientError: e})
	if err != nil {
		return fmt.Errorf("failed to encode client error: %w", err)
	}

	f.clientMu.Lock()
	defer f.clientMu.Unlock()
	if _, err := f.client.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write client error: %w", err)
	}
	return nil
}

// RecentLines returns up to n trailing lines of the kind's current log file.
// n is clamped to MaxRecentLines.
// A file that was never written yields no lines.
func (f *Files) RecentLines(kind string, n int) ([]string, error) {
	if kind != KindServer && kind != KindClient {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if n <= 0 {
		n = DefaultRecentLines
	}
	if n > MaxRecentLines {
		n = MaxRecentLines
	}

	file, err := os.Open(filepath.Join(f.dir, fileName(kind)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open %s log: %w", kind, err)
	}
	defer file.Close()

	// Кольцевой буфер последних n строк.
	ring := make([]string, 0, n)
	start := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(ring) < n {
			ring = append(ring, line)
			continue
		}
		ring[start] = line
		start = (start + 1) % n
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s log: %w", kind, err)
	}
	return append(ring[start:], ring[:start]...), nil
}

// fanoutHandler passes each record to every handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
