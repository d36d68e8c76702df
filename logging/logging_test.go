package logging

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_ErrorsGoToServerFile(t *testing.T) {
	files, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer files.Close()

	var stdout bytes.Buffer
	logger := files.NewLogger(&stdout, slog.LevelInfo).With(slog.String("component", "test"))
	logger.Info("started")
	logger.Error("storage failed", slog.String("event", "spring"))

	if !strings.Contains(stdout.String(), `"msg":"started"`) || !strings.Contains(stdout.String(), `"msg":"storage failed"`) {
		t.Errorf("expected both records on stdout, got %s", stdout.String())
	}

	lines, err := files.RecentLines(KindServer, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected only the error record in the file, got %v", lines)
	}
	if !strings.Contains(lines[0], `"component":"test"`) || !strings.Contains(lines[0], `"event":"spring"`) {
		t.Errorf("expected attributes in the file record, got %s", lines[0])
	}
}

func TestRecentLines(t *testing.T) {
	files, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer files.Close()

	lines, err := files.RecentLines(KindClient, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines before any write, got %v", lines)
	}

	for i := 0; i < 8; i++ {
		if err := files.WriteClientError(ClientError{Message: fmt.Sprintf("err-%d", i), Line: i}); err != nil {
			t.Fatal(err)
		}
	}
	lines, err = files.RecentLines(KindClient, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i, want := range []string{"err-5", "err-6", "err-7"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d: expected %s, got %s", i, want, lines[i])
		}
	}

	if _, err := files.RecentLines("kernel", 3); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestRecentLines_ClampsCount(t *testing.T) {
	files, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer files.Close()

	for i := 0; i < MaxRecentLines+5; i++ {
		if err := files.WriteClientError(ClientError{Message: fmt.Sprintf("err-%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	lines, err := files.RecentLines(KindClient, 2_000_000_000)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != MaxRecentLines {
		t.Fatalf("expected %d lines, got %d", MaxRecentLines, len(lines))
	}
	if want := fmt.Sprintf(`"err-%d"`, MaxRecentLines+4); !strings.Contains(lines[len(lines)-1], want) {
		t.Errorf("expected newest line last, got %s", lines[len(lines)-1])
	}
}
