package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/icodeforyou/darksky-go/database"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "darksky.db"))
	if err != nil {
		t.Fatalf("database.New() failed: %v", err)
	}
	db.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(db.Close)
	return db
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	logger := slog.New(NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)).With("module", "test")

	logger.Info("fetched")
	logger.Warn("slow response")

	if !strings.Contains(debugBuf.String(), "fetched") || !strings.Contains(debugBuf.String(), "slow response") {
		t.Errorf("debug handler expected both records, got %q", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "fetched") {
		t.Errorf("warn handler expected no info record, got %q", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "module=test") {
		t.Errorf("warn handler expected module attribute, got %q", warnBuf.String())
	}
}

func TestMultiHandlerEnabled(t *testing.T) {
	h := NewMultiHandler(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Errorf("Enabled(INFO) expected false")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Errorf("Enabled(ERROR) expected true")
	}
}

func TestSQLiteHandler(t *testing.T) {
	tests := []struct {
		name     string
		format   LogAttrFormat
		expected string
	}{
		{"json", LogAttrFormatJSON, `[{"module":"task"},{"forecast.status":"403"}]`},
		{"text", LogAttrFormatText, `module=task; forecast.status=403`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDatabase(t)
			logger := slog.New(NewSQLiteHandler(db, slog.LevelWarn, tt.format)).With("module", "task")

			logger.Info("not stored")
			logger.WithGroup("forecast").Error("fetch failed", slog.Int("status", 403))

			entries, err := db.GetLogEntries(context.Background(), slog.LevelDebug, 1, 10)
			if err != nil {
				t.Fatalf("GetLogEntries() failed: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			e := entries[0]
			if e.Message != "fetch failed" || e.Level != int(slog.LevelError) {
				t.Errorf("unexpected entry %+v", e)
			}
			if e.Attrs != tt.expected {
				t.Errorf("attrs expected %s, got %s", tt.expected, e.Attrs)
			}
		})
	}
}

func TestSQLiteHandlerLevelVar(t *testing.T) {
	db := newTestDatabase(t)
	level := &slog.LevelVar{}
	level.Set(slog.LevelError)
	logger := slog.New(NewSQLiteHandler(db, level, LogAttrFormatText))

	logger.Warn("dropped")
	level.Set(slog.LevelWarn)
	logger.Warn("kept")

	entries, err := db.GetLogEntries(context.Background(), slog.LevelDebug, 1, 10)
	if err != nil {
		t.Fatalf("GetLogEntries() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("expected only the entry logged after the level change, got %+v", entries)
	}
}

func TestTextAttrEscaping(t *testing.T) {
	h := NewSQLiteHandler(nil, slog.LevelInfo, LogAttrFormatText)
	got := h.formatAttrs([]slog.Attr{slog.String("q", "a=b;c")})
	if got != `q=a\=b\;c` {
		t.Errorf("formatAttrs expected %s, got %s", `q=a\=b\;c`, got)
	}
}
