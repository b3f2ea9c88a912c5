package logging

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesToBuffer(t *testing.T) {
	logger := NewWithOutput(LevelInfo, io.Discard)

	logger.Info("compile finished", map[string]string{"template": "views/home.fsc"})

	entries := logger.Buffer().Recent()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != LevelInfo {
		t.Fatalf("expected info level, got %q", entry.Level)
	}
	if entry.Message != "compile finished" {
		t.Fatalf("expected message compile finished, got %q", entry.Message)
	}
	if entry.Context["template"] != "views/home.fsc" {
		t.Fatalf("expected template context, got %v", entry.Context)
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	logger := NewWithOutput(LevelWarning, io.Discard)

	logger.Info("info", nil)
	logger.Warn("warn", nil)

	entries := logger.Buffer().Recent()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != LevelWarning {
		t.Fatalf("expected warning level, got %q", entries[0].Level)
	}
}

func TestLoggerWithMergesFields(t *testing.T) {
	logger := NewWithOutput(LevelInfo, io.Discard).With(map[string]string{
		"component": "devserver",
	})

	logger.Info("session opened", map[string]string{"session": "abc"})

	entries := logger.Buffer().Recent()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	context := entries[0].Context
	if context["component"] != "devserver" || context["session"] != "abc" {
		t.Fatalf("expected merged fields, got %v", context)
	}
}

func TestLoggerOutputFormat(t *testing.T) {
	var out strings.Builder
	logger := NewWithOutput(LevelInfo, &out)

	logger.Error("compile failed", map[string]string{"path": "views/home.fsc"})

	line := out.String()
	if !strings.Contains(line, `level=error`) {
		t.Fatalf("expected level field in %q", line)
	}
	if !strings.Contains(line, `msg="compile failed"`) {
		t.Fatalf("expected quoted message in %q", line)
	}
	if !strings.Contains(line, `path="views/home.fsc"`) {
		t.Fatalf("expected context field in %q", line)
	}
}

func TestLoggerStreamDeliversAllEntries(t *testing.T) {
	logger := NewWithOutput(LevelInfo, io.Discard)
	output, cancel := logger.Subscribe()
	defer cancel()

	const total = 50
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			logger.Info("message", nil)
		}
		close(done)
	}()

	received := 0
	deadline := time.After(2 * time.Second)
	for received < total {
		select {
		case <-output:
			received++
		case <-deadline:
			t.Fatalf("timed out after receiving %d entries", received)
		}
	}

	<-done
}
