package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunVersionFlag(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	code := run([]string{"--version"}, &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("expected code %d, got %d", exitCodeSuccess, code)
	}
	if !strings.Contains(stdout.String(), "fresco-watch") {
		t.Fatalf("expected version banner, got %q", stdout.String())
	}
}

func TestRunHelpExitsZero(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	code := run([]string{"-h"}, &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("expected code %d, got %d", exitCodeSuccess, code)
	}
	if !strings.Contains(stderr.String(), "Usage: fresco-watch") {
		t.Fatalf("expected usage output, got %q", stderr.String())
	}
}

func TestRunUnknownFlagIsUsageError(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	code := run([]string{"--bogus"}, &stdout, &stderr)
	if code != exitCodeUsage {
		t.Fatalf("expected code %d, got %d", exitCodeUsage, code)
	}
	if strings.TrimSpace(stderr.String()) == "" {
		t.Fatal("expected stderr output")
	}
}

func TestRunMissingConfigIsConfigError(t *testing.T) {
	var stdout bytes.Buffer
	var stderr bytes.Buffer

	code := run([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")}, &stdout, &stderr)
	if code != exitCodeConfig {
		t.Fatalf("expected code %d, got %d", exitCodeConfig, code)
	}
	if !strings.Contains(stderr.String(), "read config") {
		t.Fatalf("expected read config error, got %q", stderr.String())
	}
}

func TestRunInvalidConfigIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.yaml")
	if err := os.WriteFile(path, []byte("roots:\n  - ./src\nunknown_key: true\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer

	code := run([]string{"--config", path}, &stdout, &stderr)
	if code != exitCodeConfig {
		t.Fatalf("expected code %d, got %d", exitCodeConfig, code)
	}
}
