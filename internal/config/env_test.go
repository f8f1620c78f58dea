package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("FRUIT_TEST_VALUE", "set")
	if got := GetEnv("FRUIT_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("GetEnv = %q, want set", got)
	}
	if got := GetEnv("FRUIT_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv = %q, want fallback", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FRUIT_TEST_PORT=9999\nFRUIT_TEST_KEEP=file\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FRUIT_TEST_KEEP", "env")
	// Registered with t.Setenv so the loaded value is cleaned up after the test.
	t.Setenv("FRUIT_TEST_PORT", "")
	os.Unsetenv("FRUIT_TEST_PORT")

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("FRUIT_TEST_PORT"); got != "9999" {
		t.Fatalf("FRUIT_TEST_PORT = %q, want 9999", got)
	}
	if got := os.Getenv("FRUIT_TEST_KEEP"); got != "env" {
		t.Fatalf("existing variable overwritten: %q", got)
	}
}

func TestLoadMissingFileIsFine(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load missing: %v", err)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn", "test")
	logger.Info("hidden")
	logger.Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("level filtering wrong: %q", out)
	}

	buf.Reset()
	NewLogger(&buf, "nonsense", "").Info("info default")
	if !strings.Contains(buf.String(), "info default") {
		t.Fatalf("fallback level should be info: %q", buf.String())
	}
}
