package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestConfigureLevels(t *testing.T) {
	var buf bytes.Buffer
	log := Configure(&buf, "warn", "json")

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("info message leaked past warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Fatal("warn message missing")
	}
}

func TestConfigureBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := Configure(&buf, "chatty", "json")
	if log.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %v", log.GetLevel())
	}
}

func TestConfigureJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := Configure(&buf, "info", "json")
	log.Info().Str("path", "a.txt").Msg("copied")

	out := buf.String()
	if !strings.Contains(out, `"path":"a.txt"`) {
		t.Fatalf("expected structured field in output: %s", out)
	}
}
