package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{ServiceName: "auth", Environment: "test", Level: "warn", Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept", "user_id", "u1")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "kept" || line["service"] != "auth" || line["env"] != "test" || line["user_id"] != "u1" {
		t.Fatalf("unexpected log line: %v", line)
	}
}
