package cliutil

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseWorkers(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"auto", 0, true},
		{" 4 ", 4, true},
		{"0", 0, false},
		{"", 0, false},
		{"many", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseWorkers(tc.in)
		if (err == nil) != tc.ok {
			t.Fatalf("%q: err=%v ok=%v", tc.in, err, tc.ok)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("%q: got=%d want=%d", tc.in, got, tc.want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Fatalf("%q: got=%v err=%v want=%v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "param", "cutoff")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "param=cutoff") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Fatalf("got=%f want=%f", got, 1.0)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Fatalf("got=%f want=%f", got, 0.0)
	}
}
