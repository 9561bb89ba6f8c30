package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel_AllBranches(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"trace", "trace"},
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"off", "disabled"},
		{"", "info"},
		{"   nonsense   ", "info"},
	}
	for _, c := range cases {
		lvl := parseLevel(c.in)
		if strings.ToLower(lvl.String()) != c.want {
			t.Fatalf("parseLevel(%q) = %q, want %q", c.in, lvl, c.want)
		}
	}
}

func TestNewJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Format: "json", Component: "smoker", Writer: &buf})
	log.Warn().Int("accepted", 0).Msg("deposit rejected")

	out := buf.String()
	for _, want := range []string{`"component":"smoker"`, `"level":"warn"`, `"accepted":0`, "deposit rejected"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "error", Format: "json", Writer: &buf})
	log.Warn().Msg("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected warn to be filtered at error level, got %s", buf.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "info", Format: "console", Writer: &buf})
	log.Info().Msg("tick")
	if !strings.Contains(buf.String(), "tick") {
		t.Fatalf("expected console line, got %q", buf.String())
	}
}

func TestNamedReturnsUsableLogger(t *testing.T) {
	l := Named("sim")
	l.Debug().Msg("named logger works")
	if Get() == nil {
		t.Fatalf("expected root logger")
	}
}
