package logger

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"
)

func TestJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo)
	log.Info("epoch done", "epoch", 2)

	output := buf.String()
	if !strings.Contains(output, `"msg":"epoch done"`) {
		t.Fatalf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, `"epoch":2`) {
		t.Fatalf("expected epoch attr in JSON output, got: %s", output)
	}
	if !strings.Contains(output, `"level":"INFO"`) {
		t.Fatalf("expected level INFO in output, got: %s", output)
	}
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("should not appear")
	log.Debug("also should not appear")

	if buf.Len() > 0 {
		t.Fatalf("expected no output for info/debug at warn level, got: %s", buf.String())
	}

	log.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn message in output, got: %s", buf.String())
	}
}

func TestForFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		format string
		want   string
	}{
		{"json", `"msg":"hi"`},
		{"text", "msg=hi"},
		{"pretty", "INFO"},
		{"", "INFO"},
		{" JSON ", `"msg":"hi"`},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		log, err := ForFormat(&buf, tt.format, "info")
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", tt.format, err)
		}
		log.Info("hi")
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("ForFormat(%q) output %q missing %q", tt.format, buf.String(), tt.want)
		}
	}

	if _, err := ForFormat(&bytes.Buffer{}, "xml", "info"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestForFormatLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log, err := ForFormat(&buf, "text", "error")
	if err != nil {
		t.Fatal(err)
	}
	log.Warn("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected warn to be filtered at error level, got: %s", buf.String())
	}
}

func TestWithGroupJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelInfo).WithGroup("train").With("run", "abc")
	log.Info("step", "loss", 0.5)

	output := buf.String()
	if !strings.Contains(output, `"train":{`) {
		t.Fatalf("expected group in output, got: %s", output)
	}
	if !strings.Contains(output, `"run":"abc"`) {
		t.Fatalf("expected run attr in output, got: %s", output)
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := Pretty(&buf, slog.LevelInfo)
	ctx := WithContext(context.Background(), log)

	FromContext(ctx).Info("from ctx")
	if !strings.Contains(buf.String(), "from ctx") {
		t.Fatalf("expected context logger to be used, got: %s", buf.String())
	}

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without logger returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" Error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should be enabled at warn level")
	}

	def := NewPrettyHandler(&bytes.Buffer{}, nil)
	if def.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should not be enabled by default")
	}
}

func TestPrettyHandlerGroups(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	log := slog.New(h.WithGroup("eval").WithGroup("metrics").WithAttrs([]slog.Attr{slog.String("split", "val")}))
	log.Info("done", "iqs", 0.25)

	output := buf.String()
	if !strings.Contains(output, "eval.metrics.split=val") {
		t.Fatalf("expected nested group attr, got: %s", output)
	}
	if !strings.Contains(output, "eval.metrics.iqs=0.25") {
		t.Fatalf("expected nested record attr, got: %s", output)
	}
	if h.WithGroup("") != h {
		t.Fatal("empty group should return the same handler")
	}
}

func TestPrettyHandlerValues(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))
	log.Info("metrics",
		"path", "data/train set.tsv",
		"name", "simple",
		"loss", 0.123456789,
		"acc", math.NaN(),
		"elapsed", 1500*time.Microsecond,
		slog.Group("recall", "A", 1.0),
	)

	output := buf.String()
	for _, want := range []string{
		`path="data/train set.tsv"`,
		"name=simple",
		"loss=0.1235",
		"acc=nan",
		"elapsed=2ms",
		"recall.A=1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Fatal("expected trailing newline")
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input string
		want  bool
	}{
		{"simple", false},
		{"with space", true},
		{"tab\there", true},
		{`quo"te`, true},
		{"a=b", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := needsQuoting(tt.input); got != tt.want {
			t.Errorf("needsQuoting(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
