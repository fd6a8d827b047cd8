//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"sitfit-api/internal/config"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter(&buf, config.LogConfig{Level: "debug", Format: "json"}, false)

	ctx := WithUserID(WithTraceID(context.Background(), "trace-1"), "user-1")
	With(ctx, base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if line["trace_id"] != "trace-1" || line["user_id"] != "user-1" {
		t.Errorf("expected trace_id and user_id fields, got %v", line)
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)

	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
	l.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Error("expected warn line to be written")
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("pay_ABCDEFGHIJ", false); got != "pay_...IJ" {
		t.Errorf("unexpected redaction: %q", got)
	}
	if got := Redact("short", false); got != "***" {
		t.Errorf("expected short values to be fully hidden, got %q", got)
	}
	if got := Redact("pay_ABCDEFGHIJ", true); got != "pay_ABCDEFGHIJ" {
		t.Errorf("expected dev mode to keep the value, got %q", got)
	}
}
