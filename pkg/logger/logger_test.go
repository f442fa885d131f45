package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := New(Options{
		ServiceName: "vendgb-test",
		Level:       zerolog.DebugLevel,
		Output:      &buf,
	})
	return log, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", line, err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInfoCarriesServiceName(t *testing.T) {
	log, buf := newTestLogger(t)

	log.Info(context.Background(), "server started")

	entry := decodeLine(t, buf)
	if entry["service"] != "vendgb-test" {
		t.Errorf("service = %v, want vendgb-test", entry["service"])
	}
	if entry["message"] != "server started" {
		t.Errorf("message = %v, want server started", entry["message"])
	}
}

func TestContextFieldsPropagate(t *testing.T) {
	log, buf := newTestLogger(t)

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithOrderID(ctx, "ord-456")
	ctx = log.WithPaymentIntentID(ctx, "pi_789")
	log.Info(ctx, "payment confirmed")

	entry := decodeLine(t, buf)
	if entry["request_id"] != "req-123" {
		t.Errorf("request_id = %v, want req-123", entry["request_id"])
	}
	if entry["order_id"] != "ord-456" {
		t.Errorf("order_id = %v, want ord-456", entry["order_id"])
	}
	if entry["payment_intent_id"] != "pi_789" {
		t.Errorf("payment_intent_id = %v, want pi_789", entry["payment_intent_id"])
	}
}

func TestFieldsDoNotLeakAcrossContexts(t *testing.T) {
	log, buf := newTestLogger(t)

	_ = log.WithOrderID(context.Background(), "ord-456")
	log.Info(context.Background(), "unrelated")

	entry := decodeLine(t, buf)
	if _, ok := entry["order_id"]; ok {
		t.Error("order_id leaked into a context it was never attached to")
	}
}

func TestErrorIncludesStackAndError(t *testing.T) {
	log, buf := newTestLogger(t)

	log.Error(context.Background(), "charge failed", errors.New("card declined"))

	entry := decodeLine(t, buf)
	if entry["error"] != "card declined" {
		t.Errorf("error = %v, want card declined", entry["error"])
	}
	stack, _ := entry["stack"].(string)
	if !strings.Contains(stack, "goroutine") {
		t.Errorf("stack = %q, want a goroutine trace", stack)
	}
}

func TestWarnStackOptIn(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{ServiceName: "vendgb-test", WarnStack: true, Output: &buf})

	log.Warn(context.Background(), "slow query")

	entry := decodeLine(t, &buf)
	if _, ok := entry["stack"]; !ok {
		t.Error("warn entry missing stack with WarnStack enabled")
	}
}
