package email

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/config"
)

func TestRunReport(t *testing.T) {
	start := time.Date(2026, time.October, 18, 6, 0, 0, 0, time.UTC)
	msg := RunReport([]string{"ops@example.com"}, RunSummary{
		RunID:      "0b9f3c6e-1111-2222-3333-444455556666",
		Status:     "roundtrip_failed",
		StartedAt:  start,
		FinishedAt: start.Add(95 * time.Second),
		Requested:  62,
		Fetched:    61,
		Cities:     []string{"Moscow", "Belgorod"},
		PerCity:    map[string]int{"Moscow": 31, "Belgorod": 30},
		RemotePath: "/user/inna/weather_data.parquet",
		Error:      "hdfs open: connection refused",
	})

	if msg.Subject != "Weather history run 0b9f3c6e: roundtrip_failed" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if len(msg.To) != 1 || msg.To[0] != "ops@example.com" {
		t.Errorf("To = %v", msg.To)
	}
	for _, want := range []string{
		"Fetched 61 of 62 city-days.",
		"Belgorod",
		"(1m35s)",
		"Error: hdfs open: connection refused",
	} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("Body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestCompose_Headers(t *testing.T) {
	now := time.Date(2026, time.October, 18, 6, 0, 0, 0, time.UTC)
	raw := compose("bot@example.com", Message{To: []string{"a@x", "b@x"}, Subject: "hi", Body: "line1\nline2"}, now)

	if !strings.Contains(raw, "To: a@x,b@x\r\n") {
		t.Errorf("missing To header:\n%s", raw)
	}
	if !strings.HasSuffix(raw, "\r\n\r\nline1\r\nline2") {
		t.Errorf("body not CRLF terminated:\n%q", raw)
	}
}

func TestNewSMTPSender_MissingHost(t *testing.T) {
	if _, err := NewSMTPSender(&config.Config{}, zap.NewNop()); err == nil {
		t.Fatal("NewSMTPSender() expected error, got nil")
	}
}
