package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"paysched/internal/core"
)

func TestRequestIDIsAttached(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, JSON: true, Component: ComponentHTTP, Output: &buf})

	ctx := WithRequestID(context.Background(), "req-42")
	logger.InfoContext(ctx, "Payment created", Payment(core.Payment{
		ID: 7, PayeeName: "Office Rent", Amount: 120000,
		DueDate: core.NewDate(2024, time.January, 20), Status: core.StatusUpcoming, Version: 1,
	}))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec[FieldRequestID] != "req-42" || rec[FieldComponent] != ComponentHTTP {
		t.Fatalf("missing context fields: %v", rec)
	}
	p, ok := rec["payment"].(map[string]any)
	if !ok || p[FieldPayee] != "Office Rent" || p[FieldDueDate] != "2024-01-20" {
		t.Fatalf("unexpected payment group: %v", rec["payment"])
	}
}

func TestLevelFilteringAndPlainContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf}).With("k", "v")

	logger.Info("hidden")
	logger.WarnContext(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, FieldRequestID) {
		t.Fatalf("no request id expected: %q", out)
	}
	if RequestID(context.Background()) != "" {
		t.Fatal("empty context has no request id")
	}
}
