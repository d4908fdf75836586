package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/foodtruck/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCarriesFixedAndScopedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := New(zap.New(core), observability.F("component", "http_server"))

	log.With(observability.F("session_id", "abc")).Warn("purchase_failed",
		observability.F("error", errors.New("boom")),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["component"] != "http_server" || ctx["session_id"] != "abc" || ctx["error"] != "boom" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if entries[0].Message != "purchase_failed" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
}
