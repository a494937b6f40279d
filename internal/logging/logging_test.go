package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/database"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestDBHandlerStoresErrors(t *testing.T) {
	db := newTestDB(t)
	h := NewDBHandler(db)
	defer h.Stop()

	logger := slog.New(h).With("business_slug", "demo-cafe")
	logger.Info("ignored")
	logger.Error("scan failed",
		"trace_id", "trace-1",
		"action", "scan",
		"error", "boom",
		"latency_ms", int64(12),
		"customer_id", 7,
	)
	h.Flush()

	var logs []models.SystemLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("query system logs: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 stored log, got %d", len(logs))
	}
	got := logs[0]
	if got.Level != "ERROR" || got.Message != "scan failed" {
		t.Fatalf("unexpected entry %+v", got)
	}
	if got.BusinessSlug != "demo-cafe" || got.TraceID != "trace-1" || got.Action != "scan" || got.Error != "boom" || got.LatencyMs != 12 {
		t.Fatalf("attributes not lifted: %+v", got)
	}

	var extra map[string]interface{}
	if err := json.Unmarshal(got.Extra, &extra); err != nil {
		t.Fatalf("extra is not JSON: %v", err)
	}
	if extra["customer_id"] != float64(7) {
		t.Fatalf("expected customer_id in extra, got %v", extra)
	}
}

func TestPurgeBefore(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	for _, ts := range []time.Time{now.AddDate(0, 0, -40), now.AddDate(0, 0, -31), now} {
		entry := models.SystemLog{ID: uuid.New(), Timestamp: ts, Level: "ERROR", Message: "x"}
		if err := db.Create(&entry).Error; err != nil {
			t.Fatalf("create log: %v", err)
		}
	}

	deleted, err := PurgeBefore(db, now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("PurgeBefore returned error: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	var remaining int64
	db.Model(&models.SystemLog{}).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("expected 1 remaining, got %d", remaining)
	}
}

func TestMultiHandlerFansOutByLevel(t *testing.T) {
	var info, errs bytes.Buffer
	m := NewMultiHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if m.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled on every sink")
	}

	logger := slog.New(m).With("business_slug", "demo-cafe")
	logger.Info("hello")
	logger.Error("broken")

	if strings.Count(info.String(), "\n") != 2 {
		t.Fatalf("info sink should see both records, got %q", info.String())
	}
	if strings.Contains(errs.String(), "hello") || !strings.Contains(errs.String(), "broken") {
		t.Fatalf("error sink got %q", errs.String())
	}
	if !strings.Contains(errs.String(), `"business_slug":"demo-cafe"`) {
		t.Fatalf("attrs not propagated: %q", errs.String())
	}
}
