package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/config"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/database"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/models"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	PasswordCost = bcrypt.MinCost
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTAccessExpiry:    15 * time.Minute,
		JWTRefreshExpiry:   time.Hour,
		QRSecret:           "qr-secret",
		QRTokenTTL:         10 * time.Minute,
		QRRequireSignature: true,
	}
}

// newTestDB opens a private in-memory database with every table migrated.
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

// seeded returns a database holding the demo data.
func seeded(t *testing.T) (*gorm.DB, *SeedResult) {
	t.Helper()
	db := newTestDB(t)
	registry := tenant.NewRegistry()
	seed := NewSeedService(db, registry, NewSettingsService(db))
	res, err := seed.Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	return db, res
}

func otherBusiness(t *testing.T, db *gorm.DB) *models.Business {
	t.Helper()
	b := models.Business{Name: "Other Shop", Slug: "other-shop", Phone: "02111111111"}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("create business: %v", err)
	}
	return &b
}
