package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ahmetcoskunkizilkaya/customer-club/internal/config"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/database"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/logging"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/services"
	"github.com/ahmetcoskunkizilkaya/customer-club/internal/tenant"
)

func main() {
	dbPath := flag.String("db", "", "SQLite database path (overrides DB_PATH)")
	help := flag.Bool("help", false, "Show help message")
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	cfg := config.Load()
	logging.Setup(cfg.AppEnv)
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Ping(); err != nil {
		slog.Error("database connection check failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	registry := tenant.NewRegistry()
	seed := services.NewSeedService(database.DB, registry, services.NewSettingsService(database.DB))
	res, err := seed.Seed(context.Background())
	if err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("created: %v\nexisting: %v\n\n", res.Created, res.AlreadySet)
	fmt.Printf("customer    mobile=%s password=%s\n", services.SeedCustomerPhone, services.SeedCustomerPassword)
	fmt.Printf("business    slug=%s owner=%s/%s\n", services.SeedBusinessSlug, services.SeedOwnerUsername, services.SeedOwnerPassword)
	fmt.Printf("reseller    %s/%s\n", services.SeedResellerUsername, services.SeedResellerPassword)
	fmt.Printf("superadmin  %s/%s\n", services.SeedSuperAdminUsername, services.SeedSuperAdminPassword)
}
