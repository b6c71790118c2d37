package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Simplici0/pricebook/internal/config"
	"github.com/Simplici0/pricebook/internal/db"
	"github.com/Simplici0/pricebook/internal/logging"
	"github.com/Simplici0/pricebook/internal/migrations"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  (default), up   apply pending migrations for DB_DRIVER
  version         print the current schema version`)
	os.Exit(2)
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel)

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		logging.Fatal("failed to open database", "error", err)
	}
	defer database.Close()

	ctx := context.Background()
	switch cmd {
	case "", "up":
		if err := migrations.Up(ctx, database, cfg.DBDriver); err != nil {
			logging.Fatal("failed to run database migrations", "error", err)
		}
		version, err := migrations.Version(ctx, database, cfg.DBDriver)
		if err != nil {
			logging.Fatal("failed to read schema version", "error", err)
		}
		slog.Info("migrations applied", "driver", cfg.DBDriver, "version", version)
	case "version":
		version, err := migrations.Version(ctx, database, cfg.DBDriver)
		if err != nil {
			logging.Fatal("failed to read schema version", "error", err)
		}
		fmt.Println(version)
	default:
		usage()
	}
}
