package main

import (
	"context"
	"fmt"
	"os"

	"restopos/internal/config"
	"restopos/internal/db"
	"restopos/internal/logging"
)

const usage = "usage: migrate up|down|status"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, false)
	if err != nil {
		log.Error(ctx, "database init", "error", err)
		os.Exit(1)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Error(ctx, "database init", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	var runErr error
	switch os.Args[1] {
	case "up":
		runErr = db.Migrate(ctx, sqlDB)
	case "down":
		runErr = db.Rollback(ctx, sqlDB)
	case "status":
		runErr = db.Status(ctx, sqlDB)
	default:
		fmt.Fprintln(os.Stderr, usage)
		sqlDB.Close()
		os.Exit(2)
	}
	if runErr != nil {
		log.Error(ctx, "migration failed", "command", os.Args[1], "error", runErr)
		sqlDB.Close()
		os.Exit(1)
	}
	log.Info(ctx, "migration finished", "command", os.Args[1])
}
