package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/senai-sm/school-manager/pkg/config"
	"github.com/senai-sm/school-manager/pkg/database"
	"github.com/senai-sm/school-manager/pkg/logger"
)

func main() {
	var (
		printOnly bool
		timeout   time.Duration
	)
	flag.BoolVar(&printOnly, "print", false, "Print the schema instead of applying it")
	flag.DurationVar(&timeout, "timeout", time.Minute, "Migration timeout")
	flag.Parse()

	if printOnly {
		fmt.Print(database.Schema())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("migration failed", zap.Error(err))
	}
	logr.Info("schema applied", zap.String("database", cfg.Database.Name))
}
