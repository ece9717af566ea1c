package main

import (
	"context"
	"fmt"
	"os"

	"github.com/triumph-atlantic/matrix-api/internal/config"
	"github.com/triumph-atlantic/matrix-api/internal/database"
	"github.com/triumph-atlantic/matrix-api/internal/logger"
	"github.com/triumph-atlantic/matrix-api/internal/repository"
	"github.com/triumph-atlantic/matrix-api/internal/seed"
	"github.com/triumph-atlantic/matrix-api/internal/storage"
	"go.uber.org/zap"
)

const usage = "usage: seed [import|export] [object]"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	args := os.Args[1:]
	if len(args) == 0 {
		return fmt.Errorf(usage)
	}
	command := args[0]

	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	object := cfg.Storage.SnapshotObject
	if len(args) > 1 {
		object = args[1]
	}
	if object == "" {
		return fmt.Errorf("no snapshot object given and storage.snapshotObject is not set")
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.Driver == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
	}

	objects, err := storage.NewStorage(ctx, &cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	seeder := seed.NewSeeder(repository.NewStore(db), objects, log)

	var counts seed.Counts
	switch command {
	case "import":
		counts, err = seeder.Import(ctx, object)
	case "export":
		counts, err = seeder.Export(ctx, object)
	default:
		return fmt.Errorf("unknown command: %s (%s)", command, usage)
	}
	if err != nil {
		return err
	}

	log.Info("Seed command completed", zap.String("command", command), zap.String("object", object))
	fmt.Printf("%s %s: %s\n", command, object, counts)
	return nil
}
