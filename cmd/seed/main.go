package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	mongodb "github.com/growthdesk/storefront/internal/infrastructure/db/mongo"
	"github.com/growthdesk/storefront/internal/pkg/config"
	"github.com/growthdesk/storefront/internal/seed"
	"github.com/growthdesk/storefront/pkg/logger"
)

func main() {
	demoUsers := flag.Int("demo-users", 0, "number of fake users to create")
	fakerSeed := flag.Uint64("faker-seed", 0, "seed for generated data, 0 picks one from the clock")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "storefront-seed"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Error().Err(err).Msg("mongo connect failed")
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Error().Err(err).Msg("ensure indexes failed")
		os.Exit(1)
	}

	s := seed.NewSeeder(mongodb.NewCatalogRepository(db), mongodb.NewUserRepository(db), log)
	res, err := s.SeedCatalog(ctx)
	if err != nil {
		log.Error().Err(err).Msg("seed catalog failed")
		os.Exit(1)
	}
	if res.AlreadySeeded {
		log.Info().Msg("database already seeded")
	}

	if *demoUsers > 0 {
		n := *fakerSeed
		if n == 0 {
			n = uint64(time.Now().UnixNano())
		}
		if _, err := s.SeedDemoUsers(ctx, *demoUsers, gofakeit.New(n)); err != nil {
			log.Error().Err(err).Msg("seed demo users failed")
			os.Exit(1)
		}
	}
}
