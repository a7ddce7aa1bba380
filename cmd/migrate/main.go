package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/database"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New("error").WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.LogLevel)

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.CreateSchema(context.Background()); err != nil {
		log.WithError(err).Fatal("Migration failed")
	}

	log.Info("Database schema is up to date")
}
