package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/davidmanaloto/LifeXCapstoneProject/internal/accounts"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/database"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

func main() {
	email := flag.String("email", "", "admin email address")
	password := flag.String("password", "", "admin password")
	firstName := flag.String("first-name", "Portal", "admin first name")
	lastName := flag.String("last-name", "Administrator", "admin last name")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New("error").WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.New(cfg.LogLevel)

	if *email == "" || *password == "" {
		log.Fatal("Both -email and -password are required")
	}

	passwordManager := accounts.NewPasswordManager()
	if err := passwordManager.ValidatePolicy(*password); err != nil {
		log.WithError(err).Fatal("Password does not meet the policy")
	}

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.CreateSchema(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to apply database schema")
	}

	hash, err := passwordManager.HashPassword(*password)
	if err != nil {
		log.WithError(err).Fatal("Failed to hash password")
	}

	now := time.Now()
	user := &types.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		FirstName:    *firstName,
		LastName:     *lastName,
		Role:         types.RoleAdmin,
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   true,
		DateJoined:   now,
		UpdatedAt:    now,
	}

	userRepo := accounts.NewUserRepository(db, log)
	if err := userRepo.Create(context.Background(), user); err != nil {
		log.WithError(err).Fatal("Failed to create admin account")
	}

	log.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Admin account created")
}
