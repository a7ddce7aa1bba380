package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/davidmanaloto/LifeXCapstoneProject/internal/accounts"
	"github.com/davidmanaloto/LifeXCapstoneProject/internal/audit"
	"github.com/davidmanaloto/LifeXCapstoneProject/internal/patients"
	"github.com/davidmanaloto/LifeXCapstoneProject/internal/rbac"
	"github.com/davidmanaloto/LifeXCapstoneProject/internal/server"
	"github.com/davidmanaloto/LifeXCapstoneProject/internal/staff"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/database"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/httputil"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
)

const serviceName = "hospital-portal"

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New("error").WithError(err).Fatal("Failed to load configuration")
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting hospital portal")

	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.CreateSchema(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to apply database schema")
	}

	// Links in outbound mail embed base_url; a host that resolves to a
	// private or loopback address would hand recipients dead links.
	if cfg.Mail.Enabled && !httputil.IsSafeOutboundURL(context.Background(), cfg.Server.BaseURL) {
		log.WithFields(map[string]interface{}{
			"base_url": cfg.Server.BaseURL,
		}).Warn("server.base_url does not resolve to a public address")
	}

	metrics := monitoring.NewMetricsCollector(serviceName)
	health := monitoring.NewHealthManager(serviceName, "1.0.0")
	health.RegisterChecker("database", monitoring.NewDatabaseHealthChecker(db.DB))

	auditLogger := audit.NewLogger(db, log)
	retention := audit.NewRetentionJob(auditLogger, &cfg.Audit, log)
	if err := retention.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start audit retention job")
	}

	engine := rbac.NewEngine(rbac.DefaultMatrix(), log)

	userRepo := accounts.NewUserRepository(db, log)
	passwordManager := accounts.NewPasswordManager()
	mfaProvider := accounts.NewTOTPProvider(cfg.MFA.Issuer, cfg.MFA.DevelopmentMode)
	tokenSigner := accounts.NewHMACTokenSigner(cfg.JWT.SecretKey)
	mailer := accounts.NewSMTPMailer(&cfg.Mail, log)

	accountsService := accounts.NewService(cfg, log, userRepo, passwordManager,
		mfaProvider, tokenSigner, mailer, auditLogger, metrics)

	patientRepo := patients.NewPatientRepository(db, log)
	recordRepo := patients.NewRecordRepository(db, log)
	certRepo := patients.NewCertificateRepository(db, log)
	patientsService := patients.NewService(log, patientRepo, recordRepo, certRepo,
		userRepo, engine, auditLogger, metrics)

	staffRepo := staff.NewRepository(db, log)
	staffService := staff.NewService(log, staffRepo, userRepo, passwordManager,
		mailer, engine, auditLogger, metrics)

	srv := server.New(cfg, log, metrics, health, server.Handlers{
		Accounts: accounts.NewHandlers(accountsService, log),
		Patients: patients.NewHandlers(patientsService, log),
		Staff:    staff.NewHandlers(staffService, log),
		Audit:    audit.NewHandlers(auditLogger, log),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("Server failed")
		}
	case sig := <-quit:
		log.WithFields(map[string]interface{}{"signal": sig.String()}).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	retention.Stop()

	log.Info("Hospital portal stopped")
}
