package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"

	"github.com/davidmanaloto/LifeXCapstoneProject/internal/accounts"
	"github.com/davidmanaloto/LifeXCapstoneProject/internal/audit"
	"github.com/davidmanaloto/LifeXCapstoneProject/internal/patients"
	"github.com/davidmanaloto/LifeXCapstoneProject/internal/staff"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
)

// Handlers bundles every route group the portal serves
type Handlers struct {
	Accounts *accounts.Handlers
	Patients *patients.Handlers
	Staff    *staff.Handlers
	Audit    *audit.Handlers
}

// Server runs the public API and the ops endpoint
type Server struct {
	config  *config.Config
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	health  *monitoring.HealthManager

	engine    *gin.Engine
	apiServer *http.Server
	opsServer *http.Server

	stopLimiterCleanup func()
}

// New builds the server and wires all routes
func New(
	cfg *config.Config,
	log *logger.Logger,
	metrics *monitoring.MetricsCollector,
	health *monitoring.HealthManager,
	handlers Handlers,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(RequestLogging(log, metrics))
	engine.Use(SecurityHeaders())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization", "X-Requested-With"},
		MaxAge:          24 * time.Hour,
	}))

	limiter := NewRateLimiter(&cfg.RateLimit, log, metrics)
	loginLimiter := func(c *gin.Context) { c.Next() }
	var stopCleanup func()
	if cfg.RateLimit.Enabled {
		loginLimiter = limiter.Middleware("login")
		stopCleanup = limiter.StartCleanup(5 * time.Minute)
	}

	authRequired := AuthMiddleware(&cfg.JWT, log)
	adminOnly := AdminOnly()

	v1 := engine.Group("/api/v1")
	handlers.Accounts.RegisterRoutes(v1, authRequired, adminOnly, loginLimiter)
	handlers.Patients.RegisterRoutes(v1, authRequired)
	handlers.Staff.RegisterRoutes(v1, authRequired)
	handlers.Audit.RegisterRoutes(v1, authRequired, adminOnly)

	s := &Server{
		config:             cfg,
		logger:             log,
		metrics:            metrics,
		health:             health,
		engine:             engine,
		stopLimiterCleanup: stopCleanup,
	}

	s.apiServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	if cfg.Monitoring.Enabled {
		ops := mux.NewRouter()
		ops.Handle(cfg.Monitoring.MetricsPath, metrics.Handler()).Methods(http.MethodGet)
		ops.HandleFunc(cfg.Monitoring.HealthPath, health.LivenessHandler()).Methods(http.MethodGet)
		ops.HandleFunc(cfg.Monitoring.HealthPath+"/detailed", health.HTTPHandler()).Methods(http.MethodGet)

		s.opsServer = &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Monitoring.Port),
			Handler:      ops,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
	}

	return s
}

// Engine exposes the router, mainly for tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs both listeners. It blocks until the API server stops.
func (s *Server) Start() error {
	if s.opsServer != nil {
		go func() {
			s.logger.WithFields(map[string]interface{}{
				"addr": s.opsServer.Addr,
			}).Info("Ops endpoint listening")
			if err := s.opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.WithError(err).Error("Ops endpoint failed")
			}
		}()
	}

	s.logger.WithFields(map[string]interface{}{
		"addr": s.apiServer.Addr,
	}).Info("API server listening")

	if err := s.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests on both listeners
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopLimiterCleanup != nil {
		s.stopLimiterCleanup()
	}

	if s.opsServer != nil {
		if err := s.opsServer.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Error("Ops endpoint shutdown failed")
		}
	}
	return s.apiServer.Shutdown(ctx)
}
