package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zaqqye/realty_backend/internal/config"
	"github.com/zaqqye/realty_backend/internal/crm"
	"github.com/zaqqye/realty_backend/internal/database"
	"github.com/zaqqye/realty_backend/internal/logging"
	"github.com/zaqqye/realty_backend/internal/notify"
	"github.com/zaqqye/realty_backend/internal/repliers"
	"github.com/zaqqye/realty_backend/internal/routes"
	"github.com/zaqqye/realty_backend/internal/seo"
	"github.com/zaqqye/realty_backend/internal/ws"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}
	if err := database.SeedAdmin(db, cfg, logger); err != nil {
		logger.Fatal("admin seed failed", zap.Error(err))
	}
	if err := database.SeedDefaults(db, logger); err != nil {
		logger.Fatal("defaults seed failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	notifier := &notify.Service{
		DB:         db,
		Email:      notify.NewHTTPEmailSender(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom),
		Push:       hub,
		AgentEmail: cfg.AgentEmail,
		Log:        logger,
	}

	var generator seo.Generator
	if g, err := seo.NewGenAIGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err == nil {
		generator = g
	} else if errors.Is(err, seo.ErrNotConfigured) {
		logger.Info("GEMINI_API_KEY not set, SEO generation disabled")
	} else {
		logger.Fatal("genai client init failed", zap.Error(err))
	}

	if cfg.RepliersAPIKey == "" {
		logger.Warn("REPLIERS_API_KEY not set, MLS endpoints are disabled")
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger))
	routes.Register(r, routes.Deps{
		DB:     db,
		Cfg:    cfg,
		Log:    logger,
		Hub:    hub,
		MLS:    repliers.NewClient(cfg.RepliersAPIURL, cfg.RepliersAPIKey),
		Notify: notifier,
		Alerts: notifier,
		CRM:    crm.NewClient(cfg.FUBAPIURL, cfg.FUBAPIKey, cfg.FUBSystem, siteHost(cfg.SiteURL)),
		SEO:    generator,
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server exited with error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// siteHost is the lead source reported to the CRM.
func siteHost(siteURL string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return siteURL
	}
	return u.Host
}
