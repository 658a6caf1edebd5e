// Package main provides the main entry point for the Reachly dashboard backend
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/reachlyhq/reachly/app/handlers"
	"github.com/reachlyhq/reachly/app/middleware"
	"github.com/reachlyhq/reachly/app/reconciler"
	"github.com/reachlyhq/reachly/app/router"
	"github.com/reachlyhq/reachly/app/services"
	businessflow "github.com/reachlyhq/reachly/business_flow"
	"github.com/reachlyhq/reachly/config"
	"github.com/reachlyhq/reachly/repository"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Reachly application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	logRepo := repository.NewMessageGenerationLogRepository(db)
	cacheRepo := repository.NewResearchCacheRepository(db)
	icpRepo := repository.NewICPRepository(db)
	entryRepo := repository.NewKnowledgeEntryRepository(db)
	settingsRepo := repository.NewProfileSettingsRepository(db)
	accountRepo := repository.NewLinkedAccountRepository(db)
	usageRepo := repository.NewUsageCounterRepository(db)

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	automationClient := services.NewAutomationClient(cfg.Automation.WebhookURL, cfg.Automation.AuthToken, cfg.Automation.Timeout)
	unipileClient := services.NewUnipileClient(cfg.Unipile.BaseURL, cfg.Unipile.APIKey, cfg.Unipile.Timeout)

	rulesStore := businessflow.NewViewRulesStore(rc, cfg.Cache.DefaultTTL)

	// Initialize flows
	prospectFlow := businessflow.NewProspectFlow(logRepo, cacheRepo, customerRepo, auditRepo, rulesStore, db, rc)
	messageFlow := businessflow.NewMessageFlow(logRepo, customerRepo, accountRepo, usageRepo, auditRepo, automationClient, db, rc)
	icpFlow := businessflow.NewICPFlow(icpRepo, customerRepo, auditRepo, automationClient, db, rc)
	knowledgeFlow := businessflow.NewKnowledgeFlow(entryRepo, customerRepo, auditRepo, automationClient, db)
	settingsFlow := businessflow.NewSettingsFlow(settingsRepo, icpRepo, entryRepo, customerRepo, auditRepo, db, rc)
	accountFlow := businessflow.NewAccountFlow(accountRepo, customerRepo, auditRepo, unipileClient, businessflow.AccountLinkingOptions{
		SuccessURL: cfg.Linking.SuccessURL,
		FailureURL: cfg.Linking.FailureURL,
		NotifyURL:  cfg.Linking.NotifyURL,
		LinkExpiry: cfg.Linking.LinkExpiry,
	}, db)
	usageFlow := businessflow.NewUsageFlow(usageRepo, customerRepo)

	// Initialize handlers
	routerHandlers := router.Handlers{
		Prospect:  handlers.NewProspectHandler(prospectFlow, rc),
		Message:   handlers.NewMessageHandler(messageFlow),
		ICP:       handlers.NewICPHandler(icpFlow),
		Knowledge: handlers.NewKnowledgeHandler(knowledgeFlow),
		Settings:  handlers.NewSettingsHandler(settingsFlow),
		Account:   handlers.NewAccountHandler(accountFlow),
		Usage:     handlers.NewUsageHandler(usageFlow),
	}

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(routerHandlers, authMiddleware, cfg.Security.AllowedOrigins)

	// Start the projection reconciler
	rec := reconciler.New(reconciler.Config{
		ListenDSN:      cfg.Database.DSN(),
		Channel:        cfg.Reconciler.Channel,
		DebounceWindow: cfg.Reconciler.DebounceWindow,
		PollInterval:   cfg.Reconciler.PollInterval,
		SnapshotTTL:    cfg.Reconciler.SnapshotTTL,
		LogPath:        cfg.Reconciler.LogPath,
		LogMaxSizeMB:   cfg.Reconciler.LogMaxSizeMB,
		LogMaxBackups:  cfg.Reconciler.LogMaxBackups,
		LogMaxAgeDays:  cfg.Reconciler.LogMaxAgeDays,
	}, prospectFlow, logRepo, rc)
	stopReconciler := rec.Start(context.Background())
	stopFuncs = append(stopFuncs, stopReconciler)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
