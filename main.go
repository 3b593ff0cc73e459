// Package main provides the main entry point for the Manzil Stays API
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

	"github.com/manzil-stays/manzil-api/app/handlers"
	"github.com/manzil-stays/manzil-api/app/middleware"
	"github.com/manzil-stays/manzil-api/app/router"
	"github.com/manzil-stays/manzil-api/app/services"
	businessflow "github.com/manzil-stays/manzil-api/business_flow"
	"github.com/manzil-stays/manzil-api/config"
	"github.com/manzil-stays/manzil-api/logging"
	"github.com/manzil-stays/manzil-api/models"
	"github.com/manzil-stays/manzil-api/repository"
	"github.com/manzil-stays/manzil-api/utils"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Manzil Stays application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Route logs to the configured destination before anything else writes
	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
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
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
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

	// The models are the schema's single source of truth
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.Client{},
		&models.PasswordResetToken{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s", cfg.RedisURL)
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

// initializeNotificationService initializes the operator notification service
func initializeNotificationService(cfg *config.ProductionConfig) services.NotificationService {
	// Create providers (mock for now)
	smsProvider := services.NewMockSMSProvider()
	emailProvider := services.NewMockEmailProvider()

	return services.NewNotificationService(
		smsProvider,
		emailProvider,
		cfg.Notification.OperatorPhone,
		cfg.Notification.OperatorEmail,
	)
}

// initializeRateLimitStore picks the shared Redis store when a cache client
// is available, otherwise falls back to the per-process memory store.
func initializeRateLimitStore(rc *redis.Client, cfg config.CacheConfig) services.RateLimitStore {
	if rc != nil {
		log.Println("Rate limiting backed by shared Redis store")
		return services.NewRedisRateLimitStore(rc, cfg.RedisPrefix)
	}
	log.Println("Rate limiting backed by in-process memory store")
	return services.NewMemoryRateLimitStore()
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
	adminRepo := repository.NewAdminRepository(db)
	clientRepo := repository.NewClientRepository(db)
	resetTokenRepo := repository.NewPasswordResetTokenRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	notificationService := initializeNotificationService(cfg)
	rateLimitStore := initializeRateLimitStore(rc, cfg.Cache)

	passwordService, err := services.NewPasswordService(cfg.Security.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password service: %w", err)
	}

	// Each principal kind signs with its own derived key, so an admin
	// token can never pass as a client token and vice versa.
	adminTokenService, err := services.NewSessionTokenService(
		services.PrincipalAdmin,
		utils.AdminSessionCookie,
		cfg.Session.AdminTTL,
		cfg.Security.AppSecret,
		cfg.Session.Issuer,
		cfg.Session.Audience,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize admin token service: %w", err)
	}

	clientTokenService, err := services.NewSessionTokenService(
		services.PrincipalClient,
		utils.ClientSessionCookie,
		cfg.Session.ClientTTL,
		cfg.Security.AppSecret,
		cfg.Session.Issuer,
		cfg.Session.Audience,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client token service: %w", err)
	}

	log.Printf("Session token services initialized with issuer: %s, audience: %s", cfg.Session.Issuer, cfg.Session.Audience)

	// Initialize flows
	signupFlow := businessflow.NewSignupFlow(
		clientRepo,
		auditRepo,
		clientTokenService,
		passwordService,
		db,
	)

	loginFlow := businessflow.NewLoginFlow(
		clientRepo,
		auditRepo,
		clientTokenService,
		passwordService,
		db,
	)

	adminAuthFlow := businessflow.NewAdminAuthFlow(
		adminRepo,
		auditRepo,
		adminTokenService,
		passwordService,
	)

	passwordResetFlow := businessflow.NewPasswordResetFlow(
		clientRepo,
		resetTokenRepo,
		auditRepo,
		passwordService,
		notificationService,
		db,
	)

	profileFlow := businessflow.NewProfileFlow(
		clientRepo,
		auditRepo,
		passwordService,
		db,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(
		signupFlow,
		loginFlow,
		passwordResetFlow,
		clientTokenService,
		rateLimitStore,
		cfg.Session.SecureCookies,
	)
	adminAuthHandler := handlers.NewAdminAuthHandler(
		adminAuthFlow,
		adminTokenService,
		rateLimitStore,
		cfg.Session.SecureCookies,
	)
	profileHandler := handlers.NewProfileHandler(profileFlow)

	// Initialize session middleware
	sessions := middleware.NewSessionMiddleware(
		adminTokenService,
		clientTokenService,
		adminRepo,
		clientRepo,
	)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		adminAuthHandler,
		profileHandler,
		sessions,
	)

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
