package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/viznest/viznest-backend/config"
	"github.com/viznest/viznest-backend/internal/app/controller"
	"github.com/viznest/viznest-backend/internal/app/repository"
	"github.com/viznest/viznest-backend/internal/app/service"
	"github.com/viznest/viznest-backend/internal/db"
	"github.com/viznest/viznest-backend/internal/metrics"
	"github.com/viznest/viznest-backend/internal/middleware"
	"github.com/viznest/viznest-backend/internal/router"
	"github.com/viznest/viznest-backend/internal/scheduler"
	"github.com/viznest/viznest-backend/internal/storage"
	"github.com/viznest/viznest-backend/internal/websocket"
	"github.com/viznest/viznest-backend/pkg/logger"
	"github.com/viznest/viznest-backend/pkg/redis"
)

const auditLockKey = "viznest:lock:order-audit"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Log.Format != "json",
	})

	logger.Info("Starting VizNest Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   cfg.Log.Level,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis backs the token blacklist, guest carts and the audit lock.
	// Without it logout is stateless and guests cannot keep a cart.
	var (
		redisClient *redis.Client
		revoker     service.TokenRevoker
		blacklist   middleware.TokenBlacklist
		guestStore  repository.CartStore
		auditLock   scheduler.Lock
	)
	if cfg.Redis.Enabled {
		redisClient, err = redis.Connect(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		revoker = redisClient
		blacklist = redisClient
		guestStore = repository.NewGuestCartRepository(redisClient.Raw(), cfg.Cart.GuestTTL)
		auditLock = scheduler.NewRedisLock(redisClient.Raw(), auditLockKey, 10*time.Minute)
	} else {
		logger.Warn("Redis disabled: guest carts and token revocation are unavailable")
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	conn := db.GetDB()
	userRepo := repository.NewUserRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	addressRepo := repository.NewAddressRepository(conn)
	reviewRepo := repository.NewReviewRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	wishlistRepo := repository.NewWishlistRepository(conn)
	cartRepo := repository.NewCartRepository(conn)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		revoker,
		store,
		cfg.Storage.MaxUpload,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, store, cfg.Storage.MaxUpload)
	reviewService := service.NewReviewService(reviewRepo, productRepo, userRepo)
	cartService := service.NewCartService(cartRepo, guestStore, productRepo)
	orderService := service.NewOrderService(orderRepo, addressRepo, hub)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo)
	addressService := service.NewAddressService(addressRepo)

	controllers := router.Controllers{
		Auth:        controller.NewAuthController(authService, cartService),
		Address:     controller.NewAddressController(addressService),
		Product:     controller.NewProductController(productService),
		Review:      controller.NewReviewController(reviewService),
		Cart:        controller.NewCartController(cartService),
		Order:       controller.NewOrderController(orderService),
		Wishlist:    controller.NewWishlistController(wishlistService),
		Upload:      controller.NewUploadController(store),
		OrderEvents: controller.NewOrderEventsController(hub, cfg.CORS.AllowedOrigins),
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)

	engine := router.NewRouter(controllers, authMiddleware, httpMetrics, registry, cfg).Setup()

	var auditScheduler *scheduler.OrderAuditScheduler
	if cfg.Audit.Enabled {
		auditScheduler = scheduler.NewOrderAuditScheduler(cfg.Audit.Schedule, orderService, jobMetrics, auditLock)
		if err := auditScheduler.Start(); err != nil {
			logger.Fatal("Failed to start order audit scheduler", err)
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	if auditScheduler != nil {
		auditScheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	cancel()

	logger.Info("Server stopped successfully")
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.S3.UsesS3() {
		logger.Info("Using S3 storage", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
		return storage.NewS3Storage(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL), nil
	}

	logger.Info("Using local storage", map[string]interface{}{
		"dir": cfg.Storage.LocalDir,
	})
	return storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.Storage.PublicURL)
}
