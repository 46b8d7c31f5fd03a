package server

import (
	"fmt"
	"net/http"
	"time"

	"afrimart/internal/cache"
	"afrimart/internal/config"
	"afrimart/internal/database"
	"afrimart/internal/jobs"
	custommiddleware "afrimart/internal/middleware"
	"afrimart/internal/repository"
	"afrimart/internal/service"
	"afrimart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config   *config.Config
	logger   *zap.Logger
	db       *database.Service
	redis    *redis.Client
	enqueuer jobs.Enqueuer
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service, redisClient *redis.Client, enqueuer jobs.Enqueuer) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.MetricsMiddleware)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	if cfg.Server.RateLimit > 0 {
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.Server.RateLimit,
			Window:            cfg.Server.RateWindow,
			KeyPrefix:         "ratelimit",
		}, logger))
	}

	// Health check endpoint reports database and redis reachability
	router.Get("/health", healthHandler(db, redisClient))

	// Prometheus scrape endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB())
	refreshTokenRepo := repository.NewRefreshTokenRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	cartRepo := repository.NewCartRepository(db.DB())
	orderRepo := repository.NewOrderRepository(db.DB())

	// Initialize services
	redisCache := cache.NewRedisCache(redisClient)
	userService := service.NewUserService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	productService := service.NewProductService(productRepo, redisCache, logger)
	cartService := service.NewCartService(cartRepo, productRepo)
	orderService := service.NewOrderService(orderRepo, enqueuer, logger, cfg.Database.TxTimeout)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	productHandler := transport.NewProductHandler(productService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware)
	productHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	cartHandler.RegisterRoutes(router, authMiddleware)
	orderHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:   cfg,
		logger:   logger,
		db:       db,
		redis:    redisClient,
		enqueuer: enqueuer,
	}

	return server
}

func healthHandler(db *database.Service, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()

		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			health["redis"] = "down"
		} else {
			health["redis"] = "up"
		}

		status := http.StatusOK
		if health["status"] != "up" || health["redis"] != "up" {
			status = http.StatusServiceUnavailable
		}

		custommiddleware.RespondWithJSON(w, status, health)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.enqueuer != nil {
		if err := s.enqueuer.Close(); err != nil {
			s.logger.Error("Failed to close job enqueuer", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
