package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/jobboard/internal/cache"
	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/handlers"
	"github.com/justsurfingit/jobboard/internal/logger"
	"github.com/justsurfingit/jobboard/internal/scheduler"
	"github.com/justsurfingit/jobboard/internal/services"
	"github.com/justsurfingit/jobboard/internal/telemetry"
)

func main() {
	// 1. Load Environment Variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	zlog, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelCollectorURL != "" {
		shutdownTracer, err := telemetry.InitTracer(ctx, "jobboard-api", cfg.OTelCollectorURL)
		if err != nil {
			zlog.Warn("tracing disabled", zap.Error(err))
		} else {
			defer shutdownTracer()
		}
	}

	// 2. Database Connection
	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel, zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}

	// 3. Cache and run notifications
	queryCache := newCache(ctx, cfg, zlog)
	defer queryCache.Close()

	var notifier services.RunNotifier = &services.LogNotifier{Log: zlog}
	if cfg.NATSURL != "" {
		n, err := services.NewNATSNotifier(cfg.NATSURL, zlog)
		if err != nil {
			zlog.Warn("NATS unavailable, run events go to the log only", zap.Error(err))
		} else {
			notifier = n
		}
	}
	defer notifier.Close()

	// 4. Initialize Core Services (Dependencies)
	listingService := services.NewListingService(db, queryCache, zlog, cfg.PageSize, cfg.IDFilterMode, cfg.CacheTTL)
	locationService := services.NewLocationService(db, queryCache, zlog)
	orgService := services.NewOrganizationService(db, queryCache, zlog)
	jobService := services.NewJobService(db, queryCache, zlog, cfg.ConflictMode)
	statsService := services.NewStatsService(db)
	datasetClient := services.NewDatasetClient(cfg.ApifyBaseURL, cfg.ApifyToken, cfg.DatasetFetchTimeout, zlog)
	ingestionService := services.NewIngestionService(
		jobService, orgService, locationService, datasetClient, notifier, queryCache, zlog, cfg.ApifyUserID,
	)

	var matcher handlers.Matcher
	llmService, err := services.NewLLMService(ctx, services.LLMOptions{
		Provider:     cfg.LLMProvider,
		Model:        cfg.LLMModel,
		GeminiAPIKey: cfg.GeminiAPIKey,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
	})
	if err != nil {
		zlog.Warn("AI search disabled", zap.Error(err))
	} else {
		matcher = services.NewMatcherService(llmService, zlog)
	}

	// 5. Location maintenance
	if cfg.MaintenanceSchedule != "" {
		sched := scheduler.New(locationService, cfg.MaintenanceSchedule, zlog)
		if err := sched.Start(ctx); err != nil {
			zlog.Fatal("scheduler start failed", zap.Error(err))
		}
		defer sched.Stop()
	}

	// 6. Initialize Handlers
	h := handlers.Handlers{
		Jobs:       handlers.NewJobHandler(listingService, statsService, matcher, cfg.AIMaxCandidates, cfg.AdminToken, zlog),
		Webhook:    handlers.NewWebhookHandler(ingestionService, zlog),
		Locations:  handlers.NewLocationHandler(locationService, cfg.PopularLocationsLimit),
		Admin:      handlers.NewAdminHandler(jobService, orgService, locationService, statsService),
		DB:         db,
		AdminToken: cfg.AdminToken,
	}

	// 7. Setup Router & CORS
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(zlog))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigin) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigin
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Admin-Token"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	// 8. Define Routes
	handlers.RegisterRoutes(r.Group("/api/v1"), h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newCache picks redis when REDIS_URL is set and falls back to process memory.
func newCache(ctx context.Context, cfg *config.Config, zlog *zap.Logger) cache.Cache {
	if cfg.RedisURL == "" {
		return cache.NewMemory(cfg.CacheTTL)
	}
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zlog.Warn("redis unavailable, using in-memory cache", zap.Error(err))
		return cache.NewMemory(cfg.CacheTTL)
	}
	zlog.Info("redis cache connected")
	return cache.NewRedis(rdb, "jobboard", cfg.CacheTTL)
}
