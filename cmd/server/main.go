package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ironready/coach-api/internal/api"
	"ironready/coach-api/internal/config"
	"ironready/coach-api/internal/llm"
	"ironready/coach-api/internal/logger"
	"ironready/coach-api/internal/repository/mongo"
	"ironready/coach-api/internal/retrieval"
	"ironready/coach-api/internal/scheduler"
	"ironready/coach-api/internal/service"
	"ironready/coach-api/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title Iron Ready Coach API
// @version 1.0
// @description Onboarding, AI generated weekly plans, workout sessions and muscle recovery tracking.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("could not load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level)
	slog.SetDefault(log)
	log.Info("starting Iron Ready server")

	if cfg.JWT.Secret == "" {
		log.Error("jwt.secret is not set")
		os.Exit(1)
	}
	planLoc, err := time.LoadLocation(cfg.Plan.Timezone)
	if err != nil {
		log.Error("invalid plan timezone", "timezone", cfg.Plan.Timezone, "error", err)
		os.Exit(1)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Error("could not connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		log.Info("disconnecting MongoDB")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Error("failed to disconnect MongoDB", "error", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established", "database", cfg.Database.Name)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := mongo.EnsureIndexes(ctx, appDB); err != nil {
			log.Error("index creation failed", "error", err)
			return
		}
		log.Info("database indexes ensured")
	}()

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	planDayRepo := mongo.NewMongoPlanDayRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	recoveryRepo := mongo.NewMongoRecoveryRepository(appDB)
	notificationRepo := mongo.NewMongoNotificationRepository(appDB)
	tx := mongo.NewTransactor(dbClient)

	// --- Exercise index ---
	index := retrieval.NewIndex()
	loader := &retrieval.Loader{
		Index:     index,
		Path:      cfg.Retrieval.IndexPath,
		ObjectKey: cfg.S3.IndexKey,
		Logger:    log,
	}
	if cfg.S3.Enabled() {
		objects, err := storage.NewS3Storage(rootCtx, cfg.S3, log)
		if err != nil {
			log.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		loader.Objects = objects
	}
	if err := loader.Load(rootCtx); err != nil {
		// Plan generation answers 503 until a snapshot is reloaded.
		log.Warn("exercise index not loaded", "error", err)
	}
	if cfg.Retrieval.Watch {
		if err := loader.Watch(rootCtx); err != nil {
			log.Warn("exercise index watcher not started", "error", err)
		}
	}

	var embedder retrieval.Embedder
	switch cfg.Retrieval.Embedder {
	case "http":
		embedder = retrieval.NewHTTPEmbedder(cfg.Retrieval.EmbeddingBaseURL, cfg.Retrieval.EmbeddingAPIKey,
			cfg.Retrieval.EmbeddingModel, cfg.Retrieval.Timeout)
	default:
		embedder = retrieval.NewHashingEmbedder(cfg.Retrieval.Dimensions)
	}
	retriever := retrieval.NewRetriever(index, embedder, cfg.Retrieval.Timeout)

	// --- Services ---
	chatModel := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Timeout)

	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	onboardingService := service.NewOnboardingService(userRepo)
	generator := service.NewPlanGenerator(service.PlanGeneratorConfig{
		Model:       cfg.LLM.PlanModel,
		Temperature: cfg.LLM.PlanTemperature,
		MaxTokens:   cfg.LLM.PlanMaxTokens,
		Timeout:     cfg.LLM.Timeout,
		TopK:        cfg.Retrieval.TopK,
		Location:    planLoc,
		Defaults:    service.ProfileDefaultsFromConfig(cfg.Plan),
	}, userRepo, planDayRepo, notificationRepo, tx, retriever, chatModel, log)
	tips := service.NewTipEnhancer(service.TipEnhancerConfig{
		Model:       cfg.LLM.TipModel,
		Temperature: cfg.LLM.TipTemperature,
		MaxTokens:   cfg.LLM.TipMaxTokens,
		Timeout:     cfg.LLM.TipTimeout,
	}, chatModel)
	sessionService := service.NewSessionService(sessionRepo, planDayRepo, recoveryRepo, notificationRepo, tx, tips, log)
	workoutService := service.NewWorkoutService(planDayRepo, planLoc)
	recoveryService := service.NewRecoveryService(recoveryRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	// --- Scheduler ---
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(log)
		refresher := scheduler.NewRecoveryRefresher(recoveryRepo, log)
		if err := sched.AddRecoveryRefresh(cfg.Scheduler.RecoveryRefreshSpec, refresher, 2*time.Minute); err != nil {
			log.Error("invalid recovery refresh schedule", "spec", cfg.Scheduler.RecoveryRefreshSpec, "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
		log.Info("recovery refresh scheduled", "spec", cfg.Scheduler.RecoveryRefreshSpec)
	}

	// --- Routes ---
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(log)
	api.SetupRoutes(router, cfg.JWT.Secret, api.Services{
		Auth:          authService,
		Onboarding:    onboardingService,
		Generator:     generator,
		Workouts:      workoutService,
		Sessions:      sessionService,
		Recoveries:    recoveryService,
		Notifications: notificationService,
		Catalog:       index,
		IndexReloader: loader,
	}, log)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exiting")
}
