package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/appraisal-go-api/internal/config"
	"github.com/noah-isme/appraisal-go-api/internal/database"
	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/handler"
	"github.com/noah-isme/appraisal-go-api/internal/middleware"
	"github.com/noah-isme/appraisal-go-api/internal/repository"
	"github.com/noah-isme/appraisal-go-api/internal/router"
	"github.com/noah-isme/appraisal-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set; score cache and redis events disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	repos := repository.NewRepositories(db)
	facultyRepo := repository.NewFacultyRepository(db)
	transactor := repository.NewTransactor(db)

	activityService := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	scoreService := service.NewScoreService(repos.Scores, redisClient, cfg.ScoreCacheTTL, validate, logger)
	publisher := service.NewWorkflowEventPublisher(redisClient, natsConn, cfg.EventsChannel, logger)
	appraisalService := service.NewAppraisalService(transactor, repos.Appraisals, facultyRepo, scoreService, activityService, publisher, validate, logger)
	reviewService := service.NewReviewService(transactor, repos, scoreService, activityService, publisher, validate, logger)
	seedService := service.NewSeedService(facultyRepo, validate, cfg.SeedEnabled, cfg.SeedToken, logger)
	analyticsService := service.NewAdminAnalyticsService(repository.NewAdminAnalyticsRepository(db), redisClient, cfg.AnalyticsCacheTTL, logger)

	eventsCtx, stopEvents := context.WithCancel(context.Background())
	defer stopEvents()
	// Other instances may hold a cached score for an appraisal that moved here.
	publisher.Start(eventsCtx, func(ctx context.Context, event dto.WorkflowEvent) {
		scoreService.Invalidate(ctx, event.AppraisalID)
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    !cfg.IsProduction(),
	})
	router.Register(app, cfg, router.Dependencies{
		AppraisalHandler:      handler.NewAppraisalHandler(appraisalService, logger),
		ReviewHandler:         handler.NewReviewHandler(reviewService, logger),
		ScoringHandler:        handler.NewScoringHandler(scoreService, logger),
		WorkflowHandler:       handler.NewWorkflowHandler(validate, logger),
		AdminActivityHandler:  handler.NewAdminActivityHandler(activityService, logger),
		AdminAnalyticsHandler: handler.NewAdminAnalyticsHandler(analyticsService, logger),
		SeedHandler:           handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopEvents)
}

func waitForShutdown(app *fiber.App, stopEvents context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopEvents()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
