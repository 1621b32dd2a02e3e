package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer postgres.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.PoolHandle(), logger); err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
	}

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()
	cache := persistence.NewCache(redisConn)

	pool := postgres.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	orgRepo := repository.NewOrganizationRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	mailLogRepo := repository.NewMailLogRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		UserRepo:    userRepo,
		OrgRepo:     orgRepo,
		MailLogRepo: mailLogRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Notify:      cfg.Notification,
	})
	boardService := service.NewBoardService(ticketService, logger)
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo: commentRepo,
		TicketRepo:  ticketRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	feedbackService := service.NewFeedbackService(feedbackRepo, ticketService, logger)
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		TicketRepo:   ticketRepo,
		UserRepo:     userRepo,
		FeedbackRepo: feedbackRepo,
		Cache:        cache,
		Logger:       logger,
		Notify:       cfg.Notification,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:  dispatcher,
		TicketRepo:  ticketRepo,
		UserRepo:    userRepo,
		MailLogRepo: mailLogRepo,
		Logger:      logger,
		Notify:      cfg.Notification,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokens, logger)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	notificationWorker := worker.NewNotificationWorker(notificationService, dashboardService, dispatcher, logger)
	notificationWorker.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: apihttp.ErrorHandler(logger, metrics),
	})

	apihttp.RegisterRoutes(app, apihttp.RouterDependencies{
		AuthMiddleware: authMiddleware,
		Auth:           handlers.NewAuthHandler(authService),
		Health:         handlers.NewHealthHandler(postgres, cfg.App.Version),
		Tickets:        handlers.NewTicketHandler(ticketService),
		Board:          handlers.NewBoardHandler(boardService),
		Comments:       handlers.NewCommentHandler(commentService),
		Feedback:       handlers.NewFeedbackHandler(feedbackService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	logger.Info("starting server", zap.String("addr", cfg.App.Addr()))
	if err := app.Listen(cfg.App.Addr()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
