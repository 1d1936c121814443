// File: rebeca/main.go
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

	"rebeca/config"
	"rebeca/cron"
	"rebeca/database"
	"rebeca/database/repository"
	"rebeca/handlers"
	"rebeca/middleware"
	"rebeca/routes"
	"rebeca/services/assistant"
	ai "rebeca/services/intelligence"
	"rebeca/services/notification"
	"rebeca/services/reminder"
	"rebeca/utils"

	"github.com/gin-gonic/gin"
	"github.com/jmhodges/clock"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("main: %v", err)
	}

	logger, err := utils.NewLogger(cfg)
	if err != nil {
		log.Fatalf("main: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	loc, err := utils.LoadZone(cfg.ReminderTimezone)
	if err != nil {
		logger.Fatal("main: invalid reminder timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.New()
	monitor := utils.NewHealthMonitor(60*time.Second, logger)

	// Reminder store.
	storeOpts := repository.ReminderStoreOptions{Clock: clk, Location: loc, Timeout: cfg.StoreTimeout}
	var store repository.ReminderStore
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.ConnectPostgres(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("main: postgres unavailable", zap.Error(err))
		}
		defer pool.Close()
		monitor.Register("postgres", utils.PostgresProbe(pool))
		store = repository.NewPostgresReminderStore(pool, storeOpts)
	default:
		client, err := database.ConnectMongo(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("main: mongo unavailable", zap.Error(err))
		}
		defer client.Disconnect(context.Background())
		monitor.Register("mongo", utils.MongoProbe(client))
		store = repository.NewMongoReminderStore(client.Database(cfg.DatabaseName), storeOpts)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal("main: failed to prepare reminder store", zap.Error(err))
	}

	redisClient, err := utils.NewRedisClient(cfg)
	if err != nil {
		logger.Fatal("main: redis unavailable", zap.Error(err))
	}
	defer redisClient.Close()
	monitor.Register("redis", utils.RedisProbe(redisClient))

	// Language model.
	gemini, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.GeminiModel,
		Timeout:        cfg.GenerationTimeout,
		RequestsPerMin: cfg.GenerationRPM,
	}, logger)
	if err != nil {
		logger.Fatal("main: gemini unavailable", zap.Error(err))
	}
	defer gemini.Close()

	classifier, err := ai.NewClassifier(gemini, loc, logger)
	if err != nil {
		logger.Fatal("main: classifier setup failed", zap.Error(err))
	}
	responder := ai.NewResponder(gemini, ai.NewRedisContextStore(redisClient, cfg.ConversationTTL), loc, logger)

	// Slack.
	slackOpts := []slack.Option{}
	if cfg.SlackAppToken != "" {
		slackOpts = append(slackOpts, slack.OptionAppLevelToken(cfg.SlackAppToken))
	}
	slackAPI := slack.New(cfg.SlackBotToken, slackOpts...)
	gateway, err := notification.NewSlackGateway(slackAPI, logger)
	if err != nil {
		logger.Fatal("main: slack gateway setup failed", zap.Error(err))
	}

	// Reminder polling.
	var claimer reminder.Claimer = reminder.NoopClaimer{}
	if cfg.DeliveryGuard == config.GuardClaim {
		claimer = reminder.NewRedisClaimer(redisClient, cfg.ClaimTTL)
	}
	poller := reminder.NewPoller(store, gateway, responder, claimer, clk, reminder.Config{
		Interval:    cfg.PollInterval,
		Tolerance:   cfg.FireTolerance,
		SendTimeout: cfg.SendTimeout,
	}, logger)

	var (
		pollerDone <-chan struct{}
		pollWorker *cron.PollWorker
	)
	switch cfg.PollDriver {
	case config.PollDriverAsynq:
		pollWorker = cron.NewPollWorker(cfg, loc, poller, logger)
		if err := pollWorker.Start(); err != nil {
			logger.Fatal("main: poll worker failed to start", zap.Error(err))
		}
	default:
		pollerDone = poller.Start(ctx)
	}

	// Inbound messages.
	agent := assistant.NewAgent(classifier, responder, store, clk, middleware.NewLimiterStore(cfg.MaxMessagesPerMin), logger)
	processor := handlers.NewMessageProcessor(agent, gateway, logger)
	eventPool := handlers.NewEventPool(processor, cfg.EventWorkers, 2*time.Minute, logger)
	eventPool.Start(ctx)

	bundle := &handlers.HandlerBundle{
		HealthHandler: handlers.HealthHandler(monitor),
	}
	socketDone := make(chan struct{})
	switch cfg.SlackMode {
	case config.SlackModeSocket:
		listener := handlers.NewSocketModeListener(slackAPI, eventPool, logger)
		go func() {
			defer close(socketDone)
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("main: socket mode stopped", zap.Error(err))
			}
		}()
	default:
		close(socketDone)
		events := handlers.NewSlackEventsHandler(eventPool, handlers.NewRedisDeduper(redisClient), logger)
		bundle.SlackSigningSecret = cfg.SlackSigningSecret
		bundle.SlackEventsHandler = events.HandleEvents
	}

	monitor.Start(ctx)

	// Create the Gin router.
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(middleware.NewLimiterStore(600), logger))
	routes.RegisterRoutes(router, bundle, logger)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s (slack mode %s, poll driver %s)...", srv.Addr, cfg.SlackMode, cfg.PollDriver)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("main: shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	<-socketDone
	eventPool.Stop()
	if pollWorker != nil {
		pollWorker.Shutdown()
	}
	if pollerDone != nil {
		<-pollerDone
	}

	logger.Info("main: stopped gracefully")
}
