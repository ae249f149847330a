package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/followflow/configs"
	"github.com/maheshrc27/followflow/internal/api"
	"github.com/maheshrc27/followflow/internal/database"
	job "github.com/maheshrc27/followflow/internal/jobs"
	"github.com/maheshrc27/followflow/internal/logging"
	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/queue"
	"github.com/maheshrc27/followflow/internal/repository"
	"github.com/maheshrc27/followflow/internal/service"
	"github.com/robfig/cron"
)

const entryTaskUniqueFor = time.Hour

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logr, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	slog.SetDefault(logr)

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(ctx, db, "migrations", logr); err != nil {
		closeDB(db)
		log.Fatalf("Failed to run migrations: %v", err)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		closeDB(db)
		log.Fatalf("Failed to register metrics: %v", err)
	}

	accountRepo := repository.NewAccountRepository(db)
	historyRepo := repository.NewFollowerHistoryRepository(db)
	patternRepo := repository.NewMessagePatternRepository(db)
	sentMessageRepo := repository.NewSentMessageRepository(db)

	var archiver service.HistoryArchiver
	if cfg.R2.Enabled() {
		archiver, err = service.NewR2Archiver(ctx, cfg.R2)
		if err != nil {
			slog.Error("follower history archive disabled", "error", err)
		}
	}

	httpClient := &http.Client{Timeout: cfg.Twitter.Timeout}
	gateways := service.NewGatewayFactory(cfg.Twitter, cfg.SecretKey, httpClient, collector)
	pool := service.NewAccountPool(cfg.WorkerConcurrency)

	statusService := service.NewStatusService(accountRepo, historyRepo, gateways, archiver, collector)
	followService := service.NewFollowService(accountRepo, gateways, pool, collector, cfg.Batch.Follow)
	unfollowService := service.NewUnfollowService(accountRepo, gateways, pool, collector, cfg.Batch.Unfollow)
	campaignService := service.NewCampaignService(accountRepo, patternRepo, sentMessageRepo, gateways, pool, collector,
		cfg.Batch.DirectMessage, cfg.Batch.DirectMessageFetch)
	accountService := service.NewAccountService(accountRepo, historyRepo, cfg.SecretKey)

	queueW := queue.NewQueue(statusService, followService, unfollowService, campaignService)

	var (
		client      *asynq.Client
		asynqServer *asynq.Server
		enqueuer    queue.Enqueuer
	)
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client = asynq.NewClient(redisConn)
		enqueuer = client

		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Logger:      newAsynqLogger(logr),
		})
		mux := asynq.NewServeMux()
		queueW.Register(mux)

		go func() {
			slog.Info("starting the asynq server")
			if err := asynqServer.Run(mux); err != nil {
				log.Fatalf("Could not start Asynq server: %v", err)
			}
		}()
	} else {
		slog.Info("REDIS_URI not set, running entry points in-process")
	}

	automationJob := job.NewAutomationJob(queueW, enqueuer, entryTaskUniqueFor)

	c := cron.New()
	if err := automationJob.Schedule(c, cfg.Schedule); err != nil {
		closeDB(db)
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	c.Start()

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("request failed", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(logger.New())

	api.Register(app, *cfg, accountService, automationJob, collector)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("server is running", "addr", cfg.HTTPAddr)

	gracefulShutdown(app, c, asynqServer, client, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, asynqServer *asynq.Server, client *asynq.Client, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	c.Stop()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	if asynqServer != nil {
		asynqServer.Shutdown()
	}
	if client != nil {
		client.Close()
	}

	closeDB(db)
	slog.Info("server shutdown complete")
}
