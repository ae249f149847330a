package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	config "github.com/maheshrc27/followflow/configs"
	"github.com/maheshrc27/followflow/internal/api/handlers"
	"github.com/maheshrc27/followflow/internal/api/middleware"
	"github.com/maheshrc27/followflow/internal/metrics"
	"github.com/maheshrc27/followflow/internal/service"
)

// Register mounts the admin API on app.
func Register(app *fiber.App, cfg config.Config, accounts service.AccountService, runner handlers.AccountRunner, collector *metrics.Collector) {
	app.Get("/health", handlers.Health)
	if collector != nil {
		app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	account := handlers.NewAccountHandler(accounts, runner)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts", account.CreateAccount)
	api.Get("/accounts/:id", account.GetAccount)
	api.Patch("/accounts/:id", account.UpdateAccount)
	api.Post("/accounts/:id/run/:operation", account.RunAccount)
}
