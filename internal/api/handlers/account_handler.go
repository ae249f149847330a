package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	job "github.com/maheshrc27/followflow/internal/jobs"
	"github.com/maheshrc27/followflow/internal/models"
	"github.com/maheshrc27/followflow/internal/service"
	"github.com/maheshrc27/followflow/internal/transfer"
)

// AccountRunner triggers an on-demand reconciliation for one account.
type AccountRunner interface {
	RunAccount(ctx context.Context, op models.Operation, accountID int64) (*job.AccountRun, error)
}

type AccountHandler struct {
	s      service.AccountService
	runner AccountRunner
}

func NewAccountHandler(service service.AccountService, runner AccountRunner) *AccountHandler {
	return &AccountHandler{s: service, runner: runner}
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list accounts",
		})
	}
	if accounts == nil {
		accounts = []*models.Account{}
	}

	return c.JSON(accounts)
}

func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	id, err := ParseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	detail, err := h.s.Get(c.Context(), id)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(detail)
}

func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var in transfer.AccountCreation
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	account, err := h.s.Create(c.Context(), &in)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slog.Info("account created", "account", account.ScreenName, "by", GetSubject(c))
	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountHandler) UpdateAccount(c *fiber.Ctx) error {
	id, err := ParseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	var in transfer.AccountUpdate
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	account, err := h.s.Update(c.Context(), id, &in)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(account)
}

func (h *AccountHandler) RunAccount(c *fiber.Ctx) error {
	id, err := ParseID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid account id",
		})
	}

	op, ok := models.ParseOperation(c.Params("operation"))
	if !ok || op == models.OperationSync {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Operation must be one of follow, unfollow, direct_message",
		})
	}

	run, err := h.runner.RunAccount(c.Context(), op, id)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slog.Info("account run requested", "account_id", id, "operation", string(op), "by", GetSubject(c))
	if run.TaskID != "" {
		return c.Status(fiber.StatusAccepted).JSON(run)
	}
	return c.JSON(run)
}
