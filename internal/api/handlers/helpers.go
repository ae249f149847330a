package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/followflow/internal/service"
)

func GetSubject(c *fiber.Ctx) string {
	subject, _ := c.Locals("subject").(string)
	return subject
}

func ParseID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNoFollowTarget),
		errors.Is(err, service.ErrNoMessagePattern):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrRunInFlight):
		return fiber.StatusConflict
	}

	var gwErr *service.GatewayError
	if errors.As(err, &gwErr) {
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}
