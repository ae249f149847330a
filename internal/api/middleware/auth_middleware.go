package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/followflow/configs"
	"github.com/maheshrc27/followflow/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// AuthMiddleware accepts an admin token from the session cookie or an
// Authorization bearer header and stores its subject in Locals.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fromCookie := true
		tokenString := c.Cookies(m.cfg.CookieName)
		if tokenString == "" {
			fromCookie = false
			tokenString = bearerToken(c)
		}

		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token or cookie",
			})
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			if fromCookie {
				c.Cookie(&fiber.Cookie{
					Name:   m.cfg.CookieName,
					Value:  "",
					Path:   "/",
					MaxAge: -1,
				})
			}

			slog.Info("token validation failed", "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("subject", claims.Subject)
		return c.Next()
	}
}
