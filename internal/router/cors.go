package router

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CorsMiddleware configures CORS for the given origin list (defaults to *).
// Content-Disposition is exposed so browsers can name statement and export downloads.
func CorsMiddleware(origin string) fiber.Handler {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = "*"
	}

	return cors.New(cors.Config{
		AllowOrigins:     origin,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		ExposeHeaders:    "Content-Disposition",
		MaxAge:           600,
		AllowCredentials: false,
	})
}
