package routes

import (
	"denta-link/internal/config"
	"denta-link/internal/database"
	"denta-link/internal/delivery/http/handler"
	v1 "denta-link/internal/delivery/http/routes/v1"
	"denta-link/internal/infrastructure/stream"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

func Register(app *fiber.App, cfg config.Config, db database.DB, feed stream.Publisher, logger zerolog.Logger) {
	if app == nil {
		return
	}

	handler.NewHealthHandler(db).RegisterRoutes(app)

	api := app.Group("/api/v1")
	v1.Register(api, cfg, db, feed, logger)
}
