package v1

import (
	"denta-link/internal/config"
	"denta-link/internal/database"
	"denta-link/internal/delivery/http/handler"
	"denta-link/internal/delivery/http/middleware"
	persistence "denta-link/internal/infrastructure/persistence/postgres"
	"denta-link/internal/infrastructure/stream"
	"denta-link/internal/pkg/jwt"
	appuc "denta-link/internal/usecase/application"
	neguc "denta-link/internal/usecase/negotiation"
	postinguc "denta-link/internal/usecase/posting"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
)

func Register(r fiber.Router, cfg config.Config, db database.DB, feed stream.Publisher, logger zerolog.Logger) {
	if r == nil {
		return
	}

	jwtSvc := jwt.NewHMACService(cfg.Auth.Secret)
	authMw := middleware.NewAuthMiddleware(jwtSvc)

	postingRepo := persistence.NewPostingRepository(db)
	applicationRepo := persistence.NewApplicationRepository(db)
	negotiationRepo := persistence.NewNegotiationRepository(db)

	postingUC := postinguc.NewService(postingRepo, applicationRepo, feed, logger)
	applicationUC := appuc.NewService(applicationRepo, postingRepo, negotiationRepo, feed, logger)
	negotiationUC := neguc.NewService(negotiationRepo, applicationRepo, postingRepo, feed, logger)

	postingHandler := handler.NewPostingHandler(postingUC)
	applicationHandler := handler.NewApplicationHandler(applicationUC)
	negotiationHandler := handler.NewNegotiationHandler(negotiationUC)

	protected := r.Group("", authMw.Middleware())

	jobs := protected.Group("/jobs")
	postingHandler.RegisterRoutes(jobs)
	applicationHandler.RegisterJobRoutes(jobs)

	applications := protected.Group("/applications")
	applicationHandler.RegisterRoutes(applications)
	negotiationHandler.RegisterRoutes(applications)
}
