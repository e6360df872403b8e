package handler

import (
	"context"

	"denta-link/internal/delivery/http/dto"
	"denta-link/internal/delivery/http/middleware"
	"denta-link/internal/domain/application"
	"denta-link/internal/pkg/authz"
	"denta-link/internal/pkg/response"
	appuc "denta-link/internal/usecase/application"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ApplicationUsecase interface {
	Apply(ctx context.Context, actor authz.Actor, jobID uuid.UUID, in appuc.ApplyInput) (appuc.ApplyResult, error)
	Withdraw(ctx context.Context, actor authz.Actor, applicationID uuid.UUID) (application.Application, error)
	Reject(ctx context.Context, actor authz.Actor, applicationID uuid.UUID) (application.Application, error)
	ListByJob(ctx context.Context, actor authz.Actor, jobID uuid.UUID) ([]application.Application, error)
	ListMine(ctx context.Context, actor authz.Actor) ([]application.Application, error)
}

type ApplicationHandler struct {
	uc ApplicationUsecase
}

func NewApplicationHandler(uc ApplicationUsecase) *ApplicationHandler {
	return &ApplicationHandler{uc: uc}
}

// RegisterJobRoutes mounts the posting-scoped endpoints.
func (h *ApplicationHandler) RegisterJobRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/:jobID/applications", h.Apply)
	r.Get("/:jobID/applications", h.ListByJob)
}

// RegisterRoutes mounts the application-scoped endpoints.
func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.ListMine)
	r.Post("/:applicationID/withdraw", h.Withdraw)
	r.Post("/:applicationID/reject", h.Reject)
}

type applyRequest struct {
	ProposedHourlyRate *float64 `json:"proposedHourlyRate"`
	CounterSalaryMin   *float64 `json:"counterSalaryMin"`
	CounterSalaryMax   *float64 `json:"counterSalaryMax"`
}

func (h *ApplicationHandler) Apply(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	jobID, err := uuid.Parse(c.Params("jobID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	var req applyRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	res, err := h.uc.Apply(c.Context(), actor, jobID, appuc.ApplyInput{
		ProposedHourlyRate: req.ProposedHourlyRate,
		CounterSalaryMin:   req.CounterSalaryMin,
		CounterSalaryMax:   req.CounterSalaryMax,
	})
	if err != nil {
		return err
	}

	out := dto.ApplyResponse{Application: dto.FromApplication(res.Application)}
	if res.Negotiation != nil {
		n := dto.FromNegotiation(*res.Negotiation)
		out.Negotiation = &n
	}
	return response.Success(c, fiber.StatusCreated, response.MessageOK, out)
}

func (h *ApplicationHandler) ListByJob(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	jobID, err := uuid.Parse(c.Params("jobID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	items, err := h.uc.ListByJob(c.Context(), actor, jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromApplications(items))
}

func (h *ApplicationHandler) ListMine(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	items, err := h.uc.ListMine(c.Context(), actor)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromApplications(items))
}

func (h *ApplicationHandler) Withdraw(c fiber.Ctx) error {
	return h.closeApplication(c, h.uc.Withdraw)
}

func (h *ApplicationHandler) Reject(c fiber.Ctx) error {
	return h.closeApplication(c, h.uc.Reject)
}

func (h *ApplicationHandler) closeApplication(
	c fiber.Ctx,
	op func(context.Context, authz.Actor, uuid.UUID) (application.Application, error),
) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	applicationID, err := uuid.Parse(c.Params("applicationID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid application id", nil, err)
	}

	app, err := op(c.Context(), actor, applicationID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromApplication(app))
}
