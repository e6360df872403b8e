package handler

import (
	"context"

	"denta-link/internal/delivery/http/dto"
	"denta-link/internal/delivery/http/middleware"
	"denta-link/internal/domain/negotiation"
	"denta-link/internal/pkg/authz"
	"denta-link/internal/pkg/response"
	neguc "denta-link/internal/usecase/negotiation"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type NegotiationUsecase interface {
	Respond(ctx context.Context, actor authz.Actor, applicationID, negotiationID uuid.UUID, in neguc.RespondInput) (neguc.RespondResult, error)
	ListByApplication(ctx context.Context, actor authz.Actor, applicationID uuid.UUID) ([]negotiation.Negotiation, error)
}

type NegotiationHandler struct {
	uc NegotiationUsecase
}

func NewNegotiationHandler(uc NegotiationUsecase) *NegotiationHandler {
	return &NegotiationHandler{uc: uc}
}

// RegisterRoutes mounts under /applications.
func (h *NegotiationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/:applicationID/negotiations", h.List)
	r.Post("/:applicationID/negotiations/:negotiationID/respond", h.Respond)
}

type respondRequest struct {
	Response string `json:"response"`
	Message  string `json:"message"`

	CounterSalaryMin              *float64 `json:"counterSalaryMin"`
	CounterSalaryMax              *float64 `json:"counterSalaryMax"`
	ClinicCounterHourlyRate       *float64 `json:"clinicCounterHourlyRate"`
	ProfessionalCounterHourlyRate *float64 `json:"professionalCounterHourlyRate"`
}

func (h *NegotiationHandler) Respond(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	applicationID, err := uuid.Parse(c.Params("applicationID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid application id", nil, err)
	}
	negotiationID, err := uuid.Parse(c.Params("negotiationID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid negotiation id", nil, err)
	}

	var req respondRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	res, err := h.uc.Respond(c.Context(), actor, applicationID, negotiationID, neguc.RespondInput{
		Response:                      req.Response,
		Message:                       req.Message,
		CounterSalaryMin:              req.CounterSalaryMin,
		CounterSalaryMax:              req.CounterSalaryMax,
		ClinicCounterHourlyRate:       req.ClinicCounterHourlyRate,
		ProfessionalCounterHourlyRate: req.ProfessionalCounterHourlyRate,
	})
	if err != nil {
		return err
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.RespondResponse{
		Actor:              string(res.Actor),
		Response:           string(res.Response),
		ApplicationStatus:  string(res.ApplicationStatus),
		AcceptedHourlyRate: res.AcceptedHourlyRate,
	})
}

func (h *NegotiationHandler) List(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	applicationID, err := uuid.Parse(c.Params("applicationID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid application id", nil, err)
	}

	items, err := h.uc.ListByApplication(c.Context(), actor, applicationID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromNegotiations(items))
}
