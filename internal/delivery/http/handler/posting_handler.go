package handler

import (
	"context"
	"time"

	"denta-link/internal/delivery/http/dto"
	"denta-link/internal/delivery/http/middleware"
	"denta-link/internal/domain/posting"
	"denta-link/internal/pkg/authz"
	"denta-link/internal/pkg/response"
	postinguc "denta-link/internal/usecase/posting"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PostingUsecase interface {
	Create(ctx context.Context, actor authz.Actor, in postinguc.CreateInput) (posting.Posting, error)
	Get(ctx context.Context, actor authz.Actor, jobID uuid.UUID) (posting.Posting, error)
	ListByClinic(ctx context.Context, actor authz.Actor) ([]posting.Posting, error)
	History(ctx context.Context, actor authz.Actor, jobID uuid.UUID) ([]posting.HistoryEntry, error)
	Transition(ctx context.Context, actor authz.Actor, jobID uuid.UUID, in postinguc.TransitionInput) (postinguc.TransitionResult, error)
	Delete(ctx context.Context, actor authz.Actor, kind string, jobID uuid.UUID) (postinguc.CascadeResult, error)
}

type PostingHandler struct {
	uc PostingUsecase
}

func NewPostingHandler(uc PostingUsecase) *PostingHandler {
	return &PostingHandler{uc: uc}
}

func (h *PostingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/:jobID", h.Get)
	r.Get("/:jobID/history", h.History)
	r.Patch("/:jobID/status", h.Transition)
	r.Delete("/:kind/:jobID", h.Delete)
}

type createPostingRequest struct {
	Kind       string   `json:"kind"`
	Title      string   `json:"title"`
	HourlyRate *float64 `json:"hourlyRate"`
	SalaryMin  *float64 `json:"salaryMin"`
	SalaryMax  *float64 `json:"salaryMax"`
}

func (h *PostingHandler) Create(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req createPostingRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	p, err := h.uc.Create(c.Context(), actor, postinguc.CreateInput{
		Kind:       req.Kind,
		Title:      req.Title,
		HourlyRate: req.HourlyRate,
		SalaryMin:  req.SalaryMin,
		SalaryMax:  req.SalaryMax,
	})
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusCreated, response.MessageOK, dto.FromPosting(p))
}

func (h *PostingHandler) List(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	items, err := h.uc.ListByClinic(c.Context(), actor)
	if err != nil {
		return err
	}

	out := make([]dto.PostingResponse, 0, len(items))
	for _, p := range items {
		out = append(out, dto.FromPosting(p))
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *PostingHandler) Get(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	jobID, err := uuid.Parse(c.Params("jobID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	p, err := h.uc.Get(c.Context(), actor, jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromPosting(p))
}

func (h *PostingHandler) History(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	jobID, err := uuid.Parse(c.Params("jobID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	entries, err := h.uc.History(c.Context(), actor, jobID)
	if err != nil {
		return err
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.FromHistory(entries))
}

type transitionRequest struct {
	Status               string     `json:"status"`
	Notes                string     `json:"notes"`
	AcceptedProfessional *uuid.UUID `json:"acceptedProfessionalUserSub"`
	ScheduledDate        *time.Time `json:"scheduledDate"`
	CompletionNotes      string     `json:"completionNotes"`
}

func (h *PostingHandler) Transition(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	jobID, err := uuid.Parse(c.Params("jobID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	var req transitionRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid request payload", nil, err)
	}

	res, err := h.uc.Transition(c.Context(), actor, jobID, postinguc.TransitionInput{
		Status:                 req.Status,
		Notes:                  req.Notes,
		AcceptedProfessionalID: req.AcceptedProfessional,
		ScheduledDate:          req.ScheduledDate,
		CompletionNotes:        req.CompletionNotes,
	})
	if err != nil {
		return err
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.TransitionResponse{
		PreviousStatus: string(res.PreviousStatus),
		NewStatus:      string(res.NewStatus),
		UpdatedAt:      res.UpdatedAt,
	})
}

func (h *PostingHandler) Delete(c fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	jobID, err := uuid.Parse(c.Params("jobID"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid job id", nil, err)
	}

	res, err := h.uc.Delete(c.Context(), actor, c.Params("kind"), jobID)
	if err != nil {
		return err
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.CascadeResponse{
		AffectedApplications: res.AffectedApplications,
		ApplicationHandling:  res.ApplicationHandling,
	})
}
