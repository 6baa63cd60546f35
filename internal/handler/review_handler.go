package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/service"
	"github.com/noah-isme/appraisal-go-api/internal/utils"
)

// ReviewHandler exposes the reviewer endpoints for department heads and the principal.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register attaches review routes to the router group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("", h.queue)
	router.Post("/:id/start", h.start)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/return", h.sendBack)
	router.Post("/:id/finalize", h.finalize)
	router.Patch("/:id/verified-grading", h.grading)
	router.Post("/:id/recalculate", h.recalculate)
	router.Get("/:id/history", h.history)
}

func (h *ReviewHandler) queue(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	response, err := h.service.Queue(c.UserContext(), actorFromContext(c), dto.ReviewQueueRequest{
		Page:         page,
		PageSize:     pageSize,
		Status:       strings.TrimSpace(c.Query("status")),
		AcademicYear: strings.TrimSpace(c.Query("academic_year")),
	})
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to load review queue")
	}
	return utils.SendSuccess(c, "review queue", response)
}

func (h *ReviewHandler) start(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	response, err := h.service.StartReview(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to start review")
	}
	return utils.SendSuccess(c, "review started", response)
}

func (h *ReviewHandler) approve(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	var payload dto.ReviewApproveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	response, err := h.service.Approve(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to approve appraisal")
	}
	return utils.SendSuccess(c, "appraisal approved", response)
}

func (h *ReviewHandler) sendBack(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	var payload dto.ReviewReturnRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Return(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to return appraisal")
	}
	return utils.SendSuccess(c, "appraisal returned", response)
}

func (h *ReviewHandler) finalize(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	response, err := h.service.Finalize(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to finalize appraisal")
	}
	return utils.SendSuccess(c, "appraisal finalized", response)
}

func (h *ReviewHandler) grading(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	var payload dto.VerifiedGradingRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.UpdateVerifiedGrading(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to update verified grading")
	}
	return utils.SendSuccess(c, "verified grading updated", response)
}

func (h *ReviewHandler) recalculate(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	response, err := h.service.Recalculate(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to recalculate score")
	}
	return utils.SendSuccess(c, "score recalculated", response)
}

func (h *ReviewHandler) history(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	response, err := h.service.History(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to load approval history")
	}
	return utils.SendSuccess(c, "approval history", response)
}
