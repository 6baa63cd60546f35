package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/service"
	"github.com/noah-isme/appraisal-go-api/internal/utils"
)

// AppraisalHandler exposes the submitter's appraisal endpoints.
type AppraisalHandler struct {
	service service.AppraisalService
	logger  zerolog.Logger
}

// NewAppraisalHandler constructs the handler.
func NewAppraisalHandler(service service.AppraisalService, logger zerolog.Logger) *AppraisalHandler {
	return &AppraisalHandler{
		service: service,
		logger:  logger.With().Str("component", "appraisal_handler").Logger(),
	}
}

// Register attaches appraisal routes to the router group. submitter guards the
// routes that change an appraisal and may be nil.
func (h *AppraisalHandler) Register(router fiber.Router, submitter fiber.Handler) {
	write := func(handler fiber.Handler) []fiber.Handler {
		if submitter == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{submitter, handler}
	}

	router.Get("", h.list)
	router.Post("", write(h.save)...)
	router.Get("/:id", h.get)
	router.Put("/:id", write(h.update)...)
	router.Post("/:id/submit", write(h.submit)...)
	router.Get("/:id/score", h.score)
	router.Get("/:id/report", h.report)
}

func (h *AppraisalHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}

	req := dto.AppraisalListRequest{
		Page:         page,
		PageSize:     pageSize,
		Status:       strings.TrimSpace(c.Query("status")),
		AcademicYear: strings.TrimSpace(c.Query("academic_year")),
	}

	response, err := h.service.List(c.UserContext(), actorFromContext(c), req)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to list appraisals")
	}
	return utils.SendSuccess(c, "appraisals", response)
}

func (h *AppraisalHandler) save(c *fiber.Ctx) error {
	var payload dto.AppraisalSaveRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Save(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to save appraisal")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "appraisal saved", response)
}

func (h *AppraisalHandler) get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	response, err := h.service.Get(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to load appraisal")
	}
	return utils.SendSuccess(c, "appraisal", response)
}

func (h *AppraisalHandler) update(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	var payload dto.AppraisalUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Update(c.UserContext(), actorFromContext(c), id, payload)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to update appraisal")
	}
	return utils.SendSuccess(c, "appraisal updated", response)
}

func (h *AppraisalHandler) submit(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	response, err := h.service.Submit(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to submit appraisal")
	}
	return utils.SendSuccess(c, "appraisal submitted", response)
}

func (h *AppraisalHandler) score(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	response, err := h.service.Score(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to load score")
	}
	return utils.SendSuccess(c, "appraisal score", response)
}

func (h *AppraisalHandler) report(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid appraisal id")
	}

	response, err := h.service.Report(c.UserContext(), actorFromContext(c), id)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to build report")
	}
	return utils.SendSuccess(c, "appraisal report", response)
}
