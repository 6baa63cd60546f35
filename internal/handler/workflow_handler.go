package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/utils"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// WorkflowHandler answers questions about the appraisal state machine.
type WorkflowHandler struct {
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewWorkflowHandler constructs the handler.
func NewWorkflowHandler(validate *validator.Validate, logger zerolog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		validator: validate,
		logger:    logger.With().Str("component", "workflow_handler").Logger(),
	}
}

// Register attaches workflow routes to the router group.
func (h *WorkflowHandler) Register(router fiber.Router) {
	router.Get("/states", h.states)
	router.Post("/check", h.check)
}

func (h *WorkflowHandler) states(c *fiber.Ctx) error {
	states := workflow.States()
	response := make([]dto.WorkflowStateResponse, 0, len(states))
	for _, state := range states {
		response = append(response, dto.WorkflowStateResponse{
			State:    state,
			Terminal: state.IsTerminal(),
			Allowed:  workflow.Allowed(state),
		})
	}
	return utils.SendSuccess(c, "workflow states", response)
}

func (h *WorkflowHandler) check(c *fiber.Ctx) error {
	var payload dto.WorkflowCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	current, err := workflow.ParseState(payload.Current)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to check transition")
	}
	requested, err := workflow.ParseState(payload.Requested)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to check transition")
	}

	next, err := workflow.Transition(current, requested)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to check transition")
	}
	return utils.SendSuccess(c, "transition allowed", dto.WorkflowCheckResponse{Current: current, Next: next})
}
