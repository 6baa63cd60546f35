package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/appraisal-go-api/internal/middleware"
	"github.com/noah-isme/appraisal-go-api/internal/repository"
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/service"
	"github.com/noah-isme/appraisal-go-api/internal/utils"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func uintLocal(c *fiber.Ctx, key string) uint {
	if v := c.Locals(key); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{
		ID:   uintLocal(c, "user_id"),
		Role: userRoleFromContext(c),
	}
	if department := uintLocal(c, "department_id"); department > 0 {
		actor.DepartmentID = &department
	}
	return actor
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// writeWorkflowError maps service and core errors onto the response envelope.
func writeWorkflowError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	var scoringErr *scoring.ValidationError
	var transitionErr *workflow.InvalidTransitionError

	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &scoringErr):
		return utils.Fail(c, fiber.StatusUnprocessableEntity, scoringErr.Error(), scoringErr)
	case errors.As(err, &transitionErr):
		return utils.Fail(c, fiber.StatusConflict, transitionErr.Error(), fiber.Map{
			"current":   transitionErr.Current,
			"requested": transitionErr.Requested,
		})
	case errors.Is(err, scoring.ErrUnknownFormType),
		errors.Is(err, workflow.ErrUnknownState),
		errors.Is(err, service.ErrRemarksRequired),
		errors.Is(err, service.ErrDepartmentUnassigned):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAppraisalNotFound),
		errors.Is(err, service.ErrScoreNotFound),
		errors.Is(err, service.ErrFacultyNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbiddenTransition),
		errors.Is(err, service.ErrSelfApproval),
		errors.Is(err, service.ErrOutsideDepartment),
		errors.Is(err, service.ErrAppraisalForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAppraisalFinalized),
		errors.Is(err, service.ErrDuplicateAppraisal),
		errors.Is(err, service.ErrAppraisalLocked),
		errors.Is(err, service.ErrGradingClosed),
		errors.Is(err, repository.ErrStaleStatus):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Msg(fallback)
		return utils.SendError(c, fiber.StatusInternalServerError, fallback)
	}
}
