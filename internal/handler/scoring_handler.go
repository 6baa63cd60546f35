package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/service"
	"github.com/noah-isme/appraisal-go-api/internal/utils"
)

// ScoringHandler exposes stateless scoring endpoints.
type ScoringHandler struct {
	service service.ScoreService
	logger  zerolog.Logger
}

// NewScoringHandler constructs the handler.
func NewScoringHandler(service service.ScoreService, logger zerolog.Logger) *ScoringHandler {
	return &ScoringHandler{
		service: service,
		logger:  logger.With().Str("component", "scoring_handler").Logger(),
	}
}

// Register attaches scoring routes. limiter guards the preview endpoint and may be nil.
func (h *ScoringHandler) Register(router fiber.Router, limiter fiber.Handler) {
	if limiter != nil {
		router.Post("/preview", limiter, h.preview)
	} else {
		router.Post("/preview", h.preview)
	}
	router.Get("/catalog", h.catalog)
}

func (h *ScoringHandler) preview(c *fiber.Ctx) error {
	var payload dto.ScorePreviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	breakdown, err := h.service.Preview(c.UserContext(), payload)
	if err != nil {
		return writeWorkflowError(c, h.logger, err, "failed to compute score")
	}
	return utils.SendSuccess(c, "score preview", breakdown)
}

func (h *ScoringHandler) catalog(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "scoring catalog", h.service.Catalog())
}
