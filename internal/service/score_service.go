package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/observability"
	"github.com/noah-isme/appraisal-go-api/internal/repository"
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
)

// ErrScoreNotFound indicates the appraisal has not been scored yet.
var ErrScoreNotFound = errors.New("appraisal score not found")

// ScoreService previews scores and serves stored breakdowns.
type ScoreService interface {
	Preview(ctx context.Context, req dto.ScorePreviewRequest) (scoring.Breakdown, error)
	Get(ctx context.Context, appraisalID uint) (dto.ScoreResponse, error)
	Invalidate(ctx context.Context, appraisalID uint)
	Catalog() dto.ScoringCatalogResponse
}

type scoreService struct {
	scores    repository.AppraisalScoreRepository
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewScoreService constructs the score service. cache may be nil.
func NewScoreService(scores repository.AppraisalScoreRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) ScoreService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &scoreService{
		scores:    scores,
		cache:     cache,
		ttl:       ttl,
		validator: validate,
		logger:    logger.With().Str("component", "score_service").Logger(),
	}
}

func (s *scoreService) Preview(ctx context.Context, req dto.ScorePreviewRequest) (scoring.Breakdown, error) {
	if err := s.validator.Struct(req); err != nil {
		return scoring.Breakdown{}, err
	}
	formType, err := scoring.ParseFormType(req.FormType)
	if err != nil {
		return scoring.Breakdown{}, err
	}
	return scoring.Evaluate(req.FormData, formType)
}

func (s *scoreService) Get(ctx context.Context, appraisalID uint) (dto.ScoreResponse, error) {
	key := scoreCacheKey(appraisalID)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil && cached != "" {
			var response dto.ScoreResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				observability.ScoreCacheLookups().WithLabelValues("hit").Inc()
				return response, nil
			}
		}
	}

	model, err := s.scores.GetByAppraisalID(ctx, appraisalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreResponse{}, ErrScoreNotFound
		}
		return dto.ScoreResponse{}, err
	}

	response := dto.NewScoreResponse(model)
	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("appraisal_id", appraisalID).Msg("failed to cache score")
			}
		}
	}
	observability.ScoreCacheLookups().WithLabelValues("miss").Inc()

	return response, nil
}

func (s *scoreService) Invalidate(ctx context.Context, appraisalID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, scoreCacheKey(appraisalID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("appraisal_id", appraisalID).Msg("failed to invalidate score cache")
	}
}

func (s *scoreService) Catalog() dto.ScoringCatalogResponse {
	categories := map[scoring.FormType][]scoring.Category{
		scoring.FormTypeSPPU: scoring.Categories(scoring.FormTypeSPPU),
		scoring.FormTypePBAS: scoring.Categories(scoring.FormTypePBAS),
	}
	return dto.ScoringCatalogResponse{
		Categories:    categories,
		Activities:    scoring.Catalog(),
		ResearchTypes: scoring.ResearchTypes(),
	}
}

func scoreCacheKey(appraisalID uint) string {
	return fmt.Sprintf("appraisal:score:v1:%d", appraisalID)
}

// computeScore evaluates the appraisal's form data into a storable score row.
func computeScore(appraisal models.Appraisal, now time.Time) (models.AppraisalScore, scoring.Breakdown, error) {
	breakdown, err := scoring.Evaluate(map[string]any(appraisal.FormData), appraisal.FormType)
	if err != nil {
		return models.AppraisalScore{}, scoring.Breakdown{}, err
	}

	payload, err := json.Marshal(breakdown)
	if err != nil {
		return models.AppraisalScore{}, scoring.Breakdown{}, err
	}

	score := models.AppraisalScore{
		AppraisalID:     appraisal.ID,
		FormType:        appraisal.FormType,
		TeachingScore:   breakdown.Score(scoring.CategoryTeaching),
		ActivityScore:   breakdown.Score(scoring.CategoryActivities),
		FeedbackScore:   breakdown.Score(scoring.CategoryFeedback),
		DepartmentScore: breakdown.Score(scoring.CategoryDepartmental),
		InstituteScore:  breakdown.Score(scoring.CategoryInstitute),
		SocietyScore:    breakdown.Score(scoring.CategorySociety),
		ACRScore:        breakdown.Score(scoring.CategoryACR),
		ResearchScore:   breakdown.Score(scoring.CategoryResearch),
		TotalScore:      breakdown.TotalScore,
		Breakdown:       datatypes.JSON(payload),
		CalculatedAt:    now,
	}
	observability.ScoreTotals().WithLabelValues(strings.ToLower(string(appraisal.FormType))).Observe(breakdown.TotalScore)
	return score, breakdown, nil
}
