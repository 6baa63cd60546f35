package service

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/repository"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// AdminAnalyticsService aggregates appraisal progress for the admin dashboard.
type AdminAnalyticsService interface {
	GetSummary(ctx context.Context, academicYear string) (dto.AdminAnalyticsResponse, error)
}

type adminAnalyticsService struct {
	repo     repository.AdminAnalyticsRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAdminAnalyticsService constructs the analytics service.
func NewAdminAnalyticsService(repo repository.AdminAnalyticsRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) AdminAnalyticsService {
	return &adminAnalyticsService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "admin_analytics_service").Logger(),
		now:      time.Now,
	}
}

func (s *adminAnalyticsService) GetSummary(ctx context.Context, academicYear string) (dto.AdminAnalyticsResponse, error) {
	academicYear = strings.TrimSpace(academicYear)
	cacheKey := "analytics:appraisals:all"
	if academicYear != "" {
		cacheKey = "analytics:appraisals:" + academicYear
	}

	tracer := otel.Tracer("github.com/noah-isme/appraisal-go-api/internal/service/admin_analytics")
	ctx, span := tracer.Start(ctx, "analytics.aggregate")
	span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.AdminAnalyticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read analytics cache")
			span.RecordError(err)
		}
	}

	counts, err := s.repo.CountByStatus(ctx, academicYear)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_by_status_failed")
		return dto.AdminAnalyticsResponse{}, err
	}

	rows, err := s.repo.ListScoreRows(ctx, academicYear)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list_score_rows_failed")
		return dto.AdminAnalyticsResponse{}, err
	}

	summary := s.buildSummary(academicYear, counts, rows)
	span.SetAttributes(
		attribute.Int64("analytics.in_review", summary.InReview),
		attribute.Int("analytics.appraisal_count", len(rows)),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store analytics cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

func (s *adminAnalyticsService) buildSummary(academicYear string, counts map[workflow.State]int64, rows []repository.AppraisalScoreRow) dto.AdminAnalyticsResponse {
	now := s.now()

	statusCounts := make(map[string]int64, len(workflow.States()))
	var inReview int64
	for _, state := range workflow.States() {
		count := counts[state]
		statusCounts[string(state)] = count
		if state != workflow.StateDraft && !state.IsTerminal() {
			inReview += count
		}
	}

	distribution := dto.ScoreDistributionResponse{
		"75-100": 0,
		"50-74":  0,
		"25-49":  0,
		"0-24":   0,
	}

	type departmentTotals struct {
		appraisals int64
		finalized  int64
		scored     int64
		scoreSum   float64
	}
	departments := map[uint]*departmentTotals{}

	weekly := map[time.Time]int64{}
	cutoff := now.AddDate(0, 0, -56)

	for _, row := range rows {
		totals, ok := departments[row.DepartmentID]
		if !ok {
			totals = &departmentTotals{}
			departments[row.DepartmentID] = totals
		}
		totals.appraisals++
		if row.Status == workflow.StateFinalized {
			totals.finalized++
		}

		if row.TotalScore != nil {
			score := *row.TotalScore
			totals.scored++
			totals.scoreSum += score
			switch {
			case score >= 75:
				distribution["75-100"]++
			case score >= 50:
				distribution["50-74"]++
			case score >= 25:
				distribution["25-49"]++
			default:
				distribution["0-24"]++
			}
		}

		if row.SubmittedAt != nil && row.SubmittedAt.After(cutoff) {
			weekly[startOfWeek(*row.SubmittedAt)]++
		}
	}

	departmentIDs := make([]uint, 0, len(departments))
	for id := range departments {
		departmentIDs = append(departmentIDs, id)
	}
	sort.Slice(departmentIDs, func(i, j int) bool { return departmentIDs[i] < departmentIDs[j] })

	summaries := make([]dto.DepartmentSummary, 0, len(departmentIDs))
	for _, id := range departmentIDs {
		totals := departments[id]
		summary := dto.DepartmentSummary{
			DepartmentID: id,
			Appraisals:   totals.appraisals,
			Finalized:    totals.finalized,
		}
		if totals.scored > 0 {
			summary.AverageScore = math.Round(totals.scoreSum/float64(totals.scored)*100) / 100
		}
		summaries = append(summaries, summary)
	}

	weeks := make([]time.Time, 0, len(weekly))
	for week := range weekly {
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	submissions := make([]dto.WeeklySubmissionPoint, 0, len(weeks))
	for _, week := range weeks {
		submissions = append(submissions, dto.WeeklySubmissionPoint{WeekStart: week, Submissions: weekly[week]})
	}

	return dto.AdminAnalyticsResponse{
		AcademicYear:      academicYear,
		StatusCounts:      statusCounts,
		InReview:          inReview,
		Finalized:         counts[workflow.StateFinalized],
		Departments:       summaries,
		ScoreDistribution: distribution,
		WeeklySubmissions: submissions,
		GeneratedAt:       now,
		CacheHit:          false,
	}
}

func startOfWeek(t time.Time) time.Time {
	utc := t.UTC()
	weekday := int(utc.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	start := utc.AddDate(0, 0, -(weekday - 1))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}
