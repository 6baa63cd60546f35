package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// AppraisalScoreRow is one appraisal joined with its stored total, if any.
type AppraisalScoreRow struct {
	AppraisalID  uint
	DepartmentID uint
	Status       workflow.State
	SubmittedAt  *time.Time
	TotalScore   *float64
}

// AdminAnalyticsRepository supplies data for the administrator dashboard.
type AdminAnalyticsRepository interface {
	CountByStatus(ctx context.Context, academicYear string) (map[workflow.State]int64, error)
	ListScoreRows(ctx context.Context, academicYear string) ([]AppraisalScoreRow, error)
}

type adminAnalyticsRepository struct {
	db *gorm.DB
}

// NewAdminAnalyticsRepository constructs the analytics repository.
func NewAdminAnalyticsRepository(db *gorm.DB) AdminAnalyticsRepository {
	return &adminAnalyticsRepository{db: db}
}

func (r *adminAnalyticsRepository) CountByStatus(ctx context.Context, academicYear string) (map[workflow.State]int64, error) {
	var rows []struct {
		Status workflow.State
		Total  int64
	}
	query := r.db.WithContext(ctx).
		Model(&models.Appraisal{}).
		Select("status, COUNT(*) AS total").
		Group("status")
	if academicYear != "" {
		query = query.Where("academic_year = ?", academicYear)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[workflow.State]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *adminAnalyticsRepository) ListScoreRows(ctx context.Context, academicYear string) ([]AppraisalScoreRow, error) {
	var rows []AppraisalScoreRow
	query := r.db.WithContext(ctx).
		Table("appraisals").
		Select("appraisals.id AS appraisal_id, appraisals.department_id, appraisals.status, appraisals.submitted_at, appraisal_scores.total_score").
		Joins("LEFT JOIN appraisal_scores ON appraisal_scores.appraisal_id = appraisals.id").
		Order("appraisals.id ASC")
	if academicYear != "" {
		query = query.Where("appraisals.academic_year = ?", academicYear)
	}
	err := query.Scan(&rows).Error
	return rows, err
}
