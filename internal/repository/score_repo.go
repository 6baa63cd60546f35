package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/appraisal-go-api/internal/models"
)

// AppraisalScoreRepository stores the computed score of each appraisal.
type AppraisalScoreRepository interface {
	Upsert(ctx context.Context, score *models.AppraisalScore) error
	GetByAppraisalID(ctx context.Context, appraisalID uint) (models.AppraisalScore, error)
	SetVerifiedGrade(ctx context.Context, appraisalID uint, grade string) error
}

type appraisalScoreRepository struct {
	db *gorm.DB
}

// NewAppraisalScoreRepository constructs the score repository.
func NewAppraisalScoreRepository(db *gorm.DB) AppraisalScoreRepository {
	return &appraisalScoreRepository{db: db}
}

// Upsert writes the score keyed by appraisal. The verified grade is owned by
// reviewers and is left untouched on recalculation.
func (r *appraisalScoreRepository) Upsert(ctx context.Context, score *models.AppraisalScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "appraisal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"form_type",
			"teaching_score",
			"activity_score",
			"feedback_score",
			"department_score",
			"institute_score",
			"society_score",
			"acr_score",
			"research_score",
			"total_score",
			"breakdown",
			"calculated_at",
			"updated_at",
		}),
	}).Create(score).Error
}

func (r *appraisalScoreRepository) GetByAppraisalID(ctx context.Context, appraisalID uint) (models.AppraisalScore, error) {
	var score models.AppraisalScore
	if err := r.db.WithContext(ctx).Where("appraisal_id = ?", appraisalID).First(&score).Error; err != nil {
		return models.AppraisalScore{}, err
	}
	return score, nil
}

func (r *appraisalScoreRepository) SetVerifiedGrade(ctx context.Context, appraisalID uint, grade string) error {
	result := r.db.WithContext(ctx).Model(&models.AppraisalScore{}).
		Where("appraisal_id = ?", appraisalID).
		Update("verified_grade", grade)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
