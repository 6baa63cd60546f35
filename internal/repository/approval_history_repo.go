package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/appraisal-go-api/internal/models"
)

// ApprovalHistoryRepository records the latest decision of each reviewing role.
type ApprovalHistoryRepository interface {
	Upsert(ctx context.Context, entry *models.ApprovalHistory) error
	ListByAppraisal(ctx context.Context, appraisalID uint) ([]models.ApprovalHistory, error)
}

type approvalHistoryRepository struct {
	db *gorm.DB
}

// NewApprovalHistoryRepository constructs the approval history repository.
func NewApprovalHistoryRepository(db *gorm.DB) ApprovalHistoryRepository {
	return &approvalHistoryRepository{db: db}
}

// Upsert keeps one row per (appraisal, role); a later action by the same role
// overwrites the earlier one.
func (r *approvalHistoryRepository) Upsert(ctx context.Context, entry *models.ApprovalHistory) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "appraisal_id"}, {Name: "role"}},
		DoUpdates: clause.AssignmentColumns([]string{"action", "from_state", "to_state", "actor_id", "remarks", "acted_at", "updated_at"}),
	}).Create(entry).Error
}

func (r *approvalHistoryRepository) ListByAppraisal(ctx context.Context, appraisalID uint) ([]models.ApprovalHistory, error) {
	var entries []models.ApprovalHistory
	err := r.db.WithContext(ctx).
		Where("appraisal_id = ?", appraisalID).
		Order("acted_at ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
