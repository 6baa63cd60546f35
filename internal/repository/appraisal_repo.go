package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// ErrStaleStatus is returned when a conditional status update finds the
// appraisal no longer in the expected state.
var ErrStaleStatus = errors.New("appraisal status changed concurrently")

// AppraisalFilter narrows appraisal list queries.
type AppraisalFilter struct {
	FacultyID    *uint
	DepartmentID *uint
	IsSelfReview *bool
	FormType     scoring.FormType
	AcademicYear string
	Statuses     []workflow.State
	Page         int
	PageSize     int

	// SelfReviewStatuses, when set, also matches self-review appraisals in
	// these statuses; Statuses then applies only to regular appraisals.
	SelfReviewStatuses []workflow.State
}

// AppraisalPeriod identifies the submission slot of one faculty member.
type AppraisalPeriod struct {
	FacultyID    uint
	FormType     scoring.FormType
	IsSelfReview bool
	AcademicYear string
	Semester     string
}

// AppraisalRepository persists appraisal records.
type AppraisalRepository interface {
	Create(ctx context.Context, appraisal *models.Appraisal) error
	Save(ctx context.Context, appraisal *models.Appraisal) error
	GetByID(ctx context.Context, id uint) (models.Appraisal, error)
	FindByPeriod(ctx context.Context, period AppraisalPeriod) ([]models.Appraisal, error)
	List(ctx context.Context, filter AppraisalFilter) ([]models.Appraisal, int64, error)
	TransitionStatus(ctx context.Context, id uint, from, to workflow.State, updates map[string]interface{}) error
}

type appraisalRepository struct {
	db *gorm.DB
}

// NewAppraisalRepository constructs the appraisal repository.
func NewAppraisalRepository(db *gorm.DB) AppraisalRepository {
	return &appraisalRepository{db: db}
}

func (r *appraisalRepository) Create(ctx context.Context, appraisal *models.Appraisal) error {
	return r.db.WithContext(ctx).Create(appraisal).Error
}

func (r *appraisalRepository) Save(ctx context.Context, appraisal *models.Appraisal) error {
	return r.db.WithContext(ctx).Save(appraisal).Error
}

func (r *appraisalRepository) GetByID(ctx context.Context, id uint) (models.Appraisal, error) {
	var appraisal models.Appraisal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&appraisal).Error; err != nil {
		return models.Appraisal{}, err
	}
	return appraisal, nil
}

func (r *appraisalRepository) FindByPeriod(ctx context.Context, period AppraisalPeriod) ([]models.Appraisal, error) {
	query := r.db.WithContext(ctx).
		Where("faculty_id = ?", period.FacultyID).
		Where("form_type = ?", period.FormType).
		Where("is_self_review = ?", period.IsSelfReview).
		Where("academic_year = ?", period.AcademicYear).
		Where("semester = ?", period.Semester)

	var appraisals []models.Appraisal
	if err := query.Order("created_at DESC").Order("id DESC").Find(&appraisals).Error; err != nil {
		return nil, err
	}
	return appraisals, nil
}

func (r *appraisalRepository) List(ctx context.Context, filter AppraisalFilter) ([]models.Appraisal, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Appraisal{})

	if filter.FacultyID != nil {
		query = query.Where("faculty_id = ?", *filter.FacultyID)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.IsSelfReview != nil {
		query = query.Where("is_self_review = ?", *filter.IsSelfReview)
	}
	if filter.FormType != "" {
		query = query.Where("form_type = ?", filter.FormType)
	}
	if filter.AcademicYear != "" {
		query = query.Where("academic_year = ?", filter.AcademicYear)
	}
	switch {
	case len(filter.SelfReviewStatuses) > 0:
		query = query.Where(
			"(is_self_review = ? AND status IN ?) OR (is_self_review = ? AND status IN ?)",
			false, nonEmptyStates(filter.Statuses), true, filter.SelfReviewStatuses,
		)
	case len(filter.Statuses) > 0:
		query = query.Where("status IN ?", filter.Statuses)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var appraisals []models.Appraisal
	if err := query.Order("updated_at DESC").Order("id DESC").Find(&appraisals).Error; err != nil {
		return nil, 0, err
	}

	return appraisals, total, nil
}

// TransitionStatus moves the appraisal from one status to another only when it
// is still in the from status. Extra column updates are applied in the same
// statement.
func (r *appraisalRepository) TransitionStatus(ctx context.Context, id uint, from, to workflow.State, updates map[string]interface{}) error {
	values := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["status"] = to

	result := r.db.WithContext(ctx).Model(&models.Appraisal{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Appraisal{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return ErrStaleStatus
	}
	return nil
}

func nonEmptyStates(states []workflow.State) []workflow.State {
	if len(states) == 0 {
		return []workflow.State{""}
	}
	return states
}
