package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/appraisal-go-api/internal/models"
)

// FacultyRepository reads and seeds the faculty directory.
type FacultyRepository interface {
	GetByID(ctx context.Context, id uint) (models.Faculty, error)
	GetDepartment(ctx context.Context, id uint) (models.Department, error)
	FindPrincipal(ctx context.Context) (models.Faculty, error)
	FindDepartmentsByName(ctx context.Context, names []string) ([]models.Department, error)
	FindFacultyByEmail(ctx context.Context, emails []string) ([]models.Faculty, error)
	UpsertDepartments(ctx context.Context, items []models.Department) (int64, error)
	UpsertFaculty(ctx context.Context, items []models.Faculty) (int64, error)
}

type facultyRepository struct {
	db *gorm.DB
}

// NewFacultyRepository constructs the faculty directory repository.
func NewFacultyRepository(db *gorm.DB) FacultyRepository {
	return &facultyRepository{db: db}
}

func (r *facultyRepository) GetByID(ctx context.Context, id uint) (models.Faculty, error) {
	var faculty models.Faculty
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&faculty).Error; err != nil {
		return models.Faculty{}, err
	}
	return faculty, nil
}

func (r *facultyRepository) GetDepartment(ctx context.Context, id uint) (models.Department, error) {
	var department models.Department
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&department).Error; err != nil {
		return models.Department{}, err
	}
	return department, nil
}

func (r *facultyRepository) FindPrincipal(ctx context.Context) (models.Faculty, error) {
	var principal models.Faculty
	err := r.db.WithContext(ctx).
		Where("role = ?", models.RolePrincipal).
		Order("id ASC").
		First(&principal).Error
	if err != nil {
		return models.Faculty{}, err
	}
	return principal, nil
}

func (r *facultyRepository) FindDepartmentsByName(ctx context.Context, names []string) ([]models.Department, error) {
	var departments []models.Department
	if len(names) == 0 {
		return departments, nil
	}
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&departments).Error; err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *facultyRepository) FindFacultyByEmail(ctx context.Context, emails []string) ([]models.Faculty, error) {
	var faculty []models.Faculty
	if len(emails) == 0 {
		return faculty, nil
	}
	if err := r.db.WithContext(ctx).Where("email IN ?", emails).Find(&faculty).Error; err != nil {
		return nil, err
	}
	return faculty, nil
}

func (r *facultyRepository) UpsertDepartments(ctx context.Context, items []models.Department) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"hod_id", "updated_at"}),
	})

	result := tx.Create(&items)
	return result.RowsAffected, result.Error
}

func (r *facultyRepository) UpsertFaculty(ctx context.Context, items []models.Faculty) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "designation", "department_id", "role", "updated_at"}),
	})

	result := tx.Create(&items)
	return result.RowsAffected, result.Error
}
