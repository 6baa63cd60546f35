package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

func TestAppraisalRepositoryTransitionStatusIsConditional(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAppraisalRepository(db)
	ctx := context.Background()

	appraisal := newDraft(1, "2024-25")
	require.NoError(t, repo.Create(ctx, &appraisal))

	err := repo.TransitionStatus(ctx, appraisal.ID, workflow.StateDraft, workflow.StateSubmitted, map[string]interface{}{
		"remarks": "ready",
	})
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, appraisal.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StateSubmitted, stored.Status)
	require.Equal(t, "ready", stored.Remarks)

	err = repo.TransitionStatus(ctx, appraisal.ID, workflow.StateDraft, workflow.StateSubmitted, nil)
	require.ErrorIs(t, err, ErrStaleStatus)

	err = repo.TransitionStatus(ctx, 999, workflow.StateDraft, workflow.StateSubmitted, nil)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAppraisalRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAppraisalRepository(db)
	ctx := context.Background()

	first := newDraft(1, "2024-25")
	second := newDraft(2, "2024-25")
	second.Status = workflow.StateSubmitted
	third := newDraft(3, "2023-24")
	third.DepartmentID = 20
	third.Status = workflow.StateSubmitted
	for _, item := range []*models.Appraisal{&first, &second, &third} {
		require.NoError(t, repo.Create(ctx, item))
	}

	department := uint(10)
	items, total, err := repo.List(ctx, AppraisalFilter{
		DepartmentID: &department,
		Statuses:     []workflow.State{workflow.StateSubmitted, workflow.StateReviewedByHOD},
		PageSize:     10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	require.Equal(t, uint(2), items[0].FacultyID)

	items, total, err = repo.List(ctx, AppraisalFilter{AcademicYear: "2024-25", Page: 2, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 1)
}

func TestAppraisalRepositoryFindByPeriod(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAppraisalRepository(db)
	ctx := context.Background()

	draft := newDraft(7, "2024-25")
	require.NoError(t, repo.Create(ctx, &draft))
	other := newDraft(7, "2024-25")
	other.FormType = scoring.FormTypePBAS
	require.NoError(t, repo.Create(ctx, &other))

	found, err := repo.FindByPeriod(ctx, AppraisalPeriod{
		FacultyID:    7,
		FormType:     scoring.FormTypeSPPU,
		AcademicYear: "2024-25",
		Semester:     "ODD",
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, draft.ID, found[0].ID)
}

func TestApprovalHistoryUpsertKeepsLastActionPerRole(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalHistoryRepository(db)
	ctx := context.Background()

	actedAt := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &models.ApprovalHistory{
		AppraisalID: 5,
		Role:        models.ApprovalRoleHOD,
		Action:      models.ApprovalActionSentBack,
		FromState:   workflow.StateReviewedByHOD,
		ToState:     workflow.StateReturnedByHOD,
		ActorID:     2,
		Remarks:     "missing feedback",
		ActedAt:     actedAt,
	}))
	require.NoError(t, repo.Upsert(ctx, &models.ApprovalHistory{
		AppraisalID: 5,
		Role:        models.ApprovalRoleHOD,
		Action:      models.ApprovalActionApproved,
		FromState:   workflow.StateReviewedByHOD,
		ToState:     workflow.StateHODApproved,
		ActorID:     2,
		ActedAt:     actedAt.Add(time.Hour),
	}))
	require.NoError(t, repo.Upsert(ctx, &models.ApprovalHistory{
		AppraisalID: 5,
		Role:        models.ApprovalRolePrincipal,
		Action:      models.ApprovalActionApproved,
		FromState:   workflow.StateReviewedByPrincipal,
		ToState:     workflow.StatePrincipalApproved,
		ActorID:     3,
		ActedAt:     actedAt.Add(2 * time.Hour),
	}))

	entries, err := repo.ListByAppraisal(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, models.ApprovalRoleHOD, entries[0].Role)
	require.Equal(t, models.ApprovalActionApproved, entries[0].Action)
	require.Equal(t, workflow.StateHODApproved, entries[0].ToState)
	require.Empty(t, entries[0].Remarks)
	require.Equal(t, models.ApprovalRolePrincipal, entries[1].Role)
}

func TestAppraisalScoreUpsertPreservesVerifiedGrade(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAppraisalScoreRepository(db)
	ctx := context.Background()

	require.ErrorIs(t, repo.SetVerifiedGrade(ctx, 1, "Good"), gorm.ErrRecordNotFound)

	require.NoError(t, repo.Upsert(ctx, &models.AppraisalScore{
		AppraisalID:   1,
		FormType:      scoring.FormTypeSPPU,
		TeachingScore: 10,
		TotalScore:    10,
		Breakdown:     datatypes.JSON(`{"total_score":10}`),
		CalculatedAt:  time.Now(),
	}))
	require.NoError(t, repo.SetVerifiedGrade(ctx, 1, "Good"))

	require.NoError(t, repo.Upsert(ctx, &models.AppraisalScore{
		AppraisalID:   1,
		FormType:      scoring.FormTypeSPPU,
		TeachingScore: 7,
		ResearchScore: 8,
		TotalScore:    15,
		Breakdown:     datatypes.JSON(`{"total_score":15}`),
		CalculatedAt:  time.Now(),
	}))

	stored, err := repo.GetByAppraisalID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 15.0, stored.TotalScore)
	require.Equal(t, 7.0, stored.TeachingScore)
	require.Equal(t, "Good", stored.VerifiedGrade)

	var count int64
	require.NoError(t, db.Model(&models.AppraisalScore{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestTransactorRollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	transactor := NewTransactor(db)
	ctx := context.Background()

	appraisal := newDraft(1, "2024-25")
	require.NoError(t, NewAppraisalRepository(db).Create(ctx, &appraisal))

	boom := errors.New("boom")
	err := transactor.WithinTransaction(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.Appraisals.TransitionStatus(ctx, appraisal.ID, workflow.StateDraft, workflow.StateSubmitted, nil); err != nil {
			return err
		}
		if err := repos.History.Upsert(ctx, &models.ApprovalHistory{
			AppraisalID: appraisal.ID,
			Role:        models.ApprovalRoleHOD,
			Action:      models.ApprovalActionApproved,
			FromState:   workflow.StateReviewedByHOD,
			ToState:     workflow.StateHODApproved,
			ActorID:     2,
			ActedAt:     time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := NewAppraisalRepository(db).GetByID(ctx, appraisal.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StateDraft, stored.Status)

	entries, err := NewApprovalHistoryRepository(db).ListByAppraisal(ctx, appraisal.ID)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFacultyRepositoryDirectory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFacultyRepository(db)
	ctx := context.Background()

	affected, err := repo.UpsertDepartments(ctx, []models.Department{{Name: "Computer Engineering"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	var department models.Department
	require.NoError(t, db.Where("name = ?", "Computer Engineering").First(&department).Error)

	_, err = repo.UpsertFaculty(ctx, []models.Faculty{
		{Name: "Asha Rao", Email: "asha@example.edu", DepartmentID: &department.ID, Role: models.RoleHOD},
		{Name: "Vikram Shah", Email: "vikram@example.edu", Role: models.RolePrincipal},
	})
	require.NoError(t, err)

	_, err = repo.UpsertFaculty(ctx, []models.Faculty{
		{Name: "Asha Rao", Email: "asha@example.edu", Designation: "Professor", DepartmentID: &department.ID, Role: models.RoleHOD},
	})
	require.NoError(t, err)

	principal, err := repo.FindPrincipal(ctx)
	require.NoError(t, err)
	require.Equal(t, "Vikram Shah", principal.Name)

	var hod models.Faculty
	require.NoError(t, db.Where("email = ?", "asha@example.edu").First(&hod).Error)
	require.Equal(t, "Professor", hod.Designation)
	require.True(t, hod.IsHOD())

	fetched, err := repo.GetDepartment(ctx, department.ID)
	require.NoError(t, err)
	require.Equal(t, "Computer Engineering", fetched.Name)

	_, err = repo.GetByID(ctx, 999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestActivityLogRepositoryFiltersByEntity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	first, second := uint(1), uint(2)
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 4, ActorRole: "faculty", Action: models.ActivityActionSubmitted, EntityType: models.ActivityEntityAppraisal, EntityID: &first}))
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 5, ActorRole: "hod", Action: models.ActivityActionApproved, EntityType: models.ActivityEntityAppraisal, EntityID: &first}))
	require.NoError(t, repo.Create(ctx, &models.ActivityLog{ActorID: 4, ActorRole: "faculty", Action: models.ActivityActionSubmitted, EntityType: models.ActivityEntityAppraisal, EntityID: &second}))

	entries, total, err := repo.List(ctx, ActivityLogFilter{EntityID: &first, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, models.ActivityActionApproved, entries[0].Action, "expected newest entry first")

	_, total, err = repo.List(ctx, ActivityLogFilter{Action: models.ActivityActionSubmitted})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

func newDraft(facultyID uint, year string) models.Appraisal {
	return models.Appraisal{
		FacultyID:    facultyID,
		DepartmentID: 10,
		FormType:     scoring.FormTypeSPPU,
		AcademicYear: year,
		Semester:     "ODD",
		Status:       workflow.StateDraft,
		FormData:     datatypes.JSONMap{"teaching": map[string]interface{}{"scheduled": 100, "held": 90}},
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&models.Department{},
		&models.Faculty{},
		&models.Appraisal{},
		&models.AppraisalScore{},
		&models.ApprovalHistory{},
		&models.ActivityLog{},
	))
	return db
}
