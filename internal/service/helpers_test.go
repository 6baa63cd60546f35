package service

import (
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type workflowFixture struct {
	db         *gorm.DB
	redis      *redis.Client
	appraisals AppraisalService
	reviews    ReviewService
	scores     ScoreService
	seed       SeedService

	departmentID      uint
	otherDepartmentID uint

	faculty   Actor
	hod       Actor
	principal Actor
	otherHOD  Actor
	admin     Actor
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
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

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	computer := models.Department{Name: "Computer Engineering"}
	mechanical := models.Department{Name: "Mechanical Engineering"}
	require.NoError(t, db.Create(&computer).Error)
	require.NoError(t, db.Create(&mechanical).Error)

	people := []models.Faculty{
		{ID: 1, Name: "Asha Kulkarni", Email: "asha@college.edu", Designation: "Assistant Professor", DepartmentID: &computer.ID, Role: models.RoleFaculty},
		{ID: 2, Name: "Ravi Deshmukh", Email: "ravi@college.edu", Designation: "Professor", DepartmentID: &computer.ID, Role: models.RoleHOD},
		{ID: 3, Name: "Meera Joshi", Email: "meera@college.edu", Designation: "Principal", Role: models.RolePrincipal},
		{ID: 4, Name: "Sunil Patil", Email: "sunil@college.edu", Designation: "Professor", DepartmentID: &mechanical.ID, Role: models.RoleHOD},
	}
	require.NoError(t, db.Create(&people).Error)
	require.NoError(t, db.Model(&computer).Update("hod_id", 2).Error)
	require.NoError(t, db.Model(&mechanical).Update("hod_id", 4).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := testLogger()

	repos := repository.NewRepositories(db)
	facultyRepo := repository.NewFacultyRepository(db)
	tx := repository.NewTransactor(db)
	activity := NewActivityService(repository.NewActivityLogRepository(db), logger)
	scores := NewScoreService(repos.Scores, client, time.Minute, validate, logger)
	publisher := NewWorkflowEventPublisher(client, nil, "appraisal-test", logger)

	computerID := computer.ID
	mechanicalID := mechanical.ID

	return &workflowFixture{
		db:                db,
		redis:             client,
		appraisals:        NewAppraisalService(tx, repos.Appraisals, facultyRepo, scores, activity, publisher, validate, logger),
		reviews:           NewReviewService(tx, repos, scores, activity, publisher, validate, logger),
		scores:            scores,
		seed:              NewSeedService(facultyRepo, validate, true, "seed-secret", logger),
		departmentID:      computerID,
		otherDepartmentID: mechanicalID,
		faculty:           Actor{ID: 1, Role: models.RoleFaculty, DepartmentID: &computerID},
		hod:               Actor{ID: 2, Role: models.RoleHOD, DepartmentID: &computerID},
		principal:         Actor{ID: 3, Role: models.RolePrincipal},
		otherHOD:          Actor{ID: 4, Role: models.RoleHOD, DepartmentID: &mechanicalID},
		admin:             Actor{ID: 99, Role: models.RoleAdmin},
	}
}

func teachingOnlyForm(scheduled, held int) map[string]interface{} {
	return map[string]interface{}{
		"teaching": map[string]interface{}{
			"scheduled": scheduled,
			"held":      held,
		},
	}
}
