package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/appraisal-go-api/internal/models"
)

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ScoreDistributionResponse represents aggregated total-score buckets.
type ScoreDistributionResponse map[string]int64

// WeeklySubmissionPoint captures submissions per week.
type WeeklySubmissionPoint struct {
	WeekStart   time.Time `json:"week_start"`
	Submissions int64     `json:"submissions"`
}

// DepartmentSummary aggregates one department's appraisals.
type DepartmentSummary struct {
	DepartmentID uint    `json:"department_id"`
	Appraisals   int64   `json:"appraisals"`
	Finalized    int64   `json:"finalized"`
	AverageScore float64 `json:"average_score"`
}

// AdminAnalyticsResponse aggregates appraisal progress for administrators.
type AdminAnalyticsResponse struct {
	AcademicYear      string                    `json:"academic_year,omitempty"`
	StatusCounts      map[string]int64          `json:"status_counts"`
	InReview          int64                     `json:"in_review"`
	Finalized         int64                     `json:"finalized"`
	Departments       []DepartmentSummary       `json:"departments"`
	ScoreDistribution ScoreDistributionResponse `json:"score_distribution"`
	WeeklySubmissions []WeeklySubmissionPoint   `json:"weekly_submissions"`
	GeneratedAt       time.Time                 `json:"generated_at"`
	CacheHit          bool                      `json:"cache_hit"`
}

// AdminActivityListRequest defines filters for retrieving activity logs.
type AdminActivityListRequest struct {
	Page       int
	PageSize   int
	ActorID    uint
	EntityID   uint
	Action     string
	EntityType string
}

// AdminActivityResponse serializes activity log entries.
type AdminActivityResponse struct {
	ID            uint                   `json:"id"`
	ActorID       uint                   `json:"actor_id"`
	ActorRole     string                 `json:"actor_role"`
	Action        string                 `json:"action"`
	EntityType    string                 `json:"entity_type"`
	EntityID      *uint                  `json:"entity_id"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata"`
	CreatedAt     time.Time              `json:"created_at"`
}

// AdminActivityListResponse wraps paginated activity logs.
type AdminActivityListResponse struct {
	Items      []AdminActivityResponse `json:"items"`
	Pagination PaginationMeta          `json:"pagination"`
}

// SeedDepartment is one department row of a directory seed.
type SeedDepartment struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	HODEmail string `json:"hod_email" validate:"omitempty,email"`
}

// SeedFaculty is one faculty row of a directory seed.
type SeedFaculty struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Email       string `json:"email" validate:"required,email"`
	Designation string `json:"designation" validate:"omitempty,max=128"`
	Department  string `json:"department" validate:"omitempty,max=255"`
	Role        string `json:"role" validate:"required,oneof=faculty hod principal admin"`
}

// DirectorySeedRequest loads departments and their faculty in one call.
type DirectorySeedRequest struct {
	Departments []SeedDepartment `json:"departments" validate:"dive"`
	Faculty     []SeedFaculty    `json:"faculty" validate:"dive"`
}

// DirectorySeedResponse reports how many rows were written.
type DirectorySeedResponse struct {
	Departments int64 `json:"departments"`
	Faculty     int64 `json:"faculty"`
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// NewAdminActivityResponse converts a model into an activity DTO.
func NewAdminActivityResponse(entry models.ActivityLog) AdminActivityResponse {
	return AdminActivityResponse{
		ID:            entry.ID,
		ActorID:       entry.ActorID,
		ActorRole:     entry.ActorRole,
		Action:        entry.Action,
		EntityType:    entry.EntityType,
		EntityID:      entry.EntityID,
		CorrelationID: entry.CorrelationID,
		Metadata:      metadataFromJSON(entry.Metadata),
		CreatedAt:     entry.CreatedAt,
	}
}
