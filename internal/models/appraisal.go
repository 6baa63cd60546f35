package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// Appraisal is one faculty member's submission for an academic period.
type Appraisal struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	FacultyID    uint              `gorm:"not null;index:idx_appraisal_period" json:"faculty_id"`
	DepartmentID uint              `gorm:"not null;index" json:"department_id"`
	HODID        *uint             `json:"hod_id"`
	PrincipalID  *uint             `json:"principal_id"`
	FormType     scoring.FormType  `gorm:"size:8;not null;index:idx_appraisal_period" json:"form_type"`
	IsSelfReview bool              `gorm:"not null;default:false;index:idx_appraisal_period" json:"is_self_review"`
	AcademicYear string            `gorm:"size:16;not null;index:idx_appraisal_period" json:"academic_year"`
	Semester     string            `gorm:"size:16;index:idx_appraisal_period" json:"semester"`
	Status       workflow.State    `gorm:"size:32;not null;index" json:"status"`
	FormData     datatypes.JSONMap `gorm:"type:json" json:"form_data"`
	Remarks      string            `gorm:"type:text" json:"remarks"`
	SubmittedAt  *time.Time        `json:"submitted_at"`
	FinalizedAt  *time.Time        `json:"finalized_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// State returns the workflow state of the appraisal.
func (a Appraisal) State() workflow.State {
	return a.Status
}

// IsEditable reports whether the submitter may still change the form data.
func (a Appraisal) IsEditable() bool {
	return a.Status == workflow.StateDraft || a.Status.IsReturned()
}

// AppraisalScore stores the latest computed breakdown of an appraisal.
type AppraisalScore struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	AppraisalID     uint             `gorm:"not null;uniqueIndex" json:"appraisal_id"`
	FormType        scoring.FormType `gorm:"size:8;not null" json:"form_type"`
	TeachingScore   float64          `json:"teaching_score"`
	ActivityScore   float64          `json:"activity_score"`
	FeedbackScore   float64          `json:"feedback_score"`
	DepartmentScore float64          `json:"department_score"`
	InstituteScore  float64          `json:"institute_score"`
	SocietyScore    float64          `json:"society_score"`
	ACRScore        float64          `gorm:"column:acr_score" json:"acr_score"`
	ResearchScore   float64          `json:"research_score"`
	TotalScore      float64          `json:"total_score"`
	VerifiedGrade   string           `gorm:"size:32" json:"verified_grade"`
	Breakdown       datatypes.JSON   `gorm:"type:json" json:"breakdown"`
	CalculatedAt    time.Time        `json:"calculated_at"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

const (
	// ApprovalRoleHOD marks history rows written at the department stage.
	ApprovalRoleHOD = "HOD"
	// ApprovalRolePrincipal marks history rows written at the principal stage.
	ApprovalRolePrincipal = "PRINCIPAL"

	// Finalizing is not a reviewer decision and leaves history untouched.
	ApprovalActionApproved = "APPROVED"
	ApprovalActionSentBack = "SENT_BACK"
)

// ApprovalHistory keeps the latest decision of each reviewing role.
type ApprovalHistory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AppraisalID uint           `gorm:"not null;uniqueIndex:idx_approval_history_role" json:"appraisal_id"`
	Role        string         `gorm:"size:16;not null;uniqueIndex:idx_approval_history_role" json:"role"`
	Action      string         `gorm:"size:16;not null" json:"action"`
	FromState   workflow.State `gorm:"size:32;not null" json:"from_state"`
	ToState     workflow.State `gorm:"size:32;not null" json:"to_state"`
	ActorID     uint           `gorm:"not null" json:"actor_id"`
	Remarks     string         `gorm:"type:text" json:"remarks"`
	ActedAt     time.Time      `json:"acted_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
