package dto

import (
	"time"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// AppraisalSaveRequest creates a draft or updates the editable draft of the same period.
type AppraisalSaveRequest struct {
	FormType     string                 `json:"form_type" validate:"required,oneof=SPPU PBAS"`
	AcademicYear string                 `json:"academic_year" validate:"required,max=16"`
	Semester     string                 `json:"semester" validate:"omitempty,max=16"`
	FormData     map[string]interface{} `json:"form_data" validate:"required"`
}

// AppraisalUpdateRequest replaces the submitter-owned sections of an editable appraisal.
type AppraisalUpdateRequest struct {
	FormData map[string]interface{} `json:"form_data" validate:"required"`
}

// AppraisalListRequest filters the submitter's own appraisals.
type AppraisalListRequest struct {
	Page         int
	PageSize     int
	Status       string
	AcademicYear string
}

// AppraisalResponse serializes an appraisal.
type AppraisalResponse struct {
	ID           uint                   `json:"id"`
	FacultyID    uint                   `json:"faculty_id"`
	DepartmentID uint                   `json:"department_id"`
	HODID        *uint                  `json:"hod_id"`
	PrincipalID  *uint                  `json:"principal_id"`
	FormType     scoring.FormType       `json:"form_type"`
	IsSelfReview bool                   `json:"is_self_review"`
	AcademicYear string                 `json:"academic_year"`
	Semester     string                 `json:"semester"`
	Status       workflow.State         `json:"status"`
	Editable     bool                   `json:"editable"`
	FormData     map[string]interface{} `json:"form_data"`
	Remarks      string                 `json:"remarks,omitempty"`
	SubmittedAt  *time.Time             `json:"submitted_at,omitempty"`
	FinalizedAt  *time.Time             `json:"finalized_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// AppraisalListResponse wraps a page of appraisals.
type AppraisalListResponse struct {
	Items      []AppraisalResponse `json:"items"`
	Pagination PaginationMeta      `json:"pagination"`
}

// GradingView is a reviewer's verified grading as shown in reports.
type GradingView struct {
	Reviewer   string             `json:"reviewer"`
	Teaching   scoring.Grade      `json:"table1_verified_teaching,omitempty"`
	Activities scoring.Grade      `json:"table1_verified_activities,omitempty"`
	Overall    scoring.Grade      `json:"verified_overall_grade,omitempty"`
	Research   map[string]float64 `json:"table2_verified_scores,omitempty"`
}

// AppraisalReportResponse combines the stored score with the verified grading
// the caller is allowed to see.
type AppraisalReportResponse struct {
	Appraisal AppraisalResponse  `json:"appraisal"`
	Score     *ScoreResponse     `json:"score,omitempty"`
	Breakdown *scoring.Breakdown `json:"breakdown,omitempty"`
	Verified  []GradingView      `json:"verified_grading"`
}

// NewAppraisalResponse converts a model into a DTO. formData is passed in so
// callers can hand over a redacted copy.
func NewAppraisalResponse(model models.Appraisal, formData map[string]interface{}) AppraisalResponse {
	if formData == nil {
		formData = map[string]interface{}{}
	}
	return AppraisalResponse{
		ID:           model.ID,
		FacultyID:    model.FacultyID,
		DepartmentID: model.DepartmentID,
		HODID:        model.HODID,
		PrincipalID:  model.PrincipalID,
		FormType:     model.FormType,
		IsSelfReview: model.IsSelfReview,
		AcademicYear: model.AcademicYear,
		Semester:     model.Semester,
		Status:       model.Status,
		Editable:     model.IsEditable(),
		FormData:     formData,
		Remarks:      model.Remarks,
		SubmittedAt:  model.SubmittedAt,
		FinalizedAt:  model.FinalizedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
