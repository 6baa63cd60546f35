package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// ScorePreviewRequest scores form data without storing anything.
type ScorePreviewRequest struct {
	FormType string                 `json:"form_type" validate:"required,oneof=SPPU PBAS"`
	FormData map[string]interface{} `json:"form_data" validate:"required"`
}

// ScoreResponse serializes a stored appraisal score.
type ScoreResponse struct {
	AppraisalID     uint               `json:"appraisal_id"`
	FormType        scoring.FormType   `json:"form_type"`
	TeachingScore   float64            `json:"teaching_score"`
	ActivityScore   float64            `json:"activity_score"`
	FeedbackScore   float64            `json:"feedback_score"`
	DepartmentScore float64            `json:"department_score"`
	InstituteScore  float64            `json:"institute_score"`
	SocietyScore    float64            `json:"society_score"`
	ACRScore        float64            `json:"acr_score"`
	ResearchScore   float64            `json:"research_score"`
	TotalScore      float64            `json:"total_score"`
	VerifiedGrade   string             `json:"verified_grade,omitempty"`
	Breakdown       *scoring.Breakdown `json:"breakdown,omitempty"`
	CalculatedAt    time.Time          `json:"calculated_at"`
	CacheHit        bool               `json:"cache_hit"`
}

// NewScoreResponse converts a stored score into a DTO. A breakdown that cannot
// be decoded is left out rather than failing the response.
func NewScoreResponse(model models.AppraisalScore) ScoreResponse {
	response := ScoreResponse{
		AppraisalID:     model.AppraisalID,
		FormType:        model.FormType,
		TeachingScore:   model.TeachingScore,
		ActivityScore:   model.ActivityScore,
		FeedbackScore:   model.FeedbackScore,
		DepartmentScore: model.DepartmentScore,
		InstituteScore:  model.InstituteScore,
		SocietyScore:    model.SocietyScore,
		ACRScore:        model.ACRScore,
		ResearchScore:   model.ResearchScore,
		TotalScore:      model.TotalScore,
		VerifiedGrade:   model.VerifiedGrade,
		CalculatedAt:    model.CalculatedAt,
	}
	if len(model.Breakdown) > 0 {
		var breakdown scoring.Breakdown
		if err := json.Unmarshal(model.Breakdown, &breakdown); err == nil {
			response.Breakdown = &breakdown
		}
	}
	return response
}

// WorkflowCheckRequest asks whether a transition is legal.
type WorkflowCheckRequest struct {
	Current   string `json:"current" validate:"required"`
	Requested string `json:"requested" validate:"required"`
}

// WorkflowCheckResponse reports the resulting state of a legal transition.
type WorkflowCheckResponse struct {
	Current workflow.State `json:"current"`
	Next    workflow.State `json:"next"`
}

// WorkflowStateResponse describes one state and where it can go.
type WorkflowStateResponse struct {
	State    workflow.State   `json:"state"`
	Terminal bool             `json:"terminal"`
	Allowed  []workflow.State `json:"allowed"`
}

// ScoringCatalogResponse lists the static inputs clients need to build forms.
type ScoringCatalogResponse struct {
	Categories    map[scoring.FormType][]scoring.Category `json:"categories"`
	Activities    []scoring.CatalogSection                `json:"activities"`
	ResearchTypes []string                                `json:"research_types"`
}
