package dto

import (
	"time"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// ReviewQueueRequest filters the appraisals awaiting the caller's review.
type ReviewQueueRequest struct {
	Page         int
	PageSize     int
	Status       string
	AcademicYear string
}

// VerifiedGradingRequest is a partial update of a reviewer's verified grading.
// Empty or unrecognised grades leave the stored value in place.
type VerifiedGradingRequest struct {
	Teaching   string                 `json:"table1_verified_teaching" validate:"omitempty,max=32"`
	Activities string                 `json:"table1_verified_activities" validate:"omitempty,max=32"`
	Legacy     string                 `json:"verified_grade" validate:"omitempty,max=32"`
	Research   map[string]interface{} `json:"table2_verified_scores"`
}

// ReviewApproveRequest carries optional remarks and grading with an approval.
type ReviewApproveRequest struct {
	Remarks string                  `json:"remarks" validate:"omitempty,max=5000"`
	Grading *VerifiedGradingRequest `json:"verified_grading"`
}

// ReviewReturnRequest sends an appraisal back to its submitter.
type ReviewReturnRequest struct {
	Remarks string `json:"remarks" validate:"max=5000"`
}

// TransitionResponse reports a committed workflow transition.
type TransitionResponse struct {
	AppraisalID uint           `json:"appraisal_id"`
	From        workflow.State `json:"from"`
	To          workflow.State `json:"to"`
	Score       *ScoreResponse `json:"score,omitempty"`
}

// ApprovalHistoryResponse serializes the latest decision of one reviewing role.
type ApprovalHistoryResponse struct {
	Role      string         `json:"role"`
	Action    string         `json:"action"`
	FromState workflow.State `json:"from_state"`
	ToState   workflow.State `json:"to_state"`
	ActorID   uint           `json:"actor_id"`
	Remarks   string         `json:"remarks,omitempty"`
	ActedAt   time.Time      `json:"acted_at"`
}

// NewApprovalHistoryResponse converts a history row into a DTO.
func NewApprovalHistoryResponse(entry models.ApprovalHistory) ApprovalHistoryResponse {
	return ApprovalHistoryResponse{
		Role:      entry.Role,
		Action:    entry.Action,
		FromState: entry.FromState,
		ToState:   entry.ToState,
		ActorID:   entry.ActorID,
		Remarks:   entry.Remarks,
		ActedAt:   entry.ActedAt,
	}
}

// WorkflowEvent is published after every committed transition.
type WorkflowEvent struct {
	AppraisalID   uint           `json:"appraisal_id"`
	From          workflow.State `json:"from"`
	To            workflow.State `json:"to"`
	ActorID       uint           `json:"actor_id"`
	ActorRole     string         `json:"actor_role"`
	OccurredAt    time.Time      `json:"occurred_at"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Source        string         `json:"source"`
}
