package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is the append-only audit trail of every appraisal action.
type ActivityLog struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	ActorID       uint              `gorm:"not null;index" json:"actor_id"`
	ActorRole     string            `gorm:"size:32;not null" json:"actor_role"`
	Action        string            `gorm:"size:64;not null;index" json:"action"`
	EntityType    string            `gorm:"size:64;not null" json:"entity_type"`
	EntityID      *uint             `gorm:"index" json:"entity_id"`
	CorrelationID string            `gorm:"size:64" json:"correlation_id,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt     time.Time         `json:"created_at"`
}

const (
	ActivityEntityAppraisal = "appraisal"

	ActivityActionSaved        = "appraisal.saved"
	ActivityActionSubmitted    = "appraisal.submitted"
	ActivityActionReviewStart  = "appraisal.review_started"
	ActivityActionApproved     = "appraisal.approved"
	ActivityActionReturned     = "appraisal.returned"
	ActivityActionFinalized    = "appraisal.finalized"
	ActivityActionGraded       = "appraisal.verified_grading"
	ActivityActionRecalculated = "appraisal.recalculated"
)
