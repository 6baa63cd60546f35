package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/middleware"
	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/observability"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// transitionEffects runs the best-effort work that follows a committed change:
// audit entry, score cache invalidation, event fan-out and metrics. Failures
// are logged and never surface to the caller.
type transitionEffects struct {
	activity  ActivityRecorder
	scores    ScoreService
	publisher WorkflowEventPublisher
	logger    zerolog.Logger
}

func (e transitionEffects) record(ctx context.Context, actor Actor, appraisalID uint, action string, metadata map[string]interface{}) {
	if e.activity == nil {
		return
	}
	id := appraisalID
	if _, err := e.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: models.ActivityEntityAppraisal,
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		e.logger.Warn().Err(err).Uint("appraisal_id", appraisalID).Str("action", action).Msg("failed to record activity")
	}
}

func (e transitionEffects) invalidate(ctx context.Context, appraisalID uint) {
	if e.scores != nil {
		e.scores.Invalidate(ctx, appraisalID)
	}
}

func (e transitionEffects) transitioned(ctx context.Context, actor Actor, appraisalID uint, from, to workflow.State, action string, at time.Time, metadata map[string]interface{}) {
	observability.Transitions().WithLabelValues(string(from), string(to)).Inc()

	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadata["from"] = string(from)
	metadata["to"] = string(to)
	e.record(ctx, actor, appraisalID, action, metadata)
	e.invalidate(ctx, appraisalID)

	if e.publisher == nil {
		return
	}
	event := dto.WorkflowEvent{
		AppraisalID:   appraisalID,
		From:          from,
		To:            to,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		OccurredAt:    at,
		CorrelationID: middleware.CorrelationIDFromContext(ctx),
	}
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.logger.Warn().Err(err).Uint("appraisal_id", appraisalID).Msg("failed to publish workflow event")
	}
}
