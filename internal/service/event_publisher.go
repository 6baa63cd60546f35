package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/middleware"
	"github.com/noah-isme/appraisal-go-api/internal/observability"
)

// EventTypeTransitioned names the event emitted after a committed transition.
const EventTypeTransitioned = "appraisal.transitioned"

// EventHandler reacts to workflow events emitted by other instances.
type EventHandler func(ctx context.Context, event dto.WorkflowEvent)

// WorkflowEventPublisher fans workflow transitions out to Redis and NATS.
type WorkflowEventPublisher interface {
	Publish(ctx context.Context, event dto.WorkflowEvent) error
	Start(ctx context.Context, handler EventHandler)
}

type workflowEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	nodeID       string
	now          func() time.Time
}

type workflowEnvelope struct {
	Type  string            `json:"type"`
	Event dto.WorkflowEvent `json:"event"`
}

// NewWorkflowEventPublisher constructs a publisher. Either broker may be nil.
func NewWorkflowEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) WorkflowEventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":appraisals"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".appraisals"
	}

	return &workflowEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "workflow_event_publisher").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/appraisal-go-api/internal/service/events"),
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

func (p *workflowEventPublisher) Publish(ctx context.Context, event dto.WorkflowEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}
	event.Source = p.nodeID

	spanCtx, span := p.tracer.Start(ctx, "events.publish", trace.WithAttributes(
		attribute.Int64("appraisal.id", int64(event.AppraisalID)),
		attribute.String("appraisal.from", string(event.From)),
		attribute.String("appraisal.to", string(event.To)),
	))
	defer span.End()

	payload, err := json.Marshal(workflowEnvelope{Type: EventTypeTransitioned, Event: event})
	if err != nil {
		span.RecordError(err)
		return err
	}

	var errs []error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(spanCtx, p.redisChannel, payload).Err(); err != nil {
			observability.EventPublishFailures().WithLabelValues("redis").Inc()
			errs = append(errs, err)
		} else {
			observability.EventsPublished().WithLabelValues("redis").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			observability.EventPublishFailures().WithLabelValues("nats").Inc()
			errs = append(errs, err)
		} else {
			observability.EventsPublished().WithLabelValues("nats").Inc()
		}
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Start consumes events published by other instances until ctx is cancelled.
// Events carrying this instance's node id are skipped.
func (p *workflowEventPublisher) Start(ctx context.Context, handler EventHandler) {
	if handler == nil {
		return
	}
	if p.redis != nil && p.redisChannel != "" {
		go p.consumeRedis(ctx, handler)
	}
	if p.nats != nil && p.natsSubject != "" {
		go p.consumeNATS(ctx, handler)
	}
}

func (p *workflowEventPublisher) consumeRedis(ctx context.Context, handler EventHandler) {
	pubsub := p.redis.Subscribe(ctx, p.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			p.logger.Error().Err(err).Msg("workflow redis subscription closed")
			return
		}
		p.handle(ctx, []byte(msg.Payload), handler)
	}
}

func (p *workflowEventPublisher) consumeNATS(ctx context.Context, handler EventHandler) {
	sub, err := p.nats.Subscribe(p.natsSubject, func(msg *nats.Msg) {
		p.handle(ctx, msg.Data, handler)
	})
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to subscribe to nats workflow subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			p.logger.Warn().Err(err).Msg("failed to drain workflow nats subscription")
		}
	}()
}

func (p *workflowEventPublisher) handle(ctx context.Context, payload []byte, handler EventHandler) {
	var envelope workflowEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		p.logger.Warn().Err(err).Msg("invalid workflow event payload")
		return
	}
	if envelope.Type != EventTypeTransitioned || envelope.Event.Source == p.nodeID {
		return
	}
	// Handlers log under the request that caused the transition.
	handler(middleware.ContextWithCorrelation(ctx, envelope.Event.CorrelationID), envelope.Event)
}
