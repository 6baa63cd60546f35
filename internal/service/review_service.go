package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/repository"
	"github.com/noah-isme/appraisal-go-api/internal/verification"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

var (
	// ErrRemarksRequired indicates a return was requested without remarks.
	ErrRemarksRequired = errors.New("remarks are required when returning an appraisal")
	// ErrGradingClosed indicates the reviewer can no longer change verified grades.
	ErrGradingClosed = errors.New("verified grading is closed for the current state")
)

// ReviewService covers the reviewer side of the workflow.
type ReviewService interface {
	Queue(ctx context.Context, actor Actor, req dto.ReviewQueueRequest) (dto.AppraisalListResponse, error)
	StartReview(ctx context.Context, actor Actor, id uint) (dto.TransitionResponse, error)
	Approve(ctx context.Context, actor Actor, id uint, req dto.ReviewApproveRequest) (dto.TransitionResponse, error)
	Return(ctx context.Context, actor Actor, id uint, req dto.ReviewReturnRequest) (dto.TransitionResponse, error)
	Finalize(ctx context.Context, actor Actor, id uint) (dto.TransitionResponse, error)
	UpdateVerifiedGrading(ctx context.Context, actor Actor, id uint, req dto.VerifiedGradingRequest) (dto.GradingView, error)
	Recalculate(ctx context.Context, actor Actor, id uint) (dto.ScoreResponse, error)
	History(ctx context.Context, actor Actor, id uint) ([]dto.ApprovalHistoryResponse, error)
}

type reviewService struct {
	tx        repository.Transactor
	repos     repository.Repositories
	effects   transitionEffects
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// reviewStep describes one reviewer transition.
type reviewStep struct {
	span    string
	action  string
	target  func(reviewStage) workflow.State
	history string
	remarks string
	grading *verification.Partial
}

// NewReviewService wires the reviewer workflow.
func NewReviewService(
	tx repository.Transactor,
	repos repository.Repositories,
	scores ScoreService,
	activity ActivityRecorder,
	publisher WorkflowEventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) ReviewService {
	log := logger.With().Str("component", "review_service").Logger()
	return &reviewService{
		tx:        tx,
		repos:     repos,
		effects:   transitionEffects{activity: activity, scores: scores, publisher: publisher, logger: log},
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		logger:    log,
		tracer:    otel.Tracer("github.com/noah-isme/appraisal-go-api/internal/service/review"),
		now:       time.Now,
	}
}

func (s *reviewService) Queue(ctx context.Context, actor Actor, req dto.ReviewQueueRequest) (dto.AppraisalListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	filter := repository.AppraisalFilter{
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Page:         page,
		PageSize:     pageSize,
	}

	switch strings.ToLower(strings.TrimSpace(actor.Role)) {
	case models.RoleHOD:
		if actor.DepartmentID == nil {
			return dto.AppraisalListResponse{}, ErrOutsideDepartment
		}
		selfReview := false
		filter.DepartmentID = actor.DepartmentID
		filter.IsSelfReview = &selfReview
		filter.Statuses = []workflow.State{workflow.StateSubmitted, workflow.StateReviewedByHOD}
	case models.RolePrincipal:
		filter.Statuses = []workflow.State{
			workflow.StateHODApproved,
			workflow.StateReviewedByPrincipal,
			workflow.StatePrincipalApproved,
		}
		filter.SelfReviewStatuses = []workflow.State{
			workflow.StateSubmitted,
			workflow.StateReviewedByHOD,
			workflow.StateHODApproved,
			workflow.StateReviewedByPrincipal,
			workflow.StatePrincipalApproved,
		}
	case models.RoleAdmin:
	default:
		return dto.AppraisalListResponse{}, ErrAppraisalForbidden
	}

	if status := strings.TrimSpace(req.Status); status != "" {
		state, err := workflow.ParseState(status)
		if err != nil {
			return dto.AppraisalListResponse{}, err
		}
		if len(filter.Statuses) == 0 {
			filter.Statuses = []workflow.State{state}
		} else {
			filter.Statuses = narrowStates(filter.Statuses, state)
		}
		if len(filter.SelfReviewStatuses) > 0 {
			filter.SelfReviewStatuses = narrowStates(filter.SelfReviewStatuses, state)
		}
	}

	items, total, err := s.repos.Appraisals.List(ctx, filter)
	if err != nil {
		return dto.AppraisalListResponse{}, err
	}

	responses := make([]dto.AppraisalResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, dto.NewAppraisalResponse(item, item.FormData))
	}
	return dto.AppraisalListResponse{Items: responses, Pagination: paginate(page, pageSize, total)}, nil
}

func (s *reviewService) StartReview(ctx context.Context, actor Actor, id uint) (dto.TransitionResponse, error) {
	return s.transition(ctx, actor, id, reviewStep{
		span:   "review.start",
		action: models.ActivityActionReviewStart,
		target: startTarget,
	})
}

func (s *reviewService) Approve(ctx context.Context, actor Actor, id uint, req dto.ReviewApproveRequest) (dto.TransitionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TransitionResponse{}, err
	}
	step := reviewStep{
		span:    "review.approve",
		action:  models.ActivityActionApproved,
		target:  approveTarget,
		history: models.ApprovalActionApproved,
		remarks: s.sanitize(req.Remarks),
	}
	if req.Grading != nil {
		partial := toPartial(*req.Grading)
		step.grading = &partial
	}
	return s.transition(ctx, actor, id, step)
}

func (s *reviewService) Return(ctx context.Context, actor Actor, id uint, req dto.ReviewReturnRequest) (dto.TransitionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TransitionResponse{}, err
	}
	remarks := s.sanitize(req.Remarks)
	if remarks == "" {
		return dto.TransitionResponse{}, ErrRemarksRequired
	}
	return s.transition(ctx, actor, id, reviewStep{
		span:    "review.return",
		action:  models.ActivityActionReturned,
		target:  returnTarget,
		history: models.ApprovalActionSentBack,
		remarks: remarks,
	})
}

func (s *reviewService) Finalize(ctx context.Context, actor Actor, id uint) (dto.TransitionResponse, error) {
	return s.transition(ctx, actor, id, reviewStep{
		span:   "review.finalize",
		action: models.ActivityActionFinalized,
		target: func(reviewStage) workflow.State { return workflow.StateFinalized },
	})
}

// transition applies one reviewer step inside a single transaction: status
// change, optional grading merge, score recompute and approval history.
func (s *reviewService) transition(ctx context.Context, actor Actor, id uint, step reviewStep) (dto.TransitionResponse, error) {
	ctx, span := s.tracer.Start(ctx, step.span, trace.WithAttributes(
		attribute.Int64("appraisal.id", int64(id)),
		attribute.String("actor.role", actor.Role),
	))
	defer span.End()

	now := s.now().UTC()
	var (
		from  workflow.State
		to    workflow.State
		score models.AppraisalScore
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		appraisal, err := loadAppraisal(ctx, repos.Appraisals, id)
		if err != nil {
			return err
		}
		if appraisal.Status == workflow.StateFinalized {
			return ErrAppraisalFinalized
		}

		stage := stageOf(appraisal.Status)
		requested := step.target(stage)
		if err := authorizeTransition(actor, appraisal, requested); err != nil {
			return err
		}
		next, err := workflow.Transition(appraisal.Status, requested)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if stageRole(appraisal, stage) == models.RoleHOD {
			updates["hod_id"] = actor.ID
		} else {
			updates["principal_id"] = actor.ID
		}
		if step.remarks != "" {
			updates["remarks"] = step.remarks
		}
		if next == workflow.StateFinalized {
			updates["finalized_at"] = now
		}

		var grading verification.Grading
		if step.grading != nil {
			merged, result := verification.MergeInto(appraisal.FormData, reviewerFor(appraisal, stage), *step.grading)
			appraisal.FormData = datatypes.JSONMap(merged)
			updates["form_data"] = appraisal.FormData
			grading = result
		}

		computed, _, err := computeScore(appraisal, now)
		if err != nil {
			return err
		}
		if err := repos.Scores.Upsert(ctx, &computed); err != nil {
			return err
		}
		if grading.Teaching != "" && grading.Activities != "" {
			if err := repos.Scores.SetVerifiedGrade(ctx, appraisal.ID, string(grading.Overall())); err != nil {
				return err
			}
			computed.VerifiedGrade = string(grading.Overall())
		}

		if err := repos.Appraisals.TransitionStatus(ctx, appraisal.ID, appraisal.Status, next, updates); err != nil {
			return err
		}

		if step.history != "" {
			if err := repos.History.Upsert(ctx, &models.ApprovalHistory{
				AppraisalID: appraisal.ID,
				Role:        historyRole(stage),
				Action:      step.history,
				FromState:   appraisal.Status,
				ToState:     next,
				ActorID:     actor.ID,
				Remarks:     step.remarks,
				ActedAt:     now,
			}); err != nil {
				return err
			}
		}

		from, to, score = appraisal.Status, next, computed
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.TransitionResponse{}, err
	}

	metadata := map[string]interface{}{"total_score": score.TotalScore}
	if step.remarks != "" {
		metadata["remarks"] = step.remarks
	}
	s.effects.transitioned(ctx, actor, id, from, to, step.action, now, metadata)

	scoreResponse := dto.NewScoreResponse(score)
	return dto.TransitionResponse{AppraisalID: id, From: from, To: to, Score: &scoreResponse}, nil
}

func (s *reviewService) UpdateVerifiedGrading(ctx context.Context, actor Actor, id uint, req dto.VerifiedGradingRequest) (dto.GradingView, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GradingView{}, err
	}

	ctx, span := s.tracer.Start(ctx, "review.verified_grading", trace.WithAttributes(attribute.Int64("appraisal.id", int64(id))))
	defer span.End()

	var (
		reviewer verification.Reviewer
		grading  verification.Grading
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		appraisal, err := loadAppraisal(ctx, repos.Appraisals, id)
		if err != nil {
			return err
		}
		if appraisal.Status == workflow.StateFinalized {
			return ErrAppraisalFinalized
		}
		if !gradingOpen(appraisal.Status) {
			return ErrGradingClosed
		}

		stage := stageOf(appraisal.Status)
		if err := authorizeReviewer(actor, appraisal, stage); err != nil {
			return err
		}

		reviewer = reviewerFor(appraisal, stage)
		merged, result := verification.MergeInto(appraisal.FormData, reviewer, toPartial(req))
		grading = result

		if err := repos.Appraisals.TransitionStatus(ctx, appraisal.ID, appraisal.Status, appraisal.Status, map[string]interface{}{
			"form_data": datatypes.JSONMap(merged),
		}); err != nil {
			return err
		}

		if grading.Teaching != "" && grading.Activities != "" {
			err := repos.Scores.SetVerifiedGrade(ctx, appraisal.ID, string(grading.Overall()))
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.GradingView{}, err
	}

	s.effects.record(ctx, actor, id, models.ActivityActionGraded, map[string]interface{}{"reviewer": string(reviewer)})
	s.effects.invalidate(ctx, id)

	view := dto.GradingView{
		Reviewer:   string(reviewer),
		Teaching:   grading.Teaching,
		Activities: grading.Activities,
		Research:   grading.Research,
	}
	if grading.Teaching != "" && grading.Activities != "" {
		view.Overall = grading.Overall()
	}
	return view, nil
}

func (s *reviewService) Recalculate(ctx context.Context, actor Actor, id uint) (dto.ScoreResponse, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.recalculate", trace.WithAttributes(attribute.Int64("appraisal.id", int64(id))))
	defer span.End()

	var stored models.AppraisalScore
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		appraisal, err := loadAppraisal(ctx, repos.Appraisals, id)
		if err != nil {
			return err
		}
		if appraisal.Status == workflow.StateFinalized {
			return ErrAppraisalFinalized
		}
		if !strings.EqualFold(actor.Role, models.RoleAdmin) {
			if err := authorizeReviewer(actor, appraisal, stageOf(appraisal.Status)); err != nil {
				return err
			}
		}

		computed, _, err := computeScore(appraisal, s.now().UTC())
		if err != nil {
			return err
		}
		if err := repos.Scores.Upsert(ctx, &computed); err != nil {
			return err
		}
		stored, err = repos.Scores.GetByAppraisalID(ctx, appraisal.ID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.ScoreResponse{}, err
	}

	s.effects.record(ctx, actor, id, models.ActivityActionRecalculated, map[string]interface{}{"total_score": stored.TotalScore})
	s.effects.invalidate(ctx, id)

	return dto.NewScoreResponse(stored), nil
}

func (s *reviewService) History(ctx context.Context, actor Actor, id uint) ([]dto.ApprovalHistoryResponse, error) {
	appraisal, err := loadAppraisal(ctx, s.repos.Appraisals, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, appraisal) {
		return nil, ErrAppraisalForbidden
	}

	entries, err := s.repos.History.ListByAppraisal(ctx, appraisal.ID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.ApprovalHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewApprovalHistoryResponse(entry))
	}
	return responses, nil
}

func (s *reviewService) sanitize(remarks string) string {
	return strings.TrimSpace(s.policy.Sanitize(strings.TrimSpace(remarks)))
}

// gradingOpen reports whether the current stage reviewer may still grade.
func gradingOpen(status workflow.State) bool {
	switch status {
	case workflow.StateSubmitted, workflow.StateReviewedByHOD,
		workflow.StateHODApproved, workflow.StateReviewedByPrincipal:
		return true
	}
	return false
}

func loadAppraisal(ctx context.Context, repo repository.AppraisalRepository, id uint) (models.Appraisal, error) {
	appraisal, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Appraisal{}, ErrAppraisalNotFound
		}
		return models.Appraisal{}, err
	}
	return appraisal, nil
}

func narrowStates(allowed []workflow.State, state workflow.State) []workflow.State {
	for _, candidate := range allowed {
		if candidate == state {
			return []workflow.State{state}
		}
	}
	return []workflow.State{""}
}

func toPartial(req dto.VerifiedGradingRequest) verification.Partial {
	return verification.Partial{
		Teaching:   req.Teaching,
		Activities: req.Activities,
		Legacy:     req.Legacy,
		Research:   req.Research,
	}
}
