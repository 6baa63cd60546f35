package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
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
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/verification"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

var (
	// ErrAppraisalNotFound indicates the appraisal does not exist.
	ErrAppraisalNotFound = errors.New("appraisal not found")
	// ErrAppraisalForbidden indicates the caller may not access the appraisal.
	ErrAppraisalForbidden = errors.New("appraisal access forbidden")
	// ErrAppraisalLocked indicates the appraisal is under review and cannot be edited.
	ErrAppraisalLocked = errors.New("appraisal is not editable in its current state")
	// ErrDuplicateAppraisal indicates a non-editable appraisal already exists for the period.
	ErrDuplicateAppraisal = errors.New("an appraisal already exists for this period")
	// ErrFacultyNotFound indicates the caller has no faculty profile.
	ErrFacultyNotFound = errors.New("faculty profile not found")
	// ErrDepartmentUnassigned indicates the caller does not belong to a department.
	ErrDepartmentUnassigned = errors.New("faculty is not assigned to a department")
)

// AppraisalService covers the submitter's side of the workflow.
type AppraisalService interface {
	Save(ctx context.Context, actor Actor, req dto.AppraisalSaveRequest) (dto.AppraisalResponse, error)
	Update(ctx context.Context, actor Actor, id uint, req dto.AppraisalUpdateRequest) (dto.AppraisalResponse, error)
	Submit(ctx context.Context, actor Actor, id uint) (dto.TransitionResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.AppraisalResponse, error)
	List(ctx context.Context, actor Actor, req dto.AppraisalListRequest) (dto.AppraisalListResponse, error)
	Report(ctx context.Context, actor Actor, id uint) (dto.AppraisalReportResponse, error)
	Score(ctx context.Context, actor Actor, id uint) (dto.ScoreResponse, error)
}

type appraisalService struct {
	tx         repository.Transactor
	appraisals repository.AppraisalRepository
	faculty    repository.FacultyRepository
	scores     ScoreService
	effects    transitionEffects
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewAppraisalService wires the submitter workflow.
func NewAppraisalService(
	tx repository.Transactor,
	appraisals repository.AppraisalRepository,
	faculty repository.FacultyRepository,
	scores ScoreService,
	activity ActivityRecorder,
	publisher WorkflowEventPublisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) AppraisalService {
	log := logger.With().Str("component", "appraisal_service").Logger()
	return &appraisalService{
		tx:         tx,
		appraisals: appraisals,
		faculty:    faculty,
		scores:     scores,
		effects:    transitionEffects{activity: activity, scores: scores, publisher: publisher, logger: log},
		validator:  validate,
		logger:     log,
		tracer:     otel.Tracer("github.com/noah-isme/appraisal-go-api/internal/service/appraisal"),
		now:        time.Now,
	}
}

func (s *appraisalService) Save(ctx context.Context, actor Actor, req dto.AppraisalSaveRequest) (dto.AppraisalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AppraisalResponse{}, err
	}
	formType, err := scoring.ParseFormType(req.FormType)
	if err != nil {
		return dto.AppraisalResponse{}, err
	}

	profile, err := s.faculty.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AppraisalResponse{}, ErrFacultyNotFound
		}
		return dto.AppraisalResponse{}, err
	}
	if profile.DepartmentID == nil {
		return dto.AppraisalResponse{}, ErrDepartmentUnassigned
	}

	period := repository.AppraisalPeriod{
		FacultyID:    profile.ID,
		FormType:     formType,
		IsSelfReview: profile.IsHOD(),
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Semester:     strings.TrimSpace(req.Semester),
	}

	existing, err := s.appraisals.FindByPeriod(ctx, period)
	if err != nil {
		return dto.AppraisalResponse{}, err
	}

	if len(existing) > 0 {
		latest := existing[0]
		switch {
		case latest.IsEditable():
			latest.FormData = submitterFormData(req.FormData, latest.FormData)
			if err := s.appraisals.Save(ctx, &latest); err != nil {
				return dto.AppraisalResponse{}, err
			}
			s.effects.record(ctx, actor, latest.ID, models.ActivityActionSaved, map[string]interface{}{"created": false})
			return s.view(actor, latest), nil
		case latest.Status == workflow.StateFinalized:
			return dto.AppraisalResponse{}, ErrAppraisalFinalized
		default:
			return dto.AppraisalResponse{}, ErrDuplicateAppraisal
		}
	}

	appraisal := models.Appraisal{
		FacultyID:    profile.ID,
		DepartmentID: *profile.DepartmentID,
		FormType:     formType,
		IsSelfReview: period.IsSelfReview,
		AcademicYear: period.AcademicYear,
		Semester:     period.Semester,
		Status:       workflow.StateDraft,
		FormData:     submitterFormData(req.FormData, nil),
	}

	if !appraisal.IsSelfReview {
		department, err := s.faculty.GetDepartment(ctx, appraisal.DepartmentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AppraisalResponse{}, err
		}
		appraisal.HODID = department.HODID
	}
	if principal, err := s.faculty.FindPrincipal(ctx); err == nil {
		principalID := principal.ID
		appraisal.PrincipalID = &principalID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AppraisalResponse{}, err
	}

	if err := s.appraisals.Create(ctx, &appraisal); err != nil {
		return dto.AppraisalResponse{}, err
	}

	s.effects.record(ctx, actor, appraisal.ID, models.ActivityActionSaved, map[string]interface{}{
		"created":   true,
		"form_type": string(appraisal.FormType),
	})
	return s.view(actor, appraisal), nil
}

func (s *appraisalService) Update(ctx context.Context, actor Actor, id uint, req dto.AppraisalUpdateRequest) (dto.AppraisalResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AppraisalResponse{}, err
	}

	appraisal, err := s.load(ctx, id)
	if err != nil {
		return dto.AppraisalResponse{}, err
	}
	if appraisal.FacultyID != actor.ID {
		return dto.AppraisalResponse{}, ErrAppraisalForbidden
	}
	if appraisal.Status == workflow.StateFinalized {
		return dto.AppraisalResponse{}, ErrAppraisalFinalized
	}
	if !appraisal.IsEditable() {
		return dto.AppraisalResponse{}, ErrAppraisalLocked
	}

	appraisal.FormData = submitterFormData(req.FormData, appraisal.FormData)
	if err := s.appraisals.Save(ctx, &appraisal); err != nil {
		return dto.AppraisalResponse{}, err
	}

	s.effects.record(ctx, actor, appraisal.ID, models.ActivityActionSaved, map[string]interface{}{"created": false})
	return s.view(actor, appraisal), nil
}

func (s *appraisalService) Submit(ctx context.Context, actor Actor, id uint) (dto.TransitionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "appraisal.submit", trace.WithAttributes(attribute.Int64("appraisal.id", int64(id))))
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
		if err := authorizeTransition(actor, appraisal, workflow.StateSubmitted); err != nil {
			return err
		}
		next, err := workflow.Transition(appraisal.Status, workflow.StateSubmitted)
		if err != nil {
			return err
		}

		computed, _, err := computeScore(appraisal, now)
		if err != nil {
			return err
		}
		if err := repos.Scores.Upsert(ctx, &computed); err != nil {
			return err
		}
		if err := repos.Appraisals.TransitionStatus(ctx, appraisal.ID, appraisal.Status, next, map[string]interface{}{
			"submitted_at": now,
		}); err != nil {
			return err
		}

		from, to, score = appraisal.Status, next, computed
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.TransitionResponse{}, err
	}

	s.effects.transitioned(ctx, actor, id, from, to, models.ActivityActionSubmitted, now, map[string]interface{}{
		"total_score": score.TotalScore,
	})

	scoreResponse := dto.NewScoreResponse(score)
	return dto.TransitionResponse{AppraisalID: id, From: from, To: to, Score: &scoreResponse}, nil
}

func (s *appraisalService) Get(ctx context.Context, actor Actor, id uint) (dto.AppraisalResponse, error) {
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return dto.AppraisalResponse{}, err
	}
	if !canView(actor, appraisal) {
		return dto.AppraisalResponse{}, ErrAppraisalForbidden
	}
	return s.view(actor, appraisal), nil
}

func (s *appraisalService) List(ctx context.Context, actor Actor, req dto.AppraisalListRequest) (dto.AppraisalListResponse, error) {
	page := maxInt(req.Page, 1)
	pageSize := clampPageSize(req.PageSize)

	facultyID := actor.ID
	filter := repository.AppraisalFilter{
		FacultyID:    &facultyID,
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Page:         page,
		PageSize:     pageSize,
	}
	if strings.TrimSpace(req.Status) != "" {
		state, err := workflow.ParseState(req.Status)
		if err != nil {
			return dto.AppraisalListResponse{}, err
		}
		filter.Statuses = []workflow.State{state}
	}

	items, total, err := s.appraisals.List(ctx, filter)
	if err != nil {
		return dto.AppraisalListResponse{}, err
	}

	responses := make([]dto.AppraisalResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, s.view(actor, item))
	}

	return dto.AppraisalListResponse{Items: responses, Pagination: paginate(page, pageSize, total)}, nil
}

func (s *appraisalService) Report(ctx context.Context, actor Actor, id uint) (dto.AppraisalReportResponse, error) {
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return dto.AppraisalReportResponse{}, err
	}
	if !canView(actor, appraisal) {
		return dto.AppraisalReportResponse{}, ErrAppraisalForbidden
	}

	report := dto.AppraisalReportResponse{
		Appraisal: s.view(actor, appraisal),
		Verified:  verifiedViews(actor, appraisal),
	}

	score, err := s.scores.Get(ctx, appraisal.ID)
	switch {
	case err == nil:
		score = scoreView(actor, appraisal, score)
		report.Score = &score
		report.Breakdown = score.Breakdown
	case errors.Is(err, ErrScoreNotFound):
	default:
		return dto.AppraisalReportResponse{}, err
	}

	return report, nil
}

func (s *appraisalService) Score(ctx context.Context, actor Actor, id uint) (dto.ScoreResponse, error) {
	appraisal, err := s.load(ctx, id)
	if err != nil {
		return dto.ScoreResponse{}, err
	}
	if !canView(actor, appraisal) {
		return dto.ScoreResponse{}, ErrAppraisalForbidden
	}

	score, err := s.scores.Get(ctx, appraisal.ID)
	if err != nil {
		return dto.ScoreResponse{}, err
	}
	return scoreView(actor, appraisal, score), nil
}

func (s *appraisalService) load(ctx context.Context, id uint) (models.Appraisal, error) {
	return loadAppraisal(ctx, s.appraisals, id)
}

// view renders the appraisal for actor. Submitters never see verified grades
// before the owning reviewer has approved.
func (s *appraisalService) view(actor Actor, appraisal models.Appraisal) dto.AppraisalResponse {
	formData := map[string]interface{}(appraisal.FormData)
	if actor.ID == appraisal.FacultyID {
		formData = verification.Redact(formData, appraisal.Status)
	}
	return dto.NewAppraisalResponse(appraisal, formData)
}

// scoreView swaps the stored verified grade, which is written as soon as a
// reviewer grades, for the one the submitter may already see.
func scoreView(actor Actor, appraisal models.Appraisal, score dto.ScoreResponse) dto.ScoreResponse {
	if actor.ID == appraisal.FacultyID {
		score.VerifiedGrade = string(verification.VisibleOverall(appraisal.FormData, appraisal.Status))
	}
	return score
}

func verifiedViews(actor Actor, appraisal models.Appraisal) []dto.GradingView {
	views := make([]dto.GradingView, 0, 2)
	for _, reviewer := range []verification.Reviewer{verification.ReviewerHOD, verification.ReviewerPrincipal} {
		if actor.ID == appraisal.FacultyID && !verification.Visible(appraisal.Status, reviewer) {
			continue
		}
		grading := verification.Extract(appraisal.FormData, reviewer)
		if grading.IsZero() {
			continue
		}
		view := dto.GradingView{
			Reviewer:   string(reviewer),
			Teaching:   grading.Teaching,
			Activities: grading.Activities,
			Research:   grading.Research,
		}
		if grading.Teaching != "" && grading.Activities != "" {
			view.Overall = grading.Overall()
		}
		views = append(views, view)
	}
	return views
}

// submitterFormData takes the submitter's sections from incoming and keeps the
// reviewer sections already stored, so a submitter cannot forge verified grades.
func submitterFormData(incoming map[string]interface{}, stored datatypes.JSONMap) datatypes.JSONMap {
	result := datatypes.JSONMap{}
	for key, value := range incoming {
		if key == verification.KeyHODReview || key == verification.KeyPrincipalReview {
			continue
		}
		result[key] = value
	}
	for _, key := range []string{verification.KeyHODReview, verification.KeyPrincipalReview} {
		if value, ok := stored[key]; ok {
			result[key] = value
		}
	}
	return result
}

func clampPageSize(size int) int {
	if size <= 0 {
		return 20
	}
	if size > 100 {
		return 100
	}
	return size
}
