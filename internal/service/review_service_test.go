package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/verification"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

func submittedAppraisal(t *testing.T, f *workflowFixture) uint {
	t.Helper()
	draft := saveDraft(t, f, f.faculty, teachingOnlyForm(100, 90))
	_, err := f.appraisals.Submit(context.Background(), f.faculty, draft.ID)
	require.NoError(t, err)
	return draft.ID
}

func TestReviewPipelineToFinalizedIsClosed(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := submittedAppraisal(t, f)

	resp, err := f.reviews.StartReview(ctx, f.hod, id)
	require.NoError(t, err)
	require.Equal(t, workflow.StateReviewedByHOD, resp.To)

	resp, err = f.reviews.Approve(ctx, f.hod, id, dto.ReviewApproveRequest{
		Remarks: "Consistent attendance",
		Grading: &dto.VerifiedGradingRequest{Teaching: "Good", Activities: "Good"},
	})
	require.NoError(t, err)
	require.Equal(t, workflow.StateHODApproved, resp.To)
	require.Equal(t, string(scoring.GradeGood), resp.Score.VerifiedGrade)

	_, err = f.reviews.StartReview(ctx, f.principal, id)
	require.NoError(t, err)
	_, err = f.reviews.Approve(ctx, f.principal, id, dto.ReviewApproveRequest{Remarks: "approved by principal"})
	require.NoError(t, err)

	resp, err = f.reviews.Finalize(ctx, f.principal, id)
	require.NoError(t, err)
	require.Equal(t, workflow.StatePrincipalApproved, resp.From)
	require.Equal(t, workflow.StateFinalized, resp.To)

	stored, err := f.appraisals.Get(ctx, f.faculty, id)
	require.NoError(t, err)
	require.NotNil(t, stored.FinalizedAt)
	require.NotNil(t, stored.HODID)
	require.Equal(t, f.hod.ID, *stored.HODID)
	require.Equal(t, "approved by principal", stored.Remarks)

	_, err = f.reviews.Return(ctx, f.principal, id, dto.ReviewReturnRequest{Remarks: "reopen"})
	require.ErrorIs(t, err, ErrAppraisalFinalized)
	_, err = f.reviews.Finalize(ctx, f.principal, id)
	require.ErrorIs(t, err, ErrAppraisalFinalized)
	_, err = f.reviews.UpdateVerifiedGrading(ctx, f.principal, id, dto.VerifiedGradingRequest{Teaching: "Good"})
	require.ErrorIs(t, err, ErrAppraisalFinalized)
	_, err = f.reviews.Recalculate(ctx, f.admin, id)
	require.ErrorIs(t, err, ErrAppraisalFinalized)
	_, err = f.appraisals.Update(ctx, f.faculty, id, dto.AppraisalUpdateRequest{FormData: teachingOnlyForm(1, 1)})
	require.ErrorIs(t, err, ErrAppraisalFinalized)
	_, err = f.appraisals.Save(ctx, f.faculty, dto.AppraisalSaveRequest{
		FormType:     "SPPU",
		AcademicYear: "2024-25",
		FormData:     teachingOnlyForm(100, 90),
	})
	require.ErrorIs(t, err, ErrAppraisalFinalized)

	history, err := f.reviews.History(ctx, f.faculty, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.ApprovalRoleHOD, history[0].Role)
	require.Equal(t, models.ApprovalActionApproved, history[0].Action)
	require.Equal(t, models.ApprovalRolePrincipal, history[1].Role)
	require.Equal(t, models.ApprovalActionApproved, history[1].Action)
	require.Equal(t, workflow.StatePrincipalApproved, history[1].ToState)
	require.Equal(t, "approved by principal", history[1].Remarks)
}

func TestVerifiedGradeHiddenFromSubmitterUntilApproval(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := submittedAppraisal(t, f)

	_, err := f.reviews.StartReview(ctx, f.hod, id)
	require.NoError(t, err)
	_, err = f.reviews.UpdateVerifiedGrading(ctx, f.hod, id, dto.VerifiedGradingRequest{
		Teaching:   "Not Satisfactory",
		Activities: "Good",
	})
	require.NoError(t, err)

	score, err := f.appraisals.Score(ctx, f.faculty, id)
	require.NoError(t, err)
	require.Empty(t, score.VerifiedGrade)

	report, err := f.appraisals.Report(ctx, f.faculty, id)
	require.NoError(t, err)
	require.NotNil(t, report.Score)
	require.Empty(t, report.Score.VerifiedGrade)
	require.Empty(t, report.Verified)

	reviewerView, err := f.appraisals.Score(ctx, f.hod, id)
	require.NoError(t, err)
	require.Equal(t, string(scoring.GradeNotSatisfactory), reviewerView.VerifiedGrade)

	_, err = f.reviews.Approve(ctx, f.hod, id, dto.ReviewApproveRequest{})
	require.NoError(t, err)

	score, err = f.appraisals.Score(ctx, f.faculty, id)
	require.NoError(t, err)
	require.Equal(t, string(scoring.GradeNotSatisfactory), score.VerifiedGrade)

	report, err = f.appraisals.Report(ctx, f.faculty, id)
	require.NoError(t, err)
	require.Equal(t, string(scoring.GradeNotSatisfactory), report.Score.VerifiedGrade)
	require.Len(t, report.Verified, 1)
}

func TestReviewReturnThenApproveOverwritesHistory(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := submittedAppraisal(t, f)

	_, err := f.reviews.Return(ctx, f.hod, id, dto.ReviewReturnRequest{Remarks: "   "})
	require.ErrorIs(t, err, ErrRemarksRequired)

	resp, err := f.reviews.Return(ctx, f.hod, id, dto.ReviewReturnRequest{Remarks: "<b>Attach</b> attendance sheets"})
	require.NoError(t, err)
	require.Equal(t, workflow.StateReturnedByHOD, resp.To)

	history, err := f.reviews.History(ctx, f.hod, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ApprovalActionSentBack, history[0].Action)
	require.Equal(t, "Attach attendance sheets", history[0].Remarks)

	updated, err := f.appraisals.Update(ctx, f.faculty, id, dto.AppraisalUpdateRequest{FormData: teachingOnlyForm(100, 75)})
	require.NoError(t, err)
	require.Equal(t, workflow.StateReturnedByHOD, updated.Status)

	resubmitted, err := f.appraisals.Submit(ctx, f.faculty, id)
	require.NoError(t, err)
	require.Equal(t, workflow.StateReturnedByHOD, resubmitted.From)
	require.Equal(t, 7.0, resubmitted.Score.TotalScore)

	_, err = f.reviews.StartReview(ctx, f.hod, id)
	require.NoError(t, err)
	_, err = f.reviews.Approve(ctx, f.hod, id, dto.ReviewApproveRequest{})
	require.NoError(t, err)

	history, err = f.reviews.History(ctx, f.hod, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ApprovalRoleHOD, history[0].Role)
	require.Equal(t, models.ApprovalActionApproved, history[0].Action)
	require.Equal(t, workflow.StateHODApproved, history[0].ToState)
}

func TestReviewRejectsUnauthorisedActors(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := submittedAppraisal(t, f)

	_, err := f.reviews.StartReview(ctx, f.faculty, id)
	require.ErrorIs(t, err, ErrSelfApproval)

	_, err = f.reviews.StartReview(ctx, f.otherHOD, id)
	require.ErrorIs(t, err, ErrOutsideDepartment)

	_, err = f.reviews.StartReview(ctx, f.principal, id)
	require.ErrorIs(t, err, ErrForbiddenTransition)

	_, err = f.reviews.Approve(ctx, f.hod, id, dto.ReviewApproveRequest{})
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	_, err = f.reviews.Finalize(ctx, f.principal, id)
	require.ErrorIs(t, err, workflow.ErrInvalidTransition)

	_, err = f.reviews.Finalize(ctx, f.hod, id)
	require.ErrorIs(t, err, ErrForbiddenTransition)

	_, err = f.reviews.StartReview(ctx, f.hod, 4242)
	require.ErrorIs(t, err, ErrAppraisalNotFound)
}

func TestSelfReviewAppraisalRoutesToPrincipal(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()

	draft := saveDraft(t, f, f.hod, teachingOnlyForm(100, 90))
	require.True(t, draft.IsSelfReview)
	require.Nil(t, draft.HODID)
	_, err := f.appraisals.Submit(ctx, f.hod, draft.ID)
	require.NoError(t, err)

	hodQueue, err := f.reviews.Queue(ctx, f.hod, dto.ReviewQueueRequest{})
	require.NoError(t, err)
	require.Empty(t, hodQueue.Items)

	principalQueue, err := f.reviews.Queue(ctx, f.principal, dto.ReviewQueueRequest{})
	require.NoError(t, err)
	require.Len(t, principalQueue.Items, 1)
	require.Equal(t, draft.ID, principalQueue.Items[0].ID)

	_, err = f.reviews.StartReview(ctx, f.otherHOD, draft.ID)
	require.ErrorIs(t, err, ErrForbiddenTransition)

	resp, err := f.reviews.StartReview(ctx, f.principal, draft.ID)
	require.NoError(t, err)
	require.Equal(t, workflow.StateReviewedByHOD, resp.To)

	view, err := f.reviews.UpdateVerifiedGrading(ctx, f.principal, draft.ID, dto.VerifiedGradingRequest{Legacy: "Satisfactory"})
	require.NoError(t, err)
	require.Equal(t, string(verification.ReviewerPrincipal), view.Reviewer)
	require.Equal(t, scoring.GradeSatisfactory, view.Overall)
}

func TestReviewQueueScopesByRole(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := submittedAppraisal(t, f)

	queue, err := f.reviews.Queue(ctx, f.hod, dto.ReviewQueueRequest{})
	require.NoError(t, err)
	require.Len(t, queue.Items, 1)
	require.Equal(t, id, queue.Items[0].ID)

	queue, err = f.reviews.Queue(ctx, f.otherHOD, dto.ReviewQueueRequest{})
	require.NoError(t, err)
	require.Empty(t, queue.Items)

	queue, err = f.reviews.Queue(ctx, f.principal, dto.ReviewQueueRequest{})
	require.NoError(t, err)
	require.Empty(t, queue.Items)

	queue, err = f.reviews.Queue(ctx, f.admin, dto.ReviewQueueRequest{Status: "SUBMITTED"})
	require.NoError(t, err)
	require.Len(t, queue.Items, 1)

	_, err = f.reviews.Queue(ctx, f.faculty, dto.ReviewQueueRequest{})
	require.ErrorIs(t, err, ErrAppraisalForbidden)
}

func TestVerifiedGradingIsHiddenFromSubmitterUntilApproval(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := submittedAppraisal(t, f)

	_, err := f.reviews.StartReview(ctx, f.hod, id)
	require.NoError(t, err)

	view, err := f.reviews.UpdateVerifiedGrading(ctx, f.hod, id, dto.VerifiedGradingRequest{
		Teaching:   "Good",
		Activities: "Satisfactory",
		Research:   map[string]interface{}{"peer_reviewed_journals": 8, "unknown_key": 3},
	})
	require.NoError(t, err)
	require.Equal(t, scoring.GradeSatisfactory, view.Overall)
	require.Equal(t, map[string]float64{"peer_reviewed_journals": 8}, view.Research)

	partial, err := f.reviews.UpdateVerifiedGrading(ctx, f.hod, id, dto.VerifiedGradingRequest{Activities: "Good"})
	require.NoError(t, err)
	require.Equal(t, scoring.GradeGood, partial.Teaching)
	require.Equal(t, scoring.GradeGood, partial.Overall)

	ownView, err := f.appraisals.Get(ctx, f.faculty, id)
	require.NoError(t, err)
	review, _ := ownView.FormData[verification.KeyHODReview].(map[string]interface{})
	require.NotContains(t, review, "table1_verified_teaching")

	report, err := f.appraisals.Report(ctx, f.faculty, id)
	require.NoError(t, err)
	require.Empty(t, report.Verified)
	require.NotNil(t, report.Breakdown)
	require.Equal(t, 10.0, report.Breakdown.TotalScore)

	reviewerView, err := f.appraisals.Get(ctx, f.hod, id)
	require.NoError(t, err)
	review, _ = reviewerView.FormData[verification.KeyHODReview].(map[string]interface{})
	require.Equal(t, "Good", review["table1_verified_teaching"])

	_, err = f.reviews.Approve(ctx, f.hod, id, dto.ReviewApproveRequest{})
	require.NoError(t, err)

	report, err = f.appraisals.Report(ctx, f.faculty, id)
	require.NoError(t, err)
	require.Len(t, report.Verified, 1)
	require.Equal(t, "hod", report.Verified[0].Reviewer)
	require.Equal(t, scoring.GradeGood, report.Verified[0].Overall)
	require.Equal(t, string(scoring.GradeGood), report.Score.VerifiedGrade)

	_, err = f.reviews.UpdateVerifiedGrading(ctx, f.hod, id, dto.VerifiedGradingRequest{Teaching: "Not Satisfactory"})
	require.ErrorIs(t, err, ErrForbiddenTransition)
}

func TestVerifiedGradingClosedBeforeSubmission(t *testing.T) {
	f := newWorkflowFixture(t)
	draft := saveDraft(t, f, f.faculty, teachingOnlyForm(100, 90))

	_, err := f.reviews.UpdateVerifiedGrading(context.Background(), f.hod, draft.ID, dto.VerifiedGradingRequest{Teaching: "Good"})
	require.ErrorIs(t, err, ErrGradingClosed)
}

func TestRecalculateRefreshesCachedScore(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	id := submittedAppraisal(t, f)

	first, err := f.scores.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, 10.0, first.TotalScore)

	cached, err := f.scores.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)

	_, err = f.reviews.Recalculate(ctx, f.faculty, id)
	require.ErrorIs(t, err, ErrSelfApproval)

	recalculated, err := f.reviews.Recalculate(ctx, f.hod, id)
	require.NoError(t, err)
	require.Equal(t, 10.0, recalculated.TotalScore)

	fresh, err := f.scores.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, fresh.CacheHit)

	var logs []models.ActivityLog
	require.NoError(t, f.db.Where("action = ?", models.ActivityActionRecalculated).Find(&logs).Error)
	require.Len(t, logs, 1)
}
