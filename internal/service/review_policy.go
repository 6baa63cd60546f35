package service

import (
	"errors"
	"strings"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/verification"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

var (
	// ErrForbiddenTransition indicates the actor's role may not request the transition.
	ErrForbiddenTransition = errors.New("actor is not allowed to perform this transition")
	// ErrSelfApproval indicates a submitter tried to review their own appraisal.
	ErrSelfApproval = errors.New("submitters cannot review their own appraisal")
	// ErrOutsideDepartment indicates an HOD acting on another department's appraisal.
	ErrOutsideDepartment = errors.New("appraisal belongs to another department")
	// ErrAppraisalFinalized indicates the appraisal is closed to further changes.
	ErrAppraisalFinalized = errors.New("appraisal is finalized")
)

type reviewStage int

const (
	stageHOD reviewStage = iota
	stagePrincipal
)

// stageOf reports which reviewer currently owns the appraisal.
func stageOf(status workflow.State) reviewStage {
	switch status {
	case workflow.StateDraft, workflow.StateSubmitted, workflow.StateReviewedByHOD, workflow.StateReturnedByHOD:
		return stageHOD
	default:
		return stagePrincipal
	}
}

func startTarget(stage reviewStage) workflow.State {
	if stage == stageHOD {
		return workflow.StateReviewedByHOD
	}
	return workflow.StateReviewedByPrincipal
}

func approveTarget(stage reviewStage) workflow.State {
	if stage == stageHOD {
		return workflow.StateHODApproved
	}
	return workflow.StatePrincipalApproved
}

func returnTarget(stage reviewStage) workflow.State {
	if stage == stageHOD {
		return workflow.StateReturnedByHOD
	}
	return workflow.StateReturnedByPrincipal
}

func historyRole(stage reviewStage) string {
	if stage == stageHOD {
		return models.ApprovalRoleHOD
	}
	return models.ApprovalRolePrincipal
}

// reviewerFor names the verified grading section a stage writes to. Self-review
// appraisals skip the department reviewer entirely.
func reviewerFor(appraisal models.Appraisal, stage reviewStage) verification.Reviewer {
	if stage == stageHOD && !appraisal.IsSelfReview {
		return verification.ReviewerHOD
	}
	return verification.ReviewerPrincipal
}

func stageForTarget(target workflow.State) reviewStage {
	switch target {
	case workflow.StateReviewedByHOD, workflow.StateHODApproved, workflow.StateReturnedByHOD:
		return stageHOD
	default:
		return stagePrincipal
	}
}

func stageRole(appraisal models.Appraisal, stage reviewStage) string {
	if stage == stageHOD && !appraisal.IsSelfReview {
		return models.RoleHOD
	}
	return models.RolePrincipal
}

// authorizeTransition decides whether actor may move appraisal to requested.
// Legality of the edge itself is left to the state machine.
func authorizeTransition(actor Actor, appraisal models.Appraisal, requested workflow.State) error {
	if appraisal.Status == workflow.StateFinalized {
		return ErrAppraisalFinalized
	}

	switch requested {
	case workflow.StateSubmitted:
		if actor.ID != appraisal.FacultyID {
			return ErrForbiddenTransition
		}
		return nil
	case workflow.StateDraft:
		return ErrForbiddenTransition
	}

	return authorizeReviewer(actor, appraisal, stageForTarget(requested))
}

func authorizeReviewer(actor Actor, appraisal models.Appraisal, stage reviewStage) error {
	if actor.ID == appraisal.FacultyID {
		return ErrSelfApproval
	}

	role := strings.ToLower(strings.TrimSpace(actor.Role))
	if role != stageRole(appraisal, stage) {
		return ErrForbiddenTransition
	}

	if role == models.RoleHOD {
		if actor.DepartmentID == nil || *actor.DepartmentID != appraisal.DepartmentID {
			return ErrOutsideDepartment
		}
	}
	return nil
}

// canView reports whether actor may read the appraisal at all.
func canView(actor Actor, appraisal models.Appraisal) bool {
	if actor.ID == appraisal.FacultyID {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(actor.Role)) {
	case models.RoleAdmin, models.RolePrincipal:
		return true
	case models.RoleHOD:
		return actor.DepartmentID != nil && *actor.DepartmentID == appraisal.DepartmentID
	}
	return false
}
