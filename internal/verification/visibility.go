package verification

import (
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
	"github.com/noah-isme/appraisal-go-api/internal/workflow"
)

// Visible reports whether a reviewer's verified grades may be shown to the
// submitter in the given state. Grades stay hidden until that reviewer's
// approval step has been reached.
func Visible(state workflow.State, reviewer Reviewer) bool {
	switch reviewer {
	case ReviewerHOD:
		if state == workflow.StateReturnedByHOD {
			return false
		}
		return workflow.Rank(state) >= workflow.Rank(workflow.StateHODApproved)
	case ReviewerPrincipal:
		return state == workflow.StatePrincipalApproved || state == workflow.StateFinalized
	default:
		return false
	}
}

// Redact returns a copy of formData with every verified grade removed that is
// not yet visible in state. Reviewer comments are left in place.
func Redact(formData map[string]any, state workflow.State) map[string]any {
	result := make(map[string]any, len(formData))
	for k, v := range formData {
		result[k] = v
	}

	for _, reviewer := range []Reviewer{ReviewerHOD, ReviewerPrincipal} {
		if Visible(state, reviewer) {
			continue
		}
		key := ReviewKey(reviewer)
		review, ok := formData[key].(map[string]any)
		if !ok {
			continue
		}
		redacted := make(map[string]any, len(review))
		for k, v := range review {
			switch k {
			case fieldTeaching, fieldActivities, fieldResearch, "verified_overall_grade":
				continue
			}
			redacted[k] = v
		}
		result[key] = redacted
	}

	return result
}

// VisibleOverall returns the overall verified grade a submitter may see in
// state: the principal's once visible, otherwise the HOD's. Gradings missing
// either table-1 grade have no overall and are skipped.
func VisibleOverall(formData map[string]any, state workflow.State) scoring.Grade {
	for _, reviewer := range []Reviewer{ReviewerPrincipal, ReviewerHOD} {
		if !Visible(state, reviewer) {
			continue
		}
		grading := Extract(formData, reviewer)
		if grading.Teaching != "" && grading.Activities != "" {
			return grading.Overall()
		}
	}
	return ""
}
