// Package verification keeps the grades reviewers attach to an appraisal
// separate from the submitter's own self-assessment.
package verification

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/noah-isme/appraisal-go-api/internal/scoring"
)

// Reviewer identifies whose verified grades are being read or written.
type Reviewer string

const (
	ReviewerHOD       Reviewer = "hod"
	ReviewerPrincipal Reviewer = "principal"
)

const (
	KeyHODReview       = "hod_review"
	KeyPrincipalReview = "principal_review"

	fieldTeaching   = "table1_verified_teaching"
	fieldActivities = "table1_verified_activities"
	fieldResearch   = "table2_verified_scores"
)

var researchKeys = []string{
	"peer_reviewed_journals",
	"books_international",
	"books_national",
	"chapter_edited_book",
	"editor_book_international",
	"editor_book_national",
	"translation_chapter_or_paper",
	"translation_book",
	"pedagogy_development",
	"curriculum_design",
	"moocs_4quadrant",
	"moocs_single_lecture",
	"moocs_content_writer",
	"moocs_coordinator",
	"econtent_4quadrant_complete",
	"econtent_4quadrant_per_module",
	"econtent_module_contribution",
	"econtent_editor",
	"phd_awarded",
	"phd_submitted",
	"mphil_pg_dissertation",
	"research_project_above_10l",
	"research_project_below_10l",
	"research_project_ongoing_above_10l",
	"research_project_ongoing_below_10l",
	"consultancy",
	"patent_international",
	"patent_national",
	"policy_international",
	"policy_national",
	"policy_state",
	"award_international",
	"award_national",
	"conference_international_abroad",
	"conference_international_country",
	"conference_national",
	"conference_state_university",
	"total",
}

var researchKeySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(researchKeys))
	for _, key := range researchKeys {
		set[key] = struct{}{}
	}
	return set
}()

// ResearchKeys returns the closed set of research override keys.
func ResearchKeys() []string {
	return append([]string(nil), researchKeys...)
}

// Grading is one reviewer's verified view of an appraisal.
type Grading struct {
	Teaching   scoring.Grade      `json:"table1_verified_teaching,omitempty"`
	Activities scoring.Grade      `json:"table1_verified_activities,omitempty"`
	Research   map[string]float64 `json:"table2_verified_scores,omitempty"`
}

// Overall derives the combined grade from the two verified table-1 grades.
func (g Grading) Overall() scoring.Grade {
	return DeriveOverallGrade(g.Teaching, g.Activities)
}

// IsZero reports whether no verified value has been recorded.
func (g Grading) IsZero() bool {
	return g.Teaching == "" && g.Activities == "" && len(g.Research) == 0
}

// Partial is an incoming update. Empty strings, invalid grades and research
// values that are not numbers leave the stored value alone.
type Partial struct {
	Teaching   string         `json:"table1_verified_teaching,omitempty"`
	Activities string         `json:"table1_verified_activities,omitempty"`
	Legacy     string         `json:"verified_grade,omitempty"`
	Research   map[string]any `json:"table2_verified_scores,omitempty"`
}

// Merge applies incoming on top of existing without mutating either.
func Merge(existing Grading, incoming Partial) Grading {
	merged := Grading{
		Teaching:   existing.Teaching,
		Activities: existing.Activities,
	}
	if len(existing.Research) > 0 {
		merged.Research = make(map[string]float64, len(existing.Research))
		for key, value := range existing.Research {
			merged.Research[key] = value
		}
	}

	teaching := sanitizeGrade(incoming.Teaching)
	activities := sanitizeGrade(incoming.Activities)
	if teaching != "" {
		merged.Teaching = teaching
	}
	if activities != "" {
		merged.Activities = activities
	}
	if legacy := sanitizeGrade(incoming.Legacy); legacy != "" && teaching == "" && activities == "" {
		merged.Teaching = legacy
		merged.Activities = legacy
	}

	for _, key := range researchKeys {
		raw, ok := incoming.Research[key]
		if !ok {
			continue
		}
		value, ok := scoreValue(raw)
		if !ok {
			continue
		}
		if merged.Research == nil {
			merged.Research = make(map[string]float64)
		}
		merged.Research[key] = value
	}

	return merged
}

// DeriveOverallGrade combines teaching and activity grades into one result.
func DeriveOverallGrade(teaching, activity scoring.Grade) scoring.Grade {
	activityPasses := activity == scoring.GradeGood || activity == scoring.GradeSatisfactory
	switch {
	case teaching == scoring.GradeGood && activityPasses:
		return scoring.GradeGood
	case teaching == scoring.GradeSatisfactory && activityPasses:
		return scoring.GradeSatisfactory
	default:
		return scoring.GradeNotSatisfactory
	}
}

// ReviewKey returns the form_data key holding a reviewer's grades.
func ReviewKey(reviewer Reviewer) string {
	switch reviewer {
	case ReviewerHOD:
		return KeyHODReview
	case ReviewerPrincipal:
		return KeyPrincipalReview
	default:
		return ""
	}
}

// Extract reads a reviewer's grading out of form_data, discarding anything invalid.
func Extract(formData map[string]any, reviewer Reviewer) Grading {
	review, _ := formData[ReviewKey(reviewer)].(map[string]any)
	if review == nil {
		return Grading{}
	}

	grading := Grading{
		Teaching:   sanitizeGrade(review[fieldTeaching]),
		Activities: sanitizeGrade(review[fieldActivities]),
	}
	if scores, ok := review[fieldResearch].(map[string]any); ok {
		for _, key := range researchKeys {
			value, ok := scoreValue(scores[key])
			if !ok {
				continue
			}
			if grading.Research == nil {
				grading.Research = make(map[string]float64)
			}
			grading.Research[key] = value
		}
	}
	return grading
}

// Embed returns a copy of formData with the reviewer's grading written into its
// review object. Other keys of the review object, such as comments, are kept.
func Embed(formData map[string]any, reviewer Reviewer, grading Grading) map[string]any {
	key := ReviewKey(reviewer)
	result := make(map[string]any, len(formData)+1)
	for k, v := range formData {
		result[k] = v
	}
	if key == "" {
		return result
	}

	review := make(map[string]any)
	if existing, ok := formData[key].(map[string]any); ok {
		for k, v := range existing {
			review[k] = v
		}
	}

	setGrade(review, fieldTeaching, grading.Teaching)
	setGrade(review, fieldActivities, grading.Activities)
	if len(grading.Research) > 0 {
		scores := make(map[string]any, len(grading.Research))
		for k, v := range grading.Research {
			scores[k] = v
		}
		review[fieldResearch] = scores
	} else {
		delete(review, fieldResearch)
	}
	if grading.Teaching != "" && grading.Activities != "" {
		review["verified_overall_grade"] = string(grading.Overall())
	} else {
		delete(review, "verified_overall_grade")
	}

	result[key] = review
	return result
}

// MergeInto merges incoming into the reviewer's stored grading and embeds the result.
func MergeInto(formData map[string]any, reviewer Reviewer, incoming Partial) (map[string]any, Grading) {
	merged := Merge(Extract(formData, reviewer), incoming)
	return Embed(formData, reviewer, merged), merged
}

func setGrade(review map[string]any, field string, grade scoring.Grade) {
	if grade == "" {
		delete(review, field)
		return
	}
	review[field] = string(grade)
}

func sanitizeGrade(value any) scoring.Grade {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	grade := scoring.Grade(strings.TrimSpace(text))
	if !grade.Valid() {
		return ""
	}
	return grade
}

func scoreValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, v >= 0
	case int:
		return float64(v), v >= 0
	case json.Number:
		f, err := v.Float64()
		return f, err == nil && f >= 0
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(text, 64)
		return f, err == nil && f >= 0
	default:
		return 0, false
	}
}

// IsResearchKey reports whether key belongs to the closed override set.
func IsResearchKey(key string) bool {
	_, ok := researchKeySet[key]
	return ok
}
