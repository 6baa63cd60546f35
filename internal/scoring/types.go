package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// FormType selects the scoring rubric applied to a submission.
type FormType string

const (
	FormTypeSPPU FormType = "SPPU"
	FormTypePBAS FormType = "PBAS"
)

// ErrUnknownFormType is returned for form types other than SPPU and PBAS.
var ErrUnknownFormType = errors.New("unsupported form type")

// ParseFormType normalises user input into a FormType.
func ParseFormType(value string) (FormType, error) {
	switch FormType(strings.ToUpper(strings.TrimSpace(value))) {
	case FormTypeSPPU:
		return FormTypeSPPU, nil
	case FormTypePBAS:
		return FormTypePBAS, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormType, value)
	}
}

// Grade is the three-level label used for teaching, activities and overall results.
type Grade string

const (
	GradeGood            Grade = "Good"
	GradeSatisfactory    Grade = "Satisfactory"
	GradeNotSatisfactory Grade = "Not Satisfactory"
)

// Valid reports whether g is one of the three known grades.
func (g Grade) Valid() bool {
	switch g {
	case GradeGood, GradeSatisfactory, GradeNotSatisfactory:
		return true
	default:
		return false
	}
}

// Category names a scoring category; it doubles as the form_data key.
type Category string

const (
	CategoryTeaching     Category = "teaching"
	CategoryActivities   Category = "activities"
	CategoryFeedback     Category = "student_feedback"
	CategoryDepartmental Category = "departmental_activities"
	CategoryInstitute    Category = "institute_activities"
	CategorySociety      Category = "society_activities"
	CategoryACR          Category = "acr"
	CategoryResearch     Category = "research"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a rejected category payload. Index is zero-based
// and -1 when the problem is not tied to a list entry.
type ValidationError struct {
	Category Category `json:"category"`
	Index    int      `json:"entry_index"`
	Field    string   `json:"field"`
	Reason   string   `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s entry #%d: %s %s", e.Category, e.Index+1, e.Field, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %s", e.Category, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Reason)
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func fieldError(category Category, field, reason string) *ValidationError {
	return &ValidationError{Category: category, Index: -1, Field: field, Reason: reason}
}

func entryError(category Category, index int, field, reason string) *ValidationError {
	return &ValidationError{Category: category, Index: index, Field: field, Reason: reason}
}

// FormData is the canonical, alias-free input of the calculators.
type FormData struct {
	General      map[string]string `json:"general,omitempty"`
	Teaching     TeachingInput     `json:"teaching"`
	Activities   ActivityChecklist `json:"activities,omitempty"`
	Research     []ResearchEntry   `json:"research,omitempty"`
	Feedback     []FeedbackEntry   `json:"student_feedback,omitempty"`
	Departmental []CreditEntry     `json:"departmental_activities,omitempty"`
	Institute    []CreditEntry     `json:"institute_activities,omitempty"`
	Society      []CreditEntry     `json:"society_activities,omitempty"`
	ACR          ACRInput          `json:"acr"`
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
