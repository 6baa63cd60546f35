package scoring

import "fmt"

// Breakdown is the full scoring result of one submission. Category results that
// do not apply to the form type are nil.
type Breakdown struct {
	FormType        FormType         `json:"form_type"`
	Teaching        TeachingResult   `json:"teaching"`
	Activities      *ChecklistResult `json:"activities,omitempty"`
	StudentFeedback *FeedbackResult  `json:"student_feedback,omitempty"`
	Departmental    *CreditResult    `json:"departmental_activities,omitempty"`
	Institute       *CreditResult    `json:"institute_activities,omitempty"`
	Society         *CreditResult    `json:"society_activities,omitempty"`
	ACR             *ACRResult       `json:"acr,omitempty"`
	Research        ResearchResult   `json:"research"`
	TotalScore      float64          `json:"total_score"`
}

var formCategories = map[FormType][]Category{
	FormTypeSPPU: {CategoryTeaching, CategoryActivities, CategoryResearch},
	FormTypePBAS: {
		CategoryTeaching,
		CategoryFeedback,
		CategoryDepartmental,
		CategoryInstitute,
		CategorySociety,
		CategoryACR,
		CategoryResearch,
	},
}

// Categories returns the categories scored for a form type, in summation order.
func Categories(formType FormType) []Category {
	return append([]Category(nil), formCategories[formType]...)
}

// ValidateCategory checks a single category of data without scoring it.
func ValidateCategory(category Category, data FormData) error {
	switch category {
	case CategoryTeaching:
		return ValidateTeaching(data.Teaching)
	case CategoryActivities, CategoryACR:
		return nil
	case CategoryFeedback:
		return ValidateFeedback(data.Feedback)
	case CategoryDepartmental:
		return departmentalRule.Validate(data.Departmental)
	case CategoryInstitute:
		return instituteRule.Validate(data.Institute)
	case CategorySociety:
		return societyRule.Validate(data.Society)
	case CategoryResearch:
		return ValidateResearch(data.Research)
	default:
		return &ValidationError{Category: category, Index: -1, Reason: "unknown category"}
	}
}

// Validate checks every category of the form type and returns the first failure.
func Validate(data FormData, formType FormType) error {
	categories, ok := formCategories[formType]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownFormType, formType)
	}
	for _, category := range categories {
		if err := ValidateCategory(category, data); err != nil {
			return err
		}
	}
	return nil
}

// Compute validates data and scores every category that applies to formType.
// The result depends only on its inputs.
func Compute(data FormData, formType FormType) (Breakdown, error) {
	if err := Validate(data, formType); err != nil {
		return Breakdown{}, err
	}

	breakdown := Breakdown{FormType: formType}

	research, err := ScoreResearch(data.Research)
	if err != nil {
		return Breakdown{}, err
	}
	breakdown.Research = research

	switch formType {
	case FormTypeSPPU:
		breakdown.Teaching = ScoreTeaching(data.Teaching, TeachingShortForm)
		activities := ScoreChecklist(data.Activities)
		breakdown.Activities = &activities
	case FormTypePBAS:
		breakdown.Teaching = ScoreTeaching(data.Teaching, TeachingFullForm)

		feedback, err := ScoreFeedback(data.Feedback)
		if err != nil {
			return Breakdown{}, err
		}
		breakdown.StudentFeedback = &feedback

		for _, list := range []struct {
			entries []CreditEntry
			score   func([]CreditEntry) (CreditResult, error)
			target  **CreditResult
		}{
			{data.Departmental, ScoreDepartmental, &breakdown.Departmental},
			{data.Institute, ScoreInstitute, &breakdown.Institute},
			{data.Society, ScoreSociety, &breakdown.Society},
		} {
			result, err := list.score(list.entries)
			if err != nil {
				return Breakdown{}, err
			}
			*list.target = &result
		}

		acr := ScoreACR(data.ACR)
		breakdown.ACR = &acr
	}

	var total float64
	for _, category := range formCategories[formType] {
		total += breakdown.Score(category)
	}
	breakdown.TotalScore = round2(total)

	return breakdown, nil
}

// Evaluate normalises a raw form_data document and computes its breakdown.
func Evaluate(raw map[string]any, formType FormType) (Breakdown, error) {
	data, err := Normalize(raw)
	if err != nil {
		return Breakdown{}, err
	}
	return Compute(data, formType)
}

// Score returns the sub-score of a category, or 0 when it was not computed.
func (b Breakdown) Score(category Category) float64 {
	switch category {
	case CategoryTeaching:
		return b.Teaching.Score
	case CategoryActivities:
		if b.Activities != nil {
			return b.Activities.Score
		}
	case CategoryFeedback:
		if b.StudentFeedback != nil {
			return b.StudentFeedback.Score
		}
	case CategoryDepartmental:
		if b.Departmental != nil {
			return b.Departmental.TotalAwarded
		}
	case CategoryInstitute:
		if b.Institute != nil {
			return b.Institute.TotalAwarded
		}
	case CategorySociety:
		if b.Society != nil {
			return b.Society.TotalAwarded
		}
	case CategoryACR:
		if b.ACR != nil {
			return b.ACR.Points
		}
	case CategoryResearch:
		return b.Research.Total
	}
	return 0
}
