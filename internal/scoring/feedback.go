package scoring

import "math"

// FeedbackCeiling bounds both single feedback entries and the category score.
const FeedbackCeiling = 25.0

// FeedbackEntry is the student feedback result for one course.
type FeedbackEntry struct {
	Course string  `json:"course,omitempty"`
	Score  float64 `json:"feedback_score"`
}

// FeedbackResult is the calculator output for student feedback.
type FeedbackResult struct {
	Entries int     `json:"entries"`
	Sum     float64 `json:"sum"`
	Average float64 `json:"average"`
	Score   float64 `json:"score"`
}

// ValidateFeedback rejects entries outside [0, FeedbackCeiling].
func ValidateFeedback(entries []FeedbackEntry) error {
	for i, entry := range entries {
		if math.IsNaN(entry.Score) || entry.Score < 0 || entry.Score > FeedbackCeiling {
			return entryError(CategoryFeedback, i, "feedback_score", "must be between 0 and "+formatPoints(FeedbackCeiling))
		}
	}
	return nil
}

// ScoreFeedback reports min(sum, 25) as the score and the clamped average for display.
func ScoreFeedback(entries []FeedbackEntry) (FeedbackResult, error) {
	if err := ValidateFeedback(entries); err != nil {
		return FeedbackResult{}, err
	}

	result := FeedbackResult{Entries: len(entries)}
	if len(entries) == 0 {
		return result, nil
	}

	for _, entry := range entries {
		result.Sum += entry.Score
	}
	result.Sum = round2(result.Sum)
	result.Average = round2(math.Min(result.Sum/float64(len(entries)), FeedbackCeiling))
	result.Score = math.Min(result.Sum, FeedbackCeiling)

	return result, nil
}
