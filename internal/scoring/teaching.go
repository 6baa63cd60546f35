package scoring

import "math"

// TeachingFullFormMax is the category maximum of the PBAS teaching-process score.
const TeachingFullFormMax = 25.0

// TeachingVariant selects how attendance is turned into points.
type TeachingVariant int

const (
	// TeachingFullForm scales the percentage onto TeachingFullFormMax.
	TeachingFullForm TeachingVariant = iota
	// TeachingShortForm awards a flat score per grade.
	TeachingShortForm
)

var shortFormTeachingPoints = map[Grade]float64{
	GradeGood:            10,
	GradeSatisfactory:    7,
	GradeNotSatisfactory: 0,
}

// TeachingInput holds total scheduled and held classes.
type TeachingInput struct {
	Scheduled int `json:"scheduled"`
	Held      int `json:"held"`
}

// TeachingResult is the calculator output for the teaching category.
type TeachingResult struct {
	Scheduled  int     `json:"scheduled"`
	Held       int     `json:"held"`
	Percentage float64 `json:"percentage"`
	Grade      Grade   `json:"grade"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
}

// AttendancePercentage returns held/scheduled as a percentage rounded to two
// decimals, or 0 when nothing was scheduled. The rounded value is for display
// only; grading uses the exact ratio.
func AttendancePercentage(held, scheduled int) float64 {
	return round2(attendanceRatio(held, scheduled))
}

func attendanceRatio(held, scheduled int) float64 {
	if scheduled <= 0 {
		return 0
	}
	return float64(held) * 100 / float64(scheduled)
}

// TeachingGrade maps an attendance percentage onto a grade. Lower bounds are inclusive.
func TeachingGrade(percentage float64) Grade {
	switch {
	case percentage >= 80:
		return GradeGood
	case percentage >= 70:
		return GradeSatisfactory
	default:
		return GradeNotSatisfactory
	}
}

// ValidateTeaching rejects negative counts and more held than scheduled classes.
func ValidateTeaching(in TeachingInput) error {
	if in.Scheduled < 0 {
		return fieldError(CategoryTeaching, "scheduled", "must not be negative")
	}
	if in.Held < 0 {
		return fieldError(CategoryTeaching, "held", "must not be negative")
	}
	if in.Held > in.Scheduled {
		return fieldError(CategoryTeaching, "held", "cannot exceed scheduled classes")
	}
	return nil
}

// ScoreTeaching computes the teaching sub-score for the given variant.
func ScoreTeaching(in TeachingInput, variant TeachingVariant) TeachingResult {
	ratio := attendanceRatio(in.Held, in.Scheduled)
	grade := TeachingGrade(ratio)

	result := TeachingResult{
		Scheduled:  in.Scheduled,
		Held:       in.Held,
		Percentage: round2(ratio),
		Grade:      grade,
	}

	switch variant {
	case TeachingShortForm:
		result.MaxScore = shortFormTeachingPoints[GradeGood]
		result.Score = shortFormTeachingPoints[grade]
	default:
		result.MaxScore = TeachingFullFormMax
		result.Score = round2(math.Min(ratio/100*TeachingFullFormMax, TeachingFullFormMax))
	}

	return result
}
