package scoring

import (
	"strconv"
	"strings"
)

// ACRMax is the highest ACR score.
const ACRMax = 10.0

var acrGradePoints = map[string]float64{
	"A+": 10,
	"A":  8,
	"B":  6,
	"C":  4,
}

// acrTiers is ordered from the highest threshold down.
var acrTiers = []struct {
	threshold float64
	grade     string
}{
	{10, "A+"},
	{8, "A"},
	{6, "B"},
	{4, "C"},
}

// ACRInput carries the annual confidential report grade as submitted.
type ACRInput struct {
	Raw string `json:"grade,omitempty"`
}

// ACRResult is the calculator output for the ACR grade.
type ACRResult struct {
	Input  string  `json:"input"`
	Grade  string  `json:"grade,omitempty"`
	Points float64 `json:"points"`
}

// ScoreACR maps a letter grade or a raw number onto the ACR scale. It never fails;
// anything unparsable scores 0.
func ScoreACR(in ACRInput) ACRResult {
	raw := strings.TrimSpace(in.Raw)
	result := ACRResult{Input: raw}
	if raw == "" {
		return result
	}

	letter := strings.ToUpper(raw)
	if points, ok := acrGradePoints[letter]; ok {
		result.Grade = letter
		result.Points = points
		return result
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return result
	}
	for _, tier := range acrTiers {
		if value >= tier.threshold {
			result.Grade = tier.grade
			result.Points = acrGradePoints[tier.grade]
			break
		}
	}
	return result
}
