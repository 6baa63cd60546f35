package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTeachingGradeBoundaries(t *testing.T) {
	cases := []struct {
		held, scheduled int
		percentage      float64
		grade           Grade
	}{
		{held: 80, scheduled: 100, percentage: 80, grade: GradeGood},
		{held: 70, scheduled: 100, percentage: 70, grade: GradeSatisfactory},
		{held: 7999, scheduled: 10000, percentage: 79.99, grade: GradeSatisfactory},
		{held: 6999, scheduled: 10000, percentage: 69.99, grade: GradeNotSatisfactory},
		{held: 2, scheduled: 3, percentage: 66.67, grade: GradeNotSatisfactory},
		{held: 0, scheduled: 0, percentage: 0, grade: GradeNotSatisfactory},
		{held: 15999, scheduled: 20000, percentage: 80, grade: GradeSatisfactory},
		{held: 13999, scheduled: 20000, percentage: 70, grade: GradeNotSatisfactory},
	}

	for _, tc := range cases {
		require.Equal(t, tc.percentage, AttendancePercentage(tc.held, tc.scheduled), "%d/%d", tc.held, tc.scheduled)
		result := ScoreTeaching(TeachingInput{Scheduled: tc.scheduled, Held: tc.held}, TeachingFullForm)
		require.Equal(t, tc.percentage, result.Percentage, "%d/%d", tc.held, tc.scheduled)
		require.Equal(t, tc.grade, result.Grade, "%d/%d", tc.held, tc.scheduled)
	}
}

func TestShortFormGradesUnroundedAttendance(t *testing.T) {
	result := ScoreTeaching(TeachingInput{Scheduled: 20000, Held: 15999}, TeachingShortForm)
	require.Equal(t, 80.0, result.Percentage)
	require.Equal(t, GradeSatisfactory, result.Grade)
	require.Equal(t, 7.0, result.Score)
}

func TestScoreTeachingVariants(t *testing.T) {
	full := ScoreTeaching(TeachingInput{Scheduled: 100, Held: 90}, TeachingFullForm)
	require.Equal(t, 90.0, full.Percentage)
	require.Equal(t, GradeGood, full.Grade)
	require.Equal(t, 22.5, full.Score)
	require.Equal(t, TeachingFullFormMax, full.MaxScore)

	short := ScoreTeaching(TeachingInput{Scheduled: 100, Held: 75}, TeachingShortForm)
	require.Equal(t, GradeSatisfactory, short.Grade)
	require.Equal(t, 7.0, short.Score)

	none := ScoreTeaching(TeachingInput{}, TeachingShortForm)
	require.Zero(t, none.Score)
}

func TestValidateTeaching(t *testing.T) {
	require.NoError(t, ValidateTeaching(TeachingInput{Scheduled: 10, Held: 10}))

	err := ValidateTeaching(TeachingInput{Scheduled: 10, Held: 11})
	require.ErrorIs(t, err, ErrValidation)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, CategoryTeaching, validationErr.Category)
	require.Equal(t, "held", validationErr.Field)

	require.ErrorIs(t, ValidateTeaching(TeachingInput{Scheduled: -1}), ErrValidation)
}

func TestScoreChecklist(t *testing.T) {
	result := ScoreChecklist(ActivityChecklist{
		ItemAdministrative: true,
		ItemExamDuties:     true,
		ItemPhDGuidance:    true,
		ItemStudentRelated: false,
	})
	require.Equal(t, 3, result.YesCount)
	require.Equal(t, GradeGood, result.Grade)
	require.Equal(t, 10.0, result.Score)
	require.Len(t, result.Items, 7)

	single := ScoreChecklist(ActivityChecklist{ItemSponsoredProject: true, ActivityItem("gardening"): true})
	require.Equal(t, 1, single.YesCount)
	require.Equal(t, GradeSatisfactory, single.Grade)
	require.Equal(t, 5.0, single.Score)

	empty := ScoreChecklist(nil)
	require.Equal(t, GradeNotSatisfactory, empty.Grade)
	require.Zero(t, empty.Score)
}

func TestDepartmentalCeiling(t *testing.T) {
	entries := make([]CreditEntry, 0, 7)
	for i := 0; i < 7; i++ {
		entries = append(entries, CreditEntry{Activity: "Lab In charge", CreditsClaimed: 3})
	}

	result, err := ScoreDepartmental(entries)
	require.NoError(t, err)
	require.Equal(t, 21.0, result.TotalClaimed)
	require.Equal(t, 20.0, result.TotalAwarded)
	require.Equal(t, 7, result.Entries)
}

func TestDepartmentalRejectsEntryAboveCap(t *testing.T) {
	_, err := ScoreDepartmental([]CreditEntry{
		{Activity: "Lab In charge", CreditsClaimed: 2},
		{Activity: "Cleanliness in charge", CreditsClaimed: 3.5},
	})
	require.ErrorIs(t, err, ErrValidation)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, CategoryDepartmental, validationErr.Category)
	require.Equal(t, 1, validationErr.Index)
	require.Equal(t, "credits_claimed", validationErr.Field)
	require.Contains(t, err.Error(), "#2")
}

func TestInstituteCapsByActivityCode(t *testing.T) {
	result, err := ScoreInstitute([]CreditEntry{
		{ActivityCode: "HOD_DEAN", CreditsClaimed: 4},
		{ActivityCode: "fdp_conference_coordinator", CreditsClaimed: 0.5},
		{ActivityCode: "ORGANIZED_CONFERENCE", CreditsClaimed: 2},
	})
	require.NoError(t, err)
	require.Equal(t, 6.5, result.TotalClaimed)
	require.Equal(t, 6.5, result.TotalAwarded)

	_, err = ScoreInstitute([]CreditEntry{{ActivityCode: "FDP_CONFERENCE_COORDINATOR", CreditsClaimed: 1.5}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = ScoreInstitute([]CreditEntry{{ActivityCode: "COORDINATOR_APPOINTED_BY_HOI", CreditsClaimed: 3}})
	require.ErrorIs(t, err, ErrValidation)

	capped, err := ScoreInstitute([]CreditEntry{
		{CreditsClaimed: 4}, {CreditsClaimed: 4}, {CreditsClaimed: 4},
	})
	require.NoError(t, err)
	require.Equal(t, 10.0, capped.TotalAwarded)
}

func TestSocietyRejectsNegativeCredits(t *testing.T) {
	_, err := ScoreSociety([]CreditEntry{{CreditsClaimed: -1}})
	require.ErrorIs(t, err, ErrValidation)

	result, err := ScoreSociety([]CreditEntry{{CreditsClaimed: 5}, {CreditsClaimed: 5}, {CreditsClaimed: 5}})
	require.NoError(t, err)
	require.Equal(t, 10.0, result.TotalAwarded)
}

func TestScoreFeedback(t *testing.T) {
	result, err := ScoreFeedback([]FeedbackEntry{{Course: "DBMS", Score: 20}, {Course: "OS", Score: 15}})
	require.NoError(t, err)
	require.Equal(t, 35.0, result.Sum)
	require.Equal(t, 17.5, result.Average)
	require.Equal(t, 25.0, result.Score)

	single, err := ScoreFeedback([]FeedbackEntry{{Score: 18.25}})
	require.NoError(t, err)
	require.Equal(t, 18.25, single.Score)

	_, err = ScoreFeedback([]FeedbackEntry{{Score: 10}, {Score: 26}})
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, 1, validationErr.Index)
	require.Equal(t, CategoryFeedback, validationErr.Category)

	empty, err := ScoreFeedback(nil)
	require.NoError(t, err)
	require.Zero(t, empty.Score)
}

func TestScoreResearch(t *testing.T) {
	result, err := ScoreResearch([]ResearchEntry{
		{Type: "journal_papers", Count: 2},
		{Type: "book_international", Count: 1},
		{Type: "journal_papers", Count: 0},
		{Type: "peer_reviewed_journals", Count: 1},
		{Type: "consultancy", Count: -3},
	})
	require.NoError(t, err)
	require.Equal(t, []ResearchLine{
		{Type: "journal_papers", Count: 3, PointsPerUnit: 8, Score: 24},
		{Type: "book_international", Count: 1, PointsPerUnit: 12, Score: 12},
	}, result.Lines)
	require.Equal(t, 36.0, result.Total)
}

func TestScoreResearchRejectsUnknownType(t *testing.T) {
	_, err := ScoreResearch([]ResearchEntry{
		{Type: "journal_papers", Count: 1},
		{Type: "blog_post", Count: 4},
	})
	require.ErrorIs(t, err, ErrValidation)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, 1, validationErr.Index)
	require.Equal(t, "type", validationErr.Field)
}

func TestResearchPointTable(t *testing.T) {
	points, ok := ResearchPoints("Invited-Lecture State University")
	require.True(t, ok)
	require.Equal(t, 2.0, points)

	points, ok = ResearchPoints("conference_international_country")
	require.True(t, ok)
	require.Equal(t, 5.0, points)

	types := ResearchTypes()
	require.Contains(t, types, "mooc_complete_4_quadrant")
	require.IsIncreasing(t, types)
}

func TestScoreACR(t *testing.T) {
	cases := map[string]float64{
		"A+":        10,
		"a":         8,
		" b ":       6,
		"C":         4,
		"D":         0,
		"9.5":       8,
		"10":        10,
		"6":         6,
		"3.9":       0,
		"excellent": 0,
		"":          0,
	}
	for input, expected := range cases {
		require.Equal(t, expected, ScoreACR(ACRInput{Raw: input}).Points, "input %q", input)
	}

	require.Equal(t, "A", ScoreACR(ACRInput{Raw: "8.4"}).Grade)
}
