package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/appraisal-go-api/internal/dto"
	"github.com/noah-isme/appraisal-go-api/internal/scoring"
)

func TestScoreServicePreview(t *testing.T) {
	f := newWorkflowFixture(t)

	breakdown, err := f.scores.Preview(context.Background(), dto.ScorePreviewRequest{
		FormType: "PBAS",
		FormData: teachingOnlyForm(100, 90),
	})
	require.NoError(t, err)
	require.Equal(t, 22.5, breakdown.TotalScore)

	_, err = f.scores.Preview(context.Background(), dto.ScorePreviewRequest{FormType: "XYZ", FormData: map[string]interface{}{}})
	var validationErrs validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrs))

	_, err = f.scores.Preview(context.Background(), dto.ScorePreviewRequest{FormType: "SPPU", FormData: teachingOnlyForm(5, 9)})
	var scoringErr *scoring.ValidationError
	require.True(t, errors.As(err, &scoringErr))
	require.Equal(t, scoring.CategoryTeaching, scoringErr.Category)
}

func TestScoreServiceGetMissing(t *testing.T) {
	f := newWorkflowFixture(t)
	_, err := f.scores.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrScoreNotFound)
}

func TestScoreServiceCatalog(t *testing.T) {
	f := newWorkflowFixture(t)
	catalog := f.scores.Catalog()
	require.Len(t, catalog.Categories[scoring.FormTypeSPPU], 3)
	require.Len(t, catalog.Categories[scoring.FormTypePBAS], 7)
	require.NotEmpty(t, catalog.Activities)
	require.NotEmpty(t, catalog.ResearchTypes)
}
