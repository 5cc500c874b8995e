package scoring_test

import (
	"errors"
	"testing"

	"awards/internal/scoring"
	"awards/models"

	"github.com/stretchr/testify/require"
)

func TestTotal(t *testing.T) {
	s := models.Scores{Courage: 7, Innovation: 8, Implementation: 6, Relevance: 9, Visibility: 5}
	require.Equal(t, 35, scoring.Total(s))
}

func TestValidate(t *testing.T) {
	require.NoError(t, scoring.Validate(models.Scores{Courage: 10, Visibility: 0}))

	err := scoring.Validate(models.Scores{Courage: 3, Relevance: 11})
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrInvalidInput))
	require.Contains(t, err.Error(), "relevance")

	err = scoring.Validate(models.Scores{Innovation: -1})
	require.ErrorContains(t, err, "innovation")
}

func eval(candidateID, total int, status string, active bool) models.Evaluation {
	return models.Evaluation{
		CandidateID: candidateID,
		Scores:      models.Scores{Courage: total},
		TotalScore:  total,
		Status:      status,
		IsActive:    active,
	}
}

func TestAggregate(t *testing.T) {
	candidates := []models.Candidate{
		{ID: 1, Name: "Alpha"},
		{ID: 2, Name: "Beta"},
		{ID: 3, Name: "Gamma"},
	}
	evals := []models.Evaluation{
		eval(1, 30, models.StatusSubmitted, true),
		eval(1, 40, models.StatusSubmitted, true),
		eval(2, 45, models.StatusSubmitted, true),
		eval(2, 10, models.StatusDraft, true),
		eval(3, 50, models.StatusSubmitted, false),
	}

	results := scoring.Aggregate(candidates, evals)
	require.Len(t, results, 3)

	require.Equal(t, 2, results[0].CandidateID)
	require.Equal(t, 1, results[0].Rank)
	require.Equal(t, 1, results[0].EvaluationCount)
	require.InDelta(t, 45.0, results[0].AvgTotal, 0.001)

	require.Equal(t, 1, results[1].CandidateID)
	require.Equal(t, 2, results[1].Rank)
	require.InDelta(t, 35.0, results[1].AvgTotal, 0.001)
	require.InDelta(t, 35.0, results[1].AvgCourage, 0.001)

	// soft-deleted evaluations do not count
	require.Equal(t, 3, results[2].CandidateID)
	require.Equal(t, 0, results[2].EvaluationCount)
	require.Equal(t, 3, results[2].Rank)
}

func TestRankSharesTies(t *testing.T) {
	results := []models.CandidateResult{
		{Name: "B", AvgTotal: 40, EvaluationCount: 2},
		{Name: "A", AvgTotal: 40, EvaluationCount: 2},
		{Name: "C", AvgTotal: 41, EvaluationCount: 1},
		{Name: "D", AvgTotal: 12, EvaluationCount: 3},
	}
	scoring.Rank(results)

	require.Equal(t, "C", results[0].Name)
	require.Equal(t, 1, results[0].Rank)
	require.Equal(t, "A", results[1].Name)
	require.Equal(t, 2, results[1].Rank)
	require.Equal(t, "B", results[2].Name)
	require.Equal(t, 2, results[2].Rank)
	require.Equal(t, 4, results[3].Rank)
}
