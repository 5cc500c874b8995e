package report_test

import (
	"bytes"
	"testing"
	"time"

	"awards/internal/report"
	"awards/models"

	"github.com/stretchr/testify/require"
)

func TestResults(t *testing.T) {
	var buf bytes.Buffer
	report.Results(&buf, []models.CandidateResult{
		{Rank: 1, Name: "Clean Bus Co", Organization: "City Transit", Categories: []string{"startup", "city"}, EvaluationCount: 3, AvgTotal: 41.33},
	})
	out := buf.String()
	require.Contains(t, out, "Voting Results")
	require.Contains(t, out, "Clean Bus Co")
	require.Contains(t, out, "startup, city")
	require.Contains(t, out, "41.33")
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	report.Progress(&buf, []models.JuryProgress{{Name: "Ada", Assigned: 4, Submitted: 1, Pending: 3, Completion: 25}})
	require.Contains(t, buf.String(), "Ada")
	require.Contains(t, buf.String(), "25.0%")
}

func TestResets(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	jury := 7
	var buf bytes.Buffer
	report.Resets(&buf, []models.ResetLog{{
		OperationID:   "op-1",
		ResetType:     models.ResetBulkJury,
		InitiatedBy:   "admin",
		JuryMemberID:  &jury,
		VotesAffected: 1200,
		BackupCreated: true,
		Reason:        "conflict of interest",
		CreatedAt:     now.Add(-2 * time.Hour),
	}}, now)
	out := buf.String()
	require.Contains(t, out, "2 hours ago")
	require.Contains(t, out, "bulk_jury")
	require.Contains(t, out, "1,200")
	require.Contains(t, out, "conflict of interest")
}
