package stats_test

import (
	"testing"

	"awards/internal/stats"
	"awards/models"

	"github.com/stretchr/testify/require"
)

func fixture() ([]models.JuryMember, []models.Assignment, []models.Evaluation) {
	jury := []models.JuryMember{
		{ID: 1, Name: "Zoe", Active: true},
		{ID: 2, Name: "Adam", Active: false},
	}
	assignments := []models.Assignment{
		{JuryMemberID: 1, CandidateID: 10},
		{JuryMemberID: 1, CandidateID: 11},
		{JuryMemberID: 1, CandidateID: 12},
		{JuryMemberID: 2, CandidateID: 10},
	}
	evals := []models.Evaluation{
		{JuryMemberID: 1, CandidateID: 10, Status: models.StatusSubmitted, IsActive: true},
		{JuryMemberID: 1, CandidateID: 11, Status: models.StatusDraft, IsActive: true},
		{JuryMemberID: 1, CandidateID: 12, Status: models.StatusSubmitted, IsActive: false},
		{JuryMemberID: 2, CandidateID: 99, Status: models.StatusSubmitted, IsActive: true},
	}
	return jury, assignments, evals
}

func TestJuryProgress(t *testing.T) {
	jury, assignments, evals := fixture()
	progress := stats.JuryProgress(jury, assignments, evals)
	require.Len(t, progress, 2)

	require.Equal(t, "Adam", progress[0].Name)
	require.Equal(t, 1, progress[0].Assigned)
	require.Equal(t, 0, progress[0].Submitted)
	require.Equal(t, 1, progress[0].Pending)

	zoe := progress[1]
	require.Equal(t, 3, zoe.Assigned)
	require.Equal(t, 1, zoe.Submitted)
	require.Equal(t, 1, zoe.Drafts)
	require.Equal(t, 2, zoe.Pending)
	require.InDelta(t, 33.3, zoe.Completion, 0.01)
}

func TestDashboard(t *testing.T) {
	jury, assignments, evals := fixture()
	d := stats.Dashboard([]models.Candidate{{ID: 10}, {ID: 11}, {ID: 12}}, jury, assignments, evals)

	require.Equal(t, 3, d.Candidates)
	require.Equal(t, 2, d.JuryMembers)
	require.Equal(t, 1, d.ActiveJuryMembers)
	require.Equal(t, 4, d.Assignments)
	require.Equal(t, 2, d.SubmittedEvaluations)
	require.Equal(t, 1, d.DraftEvaluations)
	require.InDelta(t, 25.0, d.Completion, 0.01)
}

func TestPending(t *testing.T) {
	_, assignments, evals := fixture()
	require.Equal(t, []int{11, 12}, stats.Pending(1, assignments, evals))
	require.Equal(t, []int{10}, stats.Pending(2, assignments, evals))
	require.Nil(t, stats.Pending(3, assignments, evals))
}
