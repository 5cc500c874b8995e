//go:build integration

package db_test

import (
	"context"
	"os"
	"testing"

	"awards/db"
	"awards/db/migrations"
	"awards/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// newStorage migrates a clean schema into the database named by
// POSTGRES_CONN. Every table is dropped again when the test ends.
func newStorage(t *testing.T) *db.Storage {
	t.Helper()
	conn := os.Getenv("POSTGRES_CONN")
	if conn == "" {
		t.Skip("POSTGRES_CONN is not set")
	}
	ctx := context.Background()
	dbConn, err := sqlx.Connect("postgres", conn)
	require.NoError(t, err)
	require.NoError(t, migrations.Uninstall(ctx, dbConn.DB))
	require.NoError(t, migrations.Run(ctx, dbConn.DB))
	t.Cleanup(func() {
		migrations.Uninstall(context.Background(), dbConn.DB)
		dbConn.Close()
	})
	return db.NewStorage(dbConn)
}

func seed(t *testing.T, s *db.Storage) (models.JuryMember, models.Candidate) {
	t.Helper()
	ctx := context.Background()
	j := models.JuryMember{UserID: 11, Name: "Ada", Email: "ada@example.com", Expertise: []string{"transport"}, Active: true}
	require.NoError(t, s.CreateJuryMember(ctx, &j))
	c := models.Candidate{Name: "Bike Share", Categories: []string{"startup"}}
	require.NoError(t, s.CreateCandidate(ctx, &c))
	_, err := s.CreateAssignments(ctx, []models.Assignment{{JuryMemberID: j.ID, CandidateID: c.ID, AssignedBy: "admin"}})
	require.NoError(t, err)
	return j, c
}

func save(t *testing.T, s *db.Storage, j models.JuryMember, c models.Candidate, score int, status string) (models.Evaluation, error) {
	t.Helper()
	e := models.Evaluation{
		JuryMemberID: j.ID,
		CandidateID:  c.ID,
		Scores:       models.Scores{Courage: score, Innovation: score, Implementation: score, Relevance: score, Visibility: score},
		TotalScore:   5 * score,
		Status:       status,
	}
	err := s.SaveEvaluation(context.Background(), &e)
	return e, err
}

func TestStorageEvaluationUpsert(t *testing.T) {
	s := newStorage(t)
	j, c := seed(t, s)

	draft, err := save(t, s, j, c, 3, models.StatusDraft)
	require.NoError(t, err)
	submitted, err := save(t, s, j, c, 8, models.StatusSubmitted)
	require.NoError(t, err)
	require.Equal(t, draft.ID, submitted.ID)

	_, err = save(t, s, j, c, 1, models.StatusDraft)
	require.ErrorIs(t, err, models.ErrAlreadySubmitted)

	e, err := s.GetActiveEvaluation(context.Background(), j.ID, c.ID)
	require.NoError(t, err)
	require.Equal(t, 40, e.TotalScore)
	require.Equal(t, models.StatusSubmitted, e.Status)
}

func TestStorageResetAndRestore(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	j, c := seed(t, s)
	_, err := save(t, s, j, c, 6, models.StatusSubmitted)
	require.NoError(t, err)

	juryID := j.ID
	op := &models.ResetOperation{
		Scope:  models.ResetScope{JuryMemberID: &juryID},
		Backup: true,
		Log:    models.ResetLog{OperationID: "0b9f0c6e-3f1a-4d2b-8f55-6c1e2a7d9e10", ResetType: models.ResetBulkJury, InitiatedBy: "admin", Reason: "conflict"},
	}
	n, err := s.ResetEvaluations(ctx, op)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, op.Log.BackupCreated)

	_, err = s.GetActiveEvaluation(ctx, j.ID, c.ID)
	require.ErrorIs(t, err, models.ErrNotFound)
	backups, err := s.ListBackups(ctx, op.Log.OperationID)
	require.NoError(t, err)
	require.Len(t, backups, 1)

	restore := &models.ResetLog{OperationID: "5d2e7a41-9c3b-4e8f-a1d6-2b7c9e0f4a33", ResetType: models.ResetRestore, InitiatedBy: "admin"}
	n, err = s.RestoreBackups(ctx, op.Log.OperationID, restore)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	e, err := s.GetActiveEvaluation(ctx, j.ID, c.ID)
	require.NoError(t, err)
	require.Equal(t, 30, e.TotalScore)

	logs, err := s.ListResetLogs(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
}

func TestStoragePhaseGuard(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()

	op := &models.ResetOperation{
		Log:          models.ResetLog{OperationID: "9a4c1e2b-7d3f-4b6a-8e50-1f2d3c4b5a69", ResetType: models.ResetPhaseTransition, InitiatedBy: "admin"},
		RequirePhase: models.PhaseEvaluation,
		SetPhase:     models.PhaseFinal,
	}
	_, err := s.ResetEvaluations(ctx, op)
	require.ErrorIs(t, err, models.ErrConflict)

	op.RequirePhase = models.PhaseNomination
	_, err = s.ResetEvaluations(ctx, op)
	require.NoError(t, err)
	phase, err := s.GetSetting(ctx, models.SettingCurrentPhase)
	require.NoError(t, err)
	require.Equal(t, models.PhaseFinal, phase)
}

func TestStorageDeleteEvaluatedCandidate(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	j, c := seed(t, s)
	_, err := save(t, s, j, c, 5, models.StatusDraft)
	require.NoError(t, err)

	require.ErrorIs(t, s.DeleteCandidate(ctx, c.ID), models.ErrConflict)
	require.ErrorIs(t, s.DeleteCandidate(ctx, 9999), models.ErrNotFound)

	other := models.Candidate{Name: "Cargo Tram"}
	require.NoError(t, s.CreateCandidate(ctx, &other))
	require.NoError(t, s.DeleteCandidate(ctx, other.ID))
}

func TestStorageReplaceAssignmentsRollsBack(t *testing.T) {
	s := newStorage(t)
	ctx := context.Background()
	j, _ := seed(t, s)

	_, _, err := s.ReplaceAssignments(ctx, true, []models.Assignment{{JuryMemberID: j.ID, CandidateID: 9999}})
	require.ErrorIs(t, err, models.ErrNotFound)

	assignments, err := s.ListAssignments(ctx, 0)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
}
