package handlers

import (
	"context"

	"awards/models"
)

type StorageInterface interface {
	Ping(ctx context.Context) error

	CreateCandidate(ctx context.Context, c *models.Candidate) error
	GetCandidate(ctx context.Context, id int) (*models.Candidate, error)
	UpdateCandidate(ctx context.Context, c *models.Candidate) error
	DeleteCandidate(ctx context.Context, id int) error
	ListCandidates(ctx context.Context, f models.CandidateFilter) ([]models.Candidate, error)

	CreateJuryMember(ctx context.Context, j *models.JuryMember) error
	GetJuryMember(ctx context.Context, id int) (*models.JuryMember, error)
	GetJuryMemberByUserID(ctx context.Context, userID int) (*models.JuryMember, error)
	UpdateJuryMember(ctx context.Context, j *models.JuryMember) error
	ListJuryMembers(ctx context.Context, activeOnly bool) ([]models.JuryMember, error)

	CreateAssignments(ctx context.Context, assignments []models.Assignment) (int, error)
	DeleteAssignment(ctx context.Context, juryID, candidateID int) error
	ReplaceAssignments(ctx context.Context, clear bool, assignments []models.Assignment) (cleared, created int, err error)
	ListAssignments(ctx context.Context, juryID int) ([]models.Assignment, error)
	IsAssigned(ctx context.Context, juryID, candidateID int) (bool, error)

	GetActiveEvaluation(ctx context.Context, juryID, candidateID int) (*models.Evaluation, error)
	SaveEvaluation(ctx context.Context, e *models.Evaluation) error
	ListEvaluations(ctx context.Context, f models.EvaluationFilter) ([]models.Evaluation, error)

	ResetEvaluations(ctx context.Context, op *models.ResetOperation) (int, error)
	ListResetLogs(ctx context.Context, limit, offset int) ([]models.ResetLog, error)
	ListBackups(ctx context.Context, operationID string) ([]models.VoteBackup, error)
	RestoreBackups(ctx context.Context, operationID string, log *models.ResetLog) (int, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]models.Setting, error)

	ListErrorLogs(ctx context.Context, limit int) ([]models.ErrorLogEntry, error)
}
