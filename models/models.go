package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Evaluation status values.
const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
)

// Award phases stored in the mt_current_phase setting.
const (
	PhaseNomination = "nomination"
	PhaseEvaluation = "evaluation"
	PhaseFinal      = "final"
	PhaseResults    = "results"
)

// Phases lists the known phases in their natural order.
var Phases = []string{PhaseNomination, PhaseEvaluation, PhaseFinal, PhaseResults}

// Reset types written to mt_vote_reset_logs.
const (
	ResetIndividual      = "individual"
	ResetBulkCandidate   = "bulk_candidate"
	ResetBulkJury        = "bulk_jury"
	ResetPhaseTransition = "phase_transition"
	ResetFullSystem      = "full_system"
	ResetRestore         = "restore"
)

// Setting keys.
const (
	SettingAwardYear    = "mt_current_award_year"
	SettingCurrentPhase = "mt_current_phase"
)

// Candidate entity (nominee)
type Candidate struct {
	ID           int            `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Organization string         `db:"organization" json:"organization"`
	Position     string         `db:"position" json:"position"`
	Bio          string         `db:"bio" json:"bio"`
	Categories   pq.StringArray `db:"categories" json:"categories"`
	AwardYear    int            `db:"award_year" json:"awardYear"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"-"`
}

// HasCategory reports whether the candidate is filed under category.
func (c *Candidate) HasCategory(category string) bool {
	for _, v := range c.Categories {
		if v == category {
			return true
		}
	}
	return false
}

// JuryMember entity, linked to an external user id
type JuryMember struct {
	ID        int            `db:"id" json:"id"`
	UserID    int            `db:"user_id" json:"userId"`
	Name      string         `db:"name" json:"name"`
	Email     string         `db:"email" json:"email"`
	Expertise pq.StringArray `db:"expertise" json:"expertise"`
	Active    bool           `db:"active" json:"active"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"-"`
}

// Assignment of a candidate to a jury member
type Assignment struct {
	ID           int       `db:"id" json:"id"`
	JuryMemberID int       `db:"jury_member_id" json:"juryMemberId"`
	CandidateID  int       `db:"candidate_id" json:"candidateId"`
	AssignedAt   time.Time `db:"assigned_at" json:"assignedAt"`
	AssignedBy   string    `db:"assigned_by" json:"assignedBy"`
}

// Scores holds the five criterion scores of an evaluation.
type Scores struct {
	Courage        int `db:"courage" json:"courage"`
	Innovation     int `db:"innovation" json:"innovation"`
	Implementation int `db:"implementation" json:"implementation"`
	Relevance      int `db:"relevance" json:"relevance"`
	Visibility     int `db:"visibility" json:"visibility"`
}

// Evaluation is one jury member's scored submission for one candidate.
type Evaluation struct {
	ID           int `db:"id" json:"id"`
	JuryMemberID int `db:"jury_member_id" json:"juryMemberId"`
	CandidateID  int `db:"candidate_id" json:"candidateId"`
	Scores
	TotalScore int        `db:"total_score" json:"totalScore"`
	Comments   string     `db:"comments" json:"comments"`
	Status     string     `db:"status" json:"status"`
	IsActive   bool       `db:"is_active" json:"isActive"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// EvaluationFilter narrows ListEvaluations. Zero values match everything.
type EvaluationFilter struct {
	JuryMemberID int
	CandidateID  int
	Status       string
	ActiveOnly   bool
}

// CandidateFilter narrows ListCandidates.
type CandidateFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// ResetLog is the audit row of a reset or restore operation.
type ResetLog struct {
	ID            int       `db:"id" json:"id"`
	OperationID   string    `db:"operation_id" json:"operationId"`
	ResetType     string    `db:"reset_type" json:"resetType"`
	InitiatedBy   string    `db:"initiated_by" json:"initiatedBy"`
	JuryMemberID  *int      `db:"jury_member_id" json:"juryMemberId,omitempty"`
	CandidateID   *int      `db:"candidate_id" json:"candidateId,omitempty"`
	FromPhase     string    `db:"from_phase" json:"fromPhase,omitempty"`
	ToPhase       string    `db:"to_phase" json:"toPhase,omitempty"`
	VotesAffected int       `db:"votes_affected" json:"votesAffected"`
	BackupCreated bool      `db:"backup_created" json:"backupCreated"`
	Reason        string    `db:"reason" json:"reason"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// VoteBackup is the snapshot of an evaluation taken before a reset.
type VoteBackup struct {
	ID           int             `db:"id" json:"id"`
	OperationID  string          `db:"operation_id" json:"operationId"`
	EvaluationID int             `db:"evaluation_id" json:"evaluationId"`
	JuryMemberID int             `db:"jury_member_id" json:"juryMemberId"`
	CandidateID  int             `db:"candidate_id" json:"candidateId"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Reason       string          `db:"reason" json:"reason"`
	BackedUpAt   time.Time       `db:"backed_up_at" json:"backedUpAt"`
	RestoredAt   *time.Time      `db:"restored_at" json:"restoredAt,omitempty"`
}

// ResetScope selects the active evaluations a reset touches.
// Nil fields match every row.
type ResetScope struct {
	JuryMemberID *int
	CandidateID  *int
}

// Matches reports whether e falls inside the scope.
func (s ResetScope) Matches(e *Evaluation) bool {
	if s.JuryMemberID != nil && e.JuryMemberID != *s.JuryMemberID {
		return false
	}
	if s.CandidateID != nil && e.CandidateID != *s.CandidateID {
		return false
	}
	return true
}

// ResetOperation is a complete reset: backup, soft delete, audit log and,
// for phase transitions, the phase change.
type ResetOperation struct {
	Scope  ResetScope
	Log    ResetLog
	Backup bool
	// RequirePhase, when non-empty, must equal mt_current_phase at the time
	// of the reset.
	RequirePhase string
	// SetPhase, when non-empty, becomes the new mt_current_phase.
	SetPhase string
}

// Setting is a stored option.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ErrorLogEntry is a persisted critical error.
type ErrorLogEntry struct {
	ID        int             `db:"id" json:"id"`
	Level     string          `db:"level" json:"level"`
	Message   string          `db:"message" json:"message"`
	Attrs     json.RawMessage `db:"attrs" json:"attrs"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

// CandidateResult is one row of the voting results.
type CandidateResult struct {
	Rank              int            `json:"rank"`
	CandidateID       int            `json:"candidateId"`
	Name              string         `json:"name"`
	Organization      string         `json:"organization"`
	Categories        pq.StringArray `json:"categories"`
	EvaluationCount   int            `json:"evaluationCount"`
	AvgCourage        float64        `json:"avgCourage"`
	AvgInnovation     float64        `json:"avgInnovation"`
	AvgImplementation float64        `json:"avgImplementation"`
	AvgRelevance      float64        `json:"avgRelevance"`
	AvgVisibility     float64        `json:"avgVisibility"`
	AvgTotal          float64        `json:"avgTotal"`
}

// JuryProgress summarises one jury member's workload.
type JuryProgress struct {
	JuryMemberID int     `json:"juryMemberId"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Assigned     int     `json:"assigned"`
	Submitted    int     `json:"submitted"`
	Drafts       int     `json:"drafts"`
	Pending      int     `json:"pending"`
	Completion   float64 `json:"completion"`
}

// DashboardStats are the headline numbers of the admin dashboard.
type DashboardStats struct {
	AwardYear            string  `json:"awardYear"`
	Phase                string  `json:"phase"`
	Candidates           int     `json:"candidates"`
	JuryMembers          int     `json:"juryMembers"`
	ActiveJuryMembers    int     `json:"activeJuryMembers"`
	Assignments          int     `json:"assignments"`
	SubmittedEvaluations int     `json:"submittedEvaluations"`
	DraftEvaluations     int     `json:"draftEvaluations"`
	Completion           float64 `json:"completion"`
}
