package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"awards/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Storage is the PostgreSQL implementation of the awards store.
type Storage struct {
	db *sqlx.DB
}

var errCandidateEvaluated = fmt.Errorf("%w: candidate has evaluations", models.ErrConflict)

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// translate maps driver errors onto the model sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", models.ErrConflict, pqErr.Detail)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", models.ErrNotFound, pqErr.Detail)
		}
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Ping checks the connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Candidate

func (s *Storage) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	query := `
        INSERT INTO mt_candidates (name, organization, position, bio, categories, award_year)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		c.Name, c.Organization, c.Position, c.Bio, pq.Array([]string(c.Categories)), c.AwardYear).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

func (s *Storage) GetCandidate(ctx context.Context, id int) (*models.Candidate, error) {
	c := &models.Candidate{}
	query := `SELECT * FROM mt_candidates WHERE id=$1`
	if err := s.db.GetContext(ctx, c, query, id); err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *Storage) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	query := `
        UPDATE mt_candidates
        SET name=$1, organization=$2, position=$3, bio=$4, categories=$5, award_year=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query,
		c.Name, c.Organization, c.Position, c.Bio, pq.Array([]string(c.Categories)), c.AwardYear, c.ID).
		Scan(&c.UpdatedAt)
	return translate(err)
}

// DeleteCandidate removes a candidate and its assignments. Candidates with
// evaluation rows, active or reset, cannot be deleted.
func (s *Storage) DeleteCandidate(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `
        DELETE FROM mt_candidates c
        WHERE c.id = $1
          AND NOT EXISTS (SELECT 1 FROM mt_evaluations e WHERE e.candidate_id = c.id)`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return errCandidateEvaluated
		}
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetCandidate(ctx, id); err != nil {
		return err
	}
	return errCandidateEvaluated
}

func (s *Storage) ListCandidates(ctx context.Context, f models.CandidateFilter) ([]models.Candidate, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("$%d = ANY(categories)", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR organization ILIKE $%d)", len(args), len(args)))
	}

	query := "SELECT * FROM mt_candidates"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name ASC, id ASC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	candidates := []models.Candidate{}
	if err := s.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, err
	}
	return candidates, nil
}

// JuryMember

func (s *Storage) CreateJuryMember(ctx context.Context, j *models.JuryMember) error {
	query := `
        INSERT INTO mt_jury_members (user_id, name, email, expertise, active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		j.UserID, j.Name, j.Email, pq.Array([]string(j.Expertise)), j.Active).
		Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	return translate(err)
}

func (s *Storage) GetJuryMember(ctx context.Context, id int) (*models.JuryMember, error) {
	j := &models.JuryMember{}
	if err := s.db.GetContext(ctx, j, `SELECT * FROM mt_jury_members WHERE id=$1`, id); err != nil {
		return nil, translate(err)
	}
	return j, nil
}

func (s *Storage) GetJuryMemberByUserID(ctx context.Context, userID int) (*models.JuryMember, error) {
	j := &models.JuryMember{}
	if err := s.db.GetContext(ctx, j, `SELECT * FROM mt_jury_members WHERE user_id=$1`, userID); err != nil {
		return nil, translate(err)
	}
	return j, nil
}

func (s *Storage) UpdateJuryMember(ctx context.Context, j *models.JuryMember) error {
	query := `
        UPDATE mt_jury_members
        SET name=$1, email=$2, expertise=$3, active=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err := s.db.QueryRowContext(ctx, query,
		j.Name, j.Email, pq.Array([]string(j.Expertise)), j.Active, j.ID).
		Scan(&j.UpdatedAt)
	return translate(err)
}

func (s *Storage) ListJuryMembers(ctx context.Context, activeOnly bool) ([]models.JuryMember, error) {
	query := `SELECT * FROM mt_jury_members`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name ASC, id ASC`
	jury := []models.JuryMember{}
	if err := s.db.SelectContext(ctx, &jury, query); err != nil {
		return nil, err
	}
	return jury, nil
}

// Assignment

// CreateAssignments inserts the given pairs, skipping those that already
// exist, and returns the number of rows inserted.
func (s *Storage) CreateAssignments(ctx context.Context, assignments []models.Assignment) (int, error) {
	_, created, err := s.ReplaceAssignments(ctx, false, assignments)
	return created, err
}

// ReplaceAssignments optionally deletes every assignment and then inserts
// assignments, in one transaction. Nothing changes when any insert fails.
func (s *Storage) ReplaceAssignments(ctx context.Context, clear bool, assignments []models.Assignment) (cleared, created int, err error) {
	if !clear && len(assignments) == 0 {
		return 0, 0, nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if clear {
		res, err := tx.ExecContext(ctx, `DELETE FROM mt_jury_assignments`)
		if err != nil {
			return 0, 0, fmt.Errorf("clear assignments: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, err
		}
		cleared = int(n)
	}

	if len(assignments) > 0 {
		stmt, err := tx.PreparexContext(ctx, `
            INSERT INTO mt_jury_assignments (jury_member_id, candidate_id, assigned_by)
            VALUES ($1, $2, $3)
            ON CONFLICT (jury_member_id, candidate_id) DO NOTHING`)
		if err != nil {
			return 0, 0, err
		}
		defer stmt.Close()

		for _, a := range assignments {
			res, err := stmt.ExecContext(ctx, a.JuryMemberID, a.CandidateID, a.AssignedBy)
			if err != nil {
				return 0, 0, translate(err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, 0, err
			}
			created += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return cleared, created, nil
}

func (s *Storage) DeleteAssignment(ctx context.Context, juryID, candidateID int) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mt_jury_assignments WHERE jury_member_id=$1 AND candidate_id=$2`, juryID, candidateID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListAssignments returns the assignments of juryID, or all when juryID is 0.
func (s *Storage) ListAssignments(ctx context.Context, juryID int) ([]models.Assignment, error) {
	query := `SELECT * FROM mt_jury_assignments`
	var args []interface{}
	if juryID > 0 {
		query += ` WHERE jury_member_id=$1`
		args = append(args, juryID)
	}
	query += ` ORDER BY jury_member_id, candidate_id`
	assignments := []models.Assignment{}
	if err := s.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *Storage) IsAssigned(ctx context.Context, juryID, candidateID int) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM mt_jury_assignments WHERE jury_member_id=$1 AND candidate_id=$2`
	if err := s.db.GetContext(ctx, &count, query, juryID, candidateID); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Evaluation

func (s *Storage) GetActiveEvaluation(ctx context.Context, juryID, candidateID int) (*models.Evaluation, error) {
	e := &models.Evaluation{}
	query := `SELECT * FROM mt_evaluations WHERE jury_member_id=$1 AND candidate_id=$2 AND is_active`
	if err := s.db.GetContext(ctx, e, query, juryID, candidateID); err != nil {
		return nil, translate(err)
	}
	return e, nil
}

// SaveEvaluation upserts the active evaluation of (jury member, candidate).
// A draft never replaces a submitted evaluation.
func (s *Storage) SaveEvaluation(ctx context.Context, e *models.Evaluation) error {
	query := `
        INSERT INTO mt_evaluations
            (jury_member_id, candidate_id, courage, innovation, implementation, relevance, visibility,
             total_score, comments, status, is_active)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
        ON CONFLICT (jury_member_id, candidate_id) WHERE is_active DO UPDATE SET
            courage = EXCLUDED.courage,
            innovation = EXCLUDED.innovation,
            implementation = EXCLUDED.implementation,
            relevance = EXCLUDED.relevance,
            visibility = EXCLUDED.visibility,
            total_score = EXCLUDED.total_score,
            comments = EXCLUDED.comments,
            status = EXCLUDED.status,
            updated_at = NOW()
        WHERE mt_evaluations.status <> 'submitted' OR EXCLUDED.status = 'submitted'
        RETURNING id, is_active, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query,
		e.JuryMemberID, e.CandidateID, e.Courage, e.Innovation, e.Implementation, e.Relevance, e.Visibility,
		e.TotalScore, e.Comments, e.Status).
		Scan(&e.ID, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// the conflicting row is submitted and e is a draft
		return models.ErrAlreadySubmitted
	}
	return translate(err)
}

func (s *Storage) ListEvaluations(ctx context.Context, f models.EvaluationFilter) ([]models.Evaluation, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.JuryMemberID > 0 {
		args = append(args, f.JuryMemberID)
		where = append(where, fmt.Sprintf("jury_member_id = $%d", len(args)))
	}
	if f.CandidateID > 0 {
		args = append(args, f.CandidateID)
		where = append(where, fmt.Sprintf("candidate_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ActiveOnly {
		where = append(where, "is_active")
	}

	query := "SELECT * FROM mt_evaluations"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	evals := []models.Evaluation{}
	if err := s.db.SelectContext(ctx, &evals, query, args...); err != nil {
		return nil, err
	}
	return evals, nil
}

// Reset

func scopeClause(scope models.ResetScope, args []interface{}) (string, []interface{}) {
	clause := "is_active"
	if scope.JuryMemberID != nil {
		args = append(args, *scope.JuryMemberID)
		clause += fmt.Sprintf(" AND jury_member_id = $%d", len(args))
	}
	if scope.CandidateID != nil {
		args = append(args, *scope.CandidateID)
		clause += fmt.Sprintf(" AND candidate_id = $%d", len(args))
	}
	return clause, args
}

// ResetEvaluations backs up, soft-deletes and logs the evaluations selected
// by op.Scope in one transaction. op.Log is filled with the stored row.
func (s *Storage) ResetEvaluations(ctx context.Context, op *models.ResetOperation) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if op.RequirePhase != "" {
		var current string
		err := tx.GetContext(ctx, &current,
			`SELECT value FROM mt_settings WHERE key = $1 FOR UPDATE`, models.SettingCurrentPhase)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("lock phase: %w", err)
		}
		if current != op.RequirePhase {
			return 0, fmt.Errorf("%w: current phase is %q, not %q", models.ErrConflict, current, op.RequirePhase)
		}
	}

	clause, args := scopeClause(op.Scope, nil)
	affected := []models.Evaluation{}
	if err := tx.SelectContext(ctx, &affected,
		"SELECT * FROM mt_evaluations WHERE "+clause+" ORDER BY id FOR UPDATE", args...); err != nil {
		return 0, fmt.Errorf("select evaluations: %w", err)
	}

	if op.Backup && len(affected) > 0 {
		stmt, err := tx.PreparexContext(ctx, `
            INSERT INTO mt_vote_backups
                (operation_id, evaluation_id, jury_member_id, candidate_id, payload, reason)
            VALUES ($1, $2, $3, $4, $5, $6)`)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()
		for i := range affected {
			payload, err := json.Marshal(&affected[i])
			if err != nil {
				return 0, err
			}
			if _, err := stmt.ExecContext(ctx, op.Log.OperationID, affected[i].ID,
				affected[i].JuryMemberID, affected[i].CandidateID, payload, op.Log.Reason); err != nil {
				return 0, fmt.Errorf("backup evaluation %d: %w", affected[i].ID, err)
			}
		}
	}

	if len(affected) > 0 {
		ids := make([]int64, len(affected))
		for i, e := range affected {
			ids[i] = int64(e.ID)
		}
		if _, err := tx.ExecContext(ctx, `
            UPDATE mt_evaluations
            SET is_active = FALSE, deleted_at = NOW(), updated_at = NOW()
            WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
			return 0, fmt.Errorf("deactivate evaluations: %w", err)
		}
	}

	if op.SetPhase != "" {
		if err := setSetting(ctx, tx, models.SettingCurrentPhase, op.SetPhase); err != nil {
			return 0, err
		}
	}

	op.Log.VotesAffected = len(affected)
	op.Log.BackupCreated = op.Backup && len(affected) > 0
	if err := insertResetLog(ctx, tx, &op.Log); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(affected), nil
}

func insertResetLog(ctx context.Context, tx *sqlx.Tx, l *models.ResetLog) error {
	query := `
        INSERT INTO mt_vote_reset_logs
            (operation_id, reset_type, initiated_by, jury_member_id, candidate_id,
             from_phase, to_phase, votes_affected, backup_created, reason)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at`
	err := tx.QueryRowContext(ctx, query,
		l.OperationID, l.ResetType, l.InitiatedBy, l.JuryMemberID, l.CandidateID,
		l.FromPhase, l.ToPhase, l.VotesAffected, l.BackupCreated, l.Reason).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert reset log: %w", err)
	}
	return nil
}

func (s *Storage) ListResetLogs(ctx context.Context, limit, offset int) ([]models.ResetLog, error) {
	query := `SELECT * FROM mt_vote_reset_logs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	logs := []models.ResetLog{}
	if err := s.db.SelectContext(ctx, &logs, query, limit, offset); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Storage) ListBackups(ctx context.Context, operationID string) ([]models.VoteBackup, error) {
	query := `SELECT * FROM mt_vote_backups WHERE operation_id=$1 ORDER BY id`
	backups := []models.VoteBackup{}
	if err := s.db.SelectContext(ctx, &backups, query, operationID); err != nil {
		return nil, err
	}
	return backups, nil
}

// RestoreBackups reactivates the evaluations backed up by operationID that
// have no newer active evaluation for the same pair, marks their backups as
// restored and writes a restore log row.
func (s *Storage) RestoreBackups(ctx context.Context, operationID string, log *models.ResetLog) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int
	if err := tx.GetContext(ctx, &total,
		`SELECT COUNT(1) FROM mt_vote_backups WHERE operation_id=$1`, operationID); err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, models.ErrNotFound
	}

	var restored []int64
	err = tx.SelectContext(ctx, &restored, `
        UPDATE mt_evaluations e
        SET is_active = TRUE, deleted_at = NULL, updated_at = NOW()
        FROM mt_vote_backups b
        WHERE b.operation_id = $1
          AND b.restored_at IS NULL
          AND e.id = b.evaluation_id
          AND NOT e.is_active
          AND NOT EXISTS (
              SELECT 1 FROM mt_evaluations a
              WHERE a.jury_member_id = e.jury_member_id
                AND a.candidate_id = e.candidate_id
                AND a.is_active)
        RETURNING e.id`, operationID)
	if err != nil {
		return 0, fmt.Errorf("restore evaluations: %w", translate(err))
	}

	if len(restored) > 0 {
		if _, err := tx.ExecContext(ctx, `
            UPDATE mt_vote_backups SET restored_at = NOW()
            WHERE operation_id = $1 AND evaluation_id = ANY($2)`,
			operationID, pq.Array(restored)); err != nil {
			return 0, err
		}
	}

	log.VotesAffected = len(restored)
	if err := insertResetLog(ctx, tx, log); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(restored), nil
}

// Settings

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func setSetting(ctx context.Context, e execer, key, value string) error {
	query := `
        INSERT INTO mt_settings (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := e.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

func (s *Storage) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.db.GetContext(ctx, &value, `SELECT value FROM mt_settings WHERE key=$1`, key); err != nil {
		return "", translate(err)
	}
	return value, nil
}

func (s *Storage) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, s.db, key, value)
}

func (s *Storage) ListSettings(ctx context.Context) ([]models.Setting, error) {
	settings := []models.Setting{}
	if err := s.db.SelectContext(ctx, &settings, `SELECT * FROM mt_settings ORDER BY key`); err != nil {
		return nil, err
	}
	return settings, nil
}

// Error log

func (s *Storage) InsertErrorLog(ctx context.Context, e *models.ErrorLogEntry) error {
	query := `
        INSERT INTO mt_error_log (level, message, attrs)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	attrs := e.Attrs
	if len(attrs) == 0 {
		attrs = json.RawMessage(`{}`)
	}
	return s.db.QueryRowContext(ctx, query, e.Level, e.Message, []byte(attrs)).Scan(&e.ID, &e.CreatedAt)
}

func (s *Storage) ListErrorLogs(ctx context.Context, limit int) ([]models.ErrorLogEntry, error) {
	entries := []models.ErrorLogEntry{}
	query := `SELECT * FROM mt_error_log ORDER BY created_at DESC, id DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, err
	}
	return entries, nil
}
