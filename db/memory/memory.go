// Package memory is an in-process implementation of the awards store. It
// follows the PostgreSQL storage semantics and is used for tests and for
// running the server without a database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"awards/models"
)

type pairKey struct{ jury, candidate int }

type Store struct {
	mu sync.Mutex

	now func() time.Time

	seq         map[string]int
	candidates  map[int]models.Candidate
	jury        map[int]models.JuryMember
	assignments map[pairKey]models.Assignment
	evaluations map[int]models.Evaluation
	resetLogs   []models.ResetLog
	backups     []models.VoteBackup
	settings    map[string]models.Setting
	errorLogs   []models.ErrorLogEntry
}

// New returns an empty store seeded with the default award settings.
func New() *Store {
	s := &Store{
		now:         time.Now,
		seq:         map[string]int{},
		candidates:  map[int]models.Candidate{},
		jury:        map[int]models.JuryMember{},
		assignments: map[pairKey]models.Assignment{},
		evaluations: map[int]models.Evaluation{},
		settings:    map[string]models.Setting{},
	}
	ts := s.now()
	s.settings[models.SettingAwardYear] = models.Setting{Key: models.SettingAwardYear, Value: ts.Format("2006"), UpdatedAt: ts}
	s.settings[models.SettingCurrentPhase] = models.Setting{Key: models.SettingCurrentPhase, Value: models.PhaseNomination, UpdatedAt: ts}
	return s
}

func (s *Store) next(table string) int {
	s.seq[table]++
	return s.seq[table]
}

func cloneStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return append([]string{}, v...)
}

func (s *Store) Ping(ctx context.Context) error { return nil }

// Candidate

func (s *Store) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.next("candidate")
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	c.Categories = cloneStrings(c.Categories)
	s.candidates[c.ID] = *c
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, id int) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.Categories = cloneStrings(c.Categories)
	return &c, nil
}

func (s *Store) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.candidates[c.ID]
	if !ok {
		return models.ErrNotFound
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = s.now()
	c.Categories = cloneStrings(c.Categories)
	s.candidates[c.ID] = *c
	return nil
}

func (s *Store) DeleteCandidate(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return models.ErrNotFound
	}
	for _, e := range s.evaluations {
		if e.CandidateID == id {
			return fmt.Errorf("%w: candidate has evaluations", models.ErrConflict)
		}
	}
	delete(s.candidates, id)
	for k := range s.assignments {
		if k.candidate == id {
			delete(s.assignments, k)
		}
	}
	return nil
}

func (s *Store) ListCandidates(ctx context.Context, f models.CandidateFilter) ([]models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(f.Search)
	out := []models.Candidate{}
	for _, c := range s.candidates {
		if f.Category != "" && !c.HasCategory(f.Category) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Organization), search) {
			continue
		}
		c.Categories = cloneStrings(c.Categories)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return []models.Candidate{}, nil
		}
		out = out[f.Offset:min(len(out), f.Offset+f.Limit)]
	}
	return out, nil
}

// JuryMember

func (s *Store) CreateJuryMember(ctx context.Context, j *models.JuryMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.jury {
		if existing.UserID == j.UserID {
			return models.ErrConflict
		}
	}
	j.ID = s.next("jury")
	j.CreatedAt = s.now()
	j.UpdatedAt = j.CreatedAt
	j.Expertise = cloneStrings(j.Expertise)
	s.jury[j.ID] = *j
	return nil
}

func (s *Store) GetJuryMember(ctx context.Context, id int) (*models.JuryMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jury[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &j, nil
}

func (s *Store) GetJuryMemberByUserID(ctx context.Context, userID int) (*models.JuryMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jury {
		if j.UserID == userID {
			return &j, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *Store) UpdateJuryMember(ctx context.Context, j *models.JuryMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.jury[j.ID]
	if !ok {
		return models.ErrNotFound
	}
	j.UserID = old.UserID
	j.CreatedAt = old.CreatedAt
	j.UpdatedAt = s.now()
	j.Expertise = cloneStrings(j.Expertise)
	s.jury[j.ID] = *j
	return nil
}

func (s *Store) ListJuryMembers(ctx context.Context, activeOnly bool) ([]models.JuryMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.JuryMember{}
	for _, j := range s.jury {
		if activeOnly && !j.Active {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Assignment

func (s *Store) CreateAssignments(ctx context.Context, assignments []models.Assignment) (int, error) {
	_, created, err := s.ReplaceAssignments(ctx, false, assignments)
	return created, err
}

func (s *Store) ReplaceAssignments(ctx context.Context, clear bool, assignments []models.Assignment) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range assignments {
		if _, ok := s.jury[a.JuryMemberID]; !ok {
			return 0, 0, models.ErrNotFound
		}
		if _, ok := s.candidates[a.CandidateID]; !ok {
			return 0, 0, models.ErrNotFound
		}
	}
	cleared := 0
	if clear {
		cleared = len(s.assignments)
		s.assignments = map[pairKey]models.Assignment{}
	}
	created := 0
	for _, a := range assignments {
		k := pairKey{a.JuryMemberID, a.CandidateID}
		if _, ok := s.assignments[k]; ok {
			continue
		}
		a.ID = s.next("assignment")
		a.AssignedAt = s.now()
		s.assignments[k] = a
		created++
	}
	return cleared, created, nil
}

func (s *Store) DeleteAssignment(ctx context.Context, juryID, candidateID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pairKey{juryID, candidateID}
	if _, ok := s.assignments[k]; !ok {
		return models.ErrNotFound
	}
	delete(s.assignments, k)
	return nil
}

func (s *Store) ListAssignments(ctx context.Context, juryID int) ([]models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Assignment{}
	for _, a := range s.assignments {
		if juryID > 0 && a.JuryMemberID != juryID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JuryMemberID != out[j].JuryMemberID {
			return out[i].JuryMemberID < out[j].JuryMemberID
		}
		return out[i].CandidateID < out[j].CandidateID
	})
	return out, nil
}

func (s *Store) IsAssigned(ctx context.Context, juryID, candidateID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.assignments[pairKey{juryID, candidateID}]
	return ok, nil
}

// Evaluation

func (s *Store) activeEvaluation(juryID, candidateID int) (models.Evaluation, bool) {
	for _, e := range s.evaluations {
		if e.IsActive && e.JuryMemberID == juryID && e.CandidateID == candidateID {
			return e, true
		}
	}
	return models.Evaluation{}, false
}

func (s *Store) GetActiveEvaluation(ctx context.Context, juryID, candidateID int) (*models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.activeEvaluation(juryID, candidateID)
	if !ok {
		return nil, models.ErrNotFound
	}
	return &e, nil
}

func (s *Store) SaveEvaluation(ctx context.Context, e *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jury[e.JuryMemberID]; !ok {
		return models.ErrNotFound
	}
	if _, ok := s.candidates[e.CandidateID]; !ok {
		return models.ErrNotFound
	}
	ts := s.now()
	if old, ok := s.activeEvaluation(e.JuryMemberID, e.CandidateID); ok {
		if old.Status == models.StatusSubmitted && e.Status != models.StatusSubmitted {
			return models.ErrAlreadySubmitted
		}
		e.ID = old.ID
		e.CreatedAt = old.CreatedAt
	} else {
		e.ID = s.next("evaluation")
		e.CreatedAt = ts
	}
	e.IsActive = true
	e.DeletedAt = nil
	e.UpdatedAt = ts
	s.evaluations[e.ID] = *e
	return nil
}

func (s *Store) ListEvaluations(ctx context.Context, f models.EvaluationFilter) ([]models.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Evaluation{}
	for _, e := range s.evaluations {
		if f.JuryMemberID > 0 && e.JuryMemberID != f.JuryMemberID {
			continue
		}
		if f.CandidateID > 0 && e.CandidateID != f.CandidateID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.ActiveOnly && !e.IsActive {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Reset

func (s *Store) ResetEvaluations(ctx context.Context, op *models.ResetOperation) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now()

	if op.RequirePhase != "" {
		if current := s.settings[models.SettingCurrentPhase].Value; current != op.RequirePhase {
			return 0, fmt.Errorf("%w: current phase is %q, not %q", models.ErrConflict, current, op.RequirePhase)
		}
	}

	var ids []int
	for id, e := range s.evaluations {
		if e.IsActive && op.Scope.Matches(&e) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		e := s.evaluations[id]
		if op.Backup {
			payload, err := json.Marshal(&e)
			if err != nil {
				return 0, err
			}
			s.backups = append(s.backups, models.VoteBackup{
				ID:           s.next("backup"),
				OperationID:  op.Log.OperationID,
				EvaluationID: e.ID,
				JuryMemberID: e.JuryMemberID,
				CandidateID:  e.CandidateID,
				Payload:      payload,
				Reason:       op.Log.Reason,
				BackedUpAt:   ts,
			})
		}
		e.IsActive = false
		deleted := ts
		e.DeletedAt = &deleted
		e.UpdatedAt = ts
		s.evaluations[id] = e
	}

	if op.SetPhase != "" {
		s.settings[models.SettingCurrentPhase] = models.Setting{Key: models.SettingCurrentPhase, Value: op.SetPhase, UpdatedAt: ts}
	}

	op.Log.VotesAffected = len(ids)
	op.Log.BackupCreated = op.Backup && len(ids) > 0
	s.appendLog(&op.Log, ts)
	return len(ids), nil
}

func (s *Store) appendLog(l *models.ResetLog, ts time.Time) {
	l.ID = s.next("reset_log")
	l.CreatedAt = ts
	s.resetLogs = append(s.resetLogs, *l)
}

func (s *Store) ListResetLogs(ctx context.Context, limit, offset int) ([]models.ResetLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ResetLog{}
	for i := len(s.resetLogs) - 1; i >= 0; i-- {
		out = append(out, s.resetLogs[i])
	}
	if offset >= len(out) {
		return []models.ResetLog{}, nil
	}
	return out[offset:min(len(out), offset+limit)], nil
}

func (s *Store) ListBackups(ctx context.Context, operationID string) ([]models.VoteBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.VoteBackup{}
	for _, b := range s.backups {
		if b.OperationID == operationID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) RestoreBackups(ctx context.Context, operationID string, log *models.ResetLog) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now()

	found, restored := false, 0
	for i := range s.backups {
		b := &s.backups[i]
		if b.OperationID != operationID {
			continue
		}
		found = true
		if b.RestoredAt != nil {
			continue
		}
		e, ok := s.evaluations[b.EvaluationID]
		if !ok || e.IsActive {
			continue
		}
		if _, taken := s.activeEvaluation(e.JuryMemberID, e.CandidateID); taken {
			continue
		}
		e.IsActive = true
		e.DeletedAt = nil
		e.UpdatedAt = ts
		s.evaluations[e.ID] = e
		at := ts
		b.RestoredAt = &at
		restored++
	}
	if !found {
		return 0, models.ErrNotFound
	}
	log.VotesAffected = restored
	s.appendLog(log, ts)
	return restored, nil
}

// Settings

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	if !ok {
		return "", models.ErrNotFound
	}
	return v.Value, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = models.Setting{Key: key, Value: value, UpdatedAt: s.now()}
	return nil
}

func (s *Store) ListSettings(ctx context.Context) ([]models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Setting, 0, len(s.settings))
	for _, v := range s.settings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Error log

func (s *Store) InsertErrorLog(ctx context.Context, e *models.ErrorLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.next("error_log")
	e.CreatedAt = s.now()
	s.errorLogs = append(s.errorLogs, *e)
	return nil
}

func (s *Store) ListErrorLogs(ctx context.Context, limit int) ([]models.ErrorLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ErrorLogEntry{}
	for i := len(s.errorLogs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.errorLogs[i])
	}
	return out, nil
}
