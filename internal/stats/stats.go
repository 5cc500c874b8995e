// Package stats derives jury progress and dashboard figures from
// assignments and evaluations.
package stats

import (
	"math"
	"sort"

	"awards/models"
)

type pair struct{ jury, candidate int }

// JuryProgress reports, for every jury member, how many assigned
// candidates have an active submitted evaluation, an active draft, or
// nothing yet. Only evaluations of assigned candidates are counted.
func JuryProgress(jury []models.JuryMember, assignments []models.Assignment, evals []models.Evaluation) []models.JuryProgress {
	status := make(map[pair]string, len(evals))
	for _, e := range evals {
		if e.IsActive {
			status[pair{e.JuryMemberID, e.CandidateID}] = e.Status
		}
	}

	byJury := make(map[int]*models.JuryProgress, len(jury))
	out := make([]models.JuryProgress, len(jury))
	for i, j := range jury {
		out[i] = models.JuryProgress{JuryMemberID: j.ID, Name: j.Name, Email: j.Email}
		byJury[j.ID] = &out[i]
	}

	for _, a := range assignments {
		p := byJury[a.JuryMemberID]
		if p == nil {
			continue
		}
		p.Assigned++
		switch status[pair{a.JuryMemberID, a.CandidateID}] {
		case models.StatusSubmitted:
			p.Submitted++
		case models.StatusDraft:
			p.Drafts++
		}
	}

	for i := range out {
		out[i].Pending = out[i].Assigned - out[i].Submitted
		out[i].Completion = percent(out[i].Submitted, out[i].Assigned)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dashboard aggregates the headline counters. Completion is the share of
// assignments with a submitted evaluation.
func Dashboard(candidates []models.Candidate, jury []models.JuryMember, assignments []models.Assignment, evals []models.Evaluation) models.DashboardStats {
	d := models.DashboardStats{
		Candidates:  len(candidates),
		JuryMembers: len(jury),
		Assignments: len(assignments),
	}
	for _, j := range jury {
		if j.Active {
			d.ActiveJuryMembers++
		}
	}

	assigned := make(map[pair]bool, len(assignments))
	for _, a := range assignments {
		assigned[pair{a.JuryMemberID, a.CandidateID}] = true
	}
	done := 0
	for _, e := range evals {
		if !e.IsActive {
			continue
		}
		switch e.Status {
		case models.StatusSubmitted:
			d.SubmittedEvaluations++
			if assigned[pair{e.JuryMemberID, e.CandidateID}] {
				done++
			}
		case models.StatusDraft:
			d.DraftEvaluations++
		}
	}
	d.Completion = percent(done, len(assignments))
	return d
}

// Pending returns the candidate ids assigned to juryID that have no
// active submitted evaluation.
func Pending(juryID int, assignments []models.Assignment, evals []models.Evaluation) []int {
	submitted := make(map[int]bool)
	for _, e := range evals {
		if e.IsActive && e.JuryMemberID == juryID && e.Status == models.StatusSubmitted {
			submitted[e.CandidateID] = true
		}
	}
	var ids []int
	for _, a := range assignments {
		if a.JuryMemberID == juryID && !submitted[a.CandidateID] {
			ids = append(ids, a.CandidateID)
		}
	}
	sort.Ints(ids)
	return ids
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
