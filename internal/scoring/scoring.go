// Package scoring computes evaluation totals and ranked voting results.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"awards/models"
)

// Score bounds for every criterion.
const (
	MinScore = 0
	MaxScore = 10
)

// Total sums the five criterion scores.
func Total(s models.Scores) int {
	return s.Courage + s.Innovation + s.Implementation + s.Relevance + s.Visibility
}

// Validate checks that every criterion lies within [MinScore, MaxScore].
func Validate(s models.Scores) error {
	criteria := []struct {
		name  string
		value int
	}{
		{"courage", s.Courage},
		{"innovation", s.Innovation},
		{"implementation", s.Implementation},
		{"relevance", s.Relevance},
		{"visibility", s.Visibility},
	}
	for _, c := range criteria {
		if c.value < MinScore || c.value > MaxScore {
			return fmt.Errorf("%w: %s must be between %d and %d", models.ErrInvalidInput, c.name, MinScore, MaxScore)
		}
	}
	return nil
}

// Aggregate builds one result per candidate from the submitted, active
// evaluations in evals. Candidates without evaluations are included with
// zero averages. The returned slice is ranked.
func Aggregate(candidates []models.Candidate, evals []models.Evaluation) []models.CandidateResult {
	type sums struct {
		n                                  int
		courage, innov, impl, rel, vis, tt int
	}
	acc := make(map[int]*sums, len(candidates))
	for _, e := range evals {
		if !e.IsActive || e.Status != models.StatusSubmitted {
			continue
		}
		s := acc[e.CandidateID]
		if s == nil {
			s = &sums{}
			acc[e.CandidateID] = s
		}
		s.n++
		s.courage += e.Courage
		s.innov += e.Innovation
		s.impl += e.Implementation
		s.rel += e.Relevance
		s.vis += e.Visibility
		s.tt += e.TotalScore
	}

	results := make([]models.CandidateResult, 0, len(candidates))
	for _, c := range candidates {
		r := models.CandidateResult{
			CandidateID:  c.ID,
			Name:         c.Name,
			Organization: c.Organization,
			Categories:   c.Categories,
		}
		if s := acc[c.ID]; s != nil {
			r.EvaluationCount = s.n
			r.AvgCourage = avg(s.courage, s.n)
			r.AvgInnovation = avg(s.innov, s.n)
			r.AvgImplementation = avg(s.impl, s.n)
			r.AvgRelevance = avg(s.rel, s.n)
			r.AvgVisibility = avg(s.vis, s.n)
			r.AvgTotal = avg(s.tt, s.n)
		}
		results = append(results, r)
	}
	Rank(results)
	return results
}

// Rank sorts results by average total (desc), evaluation count (desc) and
// name, then assigns 1-based ranks. Equal average totals share a rank.
func Rank(results []models.CandidateResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.AvgTotal != b.AvgTotal {
			return a.AvgTotal > b.AvgTotal
		}
		if a.EvaluationCount != b.EvaluationCount {
			return a.EvaluationCount > b.EvaluationCount
		}
		return a.Name < b.Name
	})
	for i := range results {
		if i > 0 && results[i].AvgTotal == results[i-1].AvgTotal {
			results[i].Rank = results[i-1].Rank
			continue
		}
		results[i].Rank = i + 1
	}
}

func avg(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*100) / 100
}
