package assignment_test

import (
	"errors"
	"testing"

	"awards/internal/assignment"
	"awards/models"

	"github.com/stretchr/testify/require"
)

func makeJury(n int) []models.JuryMember {
	jury := make([]models.JuryMember, n)
	for i := range jury {
		jury[i] = models.JuryMember{ID: i + 1, Active: true}
	}
	return jury
}

func makeCandidates(n int, categories ...string) []models.Candidate {
	out := make([]models.Candidate, n)
	for i := range out {
		out[i] = models.Candidate{ID: 100 + i}
		if len(categories) > 0 {
			out[i].Categories = []string{categories[i%len(categories)]}
		}
	}
	return out
}

func coverage(plan assignment.Plan) map[int]int {
	cov := map[int]int{}
	for _, p := range plan.Pairs {
		cov[p.CandidateID]++
	}
	return cov
}

func requireNoDuplicates(t *testing.T, plan assignment.Plan, existing []models.Assignment) {
	t.Helper()
	seen := map[assignment.Pair]bool{}
	for _, a := range existing {
		seen[assignment.Pair{JuryMemberID: a.JuryMemberID, CandidateID: a.CandidateID}] = true
	}
	for _, p := range plan.Pairs {
		require.False(t, seen[p], "duplicate pair %+v", p)
		seen[p] = true
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := assignment.Options{CandidatesPerJury: 3}
	require.NoError(t, opts.Validate())
	require.Equal(t, assignment.MethodBalanced, opts.Method)

	opts = assignment.Options{CandidatesPerJury: 0}
	require.True(t, errors.Is(opts.Validate(), models.ErrInvalidInput))

	opts = assignment.Options{CandidatesPerJury: 2, Method: "lottery"}
	require.ErrorContains(t, opts.Validate(), "unknown method")
}

func TestBalancedEvenCoverage(t *testing.T) {
	shapes := []struct{ jury, candidates, perJury int }{
		{3, 3, 2},
		{4, 6, 3},
		{5, 5, 2},
		{7, 7, 4},
		{5, 10, 6},
		{8, 12, 5},
	}
	for _, s := range shapes {
		for seed := uint64(0); seed < 10; seed++ {
			plan, err := assignment.Build(makeJury(s.jury), makeCandidates(s.candidates), nil,
				assignment.Options{CandidatesPerJury: s.perJury, Seed: seed})
			require.NoError(t, err)
			requireNoDuplicates(t, plan, nil)
			require.Len(t, plan.Pairs, s.jury*s.perJury)
			for id, n := range plan.PerJury {
				require.Equal(t, s.perJury, n, "jury %d", id)
			}

			cov := coverage(plan)
			lo, hi := s.jury, 0
			for _, c := range makeCandidates(s.candidates) {
				lo = min(lo, cov[c.ID])
				hi = max(hi, cov[c.ID])
			}
			require.LessOrEqual(t, hi-lo, 1, "shape %+v seed %d", s, seed)
		}
	}
}

func TestBalancedRunsOutOfCandidates(t *testing.T) {
	plan, err := assignment.Build(makeJury(2), makeCandidates(3), nil,
		assignment.Options{CandidatesPerJury: 5})
	require.NoError(t, err)
	require.Equal(t, 3, plan.PerJury[1])
	require.Equal(t, 3, plan.PerJury[2])
}

func TestBalancedRespectsExisting(t *testing.T) {
	existing := []models.Assignment{
		{JuryMemberID: 1, CandidateID: 100},
		{JuryMemberID: 1, CandidateID: 101},
	}
	plan, err := assignment.Build(makeJury(2), makeCandidates(4), existing,
		assignment.Options{CandidatesPerJury: 2})
	require.NoError(t, err)
	requireNoDuplicates(t, plan, existing)
	require.Equal(t, 0, plan.PerJury[1])
	require.Equal(t, 2, plan.PerJury[2])

	// the uncovered candidates go first
	for _, p := range plan.Pairs {
		require.Contains(t, []int{102, 103}, p.CandidateID)
	}
}

func TestClearExistingIgnoresExisting(t *testing.T) {
	existing := []models.Assignment{{JuryMemberID: 1, CandidateID: 100}}
	plan, err := assignment.Build(makeJury(1), makeCandidates(2), existing,
		assignment.Options{CandidatesPerJury: 2, ClearExisting: true})
	require.NoError(t, err)
	require.Len(t, plan.Pairs, 2)
}

func TestInactiveJurySkipped(t *testing.T) {
	jury := makeJury(2)
	jury[1].Active = false
	plan, err := assignment.Build(jury, makeCandidates(3), nil, assignment.Options{CandidatesPerJury: 2})
	require.NoError(t, err)
	require.Len(t, plan.Pairs, 2)
	_, ok := plan.PerJury[2]
	require.False(t, ok)
}

func TestBalanceCategories(t *testing.T) {
	for seed := uint64(0); seed < 10; seed++ {
		plan, err := assignment.Build(makeJury(1), makeCandidates(4, "startup", "startup", "city", "city"), nil,
			assignment.Options{CandidatesPerJury: 2, BalanceCategories: true, Seed: seed})
		require.NoError(t, err)
		require.Len(t, plan.Pairs, 2)

		cats := map[int]string{100: "startup", 101: "startup", 102: "city", 103: "city"}
		require.NotEqual(t, cats[plan.Pairs[0].CandidateID], cats[plan.Pairs[1].CandidateID])
	}
}

func TestMatchExpertise(t *testing.T) {
	jury := []models.JuryMember{{ID: 1, Active: true, Expertise: []string{"City"}}}
	for seed := uint64(0); seed < 10; seed++ {
		plan, err := assignment.Build(jury, makeCandidates(4, "startup", "startup", "city", "city"), nil,
			assignment.Options{CandidatesPerJury: 2, MatchExpertise: true, Seed: seed})
		require.NoError(t, err)
		require.ElementsMatch(t, []int{102, 103}, []int{plan.Pairs[0].CandidateID, plan.Pairs[1].CandidateID})
	}
}

func TestRandomMethod(t *testing.T) {
	opts := assignment.Options{CandidatesPerJury: 3, Method: assignment.MethodRandom, Seed: 42}
	existing := []models.Assignment{{JuryMemberID: 2, CandidateID: 100}}

	plan, err := assignment.Build(makeJury(3), makeCandidates(5), existing, opts)
	require.NoError(t, err)
	requireNoDuplicates(t, plan, existing)
	require.Equal(t, 3, plan.PerJury[1])
	require.Equal(t, 2, plan.PerJury[2])
	require.Equal(t, 3, plan.PerJury[3])

	again, err := assignment.Build(makeJury(3), makeCandidates(5), existing, opts)
	require.NoError(t, err)
	require.Equal(t, plan.Pairs, again.Pairs)
}

func TestNoCandidates(t *testing.T) {
	plan, err := assignment.Build(makeJury(2), nil, nil, assignment.Options{CandidatesPerJury: 2})
	require.NoError(t, err)
	require.Empty(t, plan.Pairs)
}
