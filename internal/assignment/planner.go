// Package assignment plans the distribution of candidates to jury members.
package assignment

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"awards/models"
)

// Distribution methods.
const (
	MethodBalanced = "balanced"
	MethodRandom   = "random"
)

// Options control an automatic distribution.
type Options struct {
	// CandidatesPerJury is the target number of candidates each active
	// jury member should hold, existing assignments included.
	CandidatesPerJury int    `json:"candidatesPerJury"`
	Method            string `json:"method"`
	BalanceCategories bool   `json:"balanceCategories"`
	MatchExpertise    bool   `json:"matchExpertise"`
	ClearExisting     bool   `json:"clearExisting"`
	Seed              uint64 `json:"seed"`
}

// Validate normalises the method and checks bounds.
func (o *Options) Validate() error {
	if o.Method == "" {
		o.Method = MethodBalanced
	}
	if o.Method != MethodBalanced && o.Method != MethodRandom {
		return fmt.Errorf("%w: unknown method %q", models.ErrInvalidInput, o.Method)
	}
	if o.CandidatesPerJury <= 0 {
		return fmt.Errorf("%w: candidatesPerJury must be positive", models.ErrInvalidInput)
	}
	return nil
}

// Pair is a planned (jury member, candidate) assignment.
type Pair struct {
	JuryMemberID int `json:"juryMemberId"`
	CandidateID  int `json:"candidateId"`
}

// Plan is the outcome of Build.
type Plan struct {
	Pairs []Pair `json:"pairs"`
	// PerJury counts new assignments per jury member id.
	PerJury map[int]int `json:"perJury"`
}

type planner struct {
	opts       Options
	rng        *rand.Rand
	candidates []models.Candidate
	ring       map[int]int // candidate id -> position in the shuffled ring
	coverage   map[int]int
	held       map[int]map[int]bool
	catCount   map[int]map[string]int
	cursor     int
}

// Build plans new assignments. Existing pairs are never repeated and
// inactive jury members receive nothing. When opts.ClearExisting is set the
// caller is expected to have removed the existing assignments, and
// existing is ignored.
func Build(jury []models.JuryMember, candidates []models.Candidate, existing []models.Assignment, opts Options) (Plan, error) {
	if err := opts.Validate(); err != nil {
		return Plan{}, err
	}
	if opts.ClearExisting {
		existing = nil
	}

	p := &planner{
		opts:       opts,
		rng:        rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		candidates: append([]models.Candidate(nil), candidates...),
		ring:       make(map[int]int, len(candidates)),
		coverage:   make(map[int]int, len(candidates)),
		held:       make(map[int]map[int]bool),
		catCount:   make(map[int]map[string]int),
	}
	sort.Slice(p.candidates, func(i, j int) bool { return p.candidates[i].ID < p.candidates[j].ID })
	byID := make(map[int]*models.Candidate, len(p.candidates))
	for i := range p.candidates {
		byID[p.candidates[i].ID] = &p.candidates[i]
	}
	for pos, idx := range p.rng.Perm(len(p.candidates)) {
		p.ring[p.candidates[idx].ID] = pos
	}
	for _, a := range existing {
		c := byID[a.CandidateID]
		if c == nil {
			continue
		}
		p.take(a.JuryMemberID, c)
	}

	active := make([]models.JuryMember, 0, len(jury))
	for _, j := range jury {
		if j.Active {
			active = append(active, j)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	plan := Plan{PerJury: make(map[int]int, len(active))}
	need := make(map[int]int, len(active))
	for _, j := range active {
		need[j.ID] = opts.CandidatesPerJury - len(p.held[j.ID])
		plan.PerJury[j.ID] = 0
	}

	switch opts.Method {
	case MethodRandom:
		p.random(active, need, &plan)
	default:
		p.balanced(active, need, &plan)
	}
	return plan, nil
}

func (p *planner) take(juryID int, c *models.Candidate) {
	if p.held[juryID] == nil {
		p.held[juryID] = make(map[int]bool)
		p.catCount[juryID] = make(map[string]int)
	}
	if p.held[juryID][c.ID] {
		return
	}
	p.held[juryID][c.ID] = true
	p.coverage[c.ID]++
	for _, cat := range c.Categories {
		p.catCount[juryID][cat]++
	}
}

func (p *planner) assign(j models.JuryMember, c *models.Candidate, plan *Plan) {
	p.take(j.ID, c)
	plan.Pairs = append(plan.Pairs, Pair{JuryMemberID: j.ID, CandidateID: c.ID})
	plan.PerJury[j.ID]++
}

// balanced fills jury members one candidate per pass.
func (p *planner) balanced(active []models.JuryMember, need map[int]int, plan *Plan) {
	n := len(p.candidates)
	if n == 0 {
		return
	}
	for progress := true; progress; {
		progress = false
		for _, j := range active {
			if need[j.ID] <= 0 {
				continue
			}
			best := p.pick(j)
			if best == nil {
				need[j.ID] = 0
				continue
			}
			p.assign(j, best, plan)
			need[j.ID]--
			p.cursor = (p.ring[best.ID] + 1) % n
			progress = true
		}
	}
}

// key orders the candidates a jury member may receive; lower is better.
type key struct {
	coverage  int
	mismatch  int
	catWeight int
	distance  int
}

func (k key) less(o key) bool {
	if k.coverage != o.coverage {
		return k.coverage < o.coverage
	}
	if k.mismatch != o.mismatch {
		return k.mismatch < o.mismatch
	}
	if k.catWeight != o.catWeight {
		return k.catWeight < o.catWeight
	}
	return k.distance < o.distance
}

func (p *planner) pick(j models.JuryMember) *models.Candidate {
	n := len(p.candidates)
	var best *models.Candidate
	var bestKey key
	for i := range p.candidates {
		c := &p.candidates[i]
		if p.held[j.ID][c.ID] {
			continue
		}
		k := key{
			coverage: p.coverage[c.ID],
			distance: (p.ring[c.ID] - p.cursor + n) % n,
		}
		if p.opts.MatchExpertise && !matchesExpertise(j, c) {
			k.mismatch = 1
		}
		if p.opts.BalanceCategories {
			for _, cat := range c.Categories {
				k.catWeight += p.catCount[j.ID][cat]
			}
		}
		if best == nil || k.less(bestKey) {
			best, bestKey = c, k
		}
	}
	return best
}

// random gives every jury member a uniform sample of candidates it does not
// hold yet.
func (p *planner) random(active []models.JuryMember, need map[int]int, plan *Plan) {
	for _, j := range active {
		for _, idx := range p.rng.Perm(len(p.candidates)) {
			if need[j.ID] <= 0 {
				break
			}
			c := &p.candidates[idx]
			if p.held[j.ID][c.ID] {
				continue
			}
			p.assign(j, c, plan)
			need[j.ID]--
		}
	}
}

func matchesExpertise(j models.JuryMember, c *models.Candidate) bool {
	for _, e := range j.Expertise {
		for _, cat := range c.Categories {
			if strings.EqualFold(strings.TrimSpace(e), strings.TrimSpace(cat)) {
				return true
			}
		}
	}
	return false
}
