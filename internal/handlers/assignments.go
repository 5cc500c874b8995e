package handlers

import (
	"math/rand/v2"
	"net/http"
	"strconv"

	"awards/internal/assignment"
	"awards/models"
)

// GetAssignmentsHandler lists assignments, optionally for one jury member.
func (h *Handler) GetAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	juryID := 0
	if v := r.URL.Query().Get("jury_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			h.respondError(w, r, invalid("invalid jury_id"))
			return
		}
		juryID = id
	}
	assignments, err := h.Store.ListAssignments(r.Context(), juryID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, assignments)
}

type assignRequest struct {
	JuryMemberID int   `json:"juryMemberId"`
	CandidateIDs []int `json:"candidateIds"`
}

// AssignCandidatesHandler assigns a list of candidates to one jury member.
// Pairs that already exist are skipped.
func (h *Handler) AssignCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	if req.JuryMemberID <= 0 {
		h.respondError(w, r, invalid("juryMemberId must be positive"))
		return
	}
	if len(req.CandidateIDs) == 0 {
		h.respondError(w, r, invalid("candidateIds is required"))
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetJuryMember(ctx, req.JuryMemberID); err != nil {
		h.respondError(w, r, err)
		return
	}

	actor := actorFrom(ctx)
	seen := map[int]bool{}
	batch := make([]models.Assignment, 0, len(req.CandidateIDs))
	for _, cid := range req.CandidateIDs {
		if cid <= 0 {
			h.respondError(w, r, invalid("candidate ids must be positive"))
			return
		}
		if seen[cid] {
			continue
		}
		seen[cid] = true
		batch = append(batch, models.Assignment{JuryMemberID: req.JuryMemberID, CandidateID: cid, AssignedBy: actor})
	}

	created, err := h.Store.CreateAssignments(ctx, batch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.InfoContext(ctx, "candidates assigned",
		"jury_member_id", req.JuryMemberID, "requested", len(batch), "created", created, "by", actor)
	h.respond(w, http.StatusOK, map[string]int{"created": created, "skipped": len(batch) - created})
}

type autoAssignResponse struct {
	Cleared int               `json:"cleared"`
	Created int               `json:"created"`
	DryRun  bool              `json:"dryRun"`
	Seed    uint64            `json:"seed"`
	PerJury map[int]int       `json:"perJury"`
	Pairs   []assignment.Pair `json:"pairs"`
}

// AutoAssignHandler distributes candidates across active jury members.
// With ?dry_run=true nothing is written. A zero seed is replaced by a fresh
// one, returned in the response so the run can be repeated.
func (h *Handler) AutoAssignHandler(w http.ResponseWriter, r *http.Request) {
	var opts assignment.Options
	if err := decodeJSON(w, r, &opts); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := opts.Validate(); err != nil {
		h.respondError(w, r, err)
		return
	}
	if opts.Seed == 0 {
		// kept below 2^53 so JSON clients read it back exactly
		opts.Seed = rand.Uint64N(1<<53-1) + 1
	}
	dryRun := r.URL.Query().Get("dry_run") == "true"
	ctx := r.Context()

	jury, err := h.Store.ListJuryMembers(ctx, true)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	candidates, err := h.Store.ListCandidates(ctx, models.CandidateFilter{})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	existing, err := h.Store.ListAssignments(ctx, 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	plan, err := assignment.Build(jury, candidates, existing, opts)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := autoAssignResponse{DryRun: dryRun, Seed: opts.Seed, PerJury: plan.PerJury, Pairs: plan.Pairs}
	if resp.Pairs == nil {
		resp.Pairs = []assignment.Pair{}
	}
	if dryRun {
		h.respond(w, http.StatusOK, resp)
		return
	}

	actor := actorFrom(ctx)
	batch := make([]models.Assignment, len(plan.Pairs))
	for i, p := range plan.Pairs {
		batch[i] = models.Assignment{JuryMemberID: p.JuryMemberID, CandidateID: p.CandidateID, AssignedBy: actor}
	}
	resp.Cleared, resp.Created, err = h.Store.ReplaceAssignments(ctx, opts.ClearExisting, batch)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.InfoContext(ctx, "auto assignment completed",
		"method", opts.Method, "per_jury", opts.CandidatesPerJury, "seed", opts.Seed,
		"cleared", resp.Cleared, "created", resp.Created, "by", actor)
	h.respond(w, http.StatusOK, resp)
}

func (h *Handler) RemoveAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	juryID, err := urlID(r, "juryId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	candidateID, err := urlID(r, "candidateId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.DeleteAssignment(r.Context(), juryID, candidateID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.InfoContext(r.Context(), "assignment removed",
		"jury_member_id", juryID, "candidate_id", candidateID, "by", actorFrom(r.Context()))
	h.respond(w, http.StatusOK, map[string]int{"juryMemberId": juryID, "candidateId": candidateID})
}
