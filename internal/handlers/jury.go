package handlers

import (
	"net/http"
	"net/mail"
	"strings"

	"awards/models"
)

type juryInput struct {
	UserID    int      `json:"userId"`
	Name      *string  `json:"name"`
	Email     *string  `json:"email"`
	Expertise []string `json:"expertise"`
	Active    *bool    `json:"active"`
}

func (in *juryInput) apply(j *models.JuryMember) {
	if in.Name != nil {
		j.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		j.Email = strings.TrimSpace(*in.Email)
	}
	if in.Expertise != nil {
		j.Expertise = cleanList(in.Expertise)
	}
	if in.Active != nil {
		j.Active = *in.Active
	}
}

func validateJuryMember(j *models.JuryMember) error {
	if j.UserID <= 0 {
		return invalid("userId must be positive")
	}
	if j.Name == "" || len(j.Name) > 200 {
		return invalid("name is required and max length 200")
	}
	if j.Email != "" {
		if _, err := mail.ParseAddress(j.Email); err != nil {
			return invalid("invalid email")
		}
	}
	return nil
}

// CreateJuryMemberHandler handles POST /api/jury
func (h *Handler) CreateJuryMemberHandler(w http.ResponseWriter, r *http.Request) {
	var in juryInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	j := models.JuryMember{UserID: in.UserID, Active: true, Expertise: []string{}}
	in.apply(&j)
	if err := validateJuryMember(&j); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.CreateJuryMember(r.Context(), &j); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.Log.InfoContext(r.Context(), "jury member created", "jury_member_id", j.ID, "user_id", j.UserID)
	h.respond(w, http.StatusCreated, j)
}

func (h *Handler) GetJuryMembersHandler(w http.ResponseWriter, r *http.Request) {
	jury, err := h.Store.ListJuryMembers(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, jury)
}

func (h *Handler) GetJuryMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "juryId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	j, err := h.Store.GetJuryMember(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, j)
}

// UpdateJuryMemberHandler applies a partial update. The linked user id
// cannot change.
func (h *Handler) UpdateJuryMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "juryId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var in juryInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.respondError(w, r, err)
		return
	}
	j, err := h.Store.GetJuryMember(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	in.apply(j)
	if err := validateJuryMember(j); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.Store.UpdateJuryMember(r.Context(), j); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, j)
}

type availableCandidate struct {
	models.Candidate
	AssignedJuryCount int `json:"assignedJuryCount"`
}

// GetCandidatesForAssignmentHandler lists the candidates not yet assigned
// to the jury member, with how many jury members already review each one.
func (h *Handler) GetCandidatesForAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "juryId")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetJuryMember(ctx, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	candidates, err := h.Store.ListCandidates(ctx, models.CandidateFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	assignments, err := h.Store.ListAssignments(ctx, 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	coverage := map[int]int{}
	mine := map[int]bool{}
	for _, a := range assignments {
		coverage[a.CandidateID]++
		if a.JuryMemberID == id {
			mine[a.CandidateID] = true
		}
	}
	out := []availableCandidate{}
	for _, c := range candidates {
		if mine[c.ID] {
			continue
		}
		out = append(out, availableCandidate{Candidate: c, AssignedJuryCount: coverage[c.ID]})
	}
	h.respond(w, http.StatusOK, out)
}
