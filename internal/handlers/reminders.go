package handlers

import (
	"net/http"

	"awards/internal/notify"
	"awards/internal/stats"
	"awards/models"
)

type reminderRequest struct {
	JuryMemberID int `json:"juryMemberId"`
}

type reminderResponse struct {
	Sent    int   `json:"sent"`
	Failed  []int `json:"failed"`
	Skipped int   `json:"skipped"`
}

// SendReminderHandler e-mails jury members that still have unsubmitted
// assignments. An empty body targets every active jury member.
func (h *Handler) SendReminderHandler(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	ctx := r.Context()

	var jury []models.JuryMember
	if req.JuryMemberID > 0 {
		j, err := h.Store.GetJuryMember(ctx, req.JuryMemberID)
		if err != nil {
			h.respondError(w, r, err)
			return
		}
		jury = []models.JuryMember{*j}
	} else {
		var err error
		if jury, err = h.Store.ListJuryMembers(ctx, true); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	assignments, err := h.Store.ListAssignments(ctx, 0)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	evals, err := h.Store.ListEvaluations(ctx, models.EvaluationFilter{ActiveOnly: true})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	year, err := h.setting(ctx, models.SettingAwardYear)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := reminderResponse{Failed: []int{}}
	for _, j := range jury {
		pending := stats.Pending(j.ID, assignments, evals)
		if len(pending) == 0 || j.Email == "" || !j.Active {
			resp.Skipped++
			continue
		}
		msg, err := notify.Reminder(j, len(pending), year)
		if err == nil {
			err = h.Mailer.Send(ctx, msg)
		}
		if err != nil {
			h.Log.ErrorContext(ctx, "reminder failed", "jury_member_id", j.ID, "error", err)
			resp.Failed = append(resp.Failed, j.ID)
			continue
		}
		resp.Sent++
	}
	h.Log.InfoContext(ctx, "reminders sent", "sent", resp.Sent, "failed", len(resp.Failed), "skipped", resp.Skipped)
	h.respond(w, http.StatusOK, resp)
}
