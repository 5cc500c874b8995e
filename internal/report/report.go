// Package report renders results and audit data as console tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"awards/models"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func title(w io.Writer, s string) {
	color.New(color.FgYellow, color.Bold).Fprintln(w, "\n"+s)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Results prints the ranked voting results.
func Results(w io.Writer, results []models.CandidateResult) {
	title(w, "Voting Results")
	table := newTable(w, []string{"Rank", "Candidate", "Organization", "Categories", "Votes", "Courage", "Innovation", "Implementation", "Relevance", "Visibility", "Avg Total"})
	for _, r := range results {
		table.Append([]string{
			strconv.Itoa(r.Rank),
			r.Name,
			r.Organization,
			strings.Join(r.Categories, ", "),
			strconv.Itoa(r.EvaluationCount),
			score(r.AvgCourage),
			score(r.AvgInnovation),
			score(r.AvgImplementation),
			score(r.AvgRelevance),
			score(r.AvgVisibility),
			score(r.AvgTotal),
		})
	}
	table.Render()
}

// Progress prints per-jury evaluation progress.
func Progress(w io.Writer, progress []models.JuryProgress) {
	title(w, "Jury Progress")
	table := newTable(w, []string{"Jury Member", "Email", "Assigned", "Submitted", "Drafts", "Pending", "Completion"})
	for _, p := range progress {
		table.Append([]string{
			p.Name,
			p.Email,
			strconv.Itoa(p.Assigned),
			strconv.Itoa(p.Submitted),
			strconv.Itoa(p.Drafts),
			strconv.Itoa(p.Pending),
			fmt.Sprintf("%.1f%%", p.Completion),
		})
	}
	table.Render()
}

func optionalID(id *int) string {
	if id == nil {
		return "-"
	}
	return strconv.Itoa(*id)
}

// Resets prints the reset audit trail with times relative to now.
func Resets(w io.Writer, logs []models.ResetLog, now time.Time) {
	title(w, "Vote Reset History")
	table := newTable(w, []string{"When", "Type", "By", "Jury", "Candidate", "Phase", "Votes", "Backup", "Reason", "Operation"})
	for _, l := range logs {
		phase := "-"
		if l.FromPhase != "" || l.ToPhase != "" {
			phase = l.FromPhase + " -> " + l.ToPhase
		}
		backup := "no"
		if l.BackupCreated {
			backup = "yes"
		}
		table.Append([]string{
			humanize.RelTime(l.CreatedAt, now, "ago", "from now"),
			l.ResetType,
			l.InitiatedBy,
			optionalID(l.JuryMemberID),
			optionalID(l.CandidateID),
			phase,
			humanize.Comma(int64(l.VotesAffected)),
			backup,
			l.Reason,
			l.OperationID,
		})
	}
	table.Render()
}

// Errors prints persisted error log entries.
func Errors(w io.Writer, entries []models.ErrorLogEntry, now time.Time) {
	title(w, "Recent Errors")
	table := newTable(w, []string{"When", "Level", "Message", "Attributes"})
	for _, e := range entries {
		table.Append([]string{
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
			e.Level,
			e.Message,
			string(e.Attrs),
		})
	}
	table.Render()
}
