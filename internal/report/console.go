package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sells-group/meeting-tracker/internal/model"
)

var (
	navyColor = lipgloss.Color("#0F1F2E")
	dimColor  = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(navyColor).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(navyColor).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Bold(true).Width(20)
	dimStyle   = lipgloss.NewStyle().Foreground(dimColor)

	priorityStyle = map[model.Priority]lipgloss.Style{
		model.PriorityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9B1C1C")),
		model.PriorityMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B45309")),
		model.PriorityOther:  lipgloss.NewStyle().Foreground(dimColor),
	}
)

// PrintSummary writes a human-readable run summary to w.
func PrintSummary(w io.Writer, r model.Report) {
	fmt.Fprintln(w, headerStyle.Render("Meetings Tracker"))

	n := len(r.NewMeetings)
	if n == 0 {
		fmt.Fprintln(w, "0 meetings found")
	} else {
		fmt.Fprintf(w, "%d new meetings found\n", n)
	}

	s := r.Summary
	lines := [][2]string{
		{"Lookback", fmt.Sprintf("%d days", r.LookbackDays)},
		{"High priority", strconv.Itoa(r.CountByPriority(model.PriorityHigh))},
		{"Medium priority", strconv.Itoa(r.CountByPriority(model.PriorityMedium))},
		{"Other", strconv.Itoa(r.CountByPriority(model.PriorityOther))},
		{"Total in history", strconv.Itoa(s.TotalMeetings)},
		{"Unique companies", strconv.Itoa(s.UniqueCompanies)},
		{"Date range", formatRange(s.DateRange)},
	}
	for _, l := range lines {
		fmt.Fprintln(w, labelStyle.Render(l[0]+":")+l[1])
	}

	if n > 0 {
		fmt.Fprintln(w, MeetingTable(r.NewMeetings))
	}
	for _, warn := range r.Warnings {
		fmt.Fprintln(w, dimStyle.Render("warning: "+warn))
	}
}

// MeetingTable renders records as a bordered table.
func MeetingTable(records []model.MeetingRecord) string {
	rows := make([][]string, 0, len(records))
	for _, m := range records {
		rows = append(rows, []string{
			meetingDay(m),
			m.Priority.Label(),
			m.AttendeeName,
			m.CompanyRaw,
			m.Industry,
			strings.ToUpper(string(m.Confidence)),
			m.Location,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("DATE", "PRIORITY", "ATTENDEE", "COMPANY", "INDUSTRY", "CONFIDENCE", "LOCATION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			st := lipgloss.NewStyle().Padding(0, 1)
			if col == 1 && row >= 0 && row < len(records) {
				st = priorityStyle[records[row].Priority].Padding(0, 1)
			}
			return st
		}).
		String()
}

// RunTable renders the run log as a bordered table.
func RunTable(runs []model.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		dur := ""
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			r.ID,
			string(r.Status),
			r.StartedAt.UTC().Format(time.DateTime),
			dur,
			strconv.Itoa(r.ArticlesFetched),
			strconv.Itoa(r.NewMeetings),
			strconv.Itoa(r.TotalMeetings),
			strconv.Itoa(len(r.Warnings)),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "STATUS", "STARTED", "DURATION", "ARTICLES", "NEW", "TOTAL", "WARNINGS").
		Rows(rows...).
		String()
}
