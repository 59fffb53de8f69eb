package report

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/meeting-tracker/internal/model"
)

// Sheet names in the workbook.
const (
	DashboardSheet = "Dashboard"
	DataSheet      = "Meeting Data"
)

// DataHeaders are the column headers of the Meeting Data sheet.
var DataHeaders = []string{
	"Date", "Location", "Meeting Type", "Attendee Name", "Title", "Company",
	"Primary Industry", "Confidence Level", "Source Publication", "Source URL", "Notes",
}

var dataWidths = []float64{15, 20, 15, 20, 25, 25, 20, 15, 25, 60, 40}

const (
	navy = "FF0F1F2E"
	grey = "FFF0F0F0"
)

var confidenceFill = map[model.Confidence]string{
	model.ConfidenceHigh:   "FFD1FAE5",
	model.ConfidenceMedium: "FFFEF3C7",
	model.ConfidenceLow:    "FFFEE2E2",
}

// WriteWorkbook renders the full history as a Dashboard sheet and a Meeting
// Data sheet whose rows are color coded by confidence.
func WriteWorkbook(w io.Writer, r model.Report) error {
	f := xlsx.NewFile()

	dash, err := f.AddSheet(DashboardSheet)
	if err != nil {
		return eris.Wrap(err, "report: add dashboard sheet")
	}
	data, err := f.AddSheet(DataSheet)
	if err != nil {
		return eris.Wrap(err, "report: add data sheet")
	}

	writeData(data, r.AllMeetings)
	writeDashboard(dash, r)

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

// SaveWorkbook writes the workbook to path, replacing any previous file.
func SaveWorkbook(path string, r model.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "report: create output directory")
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "report: create workbook file")
	}
	if err := WriteWorkbook(out, r); err != nil {
		out.Close() //nolint:errcheck
		return err
	}
	return eris.Wrap(out.Close(), "report: close workbook file")
}

func writeData(sheet *xlsx.Sheet, records []model.MeetingRecord) {
	header := xlsxHeaderStyle()
	row := sheet.AddRow()
	for _, h := range DataHeaders {
		c := row.AddCell()
		c.SetString(h)
		c.SetStyle(header)
	}
	for i, w := range dataWidths {
		sheet.SetColWidth(i, i, w)
	}

	styles := map[model.Confidence]*xlsx.Style{}
	for conf, color := range confidenceFill {
		st := xlsx.NewStyle()
		st.Fill = *xlsx.NewFill("solid", color, color)
		st.ApplyFill = true
		styles[conf] = st
	}

	for _, m := range records {
		row := sheet.AddRow()
		for _, v := range dataRow(m) {
			c := row.AddCell()
			c.SetString(v)
			if st, ok := styles[m.Confidence]; ok {
				c.SetStyle(st)
			}
		}
	}
}

func dataRow(m model.MeetingRecord) []string {
	return []string{
		meetingDay(m),
		m.Location,
		string(m.MeetingType),
		m.AttendeeName,
		m.AttendeeTitle,
		m.CompanyRaw,
		m.Industry,
		strings.ToUpper(string(m.Confidence)),
		m.Source.SourceName,
		m.Source.URL,
		m.Source.Title,
	}
}

func writeDashboard(sheet *xlsx.Sheet, r model.Report) {
	s := r.Summary
	title := xlsx.NewStyle()
	title.Font = *xlsx.NewFont(16, "Calibri")
	title.Font.Bold = true
	title.Font.Color = navy
	title.ApplyFont = true

	section := xlsx.NewStyle()
	section.Font = *xlsx.NewFont(12, "Calibri")
	section.Font.Bold = true
	section.Font.Color = navy
	section.ApplyFont = true

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	value := xlsx.NewStyle()
	value.Fill = *xlsx.NewFill("solid", grey, grey)
	value.ApplyFill = true

	cell := func(row *xlsx.Row, v string, st *xlsx.Style) {
		c := row.AddCell()
		c.SetString(v)
		if st != nil {
			c.SetStyle(st)
		}
	}
	intCell := func(row *xlsx.Row, n int, st *xlsx.Style) {
		c := row.AddCell()
		c.SetInt(n)
		if st != nil {
			c.SetStyle(st)
		}
	}
	blank := func() { sheet.AddRow() }

	cell(sheet.AddRow(), "Meetings Tracker - Dashboard", title)
	blank()
	cell(sheet.AddRow(), "Summary Statistics", section)

	stats := []struct {
		label string
		n     int
	}{
		{"Total Meetings:", s.TotalMeetings},
		{"New This Run:", len(r.NewMeetings)},
		{"Unique Companies:", s.UniqueCompanies},
	}
	for _, st := range stats {
		row := sheet.AddRow()
		cell(row, st.label, bold)
		intCell(row, st.n, value)
	}
	row := sheet.AddRow()
	cell(row, "Date Range:", bold)
	cell(row, formatRange(s.DateRange), value)
	blank()

	table := func(heading, col1, col2 string, rows []model.NamedCount) {
		cell(sheet.AddRow(), heading, section)
		hdr := sheet.AddRow()
		cell(hdr, col1, bold)
		cell(hdr, col2, bold)
		for _, nc := range rows {
			row := sheet.AddRow()
			cell(row, nc.Name, nil)
			intCell(row, nc.Count, nil)
		}
		blank()
	}

	table("Meetings by Industry", "Industry", "Count", Ranked(s.IndustryCounts, topN))

	conf := make([]model.NamedCount, 0, 3)
	for _, c := range []model.Confidence{model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow} {
		conf = append(conf, model.NamedCount{Name: strings.ToUpper(string(c)), Count: s.ConfidenceCounts[c]})
	}
	table("Confidence Level Distribution", "Confidence", "Count", conf)

	prio := make([]model.NamedCount, 0, 3)
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityOther} {
		prio = append(prio, model.NamedCount{Name: p.Label(), Count: s.PriorityCounts[p]})
	}
	table("Priority Distribution", "Priority", "Count", prio)

	table("Top 10 Companies", "Company", "Meetings", s.TopCompanies)
	table("Meetings by Location", "Location", "Count", Ranked(s.LocationCounts, 0))

	sheet.SetColWidth(0, 0, 30)
	sheet.SetColWidth(1, 1, 15)
}

// meetingDay is the meeting date, or the publish date for records that
// carry none.
func meetingDay(m model.MeetingRecord) string {
	if !m.MeetingDate.IsZero() {
		return formatDate(m.MeetingDate)
	}
	return formatDate(m.Source.PublishedAt)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func formatRange(r model.DateRange) string {
	if r.IsZero() {
		return "N/A"
	}
	return formatDate(r.From) + " to " + formatDate(r.To)
}

func xlsxHeaderStyle() *xlsx.Style {
	st := xlsx.NewStyle()
	st.Font = *xlsx.NewFont(11, "Calibri")
	st.Font.Bold = true
	st.Font.Color = "FFFFFFFF"
	st.Fill = *xlsx.NewFill("solid", navy, navy)
	st.Alignment.Horizontal = "center"
	st.Alignment.Vertical = "center"
	st.ApplyFont = true
	st.ApplyFill = true
	st.ApplyAlignment = true
	return st
}
