package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meeting-tracker/internal/model"
)

// NoMeetingsMessage is shown in place of meeting sections on empty runs.
const NoMeetingsMessage = "No new meetings found this period."

var priorityColor = map[model.Priority]string{
	model.PriorityHigh:   "#9b1c1c",
	model.PriorityMedium: "#b45309",
	model.PriorityOther:  "#6b7280",
}

type htmlSection struct {
	Title    string
	Color    string
	Meetings []model.MeetingRecord
}

type htmlData struct {
	Report     model.Report
	High       int
	Medium     int
	Other      int
	Sections   []htmlSection
	NoMeetings string
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"day":   meetingDay,
	"stamp": func(r model.Report) string { return r.GeneratedAt.UTC().Format("January 2, 2006 at 15:04 UTC") },
	"upper": func(c model.Confidence) string { return strings.ToUpper(string(c)) },
	"title": meetingTitle,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; color: #1f2937; max-width: 760px; margin: 0 auto; }
h1, h2 { color: #0f1f2e; }
.summary { background: #f3f4f6; border-radius: 6px; padding: 12px 16px; margin-bottom: 24px; }
.meeting { border-left: 4px solid; padding: 8px 12px; margin: 12px 0; }
.attendee { margin: 4px 0; }
.meta { color: #6b7280; font-size: 13px; }
.footer { color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; margin-top: 32px; padding-top: 12px; }
</style>
</head>
<body>
<h1>Meetings Tracker Report</h1>
<div class="summary">
<p><strong>Generated:</strong> {{stamp .Report}}</p>
<p><strong>Period:</strong> last {{.Report.LookbackDays}} days</p>
<p><strong>New meetings:</strong> {{len .Report.NewMeetings}}</p>
<p><strong>High priority:</strong> {{.High}} | <strong>Medium priority:</strong> {{.Medium}} | <strong>Other:</strong> {{.Other}}</p>
</div>
{{- if not .Sections}}
<p>{{.NoMeetings}}</p>
{{- end}}
{{- range .Sections}}
<h2>{{.Title}}</h2>
{{- $color := .Color}}
{{- range .Meetings}}
<div class="meeting" style="border-color: {{$color}}">
<p><strong>{{title .}}</strong></p>
<p class="attendee">{{if .AttendeeName}}{{.AttendeeName}}{{else}}Unnamed attendee{{end}}{{if .AttendeeTitle}}, {{.AttendeeTitle}}{{end}}{{if .CompanyRaw}} ({{.CompanyRaw}}){{end}}</p>
<p class="meta">Industry: {{if .Industry}}{{.Industry}}{{else}}Unclassified{{end}} | Confidence: {{upper .Confidence}}{{if .Location}} | Location: {{.Location}}{{end}}{{with day .}} | {{.}}{{end}}</p>
<p class="meta">Source: <a href="{{.Source.URL}}">{{if .Source.Title}}{{.Source.Title}}{{else}}{{.Source.URL}}{{end}}</a>{{if .Source.SourceName}} ({{.Source.SourceName}}){{end}}</p>
</div>
{{- end}}
{{- end}}
{{- with .Report.Warnings}}
<h2>Source Warnings</h2>
<ul>
{{- range .}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
<div class="footer">
<p><strong>About This Report</strong></p>
<p>Meetings are extracted from news coverage with text heuristics and matched against a fixed industry taxonomy. Confidence reflects how the company was matched; verify details against the linked source before acting on them. The attached workbook contains the full meeting history.</p>
</div>
</body>
</html>
`))

// RenderHTML renders the email body. New meetings are grouped into High
// Priority, Medium Priority and Other sections; empty groups are omitted.
func RenderHTML(r model.Report) (string, error) {
	groups := Group(r.NewMeetings)
	data := htmlData{
		Report:     r,
		High:       len(groups[model.PriorityHigh]),
		Medium:     len(groups[model.PriorityMedium]),
		Other:      len(groups[model.PriorityOther]),
		NoMeetings: NoMeetingsMessage,
	}
	for _, p := range []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityOther} {
		if len(groups[p]) == 0 {
			continue
		}
		data.Sections = append(data.Sections, htmlSection{
			Title:    sectionTitle(p),
			Color:    priorityColor[p],
			Meetings: groups[p],
		})
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", eris.Wrap(err, "report: render html")
	}
	return buf.String(), nil
}

// Subject returns the email subject line for r.
func Subject(r model.Report) string {
	n := len(r.NewMeetings)
	noun := "meetings"
	if n == 1 {
		noun = "meeting"
	}
	return fmt.Sprintf("Meetings Tracker: %d new %s (%s)", n, noun, r.GeneratedAt.UTC().Format(time.DateOnly))
}

func sectionTitle(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "High Priority - Your Industries"
	case model.PriorityMedium:
		return "Medium Priority"
	default:
		return "Other Meetings"
	}
}

func meetingTitle(m model.MeetingRecord) string {
	var b strings.Builder
	switch m.MeetingType {
	case model.MeetingTypeCall:
		b.WriteString("Call")
	case model.MeetingTypeSummit:
		b.WriteString("Summit")
	default:
		b.WriteString("Meeting")
	}
	if m.CompanyRaw != "" {
		b.WriteString(" with " + m.CompanyRaw)
	} else if m.AttendeeName != "" {
		b.WriteString(" with " + m.AttendeeName)
	}
	return b.String()
}
