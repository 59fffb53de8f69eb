// Package report aggregates merge results into a Report and renders it as a
// workbook, an HTML email, or a console summary.
package report

import (
	"sort"
	"strings"
	"time"

	"github.com/sells-group/meeting-tracker/internal/model"
)

const (
	topN = 10
	// OtherIndustry labels records without an industry.
	OtherIndustry = "Other"
	// UnknownLocation labels records without a location.
	UnknownLocation = "Unknown"
)

// Options carries run metadata that Compose copies into the report.
type Options struct {
	GeneratedAt  time.Time
	LookbackDays int
	Warnings     []string
}

// Compose builds the report. It does not modify its inputs. New records are
// ordered by priority (high first), then publish date (newest first), with
// ties keeping arrival order. The summary is computed over history.
func Compose(fresh, history []model.MeetingRecord, opts Options) model.Report {
	sorted := make([]model.MeetingRecord, len(fresh))
	copy(sorted, fresh)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		return a.Source.PublishedAt.After(b.Source.PublishedAt)
	})

	all := make([]model.MeetingRecord, len(history))
	copy(all, history)

	return model.Report{
		GeneratedAt:  opts.GeneratedAt,
		LookbackDays: opts.LookbackDays,
		NewMeetings:  sorted,
		AllMeetings:  all,
		Summary:      Summarize(history),
		Warnings:     append([]string(nil), opts.Warnings...),
	}
}

// Summarize computes statistics over records.
func Summarize(records []model.MeetingRecord) model.Summary {
	s := model.Summary{
		TotalMeetings:    len(records),
		IndustryCounts:   map[string]int{},
		ConfidenceCounts: map[model.Confidence]int{},
		PriorityCounts:   map[model.Priority]int{},
		LocationCounts:   map[string]int{},
	}

	companies := map[string]int{}
	display := map[string]string{}
	for _, r := range records {
		industry := r.Industry
		if industry == "" {
			industry = OtherIndustry
		}
		s.IndustryCounts[industry]++
		s.ConfidenceCounts[r.Confidence]++
		s.PriorityCounts[r.Priority]++

		loc := r.Location
		if loc == "" {
			loc = UnknownLocation
		}
		s.LocationCounts[loc]++

		if key := strings.ToLower(strings.TrimSpace(r.CompanyRaw)); key != "" {
			if _, ok := display[key]; !ok {
				display[key] = strings.TrimSpace(r.CompanyRaw)
			}
			companies[key]++
		}

		if d := r.Source.PublishedAt; !d.IsZero() {
			if s.DateRange.From.IsZero() || d.Before(s.DateRange.From) {
				s.DateRange.From = d
			}
			if d.After(s.DateRange.To) {
				s.DateRange.To = d
			}
		}
	}

	s.UniqueCompanies = len(companies)
	named := make(map[string]int, len(companies))
	for k, n := range companies {
		named[display[k]] = n
	}
	s.TopCompanies = Ranked(named, topN)
	return s
}

// Ranked orders counts by count descending then name ascending, keeping at
// most limit entries (all when limit <= 0).
func Ranked(counts map[string]int, limit int) []model.NamedCount {
	out := make([]model.NamedCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, model.NamedCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Group splits records by priority, preserving their order.
func Group(records []model.MeetingRecord) map[model.Priority][]model.MeetingRecord {
	out := map[model.Priority][]model.MeetingRecord{}
	for _, r := range records {
		out[r.Priority] = append(out[r.Priority], r)
	}
	return out
}
