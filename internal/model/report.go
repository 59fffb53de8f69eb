package model

import "time"

// DateRange is the span of publish dates covered by a set of records.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsZero reports whether the range is empty.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// NamedCount is a label with its occurrence count.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary holds statistics computed over the full history.
type Summary struct {
	TotalMeetings    int                `json:"total_meetings"`
	UniqueCompanies  int                `json:"unique_companies"`
	DateRange        DateRange          `json:"date_range"`
	IndustryCounts   map[string]int     `json:"industry_counts"`
	ConfidenceCounts map[Confidence]int `json:"confidence_counts"`
	PriorityCounts   map[Priority]int   `json:"priority_counts"`
	LocationCounts   map[string]int     `json:"location_counts"`
	TopCompanies     []NamedCount       `json:"top_companies"`
}

// Report is the structured result of one run, consumed by renderers.
type Report struct {
	GeneratedAt  time.Time       `json:"generated_at"`
	LookbackDays int             `json:"lookback_days"`
	NewMeetings  []MeetingRecord `json:"new_meetings"`
	AllMeetings  []MeetingRecord `json:"all_meetings"`
	Summary      Summary         `json:"summary"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// CountByPriority returns how many new meetings carry the given priority.
func (r *Report) CountByPriority(p Priority) int {
	n := 0
	for _, m := range r.NewMeetings {
		if m.Priority == p {
			n++
		}
	}
	return n
}
