package model

import "time"

// MeetingType describes how the subject and the attendee met.
type MeetingType string

const (
	MeetingTypeMeeting MeetingType = "meeting"
	MeetingTypeCall    MeetingType = "call"
	MeetingTypeSummit  MeetingType = "summit"
	MeetingTypeOther   MeetingType = "other"
)

// Confidence is the certainty of a company-to-industry classification.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders confidence levels: high > medium > low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Priority is how actionable a meeting is to the report audience.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityOther  Priority = "other"
)

// Rank orders priorities: high > medium > other.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityOther:
		return 1
	default:
		return 0
	}
}

// Label returns the display label used by renderers.
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High Priority"
	case PriorityMedium:
		return "Medium Priority"
	default:
		return "Other"
	}
}

// MatchTier records which classifier tier produced a result.
type MatchTier string

const (
	MatchExact     MatchTier = "exact"
	MatchAlias     MatchTier = "alias"
	MatchSubstring MatchTier = "substring"
	MatchKeyword   MatchTier = "keyword"
	MatchNone      MatchTier = "none"
)

// ExtractedMeeting is a meeting candidate pulled from one article. Empty
// strings mean the value was not found. MeetingDate is the date named in
// the text, or the publish date when the text names none.
type ExtractedMeeting struct {
	AttendeeName  string      `json:"attendee_name,omitempty"`
	AttendeeTitle string      `json:"attendee_title,omitempty"`
	CompanyRaw    string      `json:"company_raw,omitempty"`
	Location      string      `json:"location,omitempty"`
	MeetingType   MeetingType `json:"meeting_type"`
	MeetingDate   time.Time   `json:"meeting_date"`
	Source        ArticleRef  `json:"source"`
}

// Valid reports whether the candidate names an attendee or a company.
func (m ExtractedMeeting) Valid() bool {
	return m.AttendeeName != "" || m.CompanyRaw != ""
}

// ClassifiedMeeting is an extracted meeting with industry, confidence and priority.
type ClassifiedMeeting struct {
	ExtractedMeeting
	Industry   string     `json:"industry,omitempty"`
	Confidence Confidence `json:"confidence"`
	Priority   Priority   `json:"priority"`
	MatchTier  MatchTier  `json:"match_tier,omitempty"`
}

// MeetingRecord is a persisted meeting. Records are append-only.
type MeetingRecord struct {
	ClassifiedMeeting
	Fingerprint string    `json:"fingerprint"`
	FirstSeen   time.Time `json:"first_seen"`
}
