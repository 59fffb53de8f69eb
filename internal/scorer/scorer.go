// Package scorer assigns a report priority to classified meetings.
package scorer

import (
	"github.com/sells-group/meeting-tracker/internal/model"
)

// PriorityIndustries reports whether an industry counts toward priority.
// *taxonomy.Taxonomy satisfies it.
type PriorityIndustries interface {
	IsPriority(industry string) bool
}

// rule maps a confidence level on a priority industry to a priority.
type rule struct {
	confidence model.Confidence
	priority   model.Priority
}

var rules = []rule{
	{model.ConfidenceHigh, model.PriorityHigh},
	{model.ConfidenceMedium, model.PriorityMedium},
	{model.ConfidenceLow, model.PriorityOther},
}

// Scorer applies the priority rule table. It has no state beyond the
// taxonomy lookup and is safe for concurrent use.
type Scorer struct {
	industries PriorityIndustries
}

// New returns a Scorer backed by the given industry lookup.
func New(industries PriorityIndustries) *Scorer {
	return &Scorer{industries: industries}
}

// Score returns the priority for one classified meeting. Meetings without a
// priority industry are always "other".
func (s *Scorer) Score(m model.ClassifiedMeeting) model.Priority {
	if m.Industry == "" || !s.industries.IsPriority(m.Industry) {
		return model.PriorityOther
	}
	for _, r := range rules {
		if r.confidence == m.Confidence {
			return r.priority
		}
	}
	return model.PriorityOther
}

// Apply scores m and returns it with Priority set.
func (s *Scorer) Apply(m model.ClassifiedMeeting) model.ClassifiedMeeting {
	m.Priority = s.Score(m)
	return m
}
