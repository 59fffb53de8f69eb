package model

import "time"

// RunStatus represents the state of a tracker run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one invocation of the tracker pipeline.
type Run struct {
	ID              string     `json:"id"`
	Status          RunStatus  `json:"status"`
	LookbackDays    int        `json:"lookback_days"`
	ArticlesFetched int        `json:"articles_fetched"`
	Candidates      int        `json:"candidates"`
	NewMeetings     int        `json:"new_meetings"`
	TotalMeetings   int        `json:"total_meetings"`
	Warnings        []string   `json:"warnings,omitempty"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Finish marks the run complete or failed.
func (r *Run) Finish(at time.Time, err error) {
	r.FinishedAt = &at
	if err != nil {
		r.Status = RunStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = RunStatusComplete
}
