// Package monitoring checks tracker run health and posts alerts to a webhook.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/store"
)

// Snapshot holds a point-in-time view of run health.
type Snapshot struct {
	// Runs started within the lookback window.
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	FailRate     float64 `json:"fail_rate"`
	NewMeetings  int     `json:"new_meetings"`
	Warnings     int     `json:"warnings"`

	// LastSuccess is the start of the newest complete run, regardless of
	// the window. Zero when no run ever completed.
	LastSuccess time.Time `json:"last_success"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the subset of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers run metrics from the run log.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{LookbackHours: lookbackHours, CollectedAt: now}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{Limit: 10000})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	for _, r := range runs {
		if r.Status == model.RunStatusComplete && r.StartedAt.After(snap.LastSuccess) {
			snap.LastSuccess = r.StartedAt
		}
		if r.StartedAt.Before(cutoff) {
			continue
		}
		snap.RunsTotal++
		snap.NewMeetings += r.NewMeetings
		snap.Warnings += len(r.Warnings)
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		default:
			snap.RunsRunning++
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	return snap, nil
}
