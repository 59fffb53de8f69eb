package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/meeting-tracker/internal/config"
	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/store"
)

var checkedAt = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type stubRuns struct {
	runs []model.Run
	err  error
}

func (s *stubRuns) ListRuns(_ context.Context, _ store.RunFilter) ([]model.Run, error) {
	return s.runs, s.err
}

func newTestCollector(runs RunLister) *Collector {
	c := NewCollector(runs)
	c.now = func() time.Time { return checkedAt }
	return c
}

func run(status model.RunStatus, hoursAgo int, newMeetings int, warnings ...string) model.Run {
	return model.Run{
		ID:          string(status),
		Status:      status,
		NewMeetings: newMeetings,
		Warnings:    warnings,
		StartedAt:   checkedAt.Add(-time.Duration(hoursAgo) * time.Hour),
	}
}

func TestCollector_Collect(t *testing.T) {
	c := newTestCollector(&stubRuns{runs: []model.Run{
		run(model.RunStatusRunning, 1, 0),
		run(model.RunStatusFailed, 2, 0, "rss: timeout"),
		run(model.RunStatusComplete, 5, 3, "newsapi: 429", "rss: 404"),
		run(model.RunStatusComplete, 30, 1),
		run(model.RunStatusFailed, 200, 0),
	}})

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.RunsTotal)
	assert.Equal(t, 1, snap.RunsComplete)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.Equal(t, 1, snap.RunsRunning)
	assert.InDelta(t, 0.5, snap.FailRate, 1e-9)
	assert.Equal(t, 3, snap.NewMeetings)
	assert.Equal(t, 3, snap.Warnings)
	assert.Equal(t, checkedAt.Add(-5*time.Hour), snap.LastSuccess)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.Equal(t, checkedAt, snap.CollectedAt)
}

func TestCollector_LastSuccessOutsideWindow(t *testing.T) {
	c := newTestCollector(&stubRuns{runs: []model.Run{
		run(model.RunStatusComplete, 100, 2),
	}})

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Zero(t, snap.RunsTotal)
	assert.Zero(t, snap.FailRate)
	assert.Equal(t, checkedAt.Add(-100*time.Hour), snap.LastSuccess)
}

func TestCollector_ListError(t *testing.T) {
	c := newTestCollector(&stubRuns{err: errors.New("db down")})

	_, err := c.Collect(context.Background(), 24)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: list runs")
}

func TestAlerter_Evaluate(t *testing.T) {
	cfg := config.MonitoringConfig{FailureRateThreshold: 0.25, StaleAfterHours: 48}

	tests := []struct {
		name  string
		snap  Snapshot
		types []AlertType
	}{
		{
			name: "healthy",
			snap: Snapshot{RunsComplete: 9, RunsFailed: 1, FailRate: 0.1, LastSuccess: checkedAt.Add(-time.Hour)},
		},
		{
			name:  "failure rate",
			snap:  Snapshot{RunsComplete: 2, RunsFailed: 2, FailRate: 0.5, LastSuccess: checkedAt.Add(-time.Hour)},
			types: []AlertType{AlertRunFailureRate},
		},
		{
			name: "too few runs to judge",
			snap: Snapshot{RunsComplete: 1, RunsFailed: 1, FailRate: 0.5, LastSuccess: checkedAt.Add(-time.Hour)},
		},
		{
			name:  "stale",
			snap:  Snapshot{RunsComplete: 1, LastSuccess: checkedAt.Add(-72 * time.Hour)},
			types: []AlertType{AlertStaleHistory},
		},
		{
			name:  "never succeeded",
			snap:  Snapshot{RunsFailed: 3, FailRate: 1},
			types: []AlertType{AlertRunFailureRate, AlertStaleHistory},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := tt.snap
			snap.CollectedAt = checkedAt
			snap.LookbackHours = 168

			var got []AlertType
			for _, a := range NewAlerter(cfg).Evaluate(&snap) {
				got = append(got, a.Type)
				assert.Equal(t, checkedAt, a.Timestamp)
			}
			assert.Equal(t, tt.types, got)
		})
	}
}

func TestAlerter_Evaluate_Messages(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25, StaleAfterHours: 48})

	alerts := a.Evaluate(&Snapshot{
		RunsComplete:  1,
		RunsFailed:    3,
		FailRate:      0.75,
		LastSuccess:   checkedAt.Add(-72 * time.Hour),
		LookbackHours: 168,
		CollectedAt:   checkedAt,
	})
	require.Len(t, alerts, 2)
	assert.Contains(t, alerts[0].Message, "75.0%")
	assert.Contains(t, alerts[0].Message, "3 failed / 4 finished in last 168h")
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[1].Message, "No successful run in the last 48h")
	assert.Contains(t, alerts[1].Message, "2025-03-07T12:00:00Z")
}

func TestAlerter_StaleDisabled(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{FailureRateThreshold: 0.25})
	assert.Empty(t, a.Evaluate(&Snapshot{CollectedAt: checkedAt}))
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertStaleHistory, Severity: "medium", Message: "stale", Timestamp: checkedAt},
	})

	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
	assert.Equal(t, AlertStaleHistory, got.Type)
	assert.Equal(t, "stale", got.Message)
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertRunFailureRate}, {Type: AlertStaleHistory}})
	assert.Zero(t, sent)
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	assert.Zero(t, a.SendAlerts(context.Background(), []Alert{{Type: AlertStaleHistory}}))
}

func TestChecker_Check(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := config.MonitoringConfig{
		WebhookURL:           srv.URL,
		FailureRateThreshold: 0.25,
		StaleAfterHours:      48,
		LookbackWindowHours:  168,
	}
	runs := &stubRuns{runs: []model.Run{run(model.RunStatusFailed, 1, 0)}}
	checker := NewChecker(newTestCollector(runs), NewAlerter(cfg), cfg)

	snap, alerts, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.RunsFailed)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertStaleHistory, alerts[0].Type)
	assert.Equal(t, int32(1), received.Load())
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1, LookbackWindowHours: 24}
	checker := NewChecker(newTestCollector(&stubRuns{}), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_RunCancelledBeforeStart(t *testing.T) {
	runs := &stubRuns{err: errors.New("should not be called")}
	checker := NewChecker(newTestCollector(runs), NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() { checker.Run(ctx) })
}
