package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/meeting-tracker/internal/config"
)

// Checker runs alert checks once or on an interval.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker creates an alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Check collects one snapshot, evaluates it and sends any alerts.
func (c *Checker) Check(ctx context.Context) (*Snapshot, []Alert, error) {
	snap, err := c.collector.Collect(ctx, c.cfg.LookbackWindowHours)
	if err != nil {
		return nil, nil, err
	}
	alerts := c.alerter.Evaluate(snap)
	if len(alerts) > 0 {
		sent := c.alerter.SendAlerts(ctx, alerts)
		zap.L().Info("monitoring: alert check complete",
			zap.Int("alerts_triggered", len(alerts)),
			zap.Int("alerts_sent", sent),
		)
	}
	return snap, alerts, nil
}

// Run checks immediately and then on every interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting run health checker",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			if _, _, err := c.Check(ctx); err != nil {
				log.Error("monitoring: check failed", zap.Error(err))
			}
		}
		select {
		case <-ctx.Done():
			log.Info("run health checker stopped")
			return
		case <-ticker.C:
		}
	}
}
