package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/monitoring"
	"github.com/sells-group/meeting-tracker/internal/report"
	"github.com/sells-group/meeting-tracker/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect tracker run history",
	Long:  "Commands for listing and summarizing tracker runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracker runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{Status: model.RunStatus(status), Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		fmt.Fprintln(os.Stdout, report.RunTable(runs))
		return nil
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, store.RunFilter{Limit: 10000})
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatRunStats(os.Stdout, computeRunStats(runs))
		return nil
	},
}

// -- runs check --

var runsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check run health and post alerts to the webhook",
	Long:  "Alerts when the run failure rate exceeds monitoring.failure_rate_threshold or no run has completed within monitoring.stale_after_hours. With --watch it repeats every monitoring.check_interval_secs until interrupted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		checker := monitoring.NewChecker(monitoring.NewCollector(st), monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			checker.Run(ctx)
			return nil
		}

		snap, alerts, err := checker.Check(ctx)
		if err != nil {
			return eris.Wrap(err, "runs check")
		}
		formatHealth(os.Stdout, snap, alerts)
		return nil
	},
}

// formatHealth writes a snapshot and its alerts to w.
func formatHealth(out io.Writer, snap *monitoring.Snapshot, alerts []monitoring.Alert) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\tlast %dh\n", snap.LookbackHours)
	_, _ = fmt.Fprintf(w, "Runs:\t%d (%d complete, %d failed, %d running)\n",
		snap.RunsTotal, snap.RunsComplete, snap.RunsFailed, snap.RunsRunning)
	_, _ = fmt.Fprintf(w, "Failure rate:\t%.1f%%\n", snap.FailRate*100)
	_, _ = fmt.Fprintf(w, "New meetings:\t%d\n", snap.NewMeetings)
	if snap.LastSuccess.IsZero() {
		_, _ = fmt.Fprintf(w, "Last success:\tnever\n")
	} else {
		_, _ = fmt.Fprintf(w, "Last success:\t%s\n", snap.LastSuccess.UTC().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()

	if len(alerts) == 0 {
		_, _ = fmt.Fprintln(out, "OK")
		return
	}
	for _, a := range alerts {
		_, _ = fmt.Fprintf(out, "ALERT [%s] %s\n", a.Severity, a.Message)
	}
}

type runStats struct {
	Total       int
	Complete    int
	Failed      int
	Running     int
	NewMeetings int
	Warnings    int
	AvgDurSecs  float64
	LastSuccess time.Time
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Run) runStats {
	var s runStats
	s.Total = len(runs)

	var totalDur time.Duration
	var durCount int

	for _, r := range runs {
		s.NewMeetings += r.NewMeetings
		s.Warnings += len(r.Warnings)

		switch r.Status {
		case model.RunStatusComplete:
			s.Complete++
			if r.FinishedAt != nil {
				totalDur += r.FinishedAt.Sub(r.StartedAt)
				durCount++
			}
			if r.StartedAt.After(s.LastSuccess) {
				s.LastSuccess = r.StartedAt
			}
		case model.RunStatusFailed:
			s.Failed++
		default:
			s.Running++
		}
	}

	if durCount > 0 {
		s.AvgDurSecs = totalDur.Seconds() / float64(durCount)
	}
	return s
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.Complete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.Running)
	_, _ = fmt.Fprintf(w, "New meetings:\t%d\n", s.NewMeetings)
	_, _ = fmt.Fprintf(w, "Source warnings:\t%d\n", s.Warnings)
	if s.AvgDurSecs > 0 {
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurSecs)
	}
	if !s.LastSuccess.IsZero() {
		_, _ = fmt.Fprintf(w, "Last success:\t%s\n", s.LastSuccess.UTC().Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (running, complete, failed)")
	runsListCmd.Flags().Int("limit", 20, "maximum runs to show")

	runsCmd.AddCommand(runsListCmd)
	runsCheckCmd.Flags().Bool("watch", false, "keep checking on an interval")

	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsCheckCmd)
	rootCmd.AddCommand(runsCmd)
}
