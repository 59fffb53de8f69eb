package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/meeting-tracker/internal/pipeline"
	"github.com/sells-group/meeting-tracker/internal/report"
)

var (
	runDays    int
	runNoEmail bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch news, record new meetings and deliver the report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		days, err := lookbackDays(runDays, cfg.Tracker.LookbackDays)
		if err != nil {
			return err
		}

		env, err := initTracker(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Tracker.Run(ctx, pipeline.RunOptions{LookbackDays: days, NoEmail: runNoEmail})
		if err != nil {
			return eris.Wrap(err, "tracker run")
		}

		report.PrintSummary(os.Stdout, out.Report)
		return nil
	},
}

// lookbackDays picks the --days flag over the configured default. Zero
// means the flag was not given.
func lookbackDays(flag, def int) (int, error) {
	if flag < 0 {
		return 0, eris.Errorf("run: --days must not be negative, got %d", flag)
	}
	if flag > 0 {
		return flag, nil
	}
	return def, nil
}

func init() {
	runCmd.Flags().IntVar(&runDays, "days", 0, "lookback window in days (default from tracker.lookback_days)")
	runCmd.Flags().BoolVar(&runNoEmail, "no-email", false, "skip email delivery")
	rootCmd.AddCommand(runCmd)
}
