package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and export recorded meetings",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently recorded meetings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		history, err := st.LoadMeetings(ctx)
		if err != nil {
			return eris.Wrap(err, "history list")
		}
		if len(history) == 0 {
			fmt.Fprintln(os.Stderr, "No meetings recorded.")
			return nil
		}

		fmt.Fprintln(os.Stdout, report.MeetingTable(recent(history, limit)))
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the full history workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = cfg.Report.XLSXPath
		}

		history, err := st.LoadMeetings(ctx)
		if err != nil {
			return eris.Wrap(err, "history export")
		}
		r := report.Compose(nil, history, report.Options{
			GeneratedAt:  time.Now().UTC(),
			LookbackDays: cfg.Tracker.LookbackDays,
		})
		if err := report.SaveWorkbook(out, r); err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Exported %d meetings to %s\n", len(history), out)
		return nil
	},
}

// recent returns the last limit records, newest first. limit <= 0 keeps all.
func recent(history []model.MeetingRecord, limit int) []model.MeetingRecord {
	n := len(history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.MeetingRecord, 0, n)
	for i := len(history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, history[i])
	}
	return out
}

func init() {
	historyListCmd.Flags().Int("limit", 25, "maximum meetings to show (0 for all)")
	historyExportCmd.Flags().String("out", "", "output path (default report.xlsx_path)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
