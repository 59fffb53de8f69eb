package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/meeting-tracker/internal/classify"
	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/scorer"
	"github.com/sells-group/meeting-tracker/internal/taxonomy"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <company>...",
	Short: "Classify company names against the taxonomy",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		tx, err := taxonomy.Load(cfg.Tracker.TaxonomyPath)
		if err != nil {
			return err
		}
		writeClassifications(os.Stdout, tx, args)
		return nil
	},
}

// writeClassifications prints one line per company with the classifier
// result and the priority a high-level meeting with it would get.
func writeClassifications(out io.Writer, tx *taxonomy.Taxonomy, companies []string) {
	c := classify.New(tx)
	s := scorer.New(tx)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPANY\tINDUSTRY\tCONFIDENCE\tTIER\tMATCHED\tPRIORITY")
	for _, name := range companies {
		res := c.Classify(name)
		prio := s.Score(model.ClassifiedMeeting{Industry: res.Industry, Confidence: res.Confidence})
		industry := res.Industry
		if industry == "" {
			industry = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			name, industry, res.Confidence, res.Tier, res.Matched, prio)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
