package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/meeting-tracker/internal/extract"
	"github.com/sells-group/meeting-tracker/internal/model"
	"github.com/sells-group/meeting-tracker/internal/taxonomy"
)

var extractTitle string

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Run the meeting extractor on article text",
	Long:  "Reads article text from a file (or stdin) and prints the meeting candidates as JSON. Useful for tuning triggers and rules.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		tx, err := taxonomy.Load(cfg.Tracker.TaxonomyPath)
		if err != nil {
			return err
		}

		var body []byte
		if len(args) == 1 {
			body, err = os.ReadFile(args[0])
		} else {
			body, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return eris.Wrap(err, "extract: read input")
		}

		return writeExtraction(os.Stdout, extract.New(tx.Extraction()), model.Article{
			Title:      extractTitle,
			Body:       string(body),
			SourceURL:  "manual://input",
			SourceName: "Manual",
		})
	},
}

// writeExtraction prints the gate verdict and the candidates for a.
func writeExtraction(out io.Writer, e *extract.Extractor, a model.Article) error {
	ok, reason := e.Gate(a.Text())
	result := struct {
		Passed     bool                     `json:"passed"`
		Reason     string                   `json:"reason,omitempty"`
		Candidates []model.ExtractedMeeting `json:"candidates"`
	}{
		Passed:     ok,
		Reason:     reason,
		Candidates: e.Extract(a),
	}
	if result.Candidates == nil {
		result.Candidates = []model.ExtractedMeeting{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(result), "extract: encode")
}

func init() {
	extractCmd.Flags().StringVar(&extractTitle, "title", "", "article headline")
	rootCmd.AddCommand(extractCmd)
}
