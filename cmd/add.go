package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/meeting-tracker/internal/model"
)

type addFlags struct {
	name, title, company, location string
	meetingType                    string
	url, headline, source, date    string
}

var addOpts addFlags

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a meeting by hand",
	Long:  "Classifies and scores a manually entered meeting and merges it into the history. Entering the same meeting twice records it once.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		m, err := addOpts.meeting()
		if err != nil {
			return err
		}

		env, err := initTracker(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		fresh, err := env.Tracker.Add(ctx, m)
		if err != nil {
			return eris.Wrap(err, "add meeting")
		}
		if len(fresh) == 0 {
			fmt.Fprintln(os.Stdout, "Meeting already recorded.")
			return nil
		}

		r := fresh[0]
		industry := r.Industry
		if industry == "" {
			industry = "unclassified"
		}
		fmt.Fprintf(os.Stdout, "Recorded %s: %s, %s confidence, %s\n",
			r.Fingerprint[:12], industry, r.Confidence, r.Priority.Label())
		return nil
	},
}

// meeting validates the flags and builds the extracted meeting.
func (f addFlags) meeting() (model.ExtractedMeeting, error) {
	m := model.ExtractedMeeting{
		AttendeeName:  strings.TrimSpace(f.name),
		AttendeeTitle: strings.TrimSpace(f.title),
		CompanyRaw:    strings.TrimSpace(f.company),
		Location:      strings.TrimSpace(f.location),
		MeetingType:   model.MeetingType(strings.ToLower(strings.TrimSpace(f.meetingType))),
		Source: model.ArticleRef{
			Title:      strings.TrimSpace(f.headline),
			URL:        strings.TrimSpace(f.url),
			SourceName: strings.TrimSpace(f.source),
		},
	}
	if !m.Valid() {
		return m, eris.New("add: --name or --company is required")
	}

	switch m.MeetingType {
	case model.MeetingTypeMeeting, model.MeetingTypeCall, model.MeetingTypeSummit, model.MeetingTypeOther:
	default:
		return m, eris.Errorf("add: unknown meeting type %q", f.meetingType)
	}

	if f.date != "" {
		d, err := time.Parse(time.DateOnly, f.date)
		if err != nil {
			return m, eris.Wrapf(err, "add: parse date %q", f.date)
		}
		m.Source.PublishedAt = d
		m.MeetingDate = d
	}
	return m, nil
}

func init() {
	addCmd.Flags().StringVar(&addOpts.name, "name", "", "attendee name")
	addCmd.Flags().StringVar(&addOpts.title, "title", "", "attendee title")
	addCmd.Flags().StringVar(&addOpts.company, "company", "", "company name")
	addCmd.Flags().StringVar(&addOpts.location, "location", "", "meeting location")
	addCmd.Flags().StringVar(&addOpts.meetingType, "type", "meeting", "meeting, call, summit or other")
	addCmd.Flags().StringVar(&addOpts.url, "url", "", "source article URL")
	addCmd.Flags().StringVar(&addOpts.headline, "headline", "Manual entry", "source article title")
	addCmd.Flags().StringVar(&addOpts.source, "source", "Manual", "source publication")
	addCmd.Flags().StringVar(&addOpts.date, "date", "", "meeting and publish date (YYYY-MM-DD)")
	rootCmd.AddCommand(addCmd)
}
