// Package store persists meeting history and the run log.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/meeting-tracker/internal/config"
	"github.com/sells-group/meeting-tracker/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for meeting history.
//
// History is append-only: records are never updated or deleted once
// written, and LoadMeetings returns them in the order they were appended.
type Store interface {
	// Meetings
	LoadMeetings(ctx context.Context) ([]model.MeetingRecord, error)
	// AppendMeetings writes all records in one atomic commit. Records whose
	// fingerprint already exists are skipped. It returns the number written.
	AppendMeetings(ctx context.Context, recs []model.MeetingRecord) (int, error)

	// Runs
	SaveRun(ctx context.Context, run *model.Run) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by cfg.Driver, migrated and ready.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite", "":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL)
	case "file":
		s, err = NewFile(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

const defaultRunLimit = 100

var meetingColumns = []string{
	"fingerprint", "attendee_name", "attendee_title", "company_raw", "location",
	"meeting_type", "industry", "confidence", "priority", "match_tier",
	"source_title", "source_url", "source_name", "published_at", "meeting_date", "first_seen",
}

var runColumns = []string{
	"id", "status", "lookback_days", "articles_fetched", "candidates",
	"new_meetings", "total_meetings", "warnings", "error", "started_at", "finished_at",
}

func meetingValues(r model.MeetingRecord) []any {
	var published any
	if !r.Source.PublishedAt.IsZero() {
		published = r.Source.PublishedAt.UTC()
	}
	var meetingDate any
	if !r.MeetingDate.IsZero() {
		meetingDate = r.MeetingDate.UTC()
	}
	return []any{
		r.Fingerprint, r.AttendeeName, r.AttendeeTitle, r.CompanyRaw, r.Location,
		string(r.MeetingType), r.Industry, string(r.Confidence), string(r.Priority), string(r.MatchTier),
		r.Source.Title, r.Source.URL, r.Source.SourceName, published, meetingDate, r.FirstSeen.UTC(),
	}
}

func runValues(r *model.Run) ([]any, error) {
	warnings, err := json.Marshal(r.Warnings)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal warnings")
	}
	var finished any
	if r.FinishedAt != nil {
		finished = r.FinishedAt.UTC()
	}
	return []any{
		r.ID, string(r.Status), r.LookbackDays, r.ArticlesFetched, r.Candidates,
		r.NewMeetings, r.TotalMeetings, string(warnings), r.Error, r.StartedAt.UTC(), finished,
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanMeeting(row scannable) (model.MeetingRecord, error) {
	var (
		r         model.MeetingRecord
		mtype     string
		conf      string
		prio      string
		tier      string
		published *time.Time
		meetingOn *time.Time
	)
	err := row.Scan(
		&r.Fingerprint, &r.AttendeeName, &r.AttendeeTitle, &r.CompanyRaw, &r.Location,
		&mtype, &r.Industry, &conf, &prio, &tier,
		&r.Source.Title, &r.Source.URL, &r.Source.SourceName, &published, &meetingOn, &r.FirstSeen,
	)
	if err != nil {
		return r, err
	}
	r.MeetingType = model.MeetingType(mtype)
	r.Confidence = model.Confidence(conf)
	r.Priority = model.Priority(prio)
	r.MatchTier = model.MatchTier(tier)
	if published != nil {
		r.Source.PublishedAt = published.UTC()
	}
	if meetingOn != nil {
		r.MeetingDate = meetingOn.UTC()
	}
	r.FirstSeen = r.FirstSeen.UTC()
	return r, nil
}

func scanRun(row scannable) (model.Run, error) {
	var (
		r        model.Run
		status   string
		warnings string
		finished *time.Time
	)
	err := row.Scan(
		&r.ID, &status, &r.LookbackDays, &r.ArticlesFetched, &r.Candidates,
		&r.NewMeetings, &r.TotalMeetings, &warnings, &r.Error, &r.StartedAt, &finished,
	)
	if err != nil {
		return r, err
	}
	r.Status = model.RunStatus(status)
	if warnings != "" && warnings != "null" {
		if err := json.Unmarshal([]byte(warnings), &r.Warnings); err != nil {
			return r, eris.Wrap(err, "store: unmarshal warnings")
		}
	}
	r.StartedAt = r.StartedAt.UTC()
	if finished != nil {
		t := finished.UTC()
		r.FinishedAt = &t
	}
	return r, nil
}

func runLimit(f RunFilter) uint64 {
	if f.Limit <= 0 {
		return defaultRunLimit
	}
	return uint64(f.Limit)
}
