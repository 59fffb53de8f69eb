// Package dedup merges classified meetings into the persisted history.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/meeting-tracker/internal/model"
)

const fieldSep = "\x1f"

// History is the persistence the merger needs. store.Store satisfies it.
type History interface {
	LoadMeetings(ctx context.Context) ([]model.MeetingRecord, error)
	AppendMeetings(ctx context.Context, recs []model.MeetingRecord) (int, error)
}

// PersistenceError reports a failed history read or commit. It is fatal for
// the run; the stored history is left as it was before the merge.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "dedup: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Fingerprint identifies a meeting by attendee, company, publish date and
// source URL. Fields are not case folded, so any textual difference yields a
// different fingerprint. Undated meetings use an empty date.
func Fingerprint(m model.ExtractedMeeting) string {
	var date string
	if !m.Source.PublishedAt.IsZero() {
		date = m.Source.PublishedAt.UTC().Format(time.DateOnly)
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		m.AttendeeName,
		m.CompanyRaw,
		date,
		m.Source.URL,
	}, fieldSep)))
	return hex.EncodeToString(sum[:])
}

// Merger filters candidates against the stored history.
type Merger struct {
	history History
	now     func() time.Time
}

// Option configures a Merger.
type Option func(*Merger)

// WithClock overrides the FirstSeen timestamp source.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) { m.now = now }
}

// New creates a Merger over history.
func New(history History, opts ...Option) *Merger {
	m := &Merger{history: history, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Merge loads the full history, keeps the candidates whose fingerprint is
// neither stored nor seen earlier in the batch, and appends them in arrival
// order with a single commit. It returns the new records and the history
// after the merge.
func (m *Merger) Merge(ctx context.Context, candidates []model.ClassifiedMeeting) ([]model.MeetingRecord, []model.MeetingRecord, error) {
	history, err := m.history.LoadMeetings(ctx)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "load history", Err: err}
	}

	seen := make(map[string]struct{}, len(history)+len(candidates))
	for _, r := range history {
		seen[r.Fingerprint] = struct{}{}
	}

	firstSeen := m.now().UTC()
	var fresh []model.MeetingRecord
	for _, c := range candidates {
		fp := Fingerprint(c.ExtractedMeeting)
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		fresh = append(fresh, model.MeetingRecord{
			ClassifiedMeeting: c,
			Fingerprint:       fp,
			FirstSeen:         firstSeen,
		})
	}

	if len(fresh) == 0 {
		zap.L().Debug("dedup: no new meetings",
			zap.Int("candidates", len(candidates)),
			zap.Int("history", len(history)),
		)
		return nil, history, nil
	}

	written, err := m.history.AppendMeetings(ctx, fresh)
	if err != nil {
		return nil, nil, &PersistenceError{Op: "append meetings", Err: err}
	}
	if written != len(fresh) {
		zap.L().Warn("dedup: store skipped records already present",
			zap.Int("expected", len(fresh)),
			zap.Int("written", written),
		)
	}

	full := make([]model.MeetingRecord, 0, len(history)+len(fresh))
	full = append(full, history...)
	full = append(full, fresh...)

	zap.L().Info("dedup: merged meetings",
		zap.Int("candidates", len(candidates)),
		zap.Int("new", len(fresh)),
		zap.Int("total", len(full)),
	)
	return fresh, full, nil
}
