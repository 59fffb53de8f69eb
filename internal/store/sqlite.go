package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/meeting-tracker/internal/model"
)

// insertBatch bounds rows per INSERT to stay under SQLite's variable limit.
const insertBatch = 500

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS meetings (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint    TEXT NOT NULL UNIQUE,
	attendee_name  TEXT NOT NULL DEFAULT '',
	attendee_title TEXT NOT NULL DEFAULT '',
	company_raw    TEXT NOT NULL DEFAULT '',
	location       TEXT NOT NULL DEFAULT '',
	meeting_type   TEXT NOT NULL,
	industry       TEXT NOT NULL DEFAULT '',
	confidence     TEXT NOT NULL,
	priority       TEXT NOT NULL,
	match_tier     TEXT NOT NULL DEFAULT '',
	source_title   TEXT NOT NULL DEFAULT '',
	source_url     TEXT NOT NULL DEFAULT '',
	source_name    TEXT NOT NULL DEFAULT '',
	published_at   DATETIME,
	meeting_date   DATETIME,
	first_seen     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	status           TEXT NOT NULL,
	lookback_days    INTEGER NOT NULL DEFAULT 0,
	articles_fetched INTEGER NOT NULL DEFAULT 0,
	candidates       INTEGER NOT NULL DEFAULT 0,
	new_meetings     INTEGER NOT NULL DEFAULT 0,
	total_meetings   INTEGER NOT NULL DEFAULT 0,
	warnings         TEXT NOT NULL DEFAULT '[]',
	error            TEXT NOT NULL DEFAULT '',
	started_at       DATETIME NOT NULL,
	finished_at      DATETIME
);

CREATE INDEX IF NOT EXISTS idx_meetings_published_at ON meetings(published_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadMeetings(ctx context.Context) ([]model.MeetingRecord, error) {
	query, args, err := sq.Select(meetingColumns...).From("meetings").OrderBy("seq").ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build load meetings")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load meetings")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.MeetingRecord
	for rows.Next() {
		r, err := scanMeeting(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan meeting")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: load meetings iterate")
}

func (s *SQLiteStore) AppendMeetings(ctx context.Context, recs []model.MeetingRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin append")
	}
	defer tx.Rollback() //nolint:errcheck

	written := 0
	for start := 0; start < len(recs); start += insertBatch {
		end := min(start+insertBatch, len(recs))
		ins := sq.Insert("meetings").Columns(meetingColumns...)
		for _, r := range recs[start:end] {
			ins = ins.Values(meetingValues(r)...)
		}
		query, args, err := ins.Suffix("ON CONFLICT (fingerprint) DO NOTHING").ToSql()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: build append")
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: append meetings")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		written += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit append")
	}
	return written, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	vals, err := runValues(run)
	if err != nil {
		return err
	}
	query, args, err := sq.Insert("runs").Columns(runColumns...).Values(vals...).
		Suffix(runUpsertSuffix).ToSql()
	if err != nil {
		return eris.Wrap(err, "sqlite: build save run")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return eris.Wrapf(err, "sqlite: save run %s", run.ID)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	b := sq.Select(runColumns...).From("runs").
		OrderBy("started_at DESC", "rowid DESC").
		Limit(runLimit(filter))
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list runs")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// runUpsertSuffix is valid for both SQLite and Postgres.
const runUpsertSuffix = `ON CONFLICT (id) DO UPDATE SET
	status = excluded.status,
	lookback_days = excluded.lookback_days,
	articles_fetched = excluded.articles_fetched,
	candidates = excluded.candidates,
	new_meetings = excluded.new_meetings,
	total_meetings = excluded.total_meetings,
	warnings = excluded.warnings,
	error = excluded.error,
	started_at = excluded.started_at,
	finished_at = excluded.finished_at`
