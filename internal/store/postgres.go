package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/meeting-tracker/internal/db"
	"github.com/sells-group/meeting-tracker/internal/model"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS meetings (
	seq            BIGSERIAL PRIMARY KEY,
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
	published_at   TIMESTAMPTZ,
	meeting_date   TIMESTAMPTZ,
	first_seen     TIMESTAMPTZ NOT NULL
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
	started_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_meetings_published_at ON meetings(published_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadMeetings(ctx context.Context) ([]model.MeetingRecord, error) {
	query, args, err := psql.Select(meetingColumns...).From("meetings").OrderBy("seq").ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build load meetings")
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load meetings")
	}
	defer rows.Close()

	var out []model.MeetingRecord
	for rows.Next() {
		r, err := scanMeeting(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan meeting")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: load meetings iterate")
}

func (s *PostgresStore) AppendMeetings(ctx context.Context, recs []model.MeetingRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	written := 0
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for start := 0; start < len(recs); start += insertBatch {
			end := min(start+insertBatch, len(recs))
			ins := psql.Insert("meetings").Columns(meetingColumns...)
			for _, r := range recs[start:end] {
				ins = ins.Values(meetingValues(r)...)
			}
			query, args, err := ins.Suffix("ON CONFLICT (fingerprint) DO NOTHING").ToSql()
			if err != nil {
				return eris.Wrap(err, "postgres: build append")
			}
			tag, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return eris.Wrap(err, "postgres: append meetings")
			}
			written += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	vals, err := runValues(run)
	if err != nil {
		return err
	}
	query, args, err := psql.Insert("runs").Columns(runColumns...).Values(vals...).
		Suffix(runUpsertSuffix).ToSql()
	if err != nil {
		return eris.Wrap(err, "postgres: build save run")
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return eris.Wrapf(err, "postgres: save run %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	b := psql.Select(runColumns...).From("runs").
		OrderBy("started_at DESC").
		Limit(runLimit(filter))
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list runs")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
