package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

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
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS applications (
	id                  TEXT PRIMARY KEY,
	company             TEXT NOT NULL,
	title               TEXT NOT NULL,
	current_status      TEXT NOT NULL,
	peak_status         TEXT NOT NULL,
	platform            TEXT NOT NULL DEFAULT '',
	first_event_time    DATETIME NOT NULL,
	last_event_time     DATETIME NOT NULL,
	source_message_id   TEXT NOT NULL DEFAULT '',
	subject             TEXT NOT NULL DEFAULT '',
	permalink           TEXT NOT NULL DEFAULT '',
	needs_manual_review INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS processed_messages (
	message_id   TEXT PRIMARY KEY,
	processed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_company ON applications(company);
CREATE INDEX IF NOT EXISTS idx_applications_current_status ON applications(current_status);
CREATE INDEX IF NOT EXISTS idx_applications_last_event_time ON applications(last_event_time);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteSelectRecords = `SELECT id, company, title, current_status, peak_status, platform,
	first_event_time, last_event_time, source_message_id, subject, permalink, needs_manual_review
	FROM applications`

func (s *SQLiteStore) LoadRecords(ctx context.Context) ([]*model.ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx, sqliteSelectRecords+` ORDER BY last_event_time DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load records")
	}
	defer rows.Close()

	var recs []*model.ApplicationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: load records iterate")
}

const sqliteUpsertRecord = `INSERT INTO applications
	 (id, company, title, current_status, peak_status, platform,
	  first_event_time, last_event_time, source_message_id, subject, permalink, needs_manual_review)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	 ON CONFLICT(id) DO UPDATE SET
	   company = excluded.company,
	   title = excluded.title,
	   current_status = excluded.current_status,
	   peak_status = excluded.peak_status,
	   platform = excluded.platform,
	   first_event_time = excluded.first_event_time,
	   last_event_time = excluded.last_event_time,
	   source_message_id = excluded.source_message_id,
	   subject = excluded.subject,
	   permalink = excluded.permalink,
	   needs_manual_review = excluded.needs_manual_review`

func upsertRecordArgs(rec *model.ApplicationRecord) []any {
	return []any{
		rec.ID, rec.Company, rec.Title, string(rec.CurrentStatus), string(rec.PeakStatus), rec.Platform,
		rec.FirstEventTime.UTC(), rec.LastEventTime.UTC(), rec.SourceMessageID, rec.Subject, rec.Permalink,
		rec.NeedsManualReview,
	}
}

func (s *SQLiteStore) UpsertRecord(ctx context.Context, rec *model.ApplicationRecord) error {
	if rec.ID == "" {
		return eris.New("sqlite: upsert record: empty id")
	}

	_, err := s.db.ExecContext(ctx, sqliteUpsertRecord, upsertRecordArgs(rec)...)
	return eris.Wrapf(err, "sqlite: upsert record %s", rec.ID)
}

func (s *SQLiteStore) FlushRecords(ctx context.Context, recs []*model.ApplicationRecord) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: flush records begin")
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if rec.ID == "" {
			return eris.New("sqlite: flush records: empty id")
		}
		if _, err := tx.ExecContext(ctx, sqliteUpsertRecord, upsertRecordArgs(rec)...); err != nil {
			return eris.Wrapf(err, "sqlite: flush record %s", rec.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: flush records commit")
}

func (s *SQLiteStore) ProcessedMessageIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT message_id FROM processed_messages`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: processed message ids")
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan message id")
		}
		seen[id] = struct{}{}
	}
	return seen, eris.Wrap(rows.Err(), "sqlite: processed message ids iterate")
}

func (s *SQLiteStore) MarkProcessed(ctx context.Context, messageIDs []string, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: mark processed begin")
	}
	defer tx.Rollback()

	for _, id := range messageIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO processed_messages (message_id, processed_at) VALUES (?, ?)
			 ON CONFLICT(message_id) DO NOTHING`,
			id, at.UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: mark processed %s", id)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: mark processed commit")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.ApplicationRecord, error) {
	var rec model.ApplicationRecord
	var current, peak string

	err := row.Scan(&rec.ID, &rec.Company, &rec.Title, &current, &peak, &rec.Platform,
		&rec.FirstEventTime, &rec.LastEventTime, &rec.SourceMessageID, &rec.Subject, &rec.Permalink,
		&rec.NeedsManualReview)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan record")
	}

	rec.CurrentStatus = model.Status(current)
	rec.PeakStatus = model.Status(peak)
	return &rec, nil
}
