package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/db"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"upsert_record":  postgresUpsertRecord,
	"load_records":   postgresSelectRecords,
	"processed_ids":  `SELECT message_id FROM processed_messages`,
	"mark_processed": `INSERT INTO processed_messages (message_id, processed_at) VALUES ($1, $2) ON CONFLICT (message_id) DO NOTHING`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS applications (
	id                  TEXT PRIMARY KEY,
	company             TEXT NOT NULL,
	title               TEXT NOT NULL,
	current_status      TEXT NOT NULL,
	peak_status         TEXT NOT NULL,
	platform            TEXT NOT NULL DEFAULT '',
	first_event_time    TIMESTAMPTZ NOT NULL,
	last_event_time     TIMESTAMPTZ NOT NULL,
	source_message_id   TEXT NOT NULL DEFAULT '',
	subject             TEXT NOT NULL DEFAULT '',
	permalink           TEXT NOT NULL DEFAULT '',
	needs_manual_review BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS processed_messages (
	message_id   TEXT PRIMARY KEY,
	processed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_company ON applications(company);
CREATE INDEX IF NOT EXISTS idx_applications_current_status ON applications(current_status);
CREATE INDEX IF NOT EXISTS idx_applications_last_event_time ON applications(last_event_time);
`

const postgresSelectRecords = `SELECT id, company, title, current_status, peak_status, platform,
	first_event_time, last_event_time, source_message_id, subject, permalink, needs_manual_review
	FROM applications ORDER BY last_event_time DESC`

const postgresUpsertRecord = `INSERT INTO applications
	 (id, company, title, current_status, peak_status, platform,
	  first_event_time, last_event_time, source_message_id, subject, permalink, needs_manual_review)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	 ON CONFLICT (id) DO UPDATE SET
	   company = EXCLUDED.company,
	   title = EXCLUDED.title,
	   current_status = EXCLUDED.current_status,
	   peak_status = EXCLUDED.peak_status,
	   platform = EXCLUDED.platform,
	   first_event_time = EXCLUDED.first_event_time,
	   last_event_time = EXCLUDED.last_event_time,
	   source_message_id = EXCLUDED.source_message_id,
	   subject = EXCLUDED.subject,
	   permalink = EXCLUDED.permalink,
	   needs_manual_review = EXCLUDED.needs_manual_review`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

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

func (s *PostgresStore) LoadRecords(ctx context.Context) ([]*model.ApplicationRecord, error) {
	rows, err := s.pool.Query(ctx, postgresSelectRecords)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load records")
	}
	defer rows.Close()

	var recs []*model.ApplicationRecord
	for rows.Next() {
		var rec model.ApplicationRecord
		var current, peak string
		if err := rows.Scan(&rec.ID, &rec.Company, &rec.Title, &current, &peak, &rec.Platform,
			&rec.FirstEventTime, &rec.LastEventTime, &rec.SourceMessageID, &rec.Subject, &rec.Permalink,
			&rec.NeedsManualReview); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec.CurrentStatus = model.Status(current)
		rec.PeakStatus = model.Status(peak)
		recs = append(recs, &rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: load records iterate")
}

func (s *PostgresStore) UpsertRecord(ctx context.Context, rec *model.ApplicationRecord) error {
	if rec.ID == "" {
		return eris.New("postgres: upsert record: empty id")
	}

	_, err := s.pool.Exec(ctx, postgresUpsertRecord, upsertRecordArgs(rec)...)
	return eris.Wrapf(err, "postgres: upsert record %s", rec.ID)
}

// FlushRecords wires the bulk-upsert path: a temp table COPY followed by a
// single INSERT ... ON CONFLICT against applications.
func (s *PostgresStore) FlushRecords(ctx context.Context, recs []*model.ApplicationRecord) error {
	if len(recs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" {
			return eris.New("postgres: flush records: empty id")
		}
		rows = append(rows, upsertRecordArgs(rec))
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "applications",
		Columns:      RecordColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	return err
}

func (s *PostgresStore) ProcessedMessageIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT message_id FROM processed_messages`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: processed message ids")
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan message id")
		}
		seen[id] = struct{}{}
	}
	return seen, eris.Wrap(rows.Err(), "postgres: processed message ids iterate")
}

// MarkProcessed records message IDs via COPY. Callers only pass IDs that were
// absent from ProcessedMessageIDs at run start, so COPY's lack of conflict
// handling is safe.
func (s *PostgresStore) MarkProcessed(ctx context.Context, messageIDs []string, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(messageIDs))
	for _, id := range messageIDs {
		rows = append(rows, []any{id, at.UTC()})
	}

	_, err := db.CopyFrom(ctx, s.pool, "processed_messages", []string{"message_id", "processed_at"}, rows)
	return err
}
