package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_LoadRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "company", "title", "current_status", "peak_status", "platform",
		"first_event_time", "last_event_time", "source_message_id", "subject", "permalink", "needs_manual_review",
	}).AddRow("r1", "Initech", "Backend Engineer", "Interview", "Interview", "LinkedIn",
		now.Add(-time.Hour), now, "m1", "subject", "https://x", false)

	mock.ExpectQuery(`SELECT id, company, title, current_status, peak_status, platform`).
		WillReturnRows(rows)

	recs, err := s.LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].ID)
	assert.Equal(t, "Initech", recs[0].Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	rec := sampleRecord()

	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(rec.ID, rec.Company, rec.Title, "Interview", "Interview", rec.Platform,
			rec.FirstEventTime.UTC(), rec.LastEventTime.UTC(), rec.SourceMessageID, rec.Subject, rec.Permalink,
			rec.NeedsManualReview).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertRecord_EmptyID(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	rec := sampleRecord()
	rec.ID = ""

	err := s.UpsertRecord(context.Background(), rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty id")
}

func TestPostgresStore_FlushRecords_BulkUpsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	rec := sampleRecord()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_applications"}, RecordColumns).
		WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "applications"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.FlushRecords(context.Background(), []*model.ApplicationRecord{rec})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ProcessedMessageIDs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT message_id FROM processed_messages`).
		WillReturnRows(pgxmock.NewRows([]string{"message_id"}).AddRow("m1").AddRow("m2"))

	seen, err := s.ProcessedMessageIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, 2)
	assert.Contains(t, seen, "m1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MarkProcessed_Copy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"processed_messages"}, []string{"message_id", "processed_at"}).
		WillReturnResult(2)

	err := s.MarkProcessed(context.Background(), []string{"m1", "m2"}, time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS applications`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
