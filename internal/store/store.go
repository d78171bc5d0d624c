package store

import (
	"context"
	"time"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

// RecordColumns is the fixed tabular contract shared by every backend. Order
// matters: the xlsx backend addresses cells positionally and exported sheets
// are consumed by spreadsheet formulas that assume these offsets.
var RecordColumns = []string{
	"id",
	"company",
	"title",
	"current_status",
	"peak_status",
	"platform",
	"first_event_time",
	"last_event_time",
	"source_message_id",
	"subject",
	"permalink",
	"needs_manual_review",
}

// Positional offsets into RecordColumns.
const (
	ColID = iota
	ColCompany
	ColTitle
	ColCurrentStatus
	ColPeakStatus
	ColPlatform
	ColFirstEventTime
	ColLastEventTime
	ColSourceMessageID
	ColSubject
	ColPermalink
	ColNeedsManualReview
)

// Store defines the persistence interface for the reconciliation pipeline.
// Each run loads the full record set, reconciles in memory, and writes back
// through UpsertRecord (per event) or FlushRecords (bulk, at run end).
type Store interface {
	// Records
	LoadRecords(ctx context.Context) ([]*model.ApplicationRecord, error)
	UpsertRecord(ctx context.Context, rec *model.ApplicationRecord) error
	FlushRecords(ctx context.Context, recs []*model.ApplicationRecord) error

	// Idempotency ledger
	ProcessedMessageIDs(ctx context.Context) (map[string]struct{}, error)
	MarkProcessed(ctx context.Context, messageIDs []string, at time.Time) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
