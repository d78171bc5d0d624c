// Package sweep force-closes applications that have gone quiet.
package sweep

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/store"
)

// DefaultThreshold is how long an application may sit without a new message
// before the sweeper declares it rejected.
const DefaultThreshold = 7 * 7 * 24 * time.Hour

// Sweeper scans the record store and rejects stale, non-terminal records.
// It runs independently of the message pipeline.
type Sweeper struct {
	store     store.Store
	hierarchy model.Hierarchy
	threshold time.Duration
	now       func() time.Time
}

func New(st store.Store, h model.Hierarchy, threshold time.Duration) *Sweeper {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Sweeper{
		store:     st,
		hierarchy: h,
		threshold: threshold,
		now:       time.Now,
	}
}

// Run performs one sweep and returns the number of records closed. Re-running
// immediately changes nothing: swept records become terminal and fresh ones
// are untouched.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	recs, err := s.store.LoadRecords(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "sweep: load records")
	}

	now := s.now().UTC()
	cutoff := now.Add(-s.threshold)

	var stale []*model.ApplicationRecord
	for _, rec := range recs {
		if s.hierarchy.IsTerminal(rec.CurrentStatus) {
			continue
		}
		if rec.CurrentStatus == model.StatusUnresolved {
			continue
		}
		if !rec.LastEventTime.Before(cutoff) {
			continue
		}

		zap.L().Info("sweep: closing stale record",
			zap.String("record_id", rec.ID),
			zap.String("company", rec.Company),
			zap.String("status", string(rec.CurrentStatus)),
			zap.Time("last_event", rec.LastEventTime))

		rec.CurrentStatus = model.StatusRejected
		rec.LastEventTime = now
		stale = append(stale, rec)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	if err := s.store.FlushRecords(ctx, stale); err != nil {
		return 0, eris.Wrap(err, "sweep: flush records")
	}
	return len(stale), nil
}
