// Package resolve matches extracted {company, title} pairs against the
// existing record set.
package resolve

import (
	"go.uber.org/zap"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/extract"
	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

// Resolver indexes records by normalized company name and answers lookups
// for incoming events. Matching is a heuristic: one company may have several
// concurrent applications distinguished only by title, and when the title is
// unavailable the most recently updated record wins.
type Resolver struct {
	byCompany map[string][]*model.ApplicationRecord
}

// NewResolver builds the company index over the loaded record set.
func NewResolver(records []*model.ApplicationRecord) *Resolver {
	r := &Resolver{byCompany: make(map[string][]*model.ApplicationRecord, len(records))}
	for _, rec := range records {
		r.Add(rec)
	}
	return r
}

// Add registers a record with the index. Records created mid-run must be
// added so later events in the same run can resolve against them.
func (r *Resolver) Add(rec *model.ApplicationRecord) {
	if rec == nil || rec.Company == "" || rec.Company == model.Unresolved {
		return
	}
	key := extract.NormalizeKey(rec.Company)
	r.byCompany[key] = append(r.byCompany[key], rec)
}

// Find returns the best-matching record for the extracted company and title,
// or nil when the caller should create a new record. Resolution is skipped
// entirely when the company is unresolved.
func (r *Resolver) Find(company, title string) *model.ApplicationRecord {
	if company == "" || company == model.Unresolved {
		return nil
	}

	candidates := r.byCompany[extract.NormalizeKey(company)]
	if len(candidates) == 0 {
		return nil
	}

	if title != "" && title != model.Unresolved {
		want := extract.NormalizeKey(title)
		for _, rec := range candidates {
			if extract.NormalizeKey(rec.Title) == want {
				return rec
			}
		}
	}

	// No exact title match. Fall back to the most recently updated record
	// for the company, accepting some misattribution risk in exchange for
	// fewer manual reviews.
	best := candidates[0]
	for _, rec := range candidates[1:] {
		if rec.LastEventTime.After(best.LastEventTime) {
			best = rec
		}
	}
	if len(candidates) > 1 {
		zap.L().Debug("resolver: ambiguous company match, using most recent",
			zap.String("company", company),
			zap.Int("candidates", len(candidates)),
			zap.String("record_id", best.ID))
	}
	return best
}
