// Package reconcile merges inbound message events into application records.
package reconcile

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

// Reconciler applies the status-hierarchy merge rules. It is pure over its
// inputs; persistence is the caller's job, exactly one upsert per event.
type Reconciler struct {
	hierarchy model.Hierarchy
}

func NewReconciler(h model.Hierarchy) *Reconciler {
	return &Reconciler{hierarchy: h}
}

// Apply merges ev into rec and returns the updated record. A nil rec means
// no existing record matched and a new one is created.
func (r *Reconciler) Apply(rec *model.ApplicationRecord, ev model.InboundEvent) *model.ApplicationRecord {
	if rec == nil {
		return r.create(ev)
	}
	r.merge(rec, ev)
	return rec
}

func (r *Reconciler) create(ev model.InboundEvent) *model.ApplicationRecord {
	status := ev.ExtractedStatus
	if status == model.StatusUnresolved || status == "" {
		status = model.DefaultStatus
	}
	peak := model.DefaultStatus
	if r.hierarchy.PeakEligible(status) {
		peak = status
	}

	company := ev.ExtractedCompany
	if company == "" {
		company = model.Unresolved
	}
	title := ev.ExtractedTitle
	if title == "" {
		title = model.Unresolved
	}

	rec := &model.ApplicationRecord{
		ID:                uuid.NewString(),
		Company:           company,
		Title:             title,
		CurrentStatus:     status,
		PeakStatus:        peak,
		Platform:          ev.Platform,
		FirstEventTime:    ev.ObservedAt,
		LastEventTime:     ev.ObservedAt,
		SourceMessageID:   ev.MessageID,
		Subject:           ev.Subject,
		Permalink:         ev.Permalink,
		NeedsManualReview: !ev.CompanyResolved() || !ev.TitleResolved(),
	}
	zap.L().Debug("reconcile: created record",
		zap.String("record_id", rec.ID),
		zap.String("company", rec.Company),
		zap.String("status", string(rec.CurrentStatus)))
	return rec
}

func (r *Reconciler) merge(rec *model.ApplicationRecord, ev model.InboundEvent) {
	// Fill identity fields only when the stored value was unresolved. Two
	// resolved values never overwrite each other; extractor disagreement
	// must not cause churn.
	if rec.Company == model.Unresolved && ev.CompanyResolved() {
		rec.Company = ev.ExtractedCompany
	}
	if rec.Title == model.Unresolved && ev.TitleResolved() {
		rec.Title = ev.ExtractedTitle
	}
	if rec.Platform == "" && ev.Platform != "" {
		rec.Platform = ev.Platform
	}

	if ev.ExtractedStatus != model.StatusUnresolved && ev.ExtractedStatus != "" {
		r.mergeStatus(rec, ev.ExtractedStatus)
	}

	if rec.FirstEventTime.IsZero() || ev.ObservedAt.Before(rec.FirstEventTime) {
		rec.FirstEventTime = ev.ObservedAt
	}
	if ev.ObservedAt.After(rec.LastEventTime) {
		rec.LastEventTime = ev.ObservedAt
		rec.Subject = ev.Subject
		if ev.Permalink != "" {
			rec.Permalink = ev.Permalink
		}
	}
	rec.SourceMessageID = ev.MessageID

	rec.NeedsManualReview = rec.Company == model.Unresolved || rec.Title == model.Unresolved
}

func (r *Reconciler) mergeStatus(rec *model.ApplicationRecord, next model.Status) {
	// Accepted is absorbing.
	if rec.CurrentStatus == model.StatusAccepted && next != model.StatusAccepted {
		return
	}

	curRank := r.hierarchy.Rank(rec.CurrentStatus)
	newRank := r.hierarchy.Rank(next)
	if newRank >= curRank || next == model.StatusRejected || next == model.StatusOffer {
		rec.CurrentStatus = next
	}

	// Peak only moves forward, and never onto an excluded status.
	if r.hierarchy.PeakEligible(rec.CurrentStatus) &&
		r.hierarchy.Rank(rec.CurrentStatus) > r.hierarchy.Rank(rec.PeakStatus) {
		rec.PeakStatus = rec.CurrentStatus
	}
}
