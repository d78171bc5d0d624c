package model

import "time"

// ApplicationRecord is the unit of reconciliation: one durable row per job
// application, merged from many inbound messages.
type ApplicationRecord struct {
	ID                string    `json:"id" yaml:"id"`
	Company           string    `json:"company" yaml:"company"`
	Title             string    `json:"title" yaml:"title"`
	CurrentStatus     Status    `json:"current_status" yaml:"current_status"`
	PeakStatus        Status    `json:"peak_status" yaml:"peak_status"`
	Platform          string    `json:"platform,omitempty" yaml:"platform,omitempty"`
	FirstEventTime    time.Time `json:"first_event_time" yaml:"first_event_time"`
	LastEventTime     time.Time `json:"last_event_time" yaml:"last_event_time"`
	SourceMessageID   string    `json:"source_message_id" yaml:"source_message_id"`
	Subject           string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	Permalink         string    `json:"permalink,omitempty" yaml:"permalink,omitempty"`
	NeedsManualReview bool      `json:"needs_manual_review" yaml:"needs_manual_review"`
}

// FieldSource records which extractor tier produced a field value.
type FieldSource string

const (
	SourcePrimary    FieldSource = "primary"
	SourceFallback   FieldSource = "fallback"
	SourceUnresolved FieldSource = "unresolved"
)

// InboundEvent is built per message and never persisted on its own.
type InboundEvent struct {
	MessageID    string    `json:"message_id"`
	ThreadID     string    `json:"thread_id"`
	Subject      string    `json:"subject"`
	BodyText     string    `json:"body_text"`
	Sender       string    `json:"sender"`
	SenderDomain string    `json:"sender_domain"`
	Platform     string    `json:"platform,omitempty"`
	Permalink    string    `json:"permalink"`
	ObservedAt   time.Time `json:"observed_at"`

	ExtractedCompany string      `json:"extracted_company"`
	ExtractedTitle   string      `json:"extracted_title"`
	ExtractedStatus  Status      `json:"extracted_status"`
	CompanySource    FieldSource `json:"company_source"`
	TitleSource      FieldSource `json:"title_source"`
	StatusSource     FieldSource `json:"status_source"`
}

// CompanyResolved reports whether the event carries a usable company name.
func (e InboundEvent) CompanyResolved() bool {
	return e.ExtractedCompany != "" && e.ExtractedCompany != Unresolved
}

// TitleResolved reports whether the event carries a usable title.
func (e InboundEvent) TitleResolved() bool {
	return e.ExtractedTitle != "" && e.ExtractedTitle != Unresolved
}

// ThreadState is the per-thread workflow label state.
type ThreadState string

const (
	ThreadPending     ThreadState = "pending"
	ThreadDone        ThreadState = "done"
	ThreadNeedsReview ThreadState = "needs-review"
)

// CanTransition reports whether moving from s to next is a legal forward
// transition. needs-review is sticky: only a human clears it.
func (s ThreadState) CanTransition(next ThreadState) bool {
	if s == next {
		return true
	}
	return s == ThreadPending && (next == ThreadDone || next == ThreadNeedsReview)
}
