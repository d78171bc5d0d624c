package model

// Unresolved is the sentinel for a field neither extractor tier could settle.
// It is shared by company, title, and status values.
const Unresolved = "unresolved"

// Status represents an application lifecycle state.
type Status string

const (
	StatusApplied    Status = "Applied"
	StatusViewed     Status = "Viewed"
	StatusAssessment Status = "Assessment"
	StatusInterview  Status = "Interview"
	StatusOffer      Status = "Offer"
	StatusRejected   Status = "Rejected"
	StatusAccepted   Status = "Accepted"
	StatusWithdrawn  Status = "Withdrawn"
	StatusUpdate     Status = "Update/Other"
	StatusUnresolved Status = Unresolved
)

// DefaultStatus is assigned to records created from events whose status
// could not be extracted.
const DefaultStatus = StatusApplied

// Hierarchy ranks statuses for the merge decision. Offer and Rejected share
// a rank: both may land on an in-flight application in any order.
type Hierarchy struct {
	Ranks            map[Status]int
	ExcludedFromPeak map[Status]bool
	Terminal         map[Status]bool
}

// DefaultHierarchy returns the built-in status ranking.
func DefaultHierarchy() Hierarchy {
	return Hierarchy{
		Ranks: map[Status]int{
			StatusUnresolved: 0,
			StatusUpdate:     0,
			StatusApplied:    1,
			StatusViewed:     2,
			StatusAssessment: 3,
			StatusInterview:  4,
			StatusOffer:      5,
			StatusRejected:   5,
			StatusWithdrawn:  5,
			StatusAccepted:   6,
		},
		ExcludedFromPeak: map[Status]bool{
			StatusRejected:   true,
			StatusAccepted:   true,
			StatusWithdrawn:  true,
			StatusUpdate:     true,
			StatusUnresolved: true,
		},
		Terminal: map[Status]bool{
			StatusRejected:  true,
			StatusAccepted:  true,
			StatusWithdrawn: true,
		},
	}
}

// Rank returns the hierarchy rank for s. Unknown statuses rank 0.
func (h Hierarchy) Rank(s Status) int {
	return h.Ranks[s]
}

// IsTerminal reports whether s closes a record.
func (h Hierarchy) IsTerminal(s Status) bool {
	return h.Terminal[s]
}

// PeakEligible reports whether s may become a record's peak status.
func (h Hierarchy) PeakEligible(s Status) bool {
	return !h.ExcludedFromPeak[s]
}

// ParseStatus maps a raw extractor string onto the closed enum. Anything
// outside the enum is unresolved; the caller decides the default.
func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusApplied, StatusViewed, StatusAssessment, StatusInterview,
		StatusOffer, StatusRejected, StatusAccepted, StatusWithdrawn,
		StatusUpdate:
		return Status(raw)
	default:
		return StatusUnresolved
	}
}
