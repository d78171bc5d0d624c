package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultHierarchy(t *testing.T) {
	h := DefaultHierarchy()

	t.Run("Ordering", func(t *testing.T) {
		assert.Less(t, h.Rank(StatusApplied), h.Rank(StatusViewed))
		assert.Less(t, h.Rank(StatusViewed), h.Rank(StatusAssessment))
		assert.Less(t, h.Rank(StatusAssessment), h.Rank(StatusInterview))
		assert.Less(t, h.Rank(StatusInterview), h.Rank(StatusOffer))
		assert.Less(t, h.Rank(StatusOffer), h.Rank(StatusAccepted))
	})

	t.Run("OfferAndRejectedShareRank", func(t *testing.T) {
		assert.Equal(t, h.Rank(StatusOffer), h.Rank(StatusRejected))
	})

	t.Run("UnknownRanksZero", func(t *testing.T) {
		assert.Equal(t, 0, h.Rank(Status("Bogus")))
		assert.Equal(t, 0, h.Rank(StatusUnresolved))
		assert.Equal(t, 0, h.Rank(StatusUpdate))
	})

	t.Run("PeakExclusions", func(t *testing.T) {
		assert.False(t, h.PeakEligible(StatusRejected))
		assert.False(t, h.PeakEligible(StatusAccepted))
		assert.False(t, h.PeakEligible(StatusUpdate))
		assert.False(t, h.PeakEligible(StatusUnresolved))
		assert.True(t, h.PeakEligible(StatusInterview))
		assert.True(t, h.PeakEligible(StatusOffer))
	})

	t.Run("TerminalSet", func(t *testing.T) {
		for _, s := range []Status{StatusRejected, StatusAccepted, StatusWithdrawn} {
			assert.True(t, h.IsTerminal(s), string(s))
		}
		for _, s := range []Status{StatusApplied, StatusInterview, StatusOffer} {
			assert.False(t, h.IsTerminal(s), string(s))
		}
	})
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusInterview, ParseStatus("Interview"))
	assert.Equal(t, StatusUpdate, ParseStatus("Update/Other"))
	assert.Equal(t, StatusUnresolved, ParseStatus("interview"))
	assert.Equal(t, StatusUnresolved, ParseStatus(""))
	assert.Equal(t, StatusUnresolved, ParseStatus("Ghosted"))
}

func TestThreadStateTransitions(t *testing.T) {
	assert.True(t, ThreadPending.CanTransition(ThreadDone))
	assert.True(t, ThreadPending.CanTransition(ThreadNeedsReview))
	assert.True(t, ThreadNeedsReview.CanTransition(ThreadNeedsReview))

	// needs-review is sticky, done never moves back.
	assert.False(t, ThreadNeedsReview.CanTransition(ThreadDone))
	assert.False(t, ThreadDone.CanTransition(ThreadPending))
	assert.False(t, ThreadDone.CanTransition(ThreadNeedsReview))
}
