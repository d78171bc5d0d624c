package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

func TestWriteRecords_Formats(t *testing.T) {
	recs := []*model.ApplicationRecord{
		{
			ID:            "rec-1",
			Company:       "Initech",
			Title:         "Backend Engineer",
			CurrentStatus: model.StatusApplied,
			PeakStatus:    model.StatusApplied,
			LastEventTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRecords(&buf, "json", recs))
		assert.Contains(t, buf.String(), `"company": "Initech"`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeRecords(&buf, "yaml", recs))
		assert.Contains(t, buf.String(), "company: Initech")
	})

	t.Run("unsupported", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeRecords(&buf, "csv", recs)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported format")
	})
}
