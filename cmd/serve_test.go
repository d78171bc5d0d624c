package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

type stubStore struct {
	records []*model.ApplicationRecord
	loadErr error
}

func (s *stubStore) LoadRecords(ctx context.Context) ([]*model.ApplicationRecord, error) {
	return s.records, s.loadErr
}

func (s *stubStore) UpsertRecord(ctx context.Context, rec *model.ApplicationRecord) error {
	return nil
}

func (s *stubStore) FlushRecords(ctx context.Context, recs []*model.ApplicationRecord) error {
	return nil
}

func (s *stubStore) ProcessedMessageIDs(ctx context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func (s *stubStore) MarkProcessed(ctx context.Context, messageIDs []string, at time.Time) error {
	return nil
}

func (s *stubStore) Migrate(ctx context.Context) error { return nil }
func (s *stubStore) Close() error                      { return nil }

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := buildMux(&stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_RecordsEndpoint(t *testing.T) {
	mux := buildMux(&stubStore{records: []*model.ApplicationRecord{
		{
			ID:            "rec-1",
			Company:       "Initech",
			Title:         "Backend Engineer",
			CurrentStatus: model.StatusInterview,
			PeakStatus:    model.StatusInterview,
		},
	}})

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var recs []*model.ApplicationRecord
	err := json.Unmarshal(rr.Body.Bytes(), &recs)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Initech", recs[0].Company)
	assert.Equal(t, model.StatusInterview, recs[0].CurrentStatus)
}

func TestBuildMux_RecordsEndpoint_StoreError(t *testing.T) {
	mux := buildMux(&stubStore{loadErr: eris.New("boom")})

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "load records failed")
}

func TestBuildMux_RecordsEndpoint_MethodNotAllowed(t *testing.T) {
	mux := buildMux(&stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/records", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
