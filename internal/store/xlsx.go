package store

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Frankwerd/Career-Suite-AI-V6/internal/model"
)

const (
	recordsSheetName   = "Applications"
	processedSheetName = "Processed"

	xlsxTimeFormat = time.RFC3339
)

// XLSXStore implements Store on a spreadsheet file. It exists for users who
// keep their tracker as a sheet rather than a database; every mutation saves
// the whole file, so it is only suitable for small record sets.
type XLSXStore struct {
	mu   sync.Mutex
	path string
	file *xlsx.File
}

// NewXLSX opens the spreadsheet at path, creating a new workbook when the
// file does not exist yet.
func NewXLSX(path string) (*XLSXStore, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &XLSXStore{path: path, file: xlsx.NewFile()}, nil
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	return &XLSXStore{path: path, file: f}, nil
}

// Migrate ensures both sheets exist with their header rows and saves the
// workbook so a fresh file is valid before the first run.
func (s *XLSXStore) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.file.Sheet[recordsSheetName]; !ok {
		sheet, err := s.file.AddSheet(recordsSheetName)
		if err != nil {
			return eris.Wrap(err, "xlsx: add records sheet")
		}
		header := sheet.AddRow()
		for _, col := range RecordColumns {
			header.AddCell().SetString(col)
		}
	}

	if _, ok := s.file.Sheet[processedSheetName]; !ok {
		sheet, err := s.file.AddSheet(processedSheetName)
		if err != nil {
			return eris.Wrap(err, "xlsx: add processed sheet")
		}
		header := sheet.AddRow()
		header.AddCell().SetString("message_id")
		header.AddCell().SetString("processed_at")
	}

	return s.save()
}

func (s *XLSXStore) Close() error {
	return nil
}

func (s *XLSXStore) LoadRecords(ctx context.Context) ([]*model.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, ok := s.file.Sheet[recordsSheetName]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found, run migrate first", recordsSheetName)
	}

	var recs []*model.ApplicationRecord
	for i, row := range sheet.Rows {
		if i == 0 {
			continue // header
		}
		rec, err := rowToRecord(row)
		if err != nil {
			return nil, eris.Wrapf(err, "xlsx: row %d", i+1)
		}
		if rec != nil {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (s *XLSXStore) UpsertRecord(ctx context.Context, rec *model.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upsertLocked(rec); err != nil {
		return err
	}
	return s.save()
}

func (s *XLSXStore) FlushRecords(ctx context.Context, recs []*model.ApplicationRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range recs {
		if err := s.upsertLocked(rec); err != nil {
			return err
		}
	}
	return s.save()
}

func (s *XLSXStore) ProcessedMessageIDs(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, ok := s.file.Sheet[processedSheetName]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found, run migrate first", processedSheetName)
	}

	seen := make(map[string]struct{})
	for i, row := range sheet.Rows {
		if i == 0 || len(row.Cells) == 0 {
			continue
		}
		id := row.Cells[0].String()
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	return seen, nil
}

func (s *XLSXStore) MarkProcessed(ctx context.Context, messageIDs []string, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, ok := s.file.Sheet[processedSheetName]
	if !ok {
		return eris.Errorf("xlsx: sheet %q not found, run migrate first", processedSheetName)
	}

	for _, id := range messageIDs {
		row := sheet.AddRow()
		row.AddCell().SetString(id)
		row.AddCell().SetString(at.UTC().Format(xlsxTimeFormat))
	}
	return s.save()
}

func (s *XLSXStore) upsertLocked(rec *model.ApplicationRecord) error {
	if rec.ID == "" {
		return eris.New("xlsx: upsert record: empty id")
	}

	sheet, ok := s.file.Sheet[recordsSheetName]
	if !ok {
		return eris.Errorf("xlsx: sheet %q not found, run migrate first", recordsSheetName)
	}

	for i, row := range sheet.Rows {
		if i == 0 || len(row.Cells) == 0 {
			continue
		}
		if row.Cells[ColID].String() == rec.ID {
			setRecordRow(row, rec)
			return nil
		}
	}

	setRecordRow(sheet.AddRow(), rec)
	return nil
}

func (s *XLSXStore) save() error {
	return eris.Wrapf(s.file.Save(s.path), "xlsx: save %s", s.path)
}

func setRecordRow(row *xlsx.Row, rec *model.ApplicationRecord) {
	for len(row.Cells) < len(RecordColumns) {
		row.AddCell()
	}
	row.Cells[ColID].SetString(rec.ID)
	row.Cells[ColCompany].SetString(rec.Company)
	row.Cells[ColTitle].SetString(rec.Title)
	row.Cells[ColCurrentStatus].SetString(string(rec.CurrentStatus))
	row.Cells[ColPeakStatus].SetString(string(rec.PeakStatus))
	row.Cells[ColPlatform].SetString(rec.Platform)
	row.Cells[ColFirstEventTime].SetString(rec.FirstEventTime.UTC().Format(xlsxTimeFormat))
	row.Cells[ColLastEventTime].SetString(rec.LastEventTime.UTC().Format(xlsxTimeFormat))
	row.Cells[ColSourceMessageID].SetString(rec.SourceMessageID)
	row.Cells[ColSubject].SetString(rec.Subject)
	row.Cells[ColPermalink].SetString(rec.Permalink)
	row.Cells[ColNeedsManualReview].SetString(strconv.FormatBool(rec.NeedsManualReview))
}

func rowToRecord(row *xlsx.Row) (*model.ApplicationRecord, error) {
	if len(row.Cells) == 0 || row.Cells[0].String() == "" {
		return nil, nil // blank row
	}
	if len(row.Cells) < len(RecordColumns) {
		return nil, eris.Errorf("xlsx: short row, got %d cells, want %d", len(row.Cells), len(RecordColumns))
	}

	first, err := time.Parse(xlsxTimeFormat, row.Cells[ColFirstEventTime].String())
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: parse first_event_time")
	}
	last, err := time.Parse(xlsxTimeFormat, row.Cells[ColLastEventTime].String())
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: parse last_event_time")
	}
	review, err := strconv.ParseBool(row.Cells[ColNeedsManualReview].String())
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: parse needs_manual_review")
	}

	return &model.ApplicationRecord{
		ID:                row.Cells[ColID].String(),
		Company:           row.Cells[ColCompany].String(),
		Title:             row.Cells[ColTitle].String(),
		CurrentStatus:     model.Status(row.Cells[ColCurrentStatus].String()),
		PeakStatus:        model.Status(row.Cells[ColPeakStatus].String()),
		Platform:          row.Cells[ColPlatform].String(),
		FirstEventTime:    first,
		LastEventTime:     last,
		SourceMessageID:   row.Cells[ColSourceMessageID].String(),
		Subject:           row.Cells[ColSubject].String(),
		Permalink:         row.Cells[ColPermalink].String(),
		NeedsManualReview: review,
	}, nil
}
