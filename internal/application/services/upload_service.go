package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ForesightHQ/foresight-go/internal/domain/dataset"
	"github.com/ForesightHQ/foresight-go/internal/domain/session"
	"github.com/ForesightHQ/foresight-go/internal/domain/validation"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/caching/stores"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/logging"
	"github.com/ForesightHQ/foresight-go/internal/infrastructure/observability/performance"
)

// dateLayouts are tried in order when sniffing a date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// UploadService turns a raw CSV upload into a typed preview inside the
// session. Parsing happens entirely in memory.
type UploadService struct {
	store           *stores.SessionsStore
	previewRowLimit int
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewUploadService creates a new upload service
func NewUploadService(store *stores.SessionsStore, previewRowLimit int, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *UploadService {
	return &UploadService{
		store:           store,
		previewRowLimit: previewRowLimit,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// ProcessUpload validates, parses, and installs an uploaded file into the
// session. Returns the built preview or the validation failures.
func (s *UploadService) ProcessUpload(sessionID, filename string, content []byte) (*dataset.Preview, *validation.FileValidationResult, error) {
	marker := s.perfTracker.StartOperation("upload:parse", sessionID)
	defer s.perfTracker.CompleteOperation(marker)

	fileResult := validation.ValidateUploadFile(filename, int64(len(content)))
	if !fileResult.IsValid {
		marker.SetSuccess(false)
		return nil, &fileResult, nil
	}

	header, rows, err := parseCSV(content)
	if err != nil {
		marker.SetError(err)
		s.logger.LogError(logging.ChannelUpload, "parse_csv", err, sessionID)
		return nil, nil, err
	}

	columns := inferColumnTypes(header, rows)
	quality := scanQuality(columns, rows)

	preview := &dataset.Preview{
		Columns:   columns,
		Rows:      limitRows(rows, s.previewRowLimit),
		TotalRows: len(rows),
		Quality:   quality,
		FileInfo:  fileResult.FileInfo,
		CreatedAt: time.Now().UTC(),
	}

	err = s.store.Update(sessionID, func(sess *session.Session) error {
		sess.RawData = rows
		sess.OriginalRaw = cloneRows(rows)
		sess.Preview = preview
		sess.OriginalPreview = preview.Clone()
		sess.Mapping = autoDetectMapping(columns)
		// A new dataset invalidates any previous configuration work.
		sess.Results = nil
		sess.History = sess.History[:0]
		return nil
	})
	if err != nil {
		marker.SetError(err)
		return nil, nil, err
	}

	marker.AddMetadata("rows", len(rows))
	marker.AddMetadata("columns", len(columns))
	s.logger.Upload().Info("Upload processed",
		"sessionId", logging.SanitizeSessionID(sessionID),
		"file", filename, "rows", len(rows), "columns", len(columns))

	return preview, &fileResult, nil
}

// SetMapping records the user's confirmed date/value column choice.
func (s *UploadService) SetMapping(sessionID string, mapping *dataset.ColumnMapping) error {
	return s.store.Update(sessionID, func(sess *session.Session) error {
		if sess.Preview == nil {
			return fmt.Errorf("no data uploaded")
		}

		var dateOK, valueOK bool
		for _, col := range sess.Preview.Columns {
			if col.Name == mapping.DateColumn && col.Type == dataset.ColumnDate {
				dateOK = true
			}
			if col.Name == mapping.ValueColumn && col.Type == dataset.ColumnNumeric {
				valueOK = true
			}
		}
		if !dateOK {
			return fmt.Errorf("column %q is not a date column", mapping.DateColumn)
		}
		if !valueOK {
			return fmt.Errorf("column %q is not a numeric column", mapping.ValueColumn)
		}

		sess.Mapping = mapping
		return nil
	})
}

// Mapping returns the session's current column mapping, which may be nil
// when no auto-detection or confirmation has happened yet.
func (s *UploadService) Mapping(sessionID string) (*dataset.ColumnMapping, error) {
	sess, exists := s.store.Get(sessionID)
	if !exists {
		return nil, stores.ErrSessionNotFound
	}
	return sess.Mapping, nil
}

// parseCSV splits the upload into header and data rows. Tab-delimited .txt
// exports are detected by sniffing the first line.
func parseCSV(content []byte) ([]string, [][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if firstLine, _, ok := bytes.Cut(content, []byte("\n")); ok || len(firstLine) > 0 {
		if bytes.Count(firstLine, []byte("\t")) > bytes.Count(firstLine, []byte(",")) {
			reader.Comma = '\t'
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse file: %w", err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("file needs a header row and at least one data row")
	}

	header := records[0]
	width := len(header)

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		// Normalize ragged rows to the header width.
		row := make([]string, width)
		for i := 0; i < width && i < len(record); i++ {
			row[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// inferColumnTypes samples each column and assigns date, numeric, or text by
// majority vote over non-empty cells.
func inferColumnTypes(header []string, rows [][]string) []dataset.Column {
	const sampleLimit = 200

	columns := make([]dataset.Column, len(header))
	for i, name := range header {
		dates, numerics, nonEmpty := 0, 0, 0

		for r, row := range rows {
			if r >= sampleLimit {
				break
			}
			cell := row[i]
			if cell == "" {
				continue
			}
			nonEmpty++
			if isDateValue(cell) {
				dates++
			} else if isNumericValue(cell) {
				numerics++
			}
		}

		colType := dataset.ColumnText
		if nonEmpty > 0 {
			if dates*2 > nonEmpty {
				colType = dataset.ColumnDate
			} else if numerics*2 > nonEmpty {
				colType = dataset.ColumnNumeric
			}
		}
		columns[i] = dataset.Column{Name: strings.TrimSpace(name), Type: colType}
	}
	return columns
}

func isDateValue(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isNumericValue(s string) bool {
	cleaned := strings.ReplaceAll(s, ",", "")
	_, err := strconv.ParseFloat(cleaned, 64)
	return err == nil
}

// ParseNumeric converts a cell to float64, tolerating thousands separators.
func ParseNumeric(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// scanQuality computes duplicate, missing, and outlier counts for the
// preview's quality panel.
func scanQuality(columns []dataset.Column, rows [][]string) dataset.QualityReport {
	report := dataset.QualityReport{TotalRows: len(rows)}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if seen[key] {
			report.DuplicateRows++
		}
		seen[key] = true

		for _, cell := range row {
			if cell == "" {
				report.MissingCells++
			}
		}
	}

	for i, col := range columns {
		if col.Type != dataset.ColumnNumeric {
			continue
		}
		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			if v, err := ParseNumeric(row[i]); err == nil {
				values = append(values, v)
			}
		}
		report.OutlierCount += countIQROutliers(values)
	}

	return report
}

// countIQROutliers flags values outside 1.5 IQR of the quartiles.
func countIQROutliers(values []float64) int {
	if len(values) < 4 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := sorted[len(sorted)/4]
	q3 := sorted[(3*len(sorted))/4]
	iqr := q3 - q1
	low, high := q1-1.5*iqr, q3+1.5*iqr

	count := 0
	for _, v := range values {
		if v < low || v > high {
			count++
		}
	}
	return count
}

// autoDetectMapping proposes the first date column and first numeric column.
// Returns nil when no candidate pair exists; the user must then map manually.
func autoDetectMapping(columns []dataset.Column) *dataset.ColumnMapping {
	mapping := &dataset.ColumnMapping{}
	for _, col := range columns {
		if mapping.DateColumn == "" && col.Type == dataset.ColumnDate {
			mapping.DateColumn = col.Name
		}
		if mapping.ValueColumn == "" && col.Type == dataset.ColumnNumeric {
			mapping.ValueColumn = col.Name
		}
	}
	if mapping.DateColumn == "" || mapping.ValueColumn == "" {
		return nil
	}
	return mapping
}

func limitRows(rows [][]string, limit int) [][]string {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		dup := make([]string, len(row))
		copy(dup, row)
		out[i] = dup
	}
	return out
}
