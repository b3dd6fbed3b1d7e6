// Package dataset defines the uploaded-data preview types: columns, rows,
// inferred types, quality metrics, and the date/value column mapping.
package dataset

import "time"

// ColumnType is the inferred type of an uploaded column.
type ColumnType string

const (
	ColumnDate    ColumnType = "date"
	ColumnNumeric ColumnType = "numeric"
	ColumnText    ColumnType = "text"
)

// Column pairs a header name with its inferred type.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// FileInfo describes the uploaded file.
type FileInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
	Extension string `json:"extension"`
}

// QualityReport summarizes data quality for the preview panel.
type QualityReport struct {
	TotalRows     int `json:"totalRows"`
	DuplicateRows int `json:"duplicateRows"`
	MissingCells  int `json:"missingCells"`
	OutlierCount  int `json:"outlierCount"`
}

// Preview is an immutable snapshot of the uploaded dataset as shown to the
// user. Processing operations never mutate a Preview in place; each step
// produces a replacement.
type Preview struct {
	Columns   []Column      `json:"columns"`
	Rows      [][]string    `json:"rows"`
	TotalRows int           `json:"totalRows"`
	Quality   QualityReport `json:"quality"`
	FileInfo  FileInfo      `json:"fileInfo"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ColumnMapping records which columns serve as the date axis and the value
// series. Both must be confirmed before a forecast can run.
type ColumnMapping struct {
	DateColumn  string `json:"dateColumn"`
	ValueColumn string `json:"valueColumn"`
}

// Clone returns a deep copy of the preview.
func (p *Preview) Clone() *Preview {
	if p == nil {
		return nil
	}
	dup := *p
	dup.Columns = make([]Column, len(p.Columns))
	copy(dup.Columns, p.Columns)
	dup.Rows = make([][]string, len(p.Rows))
	for i, row := range p.Rows {
		dup.Rows[i] = make([]string, len(row))
		copy(dup.Rows[i], row)
	}
	return &dup
}
