package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUploadFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantOK   bool
	}{
		{"valid csv", "sales.csv", 1024, true},
		{"valid txt", "sales.txt", 1024, true},
		{"uppercase extension accepted", "SALES.CSV", 1024, true},
		{"exactly at size limit", "sales.csv", MaxUploadBytes, true},
		{"one byte over limit", "sales.csv", MaxUploadBytes + 1, false},
		{"rejected extension", "sales.xlsx", 1024, false},
		{"no extension", "sales", 1024, false},
		{"empty file", "sales.csv", 0, false},
		{"negative size", "sales.csv", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateUploadFile(tt.filename, tt.size)
			assert.Equal(t, tt.wantOK, result.IsValid)
			if !tt.wantOK {
				assert.NotEmpty(t, result.Errors)
			} else {
				assert.Empty(t, result.Errors)
			}
		})
	}
}

func TestValidateUploadFileReportsAllProblems(t *testing.T) {
	result := ValidateUploadFile("report.pdf", MaxUploadBytes+1)

	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 2, "extension and size failures should both be reported")
}

func TestValidateUploadFileKeepsFileInfo(t *testing.T) {
	result := ValidateUploadFile("sales.csv", 2048)

	assert.Equal(t, "sales.csv", result.FileInfo.Name)
	assert.Equal(t, int64(2048), result.FileInfo.SizeBytes)
	assert.Equal(t, ".csv", result.FileInfo.Extension)
}
