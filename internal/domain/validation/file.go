// Package validation provides the pure, synchronous validators for uploads
// and forecast configurations. Nothing here performs I/O.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ForesightHQ/foresight-go/internal/domain/dataset"
)

// MaxUploadBytes is the hard upload cap (10MB).
const MaxUploadBytes = 10 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".csv": true,
	".txt": true,
}

// FileValidationResult reports whether an upload may proceed.
type FileValidationResult struct {
	IsValid  bool             `json:"isValid"`
	Errors   []string         `json:"errors"`
	FileInfo dataset.FileInfo `json:"fileInfo"`
}

// ValidateUploadFile checks extension and size constraints for an upload
// candidate. It never touches the file contents.
func ValidateUploadFile(filename string, size int64) FileValidationResult {
	ext := strings.ToLower(filepath.Ext(filename))
	result := FileValidationResult{
		Errors: []string{},
		FileInfo: dataset.FileInfo{
			Name:      filename,
			SizeBytes: size,
			Extension: ext,
		},
	}

	if !allowedExtensions[ext] {
		result.Errors = append(result.Errors,
			fmt.Sprintf("unsupported file type %q: only .csv and .txt files are accepted", ext))
	}
	if size > MaxUploadBytes {
		result.Errors = append(result.Errors,
			fmt.Sprintf("file is %d bytes; maximum allowed is %d bytes (10MB)", size, MaxUploadBytes))
	}
	if size <= 0 {
		result.Errors = append(result.Errors, "file is empty")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
