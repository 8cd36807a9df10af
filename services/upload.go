package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	MaxUploadSize       = 10 * 1024 * 1024 // 10MB
	AllowedCSVExtension = ".csv"
)

// Upload validation errors, shown to the user as-is
var (
	ErrUploadEmpty    = errors.New("the selected file is empty")
	ErrUploadNotCSV   = errors.New("only CSV files are allowed")
	ErrUploadTooLarge = errors.New("file size exceeds the maximum allowed size")
	ErrUploadBinary   = errors.New("file does not look like a text CSV")
)

// ValidateCSVUpload checks the file before it is forwarded to the backend.
// The content itself is parsed by the backend; only the first bytes are
// inspected to reject binary files renamed to .csv.
func ValidateCSVUpload(fileHeader *multipart.FileHeader, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = MaxUploadSize
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != AllowedCSVExtension {
		return ErrUploadNotCSV
	}

	if fileHeader.Size == 0 {
		return ErrUploadEmpty
	}
	if fileHeader.Size > maxSize {
		return fmt.Errorf("%w (%d MB)", ErrUploadTooLarge, maxSize/(1024*1024))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file content: %w", err)
	}

	if bytes.IndexByte(buffer[:n], 0) >= 0 {
		return ErrUploadBinary
	}

	return nil
}
