package services

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

func createMockFileHeader(filename string, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", filename)
	part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(32 * 1024 * 1024)
	return form.File["file"][0]
}

func TestValidateCSVUpload(t *testing.T) {
	t.Run("Valid CSV", func(t *testing.T) {
		file := createMockFileHeader("leads.csv", []byte("name,email,company\nAda,ada@example.com,AE\n"))
		assert.NoError(t, ValidateCSVUpload(file, MaxUploadSize))
	})

	t.Run("Uppercase extension", func(t *testing.T) {
		file := createMockFileHeader("LEADS.CSV", []byte("name\nAda\n"))
		assert.NoError(t, ValidateCSVUpload(file, 0))
	})

	t.Run("Invalid extension", func(t *testing.T) {
		file := createMockFileHeader("leads.xlsx", []byte("PK\x03\x04"))
		assert.ErrorIs(t, ValidateCSVUpload(file, MaxUploadSize), ErrUploadNotCSV)
	})

	t.Run("Empty file", func(t *testing.T) {
		file := createMockFileHeader("leads.csv", []byte{})
		assert.ErrorIs(t, ValidateCSVUpload(file, MaxUploadSize), ErrUploadEmpty)
	})

	t.Run("File too large", func(t *testing.T) {
		file := createMockFileHeader("leads.csv", bytes.Repeat([]byte("a,b\n"), 1024))
		err := ValidateCSVUpload(file, 1024)
		assert.ErrorIs(t, err, ErrUploadTooLarge)
	})

	t.Run("Binary content", func(t *testing.T) {
		file := createMockFileHeader("leads.csv", []byte("PK\x03\x04\x00\x00binary"))
		assert.ErrorIs(t, ValidateCSVUpload(file, MaxUploadSize), ErrUploadBinary)
	})
}
