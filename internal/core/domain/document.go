package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileType identifies the office format of an uploaded document
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeDOCX  FileType = "docx"
	FileTypeExcel FileType = "excel"
)

// extensionTypes maps accepted file extensions to their FileType
var extensionTypes = map[string]FileType{
	"pdf":  FileTypePDF,
	"docx": FileTypeDOCX,
	"doc":  FileTypeDOCX,
	"xlsx": FileTypeExcel,
	"xls":  FileTypeExcel,
}

// ParseFileType derives the FileType from a filename's extension.
// Returns ErrUnsupportedFormat for anything that is not PDF, Word or Excel.
func ParseFileType(filename string) (FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	ft, ok := extensionTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return ft, nil
}

// IsValid reports whether the file type is one of the supported formats
func (f FileType) IsValid() bool {
	switch f {
	case FileTypePDF, FileTypeDOCX, FileTypeExcel:
		return true
	}
	return false
}

// DocumentStatus tracks a document through ingestion
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is the registry record for an uploaded file
type Document struct {
	ID           string         `json:"id"`
	Filename     string         `json:"filename"`
	FileType     FileType       `json:"file_type"`
	Path         string         `json:"-"` // Location of the stored upload
	Size         int64          `json:"size"`
	Status       DocumentStatus `json:"status"`
	TotalChunks  int            `json:"total_chunks"`
	ErrorMessage string         `json:"error_message,omitempty"`
	UploadedAt   time.Time      `json:"upload_date"`
	UpdatedAt    time.Time      `json:"updated_at"`
	IndexedAt    *time.Time     `json:"indexed_at,omitempty"`
}

// MarkProcessing resets the document for a fresh ingestion run
func (d *Document) MarkProcessing() {
	d.Status = DocumentStatusProcessing
	d.ErrorMessage = ""
	d.UpdatedAt = time.Now()
}

// MarkReady records a successful ingestion
func (d *Document) MarkReady(totalChunks int) {
	now := time.Now()
	d.Status = DocumentStatusReady
	d.TotalChunks = totalChunks
	d.ErrorMessage = ""
	d.UpdatedAt = now
	d.IndexedAt = &now
}

// MarkFailed records a terminal ingestion failure
func (d *Document) MarkFailed(reason string) {
	d.Status = DocumentStatusFailed
	d.ErrorMessage = reason
	d.UpdatedAt = time.Now()
}

// DocumentWithChunks combines a document with its stored chunks
type DocumentWithChunks struct {
	Document *Document `json:"document"`
	Chunks   []*Chunk  `json:"chunks"`
}
