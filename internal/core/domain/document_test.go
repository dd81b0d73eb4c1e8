package domain

import (
	"errors"
	"testing"
)

func TestParseFileType(t *testing.T) {
	tests := []struct {
		filename string
		expected FileType
		wantErr  bool
	}{
		{"tender.pdf", FileTypePDF, false},
		{"TENDER.PDF", FileTypePDF, false},
		{"scope.docx", FileTypeDOCX, false},
		{"legacy.doc", FileTypeDOCX, false},
		{"pricing.xlsx", FileTypeExcel, false},
		{"old.xls", FileTypeExcel, false},
		{"notes.txt", "", true},
		{"noextension", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := ParseFileType(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFileTypeIsValid(t *testing.T) {
	for _, ft := range []FileType{FileTypePDF, FileTypeDOCX, FileTypeExcel} {
		if !ft.IsValid() {
			t.Errorf("expected %s to be valid", ft)
		}
	}
	if FileType("txt").IsValid() {
		t.Error("expected txt to be invalid")
	}
}

func TestDocumentLifecycle(t *testing.T) {
	doc := &Document{ID: "doc-1", Filename: "a.pdf", FileType: FileTypePDF}

	doc.MarkProcessing()
	if doc.Status != DocumentStatusProcessing {
		t.Errorf("expected processing, got %s", doc.Status)
	}

	doc.MarkFailed("corrupt document")
	if doc.Status != DocumentStatusFailed {
		t.Errorf("expected failed, got %s", doc.Status)
	}
	if doc.ErrorMessage != "corrupt document" {
		t.Errorf("expected error message, got %q", doc.ErrorMessage)
	}

	doc.MarkProcessing()
	if doc.ErrorMessage != "" {
		t.Error("expected error message to be cleared on reprocess")
	}

	doc.MarkReady(12)
	if doc.Status != DocumentStatusReady {
		t.Errorf("expected ready, got %s", doc.Status)
	}
	if doc.TotalChunks != 12 {
		t.Errorf("expected 12 chunks, got %d", doc.TotalChunks)
	}
	if doc.IndexedAt == nil {
		t.Error("expected IndexedAt to be set")
	}
}
