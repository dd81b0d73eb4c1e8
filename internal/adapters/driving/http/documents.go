package http

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// documentListResponse is one page of the registry
type documentListResponse struct {
	Documents []*domain.Document `json:"documents"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// handleUploadDocument godoc
// @Summary      Upload a document
// @Description  Stores a PDF, DOCX or Excel file and queues it for ingestion
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Document"
// @Success      202   {object}  domain.Document
// @Failure      400   {object}  ErrorResponse  "Missing file"
// @Failure      413   {object}  ErrorResponse  "File too large"
// @Failure      415   {object}  ErrorResponse  "Unsupported format"
// @Router       /api/v1/documents [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	// Multipart framing adds a little on top of the file itself
	limit := s.cfg.MaxUploadBytes + 1<<20
	if r.ContentLength > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	doc, err := s.docService.Upload(r.Context(), header.Filename, file)
	if err != nil {
		writeDomainError(w, err, "upload failed")
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", 50)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, ok := queryInt(r, "offset", 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	docs, err := s.docService.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, "failed to list documents")
		return
	}
	total, err := s.docService.Count(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to count documents")
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}

	writeJSON(w, http.StatusOK, documentListResponse{
		Documents: docs,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err, "failed to get document")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleGetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.GetWithChunks(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err, "failed to get document")
		return
	}
	if doc.Chunks == nil {
		doc.Chunks = []*domain.Chunk{}
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err, "failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

func (s *Server) handleReindexDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docService.Reindex(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err, "failed to queue reindex")
		return
	}
	writeJSON(w, http.StatusAccepted, StatusResponse{Status: "queued"})
}
