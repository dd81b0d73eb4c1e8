package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
)

// streamEvent is one NDJSON line of a streamed answer
type streamEvent struct {
	Type    string          `json:"type"` // token, sources, error or done
	Content string          `json:"content,omitempty"`
	Sources []domain.Source `json:"sources,omitempty"`
	State   string          `json:"state,omitempty"`
}

// handleChat godoc
// @Summary      Ask a question
// @Description  Answers from the indexed documents and cites the passages used
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.QueryRequest  true  "Question"
// @Success      200      {object}  domain.Answer
// @Failure      400      {object}  ErrorResponse  "Empty message"
// @Failure      429      {object}  ErrorResponse  "Rate limit exceeded"
// @Router       /api/v1/chat [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	answer := s.chatService.Ask(r.Context(), req)
	if answer.Sources == nil {
		answer.Sources = []domain.Source{}
	}
	writeJSON(w, http.StatusOK, answer)
}

// handleChatStream writes the answer as newline-delimited JSON events:
// token events while generating, then sources, then done.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(ev streamEvent) error {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	streamed := false
	answer := s.chatService.AskStream(r.Context(), req, func(token string) error {
		streamed = true
		return send(streamEvent{Type: "token", Content: token})
	})

	switch {
	case answer.State == domain.StateErrored:
		_ = send(streamEvent{Type: "error", Content: answer.Text})
	case !streamed && answer.Text != "":
		// Answers that skip generation arrive whole
		_ = send(streamEvent{Type: "token", Content: answer.Text})
	}

	sources := answer.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	_ = send(streamEvent{Type: "sources", Sources: sources})
	_ = send(streamEvent{Type: "done", State: string(answer.State)})
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (domain.QueryRequest, bool) {
	var req domain.QueryRequest
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return req, false
	}
	if req.TopK < 0 || req.TopK > 50 {
		writeError(w, http.StatusBadRequest, "top_k must be between 1 and 50")
		return req, false
	}
	return req, true
}
