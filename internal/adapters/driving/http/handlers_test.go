package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/tender-rag/internal/core/domain"
	"github.com/custodia-labs/tender-rag/internal/core/ports/driving"
)

// stubAuth accepts "admin-token" and "user-token"
type stubAuth struct{}

func (stubAuth) Signup(_ context.Context, req domain.SignupRequest) (*domain.UserSummary, error) {
	if req.Email == "taken@example.com" {
		return nil, domain.ErrAlreadyExists
	}
	return &domain.UserSummary{ID: "u-1", Email: req.Email, Role: domain.RoleUser}, nil
}

func (stubAuth) Authenticate(_ context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Password != "correct-horse" {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.LoginResponse{Token: "user-token", User: &domain.UserSummary{ID: "u-1", Email: req.Email}}, nil
}

func (stubAuth) ValidateToken(_ context.Context, token string) (*domain.AuthContext, error) {
	switch token {
	case "admin-token":
		return &domain.AuthContext{UserID: "admin-1", Role: domain.RoleAdmin}, nil
	case "user-token":
		return &domain.AuthContext{UserID: "u-1", Role: domain.RoleUser}, nil
	case "expired-token":
		return nil, domain.ErrTokenExpired
	}
	return nil, domain.ErrTokenInvalid
}

func (stubAuth) Me(_ context.Context, auth *domain.AuthContext) (*domain.UserSummary, error) {
	return &domain.UserSummary{ID: auth.UserID, Role: auth.Role}, nil
}

type stubUsers struct {
	users map[string]*domain.User
}

func newStubUsers() *stubUsers {
	return &stubUsers{users: map[string]*domain.User{
		"u-1": {ID: "u-1", Email: "user@example.com", Role: domain.RoleUser, Active: true},
	}}
}

func (s *stubUsers) Setup(ctx context.Context, req driving.CreateUserRequest) (*domain.User, error) {
	if len(s.users) > 0 {
		return nil, domain.ErrForbidden
	}
	return s.Create(ctx, req)
}

func (s *stubUsers) Create(_ context.Context, req driving.CreateUserRequest) (*domain.User, error) {
	u := &domain.User{ID: "u-new", Email: req.Email, Role: req.Role, Active: true}
	s.users[u.ID] = u
	return u, nil
}

func (s *stubUsers) Get(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) List(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUsers) AssignRole(ctx context.Context, req domain.AssignRoleRequest) (*domain.User, error) {
	if !req.Role.IsValid() {
		return nil, domain.ErrInvalidInput
	}
	u, err := s.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	u.Role = req.Role
	return u, nil
}

func (s *stubUsers) SetActive(ctx context.Context, id string, active bool) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Active = active
	return u, nil
}

func (s *stubUsers) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	delete(s.users, id)
	return nil
}

type stubDocuments struct {
	docs     map[string]*domain.Document
	uploaded []byte
}

func newStubDocuments() *stubDocuments {
	return &stubDocuments{docs: map[string]*domain.Document{
		"d-1": {ID: "d-1", Filename: "tender.pdf", FileType: domain.FileTypePDF, Status: domain.DocumentStatusReady},
	}}
}

func (s *stubDocuments) Upload(_ context.Context, filename string, r io.Reader) (*domain.Document, error) {
	ft, err := domain.ParseFileType(filename)
	if err != nil {
		return nil, err
	}
	s.uploaded, _ = io.ReadAll(r)
	doc := &domain.Document{ID: "d-new", Filename: filename, FileType: ft, Status: domain.DocumentStatusProcessing}
	s.docs[doc.ID] = doc
	return doc, nil
}

func (s *stubDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	if d, ok := s.docs[id]; ok {
		return d, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubDocuments) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.DocumentWithChunks{Document: d}, nil
}

func (s *stubDocuments) List(context.Context, int, int) ([]*domain.Document, error) {
	out := make([]*domain.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out, nil
}

func (s *stubDocuments) Count(context.Context) (int, error) { return len(s.docs), nil }

func (s *stubDocuments) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	delete(s.docs, id)
	return nil
}

func (s *stubDocuments) Reindex(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

// stubChat streams the message back word by word
type stubChat struct {
	answer *domain.Answer
}

func (s *stubChat) Ask(context.Context, domain.QueryRequest) *domain.Answer {
	return s.answer
}

func (s *stubChat) AskStream(_ context.Context, req domain.QueryRequest, onToken func(string) error) *domain.Answer {
	if s.answer.State == domain.StateDone && len(s.answer.Sources) > 0 {
		for _, tok := range strings.Fields(s.answer.Text) {
			if err := onToken(tok + " "); err != nil {
				break
			}
		}
	}
	return s.answer
}

type stubHealth struct {
	status domain.HealthStatus
}

func (s stubHealth) Check(context.Context) *domain.HealthStatus {
	st := s.status
	return &st
}

type testServer struct {
	handler http.Handler
	docs    *stubDocuments
	users   *stubUsers
	chat    *stubChat
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.AuthEnabled = authEnabled
	cfg.ChatRPS = 0
	cfg.MaxUploadBytes = 1 << 10

	ts := &testServer{
		docs:  newStubDocuments(),
		users: newStubUsers(),
		chat: &stubChat{answer: &domain.Answer{
			Text:    "Submit by Friday",
			State:   domain.StateDone,
			Sources: []domain.Source{{DocumentID: "d-1", DocumentName: "tender.pdf", ChunkText: "Deadline Friday", Score: 0.9}},
		}},
	}
	srv := NewServer(cfg, Services{
		Auth:      stubAuth{},
		Users:     ts.users,
		Documents: ts.docs,
		Chat:      ts.chat,
		Health:    stubHealth{status: domain.HealthStatus{IndexConnected: true, EmbeddingModelLoaded: true}},
	})
	ts.handler = srv.Handler()
	return ts
}

func (ts *testServer) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) doJSON(method, path, token string, payload any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&buf).Encode(payload)
	}
	return ts.do(method, path, token, &buf, "application/json")
}

func TestLivenessAndVersion(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/health", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = ts.do(http.MethodGet, "/version", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["version"] != "dev" {
		t.Errorf("expected version dev, got %q", body["version"])
	}
}

func TestHandleHealth_Degraded(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/api/v1/health", "", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status domain.HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %q", status.Status)
	}
	if status.GeneratorConnected {
		t.Error("expected generator to be reported down")
	}
}

func TestHandleSignup(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.doJSON(http.MethodPost, "/api/v1/auth/signup", "", domain.SignupRequest{Email: "new@example.com", Password: "longenough"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = ts.doJSON(http.MethodPost, "/api/v1/auth/signup", "", domain.SignupRequest{Email: "taken@example.com", Password: "longenough"})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	rec = ts.do(http.MethodPost, "/api/v1/auth/signup", "", strings.NewReader("{"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleLogin(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.doJSON(http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Email: "user@example.com", Password: "correct-horse"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp domain.LoginResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Token != "user-token" {
		t.Errorf("expected token, got %q", resp.Token)
	}

	rec = ts.doJSON(http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Email: "user@example.com", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleGetMe(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/api/v1/auth/me", "user-token", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user domain.UserSummary
	_ = json.NewDecoder(rec.Body).Decode(&user)
	if user.ID != "u-1" {
		t.Errorf("expected u-1, got %q", user.ID)
	}
}

func TestHandleSetup_AlreadyComplete(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.doJSON(http.MethodPost, "/api/v1/setup", "", driving.CreateUserRequest{Email: "a@example.com", Password: "longenough"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestUserEndpoints_RequireAdmin(t *testing.T) {
	ts := newTestServer(t, true)

	if rec := ts.do(http.MethodGet, "/api/v1/users", "", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/v1/users", "user-token", nil, ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/v1/users", "admin-token", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestUserEndpoints_Manage(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.doJSON(http.MethodPut, "/api/v1/users/u-1/role", "admin-token", map[string]string{"role": "admin"})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign role: expected 200, got %d", rec.Code)
	}
	if ts.users.users["u-1"].Role != domain.RoleAdmin {
		t.Error("expected role to change")
	}

	rec = ts.doJSON(http.MethodPut, "/api/v1/users/u-1/role", "admin-token", map[string]string{"role": "root"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid role: expected 400, got %d", rec.Code)
	}

	rec = ts.doJSON(http.MethodPut, "/api/v1/users/u-1/active", "admin-token", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing active: expected 400, got %d", rec.Code)
	}

	rec = ts.doJSON(http.MethodPut, "/api/v1/users/u-1/active", "admin-token", map[string]bool{"active": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("set active: expected 200, got %d", rec.Code)
	}
	if ts.users.users["u-1"].Active {
		t.Error("expected user to be disabled")
	}

	rec = ts.do(http.MethodDelete, "/api/v1/users/admin-1", "admin-token", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("self delete: expected 400, got %d", rec.Code)
	}

	rec = ts.do(http.MethodDelete, "/api/v1/users/u-1", "admin-token", nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", rec.Code)
	}

	rec = ts.do(http.MethodDelete, "/api/v1/users/u-1", "admin-token", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing: expected 404, got %d", rec.Code)
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHandleUploadDocument(t *testing.T) {
	ts := newTestServer(t, true)

	body, ct := multipartBody(t, "file", "bid.docx", []byte("PK fake docx"))
	rec := ts.do(http.MethodPost, "/api/v1/documents", "user-token", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc domain.Document
	_ = json.NewDecoder(rec.Body).Decode(&doc)
	if doc.FileType != domain.FileTypeDOCX {
		t.Errorf("expected docx, got %q", doc.FileType)
	}
	if string(ts.docs.uploaded) != "PK fake docx" {
		t.Errorf("unexpected upload content %q", ts.docs.uploaded)
	}
}

func TestHandleUploadDocument_Errors(t *testing.T) {
	ts := newTestServer(t, true)

	body, ct := multipartBody(t, "file", "notes.txt", []byte("hello"))
	if rec := ts.do(http.MethodPost, "/api/v1/documents", "user-token", body, ct); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("unsupported: expected 415, got %d", rec.Code)
	}

	body, ct = multipartBody(t, "upload", "bid.pdf", []byte("%PDF"))
	if rec := ts.do(http.MethodPost, "/api/v1/documents", "user-token", body, ct); rec.Code != http.StatusBadRequest {
		t.Errorf("wrong field: expected 400, got %d", rec.Code)
	}

	body, ct = multipartBody(t, "file", "bid.pdf", bytes.Repeat([]byte("x"), 3<<20))
	if rec := ts.do(http.MethodPost, "/api/v1/documents", "user-token", body, ct); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized: expected 413, got %d", rec.Code)
	}

	body, ct = multipartBody(t, "file", "bid.pdf", []byte("%PDF"))
	if rec := ts.do(http.MethodPost, "/api/v1/documents", "", body, ct); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", rec.Code)
	}
}

func TestDocumentEndpoints(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.do(http.MethodGet, "/api/v1/documents?limit=10", "user-token", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list documentListResponse
	_ = json.NewDecoder(rec.Body).Decode(&list)
	if list.Total != 1 || len(list.Documents) != 1 || list.Limit != 10 {
		t.Errorf("unexpected list response %+v", list)
	}

	if rec := ts.do(http.MethodGet, "/api/v1/documents?limit=-1", "user-token", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", rec.Code)
	}

	if rec := ts.do(http.MethodGet, "/api/v1/documents/d-1", "user-token", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("get: expected 200, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodGet, "/api/v1/documents/missing", "user-token", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get missing: expected 404, got %d", rec.Code)
	}

	rec = ts.do(http.MethodGet, "/api/v1/documents/d-1/chunks", "user-token", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("chunks: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"chunks":[]`) {
		t.Errorf("expected empty chunk array, got %s", rec.Body.String())
	}

	if rec := ts.do(http.MethodPost, "/api/v1/documents/d-1/reindex", "user-token", nil, ""); rec.Code != http.StatusAccepted {
		t.Errorf("reindex: expected 202, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodDelete, "/api/v1/documents/d-1", "user-token", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("delete: expected 200, got %d", rec.Code)
	}
	if _, ok := ts.docs.docs["d-1"]; ok {
		t.Error("expected document to be removed")
	}
}

func TestHandleChat(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.doJSON(http.MethodPost, "/api/v1/chat", "user-token", domain.QueryRequest{Message: "When is the deadline?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var answer struct {
		Response string          `json:"response"`
		Sources  []domain.Source `json:"sources"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&answer)
	if answer.Response != "Submit by Friday" {
		t.Errorf("unexpected response %q", answer.Response)
	}
	if len(answer.Sources) != 1 {
		t.Errorf("expected 1 source, got %d", len(answer.Sources))
	}
}

func TestHandleChat_Validation(t *testing.T) {
	ts := newTestServer(t, true)

	if rec := ts.doJSON(http.MethodPost, "/api/v1/chat", "user-token", domain.QueryRequest{Message: "   "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank message: expected 400, got %d", rec.Code)
	}
	if rec := ts.doJSON(http.MethodPost, "/api/v1/chat", "user-token", domain.QueryRequest{Message: "q", TopK: 500}); rec.Code != http.StatusBadRequest {
		t.Errorf("top_k: expected 400, got %d", rec.Code)
	}
}

func TestHandleChat_ErroredKeepsSourcesArray(t *testing.T) {
	ts := newTestServer(t, true)
	ts.chat.answer = &domain.Answer{Text: "Sorry", State: domain.StateErrored}

	rec := ts.doJSON(http.MethodPost, "/api/v1/chat", "user-token", domain.QueryRequest{Message: "q"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"sources":[]`) {
		t.Errorf("expected empty sources array, got %s", rec.Body.String())
	}
}

func readEvents(t *testing.T, body io.Reader) []streamEvent {
	t.Helper()
	var events []streamEvent
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		var ev streamEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad event %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	return events
}

func TestHandleChatStream(t *testing.T) {
	ts := newTestServer(t, true)

	rec := ts.doJSON(http.MethodPost, "/api/v1/chat/stream", "user-token", domain.QueryRequest{Message: "When?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("unexpected content type %q", ct)
	}

	events := readEvents(t, rec.Body)
	if len(events) != 5 {
		t.Fatalf("expected 3 tokens + sources + done, got %d events", len(events))
	}
	var text string
	for _, ev := range events[:3] {
		if ev.Type != "token" {
			t.Fatalf("expected token event, got %q", ev.Type)
		}
		text += ev.Content
	}
	if strings.TrimSpace(text) != "Submit by Friday" {
		t.Errorf("unexpected streamed text %q", text)
	}
	if events[3].Type != "sources" || len(events[3].Sources) != 1 {
		t.Errorf("unexpected sources event %+v", events[3])
	}
	if events[4].Type != "done" || events[4].State != string(domain.StateDone) {
		t.Errorf("unexpected done event %+v", events[4])
	}
}

func TestHandleChatStream_NoContext(t *testing.T) {
	ts := newTestServer(t, true)
	ts.chat.answer = &domain.Answer{Text: domain.NoRelevantInformationAnswer, State: domain.StateDone, Sources: []domain.Source{}}

	rec := ts.doJSON(http.MethodPost, "/api/v1/chat/stream", "user-token", domain.QueryRequest{Message: "q"})
	events := readEvents(t, rec.Body)
	if len(events) != 3 {
		t.Fatalf("expected token + sources + done, got %d", len(events))
	}
	if events[0].Type != "token" || events[0].Content != domain.NoRelevantInformationAnswer {
		t.Errorf("expected whole answer as one token, got %+v", events[0])
	}
}

func TestHandleChatStream_Errored(t *testing.T) {
	ts := newTestServer(t, true)
	ts.chat.answer = &domain.Answer{Text: "apology", State: domain.StateErrored, Sources: []domain.Source{}}

	rec := ts.doJSON(http.MethodPost, "/api/v1/chat/stream", "user-token", domain.QueryRequest{Message: "q"})
	events := readEvents(t, rec.Body)
	if len(events) != 3 {
		t.Fatalf("expected error + sources + done, got %d", len(events))
	}
	if events[0].Type != "error" || events[0].Content != "apology" {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[2].State != string(domain.StateErrored) {
		t.Errorf("expected errored state, got %q", events[2].State)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrChunkConfigInvalid, http.StatusBadRequest},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{domain.ErrIndexUnavailable, http.StatusServiceUnavailable},
		{domain.ErrGenerationFailed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
