package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"andse-chat/internal/chat"
	"andse-chat/internal/domain"
	"andse-chat/internal/files"
	"andse-chat/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockSessionRepo struct {
	sessions map[string]domain.Session
	order    []string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]domain.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, session domain.Session) error {
	m.sessions[session.ID] = session
	m.order = append(m.order, session.ID)
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (domain.Session, error) {
	session, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, pgx.ErrNoRows
	}
	return session, nil
}

func (m *mockSessionRepo) List(_ context.Context) ([]domain.Session, error) {
	var out []domain.Session
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.sessions[m.order[i]])
	}
	return out, nil
}

func (m *mockSessionRepo) UpdateTitle(_ context.Context, id, title string) error {
	session, ok := m.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	session.Title = title
	m.sessions[id] = session
	return nil
}

func (m *mockSessionRepo) Touch(_ context.Context, id string, at time.Time) error {
	session, ok := m.sessions[id]
	if !ok {
		return pgx.ErrNoRows
	}
	session.UpdatedAt = at
	m.sessions[id] = session
	return nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.sessions, id)
	return nil
}

type mockMessageRepo struct {
	messages map[string][]domain.Message
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{messages: make(map[string][]domain.Message)}
}

func (m *mockMessageRepo) Create(_ context.Context, message domain.Message) error {
	m.messages[message.SessionID] = append(m.messages[message.SessionID], message)
	return nil
}

func (m *mockMessageRepo) ListBySessionID(_ context.Context, sessionID string) ([]domain.Message, error) {
	return m.messages[sessionID], nil
}

type mockTranscriber struct {
	text string
	err  error
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return m.text, m.err
}

func newTestHandler(t *testing.T, transcriber *mockTranscriber, maxBytes int64) (*ChatHandler, *mockSessionRepo) {
	t.Helper()
	logger := zap.NewNop()
	sessions := newMockSessionRepo()
	messages := newMockMessageRepo()
	sessionSvc := service.NewSessionService(logger, sessions, messages)
	transcribeSvc := service.NewTranscribeService(logger, transcriber, nil, time.Second)
	store := files.NewDiskStore(t.TempDir())
	return NewChatHandler(logger, sessionSvc, transcribeSvc, store, maxBytes), sessions
}

func newTestRouter(t *testing.T, transcriber *mockTranscriber) (*mockSessionRepo, http.Handler) {
	return newTestRouterLimit(t, transcriber, 1<<20)
}

func newTestRouterLimit(t *testing.T, transcriber *mockTranscriber, maxBytes int64) (*mockSessionRepo, http.Handler) {
	t.Helper()
	logger := zap.NewNop()
	handler, sessions := newTestHandler(t, transcriber, maxBytes)
	verifier := service.NewTokenVerifier("")
	wsH := NewWSHandler(logger, chat.NewHub(logger), nil)
	router := NewRouter(logger, verifier, handler, wsH)
	return sessions, router
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestCreateAndListSessions(t *testing.T) {
	_, router := newTestRouter(t, &mockTranscriber{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/chat/new", nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if created.ID == "" || created.Title != domain.DefaultSessionTitle {
		t.Fatalf("unexpected session %+v", created)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/chat/sessions", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var listed struct {
		Sessions []domain.Session `json:"sessions"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != created.ID {
		t.Fatalf("expected created session listed, got %+v", listed.Sessions)
	}
}

func TestGetHistory_UnknownSessionIs404(t *testing.T) {
	_, router := newTestRouter(t, &mockTranscriber{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/chat/session/ghost", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	sessions, router := newTestRouter(t, &mockTranscriber{})
	_ = sessions.Create(context.Background(), domain.Session{ID: "s1", Title: "x"})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/chat/session/s1", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/chat/session/s1", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", resp.Code)
	}
}

func TestTranscribe_Success(t *testing.T) {
	_, router := newTestRouter(t, &mockTranscriber{text: "hola mundo"})

	body, contentType := multipartBody(t, "file", "speech.webm", []byte("audio-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/chat/transcribe", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Success bool   `json:"success"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.Text != "hola mundo" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	_, router := newTestRouter(t, &mockTranscriber{text: "x"})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/chat/transcribe", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUpload_SuccessReturnsReference(t *testing.T) {
	_, router := newTestRouter(t, &mockTranscriber{})

	body, contentType := multipartBody(t, "file", "informe.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/chat/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var out struct {
		Success  bool   `json:"success"`
		Filepath string `json:"filepath"`
		Filename string `json:"filename"`
		Type     string `json:"type"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.Type != string(domain.MediaDocument) || out.Filepath == "" {
		t.Fatalf("unexpected response %+v", out)
	}
}

func TestUpload_RejectedTypeReportsReason(t *testing.T) {
	_, router := newTestRouter(t, &mockTranscriber{})

	body, contentType := multipartBody(t, "file", "virus.exe", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/chat/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Success || out.Error == "" {
		t.Fatalf("expected failure with reason, got %+v", out)
	}
}

func TestUpload_TooLargeReportsSize(t *testing.T) {
	_, router := newTestRouterLimit(t, &mockTranscriber{}, 8)

	body, contentType := multipartBody(t, "file", "grande.pdf", []byte("mucho más que ocho bytes"))
	req := httptest.NewRequest(http.MethodPost, "/chat/upload", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Success || out.Error != "file too large" {
		t.Fatalf("expected size rejection reason, got %+v", out)
	}
}

func TestTranscribe_TooLargeReportsSize(t *testing.T) {
	_, router := newTestRouterLimit(t, &mockTranscriber{text: "x"}, 8)

	body, contentType := multipartBody(t, "file", "largo.webm", []byte("mucho más que ocho bytes"))
	req := httptest.NewRequest(http.MethodPost, "/chat/transcribe", body)
	req.Header.Set("Content-Type", contentType)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Error != "audio file too large" {
		t.Fatalf("expected size rejection reason, got %q", out.Error)
	}
}

func TestSystemStatus(t *testing.T) {
	_, router := newTestRouter(t, &mockTranscriber{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/system/status", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
