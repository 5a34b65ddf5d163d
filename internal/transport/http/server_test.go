package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopherai-docqa/internal/bootstrap"
	"gopherai-docqa/internal/composer"
	"gopherai-docqa/internal/config"
	"gopherai-docqa/internal/pkg/jwtutil"
	"gopherai-docqa/internal/transport/http/response"
)

const testSecret = "test-secret"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	tokens map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	llm := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Gophers live in burrows [Document 1]."}}]}`))
	}))
	t.Cleanup(llm.Close)

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	cfg.App.GinMode = gin.TestMode
	cfg.Auth.JWTSecret = testSecret
	cfg.Database.Driver = "sqlite"
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "docqa.db")
	cfg.Redis.Enabled = false
	cfg.Index.Backend = "memory"
	cfg.Embedding.Backend = "hash"
	cfg.Embedding.Dimension = 128
	cfg.LLM.BaseURL = llm.URL

	app, err := bootstrap.NewFromConfig(context.Background(), cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	tokens := make(map[string]string)
	for _, tenant := range []string{"acme", "globex"} {
		token, err := jwtutil.GenerateToken(testSecret, time.Hour, tenant, "tester")
		require.NoError(t, err)
		tokens[tenant] = token
	}
	return &testServer{router: NewRouter(app), tokens: tokens}
}

func (s *testServer) do(t *testing.T, tenant, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tenant != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[tenant])
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *nethttp.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, "", nethttp.MethodGet, "/api/v1/documents", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.CodeUnauthorized, env.Code)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/documents", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec, _ = s.serve(t, req)
	assert.Equal(t, nethttp.StatusUnauthorized, rec.Code)
}

func TestRouter_DocumentLifecycleAndQuery(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, "acme", nethttp.MethodPost, "/api/v1/documents", map[string]interface{}{
		"name":    "gophers.txt",
		"content": "Gophers live in burrows and eat roots.",
	})
	require.Equal(t, nethttp.StatusAccepted, rec.Code, rec.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)

	rec, env = s.do(t, "acme", nethttp.MethodGet, "/api/v1/documents/"+created.ID, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var got struct {
		Status     string `json:"status"`
		ChunkCount int    `json:"chunk_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "ready", got.Status)
	assert.Equal(t, 1, got.ChunkCount)

	rec, env = s.do(t, "acme", nethttp.MethodPost, "/api/v1/query", map[string]interface{}{"question": "where do gophers live"})
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())
	var answer composer.Answer
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.False(t, answer.NoContext)
	assert.Equal(t, "Gophers live in burrows [Document 1].", answer.Answer)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, created.ID, answer.Sources[0].DocumentID)

	rec, env = s.do(t, "acme", nethttp.MethodGet, "/api/v1/system/status", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"chunks":1`)

	rec, _ = s.do(t, "acme", nethttp.MethodDelete, "/api/v1/documents/"+created.ID, nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	rec, env = s.do(t, "acme", nethttp.MethodGet, "/api/v1/documents/"+created.ID, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeDocumentNotFound, env.Code)
}

func TestRouter_QueryWithoutDocumentsReturnsNoContext(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, "globex", nethttp.MethodPost, "/api/v1/query", map[string]interface{}{"question": "anything"})
	require.Equal(t, nethttp.StatusOK, rec.Code)
	var answer composer.Answer
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.True(t, answer.NoContext)
	assert.Equal(t, composer.NoContextAnswer, answer.Answer)
	assert.Empty(t, answer.Sources)
}

func TestRouter_DocumentsAreTenantScoped(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, "acme", nethttp.MethodPost, "/api/v1/documents", map[string]interface{}{"content": "acme only"})
	require.Equal(t, nethttp.StatusAccepted, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	rec, _ = s.do(t, "globex", nethttp.MethodGet, "/api/v1/documents/"+created.ID, nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)

	rec, env = s.do(t, "globex", nethttp.MethodGet, "/api/v1/documents", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestRouter_BadRequests(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, "acme", nethttp.MethodPost, "/api/v1/documents", map[string]interface{}{"content": "   "})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, response.CodeBadRequest, env.Code)

	rec, _ = s.do(t, "acme", nethttp.MethodPost, "/api/v1/documents", map[string]interface{}{"content": "x", "content_type": "spreadsheet"})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, "acme", nethttp.MethodPost, "/api/v1/query", map[string]interface{}{})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, "acme", nethttp.MethodPost, "/api/v1/documents", map[string]interface{}{"document_id": "missing", "content": "x"})
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestRouter_UploadRejectsNonPDF(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("plain text"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/documents/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.tokens["acme"])
	rec, env := s.serve(t, req)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, "only PDF files are allowed", env.Message)
}

func TestRouter_Healthz(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/healthz", nil))
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var body struct {
		Embedding    string                     `json:"embedding"`
		Dependencies map[string]json.RawMessage `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "hash:128", body.Embedding)
	assert.Contains(t, body.Dependencies, "sqlite")
	assert.NotContains(t, body.Dependencies, "redis")
}
