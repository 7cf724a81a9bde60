package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nyayai/internal/assistant"
	"nyayai/internal/core/providers"
	"nyayai/internal/core/registry"
	"nyayai/internal/document/pdftest"
	"nyayai/internal/store"
)

const gatewayReply = `{"choices":[{"message":{"role":"assistant","content":"Section 420 covers cheating."}}]}`

type testEnv struct {
	t       *testing.T
	api     *httptest.Server
	store   *store.Store
	calls   *atomic.Int32
	gateway *httptest.Server
}

func newTestEnv(t *testing.T, gatewayStatus int, gatewayBody string, opts Options) *testEnv {
	t.Helper()

	calls := &atomic.Int32{}
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(gatewayStatus)
		_, _ = w.Write([]byte(gatewayBody))
	}))
	t.Cleanup(gateway.Close)

	st, err := store.Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	factory := providers.NewFactory(providers.WithBaseURL(gateway.URL), providers.WithHTTPClient(gateway.Client()))
	sessions := assistant.NewSessions(factory, assistant.Options{})
	srv := New(opts, st, sessions, registry.Default(), zap.NewNop())

	api := httptest.NewServer(srv.Handler())
	t.Cleanup(api.Close)

	return &testEnv{t: t, api: api, store: st, calls: calls, gateway: gateway}
}

func (e *testEnv) do(method, path, body string, header map[string]string) (*http.Response, []byte) {
	e.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.api.URL+path, reader)
	require.NoError(e.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := e.api.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, data
}

func (e *testEnv) createSession(provider string) string {
	e.t.Helper()
	resp, body := e.do(http.MethodPost, "/v1/sessions", `{"provider":"`+provider+`","api_key":"sk-test"}`, nil)
	require.Equal(e.t, http.StatusCreated, resp.StatusCode, string(body))
	return gjson.GetBytes(body, "session_id").String()
}

func (e *testEnv) upload(filename, mode string, content []byte) (*http.Response, []byte) {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(e.t, err)
		_, err = fw.Write(content)
		require.NoError(e.t, err)
	}
	if mode != "" {
		require.NoError(e.t, mw.WriteField("mode", mode))
	}
	require.NoError(e.t, mw.Close())

	resp, err := e.api.Client().Post(e.api.URL+"/v1/documents", mw.FormDataContentType(), &buf)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, data
}

func TestHealthAndRequestID(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	resp, body := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", gjson.GetBytes(body, "status").String())
	assert.Equal(t, int64(0), gjson.GetBytes(body, "sessions").Int())

	_, err := uuid.Parse(resp.Header.Get("X-Request-ID"))
	assert.NoError(t, err)

	resp, body = env.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "NyayAI is running", gjson.GetBytes(body, "message").String())

	resp, _ = env.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProviders(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	_, body := env.do(http.MethodGet, "/v1/providers", "", nil)
	rows := gjson.GetBytes(body, "providers").Array()
	require.Len(t, rows, 4)
	assert.Equal(t, "deepseek", rows[0].Get("tag").String())
	assert.Equal(t, int64(2000), rows[0].Get("sampling.max_tokens").Int())
}

func TestSessionFlowEndToEnd(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	resp, body := env.do(http.MethodPost, "/v1/sessions", `{"provider":"Gemini","api_key":" sk-test "}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "gemini", gjson.GetBytes(body, "provider").String())
	assert.Equal(t, "google/gemini-pro-1.5", gjson.GetBytes(body, "model").String())
	assert.True(t, gjson.GetBytes(body, "online").Bool())
	id := gjson.GetBytes(body, "session_id").String()
	assert.Equal(t, int32(1), env.calls.Load())

	header := map[string]string{SessionHeader: id}
	resp, body = env.do(http.MethodPost, "/v1/ask", `{"query":"fraud"}`, header)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, gjson.GetBytes(body, "online").Bool())
	assert.Equal(t, "Section 420 covers cheating."+assistant.Disclaimer, gjson.GetBytes(body, "response").String())
	assert.Equal(t, "420", gjson.GetBytes(body, "sections.0.section").String())
	assert.Equal(t, int32(2), env.calls.Load())

	history, err := env.store.RecentQueries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "fraud", history[0].Query)

	resp, _ = env.do(http.MethodDelete, "/v1/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = env.do(http.MethodDelete, "/v1/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/v1/ask", `{"query":"fraud"}`, header)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateSessionUnknownProvider(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	resp, body := env.do(http.MethodPost, "/v1/sessions", `{"provider":"claude","api_key":"k"}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, gjson.GetBytes(body, "error").String())

	resp, _ = env.do(http.MethodPost, "/v1/sessions", `{"provider":"gemini","api_key":"  "}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(http.MethodPost, "/v1/sessions", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, int32(0), env.calls.Load())
}

func TestCreateSessionProbeFailureHidesGatewayDetail(t *testing.T) {
	env := newTestEnv(t, http.StatusUnauthorized, `{"error":{"message":"User not found for key sk-or-v1-abc"}}`, Options{})

	resp, body := env.do(http.MethodPost, "/v1/sessions", `{"provider":"openai","api_key":"bad"}`, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "provider unavailable", gjson.GetBytes(body, "error").String())
	assert.NotContains(t, string(body), "User not found")
	assert.Equal(t, int32(1), env.calls.Load())

	_, body = env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, int64(0), gjson.GetBytes(body, "sessions").Int())
}

func TestAskOffline(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	resp, body := env.do(http.MethodPost, "/v1/ask", `{"query":"theft"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, gjson.GetBytes(body, "online").Bool())
	assert.Equal(t, assistant.OfflineAnswer("theft"), gjson.GetBytes(body, "response").String())
	assert.Equal(t, "379", gjson.GetBytes(body, "sections.0.section").String())
	assert.Equal(t, int32(0), env.calls.Load())

	resp, _ = env.do(http.MethodPost, "/v1/ask", `{"query":"   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskReturnsEmptySectionsArray(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	_, body := env.do(http.MethodPost, "/v1/ask", `{"query":"no such offence anywhere"}`, nil)
	sections := gjson.GetBytes(body, "sections")
	assert.True(t, sections.IsArray())
	assert.Empty(t, sections.Array())
}

func TestAskLimitsContextSections(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{ContextSections: 1})

	_, body := env.do(http.MethodPost, "/v1/ask", `{"query":"women"}`, nil)
	assert.Len(t, gjson.GetBytes(body, "sections").Array(), 1)
}

func TestSections(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	_, body := env.do(http.MethodGet, "/v1/sections", "", nil)
	assert.Len(t, gjson.GetBytes(body, "sections").Array(), 10)

	_, body = env.do(http.MethodGet, "/v1/sections?q=murder", "", nil)
	assert.Equal(t, "302", gjson.GetBytes(body, "sections.0.section").String())

	resp, body := env.do(http.MethodGet, "/v1/sections/498A", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cruelty by husband or relatives", gjson.GetBytes(body, "title").String())

	resp, _ = env.do(http.MethodGet, "/v1/sections/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExplainSection(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	resp, body := env.do(http.MethodPost, "/v1/sections/420/explain", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, gjson.GetBytes(body, "online").Bool())
	assert.Equal(t, "420", gjson.GetBytes(body, "section.section").String())
	assert.Contains(t, gjson.GetBytes(body, "explanation").String(), "relevant IPC sections")

	id := env.createSession("nemotron")
	_, body = env.do(http.MethodPost, "/v1/sections/420/explain", "", map[string]string{SessionHeader: id})
	assert.True(t, gjson.GetBytes(body, "online").Bool())
	assert.Equal(t, "Section 420 covers cheating."+assistant.Disclaimer, gjson.GetBytes(body, "explanation").String())

	resp, _ = env.do(http.MethodPost, "/v1/sections/1/explain", "", map[string]string{SessionHeader: id})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFlashcards(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	_, body := env.do(http.MethodGet, "/v1/flashcards?q=murder", "", nil)
	cards := gjson.GetBytes(body, "flashcards").Array()
	require.Len(t, cards, 1)
	assert.Equal(t, "302", cards[0].Get("front.section").String())
	assert.Equal(t, "Murder", cards[0].Get("front.title").String())
	assert.Equal(t, "Offences against Human Body", cards[0].Get("back.category").String())
	assert.Contains(t, cards[0].Get("back.punishment").String(), "life imprisonment")
}

func TestTemplates(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})

	_, body := env.do(http.MethodGet, "/v1/templates", "", nil)
	assert.Len(t, gjson.GetBytes(body, "templates").Array(), 3)

	_, body = env.do(http.MethodGet, "/v1/templates?category=Employment", "", nil)
	templates := gjson.GetBytes(body, "templates").Array()
	require.Len(t, templates, 1)
	assert.Equal(t, "Employment", templates[0].Get("category").String())

	_, body = env.do(http.MethodGet, "/v1/templates/categories", "", nil)
	var categories []string
	for _, c := range gjson.GetBytes(body, "categories").Array() {
		categories = append(categories, c.String())
	}
	assert.Equal(t, []string{"Employment", "Legal Proceedings", "Property"}, categories)
}

func TestDocumentRejections(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{MaxUploadBytes: 1024})

	resp, _ := env.upload("notes.txt", "", []byte("plain text"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, _ = env.upload("", "preview", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.upload("contract.pdf", "translate", []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := env.upload("contract.pdf", "preview", []byte("not really a pdf"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "failed to read PDF", gjson.GetBytes(body, "error").String())

	resp, _ = env.upload("big.pdf", "preview", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, _ = env.upload("huge.pdf", "preview", bytes.Repeat([]byte("x"), 100<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func (e *testEnv) uploadWithSession(id, filename, mode string, content []byte) (*http.Response, []byte) {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(e.t, err)
	_, err = fw.Write(content)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.WriteField("mode", mode))
	require.NoError(e.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.api.URL+"/v1/documents", &buf)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(SessionHeader, id)

	resp, err := e.api.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, data
}

func TestDocumentSummaryWithSession(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})
	id := env.createSession("gemini")

	pdf := pdftest.Build("Rental Deed", "Asha", "Section 420 cheating")
	resp, body := env.uploadWithSession(id, "deed.pdf", "summary", pdf)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	assert.Equal(t, "summary", gjson.GetBytes(body, "mode").String())
	assert.Equal(t, "\n--- Page 1 of 1 ---\nSection 420 cheating\n", gjson.GetBytes(body, "text").String())
	assert.Equal(t, "Section 420 covers cheating."+assistant.Disclaimer, gjson.GetBytes(body, "summary").String())
	assert.True(t, gjson.GetBytes(body, "online").Bool())
	assert.Equal(t, int64(1), gjson.GetBytes(body, "info.pages").Int())
	assert.Equal(t, "Rental Deed", gjson.GetBytes(body, "info.title").String())
	assert.Equal(t, "Asha", gjson.GetBytes(body, "info.author").String())
	assert.Equal(t, "Unknown", gjson.GetBytes(body, "info.subject").String())
	assert.Equal(t, int32(2), env.calls.Load())
}

func TestDocumentModesOffline(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{})
	pdf := pdftest.Build("", "", "first page", "second page", "third page")

	resp, body := env.upload("notes.PDF", "extract", pdf)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, gjson.GetBytes(body, "text").String(), "--- Page 3 of 3 ---\nthird page")
	assert.False(t, gjson.GetBytes(body, "summary").Exists())

	resp, body = env.upload("notes.pdf", "", pdf)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "preview", gjson.GetBytes(body, "mode").String())
	assert.NotContains(t, gjson.GetBytes(body, "text").String(), "third page")

	resp, body = env.upload("notes.pdf", "full", pdf)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.False(t, gjson.GetBytes(body, "online").Bool())
	assert.Contains(t, gjson.GetBytes(body, "summary").String(), assistant.Disclaimer)
	assert.Equal(t, int32(0), env.calls.Load())

	resp, _ = env.upload("scan.pdf", "extract", pdftest.Build("Scan", "", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, gatewayReply, Options{RPS: 0.001, Burst: 1})

	resp, _ := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate limit exceeded", gjson.GetBytes(body, "error").String())
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestRecovererAndAccessLog(t *testing.T) {
	obsCore, logs := observer.New(zap.InfoLevel)
	log := zap.New(obsCore)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	h := chain(panicking, requestID, accessLog(log), recoverer(log))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/explode", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", gjson.Get(rec.Body.String(), "error").String())

	require.Equal(t, 1, logs.FilterMessage("handler panic").Len())
	access := logs.FilterMessage("request").All()
	require.Len(t, access, 1)
	fields := access[0].ContextMap()
	assert.Equal(t, int64(http.StatusInternalServerError), fields["status"])
	assert.Equal(t, "/explode", fields["path"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), fields["request_id"])
}
