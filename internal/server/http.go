package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"nyayai/internal/assistant"
	"nyayai/internal/core"
	"nyayai/internal/document"
	"nyayai/internal/store"
)

const (
	// SessionHeader selects the session whose provider answers a request.
	SessionHeader = "X-Session-ID"

	maxJSONBody       = 64 << 10
	multipartOverhead = 64 << 10
	previewMaxPages   = 2
)

type errorResponse struct {
	Error string `json:"error"`
}

type createSessionRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Online    bool   `json:"online"`
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Response string          `json:"response"`
	Online   bool            `json:"online"`
	Sections []store.Section `json:"sections"`
}

type explainResponse struct {
	Section     store.Section `json:"section"`
	Explanation string        `json:"explanation"`
	Online      bool          `json:"online"`
}

type flashcard struct {
	Front flashcardFront `json:"front"`
	Back  flashcardBack  `json:"back"`
}

type flashcardFront struct {
	Section     string `json:"section"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Context     string `json:"context"`
}

type flashcardBack struct {
	Punishment string `json:"punishment"`
	Category   string `json:"category"`
}

type documentResponse struct {
	Mode    string        `json:"mode"`
	Text    string        `json:"text"`
	Summary string        `json:"summary,omitempty"`
	Info    document.Info `json:"info"`
	Online  bool          `json:"online"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "NyayAI is running"})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": s.registry.Backends()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, h, err := s.sessions.Create(r.Context(), req.Provider, req.APIKey)
	if err != nil {
		// Gateway detail stays in the log; callers only learn which side failed.
		if core.IsKind(err, core.KindConfig) {
			writeError(w, http.StatusBadRequest, "unsupported provider or missing api key")
			return
		}
		writeError(w, http.StatusBadGateway, "provider unavailable")
		return
	}

	tag, model := h.Backend()
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: id,
		Provider:  tag,
		Model:     model,
		Online:    h.IsOnline(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handlerFor(w, r)
	if !ok {
		return
	}

	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	sections, err := s.store.SearchSections(r.Context(), query)
	if err != nil {
		s.log.Error("section search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "section search failed")
		return
	}
	if len(sections) > s.opts.ContextSections {
		sections = sections[:s.opts.ContextSections]
	}

	online := h.IsOnline()
	var response string
	if online {
		response = h.GenerateLegalResponse(r.Context(), query, assistant.SectionContext(sections, s.opts.ContextSections))
	} else {
		response = assistant.OfflineAnswer(query)
	}

	if err := s.store.SaveQuery(r.Context(), query, response); err != nil {
		s.log.Warn("failed to save query history", zap.Error(err))
	}

	if sections == nil {
		sections = []store.Section{}
	}
	writeJSON(w, http.StatusOK, askResponse{Response: response, Online: online, Sections: sections})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	sections, err := s.findSections(r)
	if err != nil {
		s.log.Error("section listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "section listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	section, ok := s.lookupSection(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handlerFor(w, r)
	if !ok {
		return
	}
	section, ok := s.lookupSection(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, explainResponse{
		Section:     section,
		Explanation: h.ExplainSection(r.Context(), section),
		Online:      h.IsOnline(),
	})
}

func (s *Server) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	sections, err := s.findSections(r)
	if err != nil {
		s.log.Error("flashcard listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "flashcard listing failed")
		return
	}

	cards := make([]flashcard, 0, len(sections))
	for _, sec := range sections {
		cards = append(cards, flashcard{
			Front: flashcardFront{Section: sec.Number, Title: sec.Title, Description: sec.Description, Context: sec.Context},
			Back:  flashcardBack{Punishment: sec.Punishment, Category: sec.Category},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"flashcards": cards})
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.Templates(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.log.Error("template listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "template listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		s.log.Error("category listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "category listing failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	h, ok := s.handlerFor(w, r)
	if !ok {
		return
	}

	limit := s.opts.MaxUploadBytes
	if r.ContentLength > limit+multipartOverhead {
		writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "file is too large")
		return
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusUnsupportedMediaType, "only PDF files are supported")
		return
	}

	mode := r.FormValue("mode")
	if mode == "" {
		mode = "preview"
	}
	var opts document.ExtractOptions
	summarize := false
	switch mode {
	case "preview":
		opts = document.ExtractOptions{MaxPages: previewMaxPages, Preview: true}
	case "summary":
		opts = document.ExtractOptions{MaxPages: previewMaxPages, Preview: true}
		summarize = true
	case "full":
		summarize = true
	case "extract":
	default:
		writeError(w, http.StatusBadRequest, "mode must be one of preview, summary, full, extract")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	info, err := document.ReadInfo(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.log.Warn("pdf metadata failed", zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to read PDF")
		return
	}

	text, err := document.ExtractBytes(data, opts)
	if err != nil {
		if errors.Is(err, document.ErrNoText) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.log.Warn("pdf extraction failed", zap.String("file", header.Filename), zap.Error(err))
		writeError(w, http.StatusBadRequest, "failed to extract text")
		return
	}

	resp := documentResponse{Mode: mode, Text: text, Info: info, Online: h.IsOnline()}
	if summarize {
		resp.Summary = h.SummarizeDocument(r.Context(), text)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlerFor resolves the session named by X-Session-ID. Requests without
// the header get the offline handler.
func (s *Server) handlerFor(w http.ResponseWriter, r *http.Request) (*assistant.Handler, bool) {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		return s.offline, true
	}
	h, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return h, true
}

func (s *Server) findSections(r *http.Request) ([]store.Section, error) {
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		return s.store.SearchSections(r.Context(), q)
	}
	return s.store.AllSections(r.Context())
}

func (s *Server) lookupSection(w http.ResponseWriter, r *http.Request) (store.Section, bool) {
	section, err := s.store.Section(r.Context(), r.PathValue("number"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "section not found")
		return store.Section{}, false
	}
	if err != nil {
		s.log.Error("section lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "section lookup failed")
		return store.Section{}, false
	}
	return section, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
