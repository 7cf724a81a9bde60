// Package assistant turns legal questions, documents and IPC sections into
// prompts, sends them to the configured provider and falls back to fixed
// offline answers when no provider is usable.
package assistant

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nyayai/internal/core"
	"nyayai/internal/core/providers"
	"nyayai/internal/store"
)

// DefaultMaxSummaryChars caps the document text sent for summarization.
const DefaultMaxSummaryChars = 12000

const truncatedMarker = "\n\n[Document truncated for summarization]"

// Options configures a Handler.
type Options struct {
	// MaxSummaryChars caps SummarizeDocument input. Zero means DefaultMaxSummaryChars.
	MaxSummaryChars int
	// Pipeline runs over every prompt and completion. Nil means an empty pipeline.
	Pipeline *core.Pipeline
	Logger   *zap.Logger
}

// Handler owns the provider for one logical session.
type Handler struct {
	factory    providers.Factory
	pipeline   *core.Pipeline
	maxSummary int
	log        *zap.Logger
	sessionID  string

	mu       sync.RWMutex
	provider core.Provider
}

// NewHandler creates an offline handler. factory may be nil, in which case
// Configure always fails.
func NewHandler(factory providers.Factory, opts Options) *Handler {
	if opts.MaxSummaryChars <= 0 {
		opts.MaxSummaryChars = DefaultMaxSummaryChars
	}
	if opts.Pipeline == nil {
		opts.Pipeline = core.NewPipeline()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		factory:    factory,
		pipeline:   opts.Pipeline,
		maxSummary: opts.MaxSummaryChars,
		log:        opts.Logger.Named("assistant"),
	}
}

// Configure builds and probes a provider for backend. On success it replaces
// the current provider. On any failure the handler is left offline.
func (h *Handler) Configure(ctx context.Context, backend, credential string) error {
	h.setProvider(nil)

	if strings.TrimSpace(credential) == "" {
		return &core.ProviderError{Kind: core.KindConfig, Backend: backend, Message: "api key is required"}
	}
	if h.factory == nil {
		return &core.ProviderError{Kind: core.KindConfig, Backend: backend, Message: "no provider factory configured"}
	}

	p, err := h.factory(ctx, backend, credential)
	if err != nil {
		h.log.Warn("provider configuration failed",
			zap.String("session_id", h.sessionID),
			zap.String("backend", backend),
			zap.Error(err),
		)
		return err
	}

	h.setProvider(p)
	h.log.Info("provider configured",
		zap.String("session_id", h.sessionID),
		zap.String("backend", p.Tag()),
		zap.String("model", p.Model()),
	)
	return nil
}

// Reset drops the current provider.
func (h *Handler) Reset() {
	h.setProvider(nil)
}

// IsOnline reports whether a ready provider is attached.
func (h *Handler) IsOnline() bool {
	p := h.current()
	return p != nil && p.IsAvailable()
}

// Backend returns the tag and model of the current provider, or empty strings.
func (h *Handler) Backend() (tag, model string) {
	p := h.current()
	if p == nil {
		return "", ""
	}
	return p.Tag(), p.Model()
}

// SessionID returns the id the handler is registered under, if any.
func (h *Handler) SessionID() string {
	return h.sessionID
}

// GenerateLegalResponse answers query, citing sectionContext when present.
func (h *Handler) GenerateLegalResponse(ctx context.Context, query, sectionContext string) string {
	prompt, err := render(legalResponseTmpl, struct{ Query, Context string }{query, strings.TrimSpace(sectionContext)})
	if err != nil {
		h.log.Error("prompt rendering failed", zap.Error(err))
		return h.offline(offlineDefault)
	}
	return h.generate(ctx, "legal_response", prompt, offlineDefault)
}

// SummarizeDocument summarizes extracted document text. Text longer than the
// configured cap is cut before it is sent.
func (h *Handler) SummarizeDocument(ctx context.Context, text string) string {
	if r := []rune(text); len(r) > h.maxSummary {
		text = string(r[:h.maxSummary]) + truncatedMarker
	}

	prompt, err := render(summaryTmpl, struct{ Text string }{text})
	if err != nil {
		h.log.Error("prompt rendering failed", zap.Error(err))
		return h.offline(offlineDocument)
	}
	return h.generate(ctx, "summary", prompt, offlineDocument)
}

// ExplainSection explains one IPC section in plain language.
func (h *Handler) ExplainSection(ctx context.Context, section store.Section) string {
	prompt, err := render(explainTmpl, section)
	if err != nil {
		h.log.Error("prompt rendering failed", zap.Error(err))
		return h.offline(offlineSection)
	}
	return h.generate(ctx, "explain_section", prompt, offlineSection)
}

func (h *Handler) generate(ctx context.Context, task, prompt, fallback string) string {
	p := h.current()
	if p == nil || !p.IsAvailable() {
		return h.offline(fallback)
	}

	rc := core.NewRequestContext(ctx, h.log)
	rc.RequestID = core.RequestIDFrom(ctx)
	if rc.RequestID == "" {
		rc.RequestID = uuid.NewString()
	}
	rc.SessionID = h.sessionID
	rc.Backend = p.Tag()
	rc.Model = p.Model()
	rc.SetMetadata("task", task)

	prompt, err := h.pipeline.ExecutePrompt(rc, prompt)
	if err != nil {
		h.log.Warn("prompt rejected", zap.String("request_id", rc.RequestID), zap.Error(err))
		return h.offline(fallback)
	}

	out, err := p.GenerateContent(rc, prompt)
	if err != nil {
		h.log.Warn("generation failed, using offline response",
			zap.String("request_id", rc.RequestID),
			zap.String("task", task),
			zap.Error(err),
		)
		return h.offline(fallback)
	}

	out, err = h.pipeline.ExecuteCompletion(rc, out)
	if err != nil {
		h.log.Warn("completion rejected", zap.String("request_id", rc.RequestID), zap.Error(err))
		return h.offline(fallback)
	}
	return AddDisclaimer(out)
}

func (h *Handler) offline(kind string) string {
	return AddDisclaimer(offlineResponses[kind])
}

func (h *Handler) current() core.Provider {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.provider
}

func (h *Handler) setProvider(p core.Provider) {
	h.mu.Lock()
	h.provider = p
	h.mu.Unlock()
}
