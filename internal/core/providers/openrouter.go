package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"nyayai/internal/core"
	"nyayai/internal/core/registry"
	"nyayai/internal/core/security"
	"nyayai/internal/pkg/logger"
)

const (
	completionsPath = "/chat/completions"
	probePrompt     = "Test"
	probeMaxTokens  = 10

	maxResponseBytes = 4 << 20
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenRouterProvider implements core.Provider for one backend behind the
// OpenRouter chat completions endpoint.
type OpenRouterProvider struct {
	backend registry.Backend
	apiKey  string
	baseURL string
	referer string
	client  *http.Client
	scanner *security.Scanner
	log     *logger.Logger

	ready atomic.Bool
}

var _ core.Provider = (*OpenRouterProvider)(nil)

// NewOpenRouterProvider creates an uninitialized provider for backend.
// The credential is trimmed of surrounding whitespace.
func NewOpenRouterProvider(backend registry.Backend, apiKey string, opts ...Option) *OpenRouterProvider {
	return newProvider(backend, apiKey, buildOptions(opts))
}

func newProvider(backend registry.Backend, apiKey string, o *options) *OpenRouterProvider {
	return &OpenRouterProvider{
		backend: backend,
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: o.baseURL,
		referer: o.referer,
		client:  o.client,
		scanner: o.scanner,
		log:     o.log.Named("providers").With(zap.String("backend", backend.Tag), zap.String("model", backend.Model)),
	}
}

// Tag returns the backend tag
func (p *OpenRouterProvider) Tag() string {
	return p.backend.Tag
}

// Model returns the remote model identifier
func (p *OpenRouterProvider) Model() string {
	return p.backend.Model
}

// Sampling returns the parameters used for generation calls.
func (p *OpenRouterProvider) Sampling() registry.Sampling {
	return p.backend.Sampling
}

// Initialize sends the probe prompt with a ten token budget and the base
// temperature. Only a 2xx answer carrying at least one choice marks the
// provider ready.
func (p *OpenRouterProvider) Initialize(ctx context.Context) error {
	body, err := p.buildBody(probePrompt, registry.Sampling{
		Temperature: p.backend.Base.Temperature,
		MaxTokens:   probeMaxTokens,
	}, false)
	if err != nil {
		return p.fail("initialization", err)
	}

	respBody, err := p.post(ctx, body)
	if err != nil {
		return p.fail("initialization", err)
	}

	if choices := gjson.GetBytes(respBody, "choices"); !choices.IsArray() || len(choices.Array()) == 0 {
		return p.fail("initialization", p.protocolError("unexpected response format: no choices"))
	}

	p.ready.Store(true)
	p.log.Info("provider initialized")
	return nil
}

// GenerateContent sends prompt with the backend's sampling parameters and
// returns the first choice's message content.
func (p *OpenRouterProvider) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if !p.ready.Load() {
		return "", &core.ProviderError{
			Kind:    core.KindNotInitialized,
			Backend: p.backend.Tag,
			Message: "provider not initialized",
		}
	}

	body, err := p.buildBody(prompt, p.backend.Sampling, true)
	if err != nil {
		return "", p.fail("generation", err)
	}

	respBody, err := p.post(ctx, body)
	if err != nil {
		return "", p.fail("generation", err)
	}

	choices := gjson.GetBytes(respBody, "choices")
	if !choices.IsArray() || len(choices.Array()) == 0 {
		return "", p.fail("generation", p.protocolError("response contained no choices"))
	}
	content := choices.Get("0.message.content")
	if content.Type != gjson.String {
		return "", p.fail("generation", p.protocolError("first choice has no message content"))
	}

	return content.String(), nil
}

// IsAvailable reports whether Initialize succeeded.
func (p *OpenRouterProvider) IsAvailable() bool {
	return p.ready.Load() && p.client != nil
}

// buildBody assembles the chat completions request. The probe only carries
// model, messages, temperature and max_tokens.
func (p *OpenRouterProvider) buildBody(prompt string, s registry.Sampling, full bool) ([]byte, error) {
	body := []byte(`{}`)
	var err error

	set := func(path string, value interface{}) {
		if err != nil {
			return
		}
		body, err = sjson.SetBytes(body, path, value)
	}

	set("model", p.backend.Model)
	set("messages", []message{{Role: "user", Content: prompt}})
	set("temperature", s.Temperature)
	set("max_tokens", s.MaxTokens)
	if full {
		set("top_p", s.TopP)
		if s.PresencePenalty != 0 {
			set("presence_penalty", s.PresencePenalty)
		}
		if s.FrequencyPenalty != 0 {
			set("frequency_penalty", s.FrequencyPenalty)
		}
	}

	if err != nil {
		return nil, &core.ProviderError{Kind: core.KindConfig, Backend: p.backend.Tag, Message: "failed to build request", Err: err}
	}
	return body, nil
}

// post performs one round-trip and returns the body of a 2xx response.
func (p *OpenRouterProvider) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, &core.ProviderError{Kind: core.KindConfig, Backend: p.backend.Tag, Message: "failed to create request", Err: err}
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("HTTP-Referer", p.referer)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &core.ProviderError{
			Kind:    core.KindConnect,
			Backend: p.backend.Tag,
			Message: p.scanner.Sanitize(fmt.Sprintf("failed to send request: %v", err)),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &core.ProviderError{Kind: core.KindConnect, Backend: p.backend.Tag, StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, p.handleHTTPError(resp.StatusCode, respBody)
	}

	if !gjson.ValidBytes(respBody) {
		return nil, p.protocolError("response is not valid JSON")
	}

	return respBody, nil
}

// handleHTTPError turns a non-2xx answer into a connect error. Only the
// gateway's own error message survives, scrubbed; the raw body is dropped.
func (p *OpenRouterProvider) handleHTTPError(statusCode int, body []byte) error {
	errMsg := gjson.GetBytes(body, "error.message").String()
	if errMsg == "" {
		errMsg = gjson.GetBytes(body, "message").String()
	}
	if errMsg == "" {
		errMsg = http.StatusText(statusCode)
	}
	errMsg = p.scanner.Sanitize(errMsg)

	switch statusCode {
	case http.StatusUnauthorized:
		errMsg = "unauthorized: " + errMsg
	case http.StatusPaymentRequired:
		errMsg = "insufficient credits: " + errMsg
	case http.StatusTooManyRequests:
		errMsg = "rate limit exceeded: " + errMsg
	case http.StatusBadRequest:
		errMsg = "bad request: " + errMsg
	}

	return &core.ProviderError{
		Kind:       core.KindConnect,
		Backend:    p.backend.Tag,
		StatusCode: statusCode,
		Message:    errMsg,
	}
}

func (p *OpenRouterProvider) protocolError(msg string) error {
	return &core.ProviderError{Kind: core.KindProtocol, Backend: p.backend.Tag, Message: msg}
}

// fail logs a diagnostic for err and returns it unchanged.
func (p *OpenRouterProvider) fail(phase string, err error) error {
	fields := []zap.Field{zap.String("phase", phase), zap.String("error", err.Error())}
	if pe, ok := err.(*core.ProviderError); ok {
		fields = append(fields, zap.Stringer("kind", pe.Kind))
		if pe.StatusCode != 0 {
			fields = append(fields, zap.Int("status", pe.StatusCode))
		}
	}
	p.log.Warn("provider call failed", fields...)
	return err
}
