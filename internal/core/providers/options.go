package providers

import (
	"net/http"
	"strings"
	"time"

	"nyayai/internal/core/registry"
	"nyayai/internal/core/security"
	"nyayai/internal/pkg/logger"
)

const (
	// DefaultBaseURL is the OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultReferer identifies the calling application to OpenRouter.
	DefaultReferer = "https://github.com/copilot"
	// DefaultTimeout bounds a single gateway round-trip.
	DefaultTimeout = 60 * time.Second
)

// Option configures providers built by Create or NewOpenRouterProvider.
type Option func(*options)

type options struct {
	client   *http.Client
	timeout  time.Duration
	baseURL  string
	referer  string
	log      *logger.Logger
	registry *registry.Registry
	scanner  *security.Scanner
}

// WithHTTPClient uses client for every gateway call. It takes precedence over WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.client = client }
}

// WithTimeout sets the client timeout. Zero disables the client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithBaseURL points the provider at a different gateway root.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithReferer sets the HTTP-Referer upstream identification header.
func WithReferer(referer string) Option {
	return func(o *options) { o.referer = referer }
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithRegistry resolves backend tags against r instead of the built-in table.
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithScanner sets the scanner used to scrub gateway error messages.
func WithScanner(s *security.Scanner) Option {
	return func(o *options) { o.scanner = s }
}

func buildOptions(opts []Option) *options {
	o := &options{
		timeout: DefaultTimeout,
		baseURL: DefaultBaseURL,
		referer: DefaultReferer,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: o.timeout}
	}
	if o.baseURL == "" {
		o.baseURL = DefaultBaseURL
	}
	o.baseURL = strings.TrimRight(o.baseURL, "/")
	if o.log == nil {
		o.log = logger.Nop()
	}
	if o.registry == nil {
		o.registry = registry.Default()
	}
	if o.scanner == nil {
		o.scanner = security.NewScanner()
	}
	return o
}
