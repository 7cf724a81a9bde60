package core

import "context"

// Provider is a remote generation backend reachable through the gateway.
type Provider interface {
	// Tag returns the backend tag, e.g. "gemini".
	Tag() string
	// Model returns the remote model identifier sent to the gateway.
	Model() string
	// Initialize performs a single probe call. A nil error marks the provider
	// ready for the rest of its lifetime; any failure leaves it not ready.
	Initialize(ctx context.Context) error
	// GenerateContent sends prompt and returns the first completion choice.
	GenerateContent(ctx context.Context, prompt string) (string, error)
	// IsAvailable reports whether Initialize succeeded. It never touches the network.
	IsAvailable() bool
}
