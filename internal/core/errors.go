package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	// KindConfig means the caller asked for something that cannot be built,
	// such as an unknown backend tag or a blank credential.
	KindConfig ErrorKind = iota + 1
	// KindConnect covers transport faults and non-2xx gateway statuses.
	KindConnect
	// KindProtocol means the gateway answered but the body was unusable.
	KindProtocol
	// KindNotInitialized means generation was requested before a successful probe.
	KindNotInitialized
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnect:
		return "connect"
	case KindProtocol:
		return "protocol"
	case KindNotInitialized:
		return "not_initialized"
	default:
		return "unknown"
	}
}

// ProviderError is returned by every provider and factory failure.
type ProviderError struct {
	Kind       ErrorKind
	Backend    string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (HTTP %d): %s", e.Backend, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s %s error: %s", e.Backend, e.Kind, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind, so ErrNotInitialized matches any
// not-initialized ProviderError regardless of backend.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return t.Backend == "" && t.Kind == e.Kind
}

// ErrNotInitialized is returned by GenerateContent on a provider that was never
// successfully initialized.
var ErrNotInitialized = &ProviderError{Kind: KindNotInitialized, Message: "provider not initialized"}

// IsKind reports whether err is a ProviderError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
