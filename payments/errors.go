package payments

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound          = errors.New("payment order not found")
	ErrChannelUnavailable     = errors.New("no eligible payment channel")
	ErrPluginNotFound         = errors.New("payment plugin not found")
	ErrPluginInactive         = errors.New("payment plugin is not active")
	ErrInvalidStateTransition = errors.New("invalid order state transition")
	ErrUnsupportedOperation   = errors.New("operation not supported by provider")
	ErrSignatureInvalid       = errors.New("callback signature verification failed")
)

// ValidationError reports bad or missing input. It is surfaced to the
// caller immediately and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ProviderError wraps a failed adapter-to-provider call: network
// failure, rejection, or a malformed response.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider %s: [%s] %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError for adapter implementations.
func NewProviderError(provider, code, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Message: message, Err: err}
}
