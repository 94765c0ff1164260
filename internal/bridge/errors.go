package bridge

import (
	"fmt"

	"github.com/desertthunder/shelfbridge/internal/shared"
)

// AuthError reports a failure to obtain or present a credential.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "authentication failed: " + e.Reason
	}
	return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
}

func (e *AuthError) Unwrap() []error {
	return wrapped(shared.ErrAuthFailed, e.Err)
}

// TransportError reports a failed stream operation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return wrapped(shared.ErrTransport, e.Err)
}

// TranslationKind classifies why an event could not be translated.
type TranslationKind int

const (
	MissingID TranslationKind = iota
	LookupFailed
	NoExternalID
)

func (k TranslationKind) String() string {
	switch k {
	case MissingID:
		return "missing_id"
	case LookupFailed:
		return "lookup_failed"
	case NoExternalID:
		return "no_external_id"
	default:
		return "unknown"
	}
}

func (k TranslationKind) sentinel() error {
	switch k {
	case MissingID:
		return shared.ErrMissingID
	case LookupFailed:
		return shared.ErrLookupFailed
	default:
		return shared.ErrNoExternalID
	}
}

// TranslationError drops a single event.
type TranslationError struct {
	Kind   TranslationKind
	ItemID string
	Err    error
}

func (e *TranslationError) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.ItemID != "" {
		msg += " for item " + e.ItemID
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TranslationError) Unwrap() []error {
	return wrapped(e.Kind.sentinel(), e.Err)
}

// PublishError drops a single update.
type PublishError struct {
	ExternalID string
	Err        error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed for %s: %v", e.ExternalID, e.Err)
}

func (e *PublishError) Unwrap() []error {
	return wrapped(shared.ErrPublishFailed, e.Err)
}

func wrapped(sentinel, err error) []error {
	if err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, err}
}
