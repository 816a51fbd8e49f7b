package model

import "fmt"

// ErrorKind classifies why a request could not be proxied.
type ErrorKind int

const (
	// ProxyError covers any failure other than an unreachable upstream.
	ProxyError ErrorKind = iota
	// BackendUnavailable means the upstream could not be reached at the transport level.
	BackendUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case BackendUnavailable:
		return "backend_unavailable"
	default:
		return "proxy_error"
	}
}

// ForwardError is the only error type returned by the forwarding path.
type ForwardError struct {
	Kind ErrorKind
	Err  error
}

func (e *ForwardError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ForwardError) Unwrap() error {
	return e.Err
}

// NewForwardError wraps err with the given kind.
func NewForwardError(kind ErrorKind, err error) *ForwardError {
	return &ForwardError{Kind: kind, Err: err}
}
