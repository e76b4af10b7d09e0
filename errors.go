package sinklog

import (
	stderrs "errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches exactly one of
// ErrConfiguration, ErrResource or ErrProtocol through IsKind.
var (
	// ErrConfiguration reports a missing or malformed configuration document,
	// invalid builder state or an operation the builder does not support.
	ErrConfiguration = stderrs.New("configuration error")

	// ErrUnsupportedOperation is returned by LocalBuilder.SetDestination.
	ErrUnsupportedOperation = fmt.Errorf("%w: unsupported operation", ErrConfiguration)

	// ErrUnknownSeverity is returned for severity names outside Severities().
	ErrUnknownSeverity = fmt.Errorf("%w: unknown severity", ErrConfiguration)

	// ErrResource reports a log file that could not be opened, written or closed.
	ErrResource = stderrs.New("resource error")

	// ErrProtocol reports a failed exchange with the aggregation service.
	ErrProtocol = stderrs.New("protocol error")
)

// ProtocolError describes one failed request to the aggregation service.
// StatusCode is zero when the transport failed before a response arrived.
type ProtocolError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned status %d", ErrProtocol, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", ErrProtocol, e.Endpoint, e.Err)
}

func (e *ProtocolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProtocol}
	}
	return []error{ErrProtocol, e.Err}
}

// IsKind reports whether kind appears anywhere in err's chain, following both
// DetailedError causes and standard unwrapping.
func IsKind(err, kind error) bool {
	return walkChain(err, func(e error) bool {
		return stderrs.Is(e, kind)
	})
}

// AsProtocolError returns the first ProtocolError in err's chain.
func AsProtocolError(err error) (*ProtocolError, bool) {
	var found *ProtocolError
	ok := walkChain(err, func(e error) bool {
		return stderrs.As(e, &found)
	})
	return found, ok
}
