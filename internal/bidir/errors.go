package bidir

import "fmt"

// Error is the BidirError taxonomy. Each constructor below produces a
// distinct, typed member discriminated via errors.As, matching the
// teacher's NetworkError/ErrorType classification pattern in
// internal/mcp/errors.go rather than sentinel values, so callers can
// branch on the concrete kind.
type Error struct {
	Kind    ErrorKind
	Message string
	// TimeoutMS is populated only for KindTimeout.
	TimeoutMS int64
}

// ErrorKind enumerates the closed set of ways a bidirectional request can
// fail: the activation/method doesn't support requests at all, the caller
// cancelled, the deadline elapsed, a response arrived but didn't match
// the expected StandardResponse shape, the request ID had no pending
// entry, or the transport carrying the response failed.
type ErrorKind int

const (
	KindNotSupported ErrorKind = iota
	KindCancelled
	KindTimeout
	KindTypeMismatch
	KindUnknownRequest
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotSupported:
		return "not_supported"
	case KindCancelled:
		return "cancelled"
	case KindTimeout:
		return "timeout"
	case KindTypeMismatch:
		return "type_mismatch"
	case KindUnknownRequest:
		return "unknown_request"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

func (e *Error) Error() string {
	if e.Kind == KindTimeout {
		return fmt.Sprintf("bidir: %s after %dms: %s", e.Kind, e.TimeoutMS, e.Message)
	}
	return fmt.Sprintf("bidir: %s: %s", e.Kind, e.Message)
}

func NotSupported(method string) error {
	return &Error{Kind: KindNotSupported, Message: fmt.Sprintf("method %q is not bidirectional", method)}
}

func Cancelled(reason string) error {
	return &Error{Kind: KindCancelled, Message: reason}
}

func Timeout(timeoutMS int64) error {
	return &Error{Kind: KindTimeout, Message: "no response received", TimeoutMS: timeoutMS}
}

func TypeMismatch(expected, got string) error {
	return &Error{Kind: KindTypeMismatch, Message: fmt.Sprintf("expected %s response, got %s", expected, got)}
}

func UnknownRequest(id string) error {
	return &Error{Kind: KindUnknownRequest, Message: fmt.Sprintf("no pending request %s", id)}
}

func Transport(cause error) error {
	msg := "transport failure"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindTransport, Message: msg}
}
