package mcpserver

import (
	"errors"
	"fmt"
)

// Code is a JSON-RPC 2.0 error code, extended with the MCP-specific
// -32002/-32800 codes the original protocol defines.
type Code int

const (
	CodeParseError     Code = -32700
	CodeInvalidRequest Code = -32600
	CodeMethodNotFound Code = -32601
	CodeInvalidParams  Code = -32602
	CodeInternalError  Code = -32603
	CodeNotInitialized Code = -32002
	CodeCancelled      Code = -32800
)

// Error is the MCP-specific error taxonomy. Every handler returns one of
// these (or wraps a *StateError, unwrapped via errors.As in Code()) so
// the dispatcher can always produce a well-formed JSON-RPC error object.
type Error struct {
	Kind    ErrorKind
	Detail  string
	wrapped error
}

type ErrorKind int

const (
	KindMethodNotFound ErrorKind = iota
	KindInvalidParams
	KindState
	KindUnsupportedVersion
	KindToolNotFound
	KindResourceNotFound
	KindPromptNotFound
	KindInternal
	KindSerialization
)

func (e *Error) Error() string {
	switch e.Kind {
	case KindMethodNotFound:
		return fmt.Sprintf("mcp: method not found: %s", e.Detail)
	case KindInvalidParams:
		return fmt.Sprintf("mcp: invalid params: %s", e.Detail)
	case KindState:
		if e.wrapped != nil {
			return fmt.Sprintf("mcp: state error: %s", e.wrapped.Error())
		}
		return "mcp: state error"
	case KindUnsupportedVersion:
		return fmt.Sprintf("mcp: unsupported protocol version: %s", e.Detail)
	case KindToolNotFound:
		return fmt.Sprintf("mcp: tool not found: %s", e.Detail)
	case KindResourceNotFound:
		return fmt.Sprintf("mcp: resource not found: %s", e.Detail)
	case KindPromptNotFound:
		return fmt.Sprintf("mcp: prompt not found: %s", e.Detail)
	case KindSerialization:
		return fmt.Sprintf("mcp: serialization error: %s", e.Detail)
	default:
		return fmt.Sprintf("mcp: internal error: %s", e.Detail)
	}
}

func (e *Error) Unwrap() error { return e.wrapped }

func MethodNotFound(method string) error { return &Error{Kind: KindMethodNotFound, Detail: method} }
func InvalidParams(detail string) error  { return &Error{Kind: KindInvalidParams, Detail: detail} }
func FromState(err error) error          { return &Error{Kind: KindState, wrapped: err} }
func UnsupportedVersion(v string) error  { return &Error{Kind: KindUnsupportedVersion, Detail: v} }
func ToolNotFound(name string) error     { return &Error{Kind: KindToolNotFound, Detail: name} }
func ResourceNotFound(uri string) error  { return &Error{Kind: KindResourceNotFound, Detail: uri} }
func PromptNotFound(name string) error   { return &Error{Kind: KindPromptNotFound, Detail: name} }
func Internal(detail string) error       { return &Error{Kind: KindInternal, Detail: detail} }
func Serialization(detail string) error  { return &Error{Kind: KindSerialization, Detail: detail} }

// JSONRPCCode maps an MCP Error to the wire-level JSON-RPC code it
// should be reported as, unwrapping a nested *StateError to
// distinguish a plain not-ready condition (-32002) from any other state
// violation (-32600).
func (e *Error) JSONRPCCode() Code {
	switch e.Kind {
	case KindMethodNotFound:
		return CodeMethodNotFound
	case KindInvalidParams, KindUnsupportedVersion, KindToolNotFound, KindResourceNotFound, KindPromptNotFound:
		return CodeInvalidParams
	case KindState:
		var stateErr *StateError
		if errors.As(e.wrapped, &stateErr) && stateErr.Kind == KindNotReady {
			return CodeNotInitialized
		}
		return CodeInvalidRequest
	case KindSerialization:
		return CodeParseError
	default:
		return CodeInternalError
	}
}
