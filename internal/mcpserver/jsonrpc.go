package mcpserver

import (
	"context"
	"encoding/json"
)

// Request is a JSON-RPC 2.0 request or notification. Notifications omit
// ID; Dispatch treats a nil ID as "no response expected".
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response, carrying either Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the wire shape of a JSON-RPC error object.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Dispatch decodes one JSON-RPC request, routes it through Server.Handle,
// and encodes the result or error as a Response. It returns nil for any
// notification (no ID), whether it succeeded or failed, matching JSON-RPC
// 2.0's rule that notifications never receive a response.
func (s *Server) Dispatch(ctx context.Context, raw []byte) (*Response, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error:   &ResponseError{Code: int(CodeParseError), Message: err.Error()},
		}, nil
	}

	result, err := s.Handle(ctx, req.Method, req.Params)

	isNotification := len(req.ID) == 0
	if err != nil {
		if isNotification {
			return nil, nil
		}
		var mcpErr *Error
		code := int(CodeInternalError)
		message := err.Error()
		if asErr, ok := err.(*Error); ok {
			mcpErr = asErr
			code = int(mcpErr.JSONRPCCode())
		}
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &ResponseError{Code: code, Message: message},
		}, nil
	}

	if isNotification {
		return nil, nil
	}
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}, nil
}
