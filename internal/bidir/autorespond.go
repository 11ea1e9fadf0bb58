package bidir

import (
	"context"
	"encoding/json"
	"time"
)

// AutoResponder answers a StandardRequest without a real transport round
// trip. Tests supply one per RequestKind they expect to receive.
type AutoResponder func(StandardRequest) StandardResponse

// AutoRespondChannel is the test-aid Channel implementation ported from
// original_source's auto_respond_channel: it never touches a Registry or
// a transport, it just runs the matching AutoResponder synchronously.
// This lets activation tests (see internal/demoactivations) exercise
// wizard/confirm/select flows without a live MCP client on the other
// end.
type AutoRespondChannel struct {
	Responders map[RequestKind]AutoResponder
}

// NewAutoRespondChannel builds a channel that always confirms true,
// always returns the empty string for prompts, and always selects no
// options, unless overridden via WithResponder.
func NewAutoRespondChannel() *AutoRespondChannel {
	return &AutoRespondChannel{
		Responders: map[RequestKind]AutoResponder{
			RequestConfirm: func(StandardRequest) StandardResponse {
				return StandardResponse{Kind: ResponseConfirmed, Confirmed: true}
			},
			RequestPrompt: func(StandardRequest) StandardResponse {
				return StandardResponse{Kind: ResponseText, Text: ""}
			},
			RequestSelect: func(r StandardRequest) StandardResponse {
				return StandardResponse{Kind: ResponseSelected, Selected: nil}
			},
		},
	}
}

// WithResponder overrides the responder for one request kind and returns
// the same channel for chaining.
func (c *AutoRespondChannel) WithResponder(kind RequestKind, fn AutoResponder) *AutoRespondChannel {
	c.Responders[kind] = fn
	return c
}

func (c *AutoRespondChannel) respond(req StandardRequest) StandardResponse {
	if fn, ok := c.Responders[req.Kind]; ok {
		return fn(req)
	}
	return StandardResponse{Kind: ResponseCancelled}
}

func (c *AutoRespondChannel) Confirm(ctx context.Context, message string, timeout time.Duration) (bool, error) {
	resp := c.respond(StandardRequest{Kind: RequestConfirm, Message: message})
	if resp.Kind == ResponseCancelled {
		return false, Cancelled("auto-respond channel had no confirm responder")
	}
	return resp.Confirmed, nil
}

func (c *AutoRespondChannel) Prompt(ctx context.Context, message string, timeout time.Duration) (string, error) {
	resp := c.respond(StandardRequest{Kind: RequestPrompt, Message: message})
	if resp.Kind == ResponseCancelled {
		return "", Cancelled("auto-respond channel had no prompt responder")
	}
	return resp.Text, nil
}

func (c *AutoRespondChannel) Select(ctx context.Context, message string, options []SelectOption, timeout time.Duration) ([]string, error) {
	resp := c.respond(StandardRequest{Kind: RequestSelect, Message: message, Options: options})
	if resp.Kind == ResponseCancelled {
		return nil, Cancelled("auto-respond channel had no select responder")
	}
	return resp.Selected, nil
}

// Request implements Channel generically by treating data as a
// StandardRequest; activations using a custom request shape should not
// rely on AutoRespondChannel's Request and instead call Confirm/Prompt/
// Select, or drive their own fake in a test.
func (c *AutoRespondChannel) Request(ctx context.Context, data json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	var req StandardRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, TypeMismatch("StandardRequest", "unparseable")
	}
	resp := c.respond(req)
	return json.Marshal(resp)
}
