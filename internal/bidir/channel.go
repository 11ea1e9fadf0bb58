package bidir

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Channel is the bidirectional handle an activation's Call receives for
// methods whose MethodSchema.Bidir is true. Request is the primitive;
// Confirm/Prompt/Select are convenience wrappers over the closed
// StandardRequest/StandardResponse set.
type Channel interface {
	Request(ctx context.Context, data json.RawMessage, timeout time.Duration) (json.RawMessage, error)
	Confirm(ctx context.Context, message string, timeout time.Duration) (bool, error)
	Prompt(ctx context.Context, message string, timeout time.Duration) (string, error)
	Select(ctx context.Context, message string, options []SelectOption, timeout time.Duration) ([]string, error)
}

// OutboundSink transmits a Request envelope to whatever is on the other
// end of the subscription (the MCP client, a direct caller). It is the
// router/adapter's job to implement this over the real transport; the
// channel itself only knows how to wait for the correlated response.
type OutboundSink interface {
	SendRequest(ctx context.Context, requestID uuid.UUID, data json.RawMessage, timeoutMS int64) error
}

// NoopSink rejects every request with NotSupported; it is the OutboundSink
// behind the Channel given to activations whose invoked method is not
// bidirectional per its MethodSchema.
type NoopSink struct{ Method string }

func (n NoopSink) SendRequest(ctx context.Context, requestID uuid.UUID, data json.RawMessage, timeoutMS int64) error {
	return NotSupported(n.Method)
}

// StandardChannel is the production Channel implementation: it issues a
// request through an OutboundSink, registers a one-shot delivery slot in
// a Registry (direct mode: a fresh Registry scoped to one subscription;
// global mode: bidir.Global(), for MCP's out-of-band "_plexus_respond"
// pattern), and blocks until the slot resolves, the timeout elapses, or
// the caller's context is cancelled.
type StandardChannel struct {
	Sink           OutboundSink
	Registry       *Registry
	DefaultTimeout time.Duration
}

// NewStandardChannel builds a StandardChannel in direct mode: the
// pending registry is private to this channel instance.
func NewStandardChannel(sink OutboundSink, defaultTimeout time.Duration) *StandardChannel {
	return &StandardChannel{Sink: sink, Registry: NewRegistry(), DefaultTimeout: defaultTimeout}
}

// NewGlobalChannel builds a StandardChannel in global mode: pending
// requests are registered in the process-wide Registry so a response
// delivered through an unrelated call path (MCP's _plexus_respond tool)
// can still resolve it.
func NewGlobalChannel(sink OutboundSink, defaultTimeout time.Duration) *StandardChannel {
	return &StandardChannel{Sink: sink, Registry: Global(), DefaultTimeout: defaultTimeout}
}

func (c *StandardChannel) Request(ctx context.Context, data json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = c.DefaultTimeout
	}
	id := uuid.New()
	resultCh := c.Registry.Register(id)

	logrus.WithFields(logrus.Fields{"request_id": id, "timeout_ms": timeout.Milliseconds()}).Debug("bidir: issuing request")

	if err := c.Sink.SendRequest(ctx, id, data, timeout.Milliseconds()); err != nil {
		c.Registry.Cancel(id)
		var be *Error
		if errors.As(err, &be) && be.Kind == KindNotSupported {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"request_id": id}).Warn("bidir: transport failure sending request")
		return nil, Transport(err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return res.Data, res.Err
	case <-timer.C:
		c.Registry.Cancel(id)
		logrus.WithFields(logrus.Fields{"request_id": id, "timeout_ms": timeout.Milliseconds()}).Warn("bidir: request timed out")
		return nil, Timeout(timeout.Milliseconds())
	case <-ctx.Done():
		c.Registry.Cancel(id)
		return nil, Cancelled(ctx.Err().Error())
	}
}

func (c *StandardChannel) Confirm(ctx context.Context, message string, timeout time.Duration) (bool, error) {
	raw, err := marshalRequest(StandardRequest{Kind: RequestConfirm, Message: message})
	if err != nil {
		return false, err
	}
	resp, err := c.Request(ctx, raw, timeout)
	if err != nil {
		return false, err
	}
	r, err := unmarshalResponse(resp)
	if err != nil {
		return false, TypeMismatch(string(ResponseConfirmed), "unparseable")
	}
	if r.Kind == ResponseCancelled {
		return false, Cancelled("client cancelled the confirm request")
	}
	if r.Kind != ResponseConfirmed {
		return false, TypeMismatch(string(ResponseConfirmed), string(r.Kind))
	}
	return r.Confirmed, nil
}

func (c *StandardChannel) Prompt(ctx context.Context, message string, timeout time.Duration) (string, error) {
	raw, err := marshalRequest(StandardRequest{Kind: RequestPrompt, Message: message})
	if err != nil {
		return "", err
	}
	resp, err := c.Request(ctx, raw, timeout)
	if err != nil {
		return "", err
	}
	r, err := unmarshalResponse(resp)
	if err != nil {
		return "", TypeMismatch(string(ResponseText), "unparseable")
	}
	if r.Kind == ResponseCancelled {
		return "", Cancelled("client cancelled the prompt request")
	}
	if r.Kind != ResponseText {
		return "", TypeMismatch(string(ResponseText), string(r.Kind))
	}
	return r.Text, nil
}

func (c *StandardChannel) Select(ctx context.Context, message string, options []SelectOption, timeout time.Duration) ([]string, error) {
	raw, err := marshalRequest(StandardRequest{Kind: RequestSelect, Message: message, Options: options})
	if err != nil {
		return nil, err
	}
	resp, err := c.Request(ctx, raw, timeout)
	if err != nil {
		return nil, err
	}
	r, err := unmarshalResponse(resp)
	if err != nil {
		return nil, TypeMismatch(string(ResponseSelected), "unparseable")
	}
	if r.Kind == ResponseCancelled {
		return nil, Cancelled("client cancelled the select request")
	}
	if r.Kind != ResponseSelected {
		return nil, TypeMismatch(string(ResponseSelected), string(r.Kind))
	}
	return r.Selected, nil
}
