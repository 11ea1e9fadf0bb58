package bidir

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackSink immediately resolves every request it sends against a
// fixed response, simulating a client that always answers instantly.
type loopbackSink struct {
	registry *Registry
	response StandardResponse
}

func (s *loopbackSink) SendRequest(ctx context.Context, requestID uuid.UUID, data json.RawMessage, timeoutMS int64) error {
	go func() {
		_ = Respond(s.registry, requestID, s.response)
	}()
	return nil
}

func TestStandardChannelConfirm(t *testing.T) {
	registry := NewRegistry()
	sink := &loopbackSink{registry: registry, response: StandardResponse{Kind: ResponseConfirmed, Confirmed: true}}
	ch := &StandardChannel{Sink: sink, Registry: registry, DefaultTimeout: time.Second}

	ok, err := ch.Confirm(context.Background(), "proceed?", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStandardChannelTypeMismatch(t *testing.T) {
	registry := NewRegistry()
	sink := &loopbackSink{registry: registry, response: StandardResponse{Kind: ResponseText, Text: "oops"}}
	ch := &StandardChannel{Sink: sink, Registry: registry, DefaultTimeout: time.Second}

	_, err := ch.Confirm(context.Background(), "proceed?", 0)
	require.Error(t, err)
	var bidirErr *Error
	require.ErrorAs(t, err, &bidirErr)
	assert.Equal(t, KindTypeMismatch, bidirErr.Kind)
}

type neverRespondsSink struct{}

func (neverRespondsSink) SendRequest(ctx context.Context, requestID uuid.UUID, data json.RawMessage, timeoutMS int64) error {
	return nil
}

func TestStandardChannelTimeout(t *testing.T) {
	ch := &StandardChannel{Sink: neverRespondsSink{}, Registry: NewRegistry(), DefaultTimeout: 10 * time.Millisecond}

	_, err := ch.Prompt(context.Background(), "name?", 10*time.Millisecond)
	require.Error(t, err)
	var bidirErr *Error
	require.ErrorAs(t, err, &bidirErr)
	assert.Equal(t, KindTimeout, bidirErr.Kind)
	assert.Equal(t, int64(10), bidirErr.TimeoutMS)
}

type failingSink struct{ err error }

func (s failingSink) SendRequest(ctx context.Context, requestID uuid.UUID, data json.RawMessage, timeoutMS int64) error {
	return s.err
}

func TestStandardChannelTransportFailure(t *testing.T) {
	ch := &StandardChannel{Sink: failingSink{err: assert.AnError}, Registry: NewRegistry(), DefaultTimeout: time.Second}

	_, err := ch.Select(context.Background(), "pick one", []SelectOption{{Value: "a", Label: "a"}, {Value: "b", Label: "b"}}, 0)
	require.Error(t, err)
	var bidirErr *Error
	require.ErrorAs(t, err, &bidirErr)
	assert.Equal(t, KindTransport, bidirErr.Kind)
}

func TestRegistryUnknownRequest(t *testing.T) {
	r := NewRegistry()
	err := r.Resolve(uuid.New(), nil, nil)
	require.Error(t, err)
	var bidirErr *Error
	require.ErrorAs(t, err, &bidirErr)
	assert.Equal(t, KindUnknownRequest, bidirErr.Kind)
}

func TestAutoRespondChannel(t *testing.T) {
	ch := NewAutoRespondChannel()

	ok, err := ch.Confirm(context.Background(), "go?", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ch.WithResponder(RequestPrompt, func(StandardRequest) StandardResponse {
		return StandardResponse{Kind: ResponseText, Text: "bob"}
	})
	name, err := ch.Prompt(context.Background(), "name?", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}
