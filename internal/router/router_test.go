package router

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"plexus/internal/activation"
	"plexus/internal/bidir"
	"plexus/internal/subscription"
	"plexus/pkg/envelope"
	"plexus/pkg/handle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type healthActivation struct{}

func (healthActivation) Descriptor() activation.Descriptor {
	return activation.Descriptor{
		Namespace: "health",
		Version:   "0.1.0",
		Methods:   []activation.MethodSchema{{Name: "check", Description: "health check"}},
	}
}

func (healthActivation) Call(ctx context.Context, method string, params json.RawMessage, emit activation.Emitter, ch bidir.Channel) error {
	return emit.Emit(ctx, activation.Event{ContentType: "health.event", Payload: map[string]string{"status": "ok"}})
}

func (h healthActivation) MethodHelp(name string) *string {
	return activation.MethodHelpFromDescriptor(h.Descriptor(), name)
}

func (healthActivation) ResolveHandle(ctx context.Context, h handle.Handle, emit activation.Emitter) error {
	return emit.Emit(ctx, activation.Event{ContentType: "health.handle", Payload: map[string]string{"handle": h.String()}})
}

func (h healthActivation) FullSchema() activation.Descriptor { return h.Descriptor() }

type recordingSink struct{ items []envelope.StreamItem }

func (s *recordingSink) Emit(ctx context.Context, item envelope.StreamItem) error {
	s.items = append(s.items, item)
	return nil
}

type discardOutbound struct{}

func (discardOutbound) SendRequest(ctx context.Context, requestID uuid.UUID, data json.RawMessage, timeoutMS int64) error {
	return nil
}

func newTestPlexus() *Plexus {
	d := subscription.NewDispatcher(2, 8)
	p := New("plexus", "0.1.0", d)
	p.Register(healthActivation{})
	p.Finalize()
	return p
}

func TestRouteDispatchesToActivation(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := p.Route(ctx, "health", "check", nil, sink, nil, time.Second, discardOutbound{})
	require.NoError(t, err)

	require.Len(t, sink.items, 2)
	assert.Equal(t, envelope.KindData, sink.items[0].Kind)
	assert.Equal(t, envelope.KindDone, sink.items[1].Kind)
	assert.Equal(t, []string{"health"}, sink.items[0].Metadata.Provenance)
	assert.NotEmpty(t, sink.items[0].Metadata.PlexusHash)
}

func TestRouteActivationNotFound(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}
	ctx := context.Background()

	err := p.Route(ctx, "nope", "check", nil, sink, nil, time.Second, discardOutbound{})
	require.Error(t, err)
	var routingErr *RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Equal(t, ErrActivationNotFound, routingErr.Kind)
}

func TestRouteMethodNotFound(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}
	ctx := context.Background()

	err := p.Route(ctx, "health", "nope", nil, sink, nil, time.Second, discardOutbound{})
	require.Error(t, err)
	var routingErr *RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Equal(t, ErrMethodNotFound, routingErr.Kind)
}

func TestPlexusHashSelfMethod(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}
	ctx := context.Background()

	err := p.Route(ctx, "plexus", "hash", nil, sink, nil, time.Second, discardOutbound{})
	require.NoError(t, err)
	require.Len(t, sink.items, 2)
	assert.Equal(t, envelope.KindData, sink.items[0].Kind)
}

func TestPlexusCallDispatchesToTarget(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}
	ctx := context.Background()

	params, err := json.Marshal(map[string]interface{}{"method": "health.check"})
	require.NoError(t, err)

	err = p.Route(ctx, "plexus", "call", params, sink, nil, time.Second, discardOutbound{})
	require.NoError(t, err)

	require.Len(t, sink.items, 2)
	assert.Equal(t, envelope.KindData, sink.items[0].Kind)
	assert.Equal(t, envelope.KindDone, sink.items[1].Kind)
	assert.Equal(t, []string{"plexus", "health"}, sink.items[0].Metadata.Provenance)
}

func TestPlexusCallConvertsRoutingErrorToInStreamError(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}
	ctx := context.Background()

	params, err := json.Marshal(map[string]interface{}{"method": "missing.x"})
	require.NoError(t, err)

	err = p.Route(ctx, "plexus", "call", params, sink, nil, time.Second, discardOutbound{})
	require.NoError(t, err)

	require.Len(t, sink.items, 2)
	assert.Equal(t, envelope.KindError, sink.items[0].Kind)
	assert.Equal(t, "Activation not found: missing", sink.items[0].ErrorMessage)
	assert.False(t, sink.items[0].Recoverable)
	assert.Equal(t, envelope.KindDone, sink.items[1].Kind)
	assert.Equal(t, []string{"plexus"}, sink.items[0].Metadata.Provenance)
}

func TestPlexusAggregateSchema(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}
	ctx := context.Background()

	err := p.Route(ctx, "plexus", "schema", nil, sink, nil, time.Second, discardOutbound{})
	require.NoError(t, err)
	require.Len(t, sink.items, 2)
	assert.Equal(t, envelope.KindData, sink.items[0].Kind)
}

func TestResolveHandleDispatchesToOwningActivation(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}
	ctx := context.Background()

	h := handle.Handle{Plugin: "health", Version: "1", Method: "check"}
	err := p.ResolveHandle(ctx, h, sink, nil)
	require.NoError(t, err)
	require.Len(t, sink.items, 2)
	assert.Equal(t, envelope.KindData, sink.items[0].Kind)
	assert.Equal(t, envelope.KindDone, sink.items[1].Kind)
}

func TestResolveHandleUnknownPlugin(t *testing.T) {
	p := newTestPlexus()
	sink := &recordingSink{}
	ctx := context.Background()

	h := handle.Handle{Plugin: "nope", Version: "1", Method: "check"}
	err := p.ResolveHandle(ctx, h, sink, nil)
	require.Error(t, err)
	var routingErr *RoutingError
	require.ErrorAs(t, err, &routingErr)
	assert.Equal(t, ErrActivationNotFound, routingErr.Kind)
}

func TestRegisterRefusesReservedNamespace(t *testing.T) {
	p := newTestPlexus()
	p.Register(healthActivation{}) // namespace "health", fine
	before := len(p.Descriptors())

	reserved := &selfActivation{p: p}
	p.Register(reserved) // Descriptor().Namespace == "plexus", must be refused
	assert.Equal(t, before, len(p.Descriptors()))
}
