package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"plexus/internal/activation"
	"plexus/internal/bidir"
	"plexus/pkg/envelope"
	"plexus/pkg/handle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	items []envelope.StreamItem
}

func (s *recordingSink) Emit(ctx context.Context, item envelope.StreamItem) error {
	s.items = append(s.items, item)
	return nil
}

type fakeActivation struct {
	desc   activation.Descriptor
	events []activation.Event
	err    error
	panics bool
}

func (f fakeActivation) Descriptor() activation.Descriptor { return f.desc }

func (f fakeActivation) Call(ctx context.Context, method string, params json.RawMessage, emit activation.Emitter, ch bidir.Channel) error {
	if f.panics {
		panic("boom")
	}
	for _, ev := range f.events {
		if err := emit.Emit(ctx, ev); err != nil {
			return err
		}
	}
	return f.err
}

func (f fakeActivation) MethodHelp(name string) *string {
	return activation.MethodHelpFromDescriptor(f.desc, name)
}

func (f fakeActivation) ResolveHandle(ctx context.Context, h handle.Handle, emit activation.Emitter) error {
	return activation.HandleNotSupported(f.desc.Namespace)
}

func (f fakeActivation) FullSchema() activation.Descriptor { return f.desc }

func TestRunEmitsDataThenDone(t *testing.T) {
	act := fakeActivation{events: []activation.Event{{ContentType: "health.event", Payload: map[string]string{"status": "ok"}}}}
	sink := &recordingSink{}
	meta := envelope.NewMetadata([]string{"health"}, "hash")

	err := Run(context.Background(), act, "check", nil, sink, meta, bidir.NewStandardChannel(bidir.NoopSink{Method: "check"}, time.Second))
	require.NoError(t, err)

	require.Len(t, sink.items, 2)
	assert.Equal(t, envelope.KindData, sink.items[0].Kind)
	assert.Equal(t, envelope.KindDone, sink.items[1].Kind)
	assert.True(t, sink.items[1].IsTerminal())
}

func TestRunEmitsErrorOnFailure(t *testing.T) {
	act := fakeActivation{err: errors.New("exec failed")}
	sink := &recordingSink{}
	meta := envelope.NewMetadata(nil, "hash")

	err := Run(context.Background(), act, "check", nil, sink, meta, bidir.NewStandardChannel(bidir.NoopSink{Method: "check"}, time.Second))
	require.NoError(t, err)

	require.Len(t, sink.items, 1)
	assert.Equal(t, envelope.KindError, sink.items[0].Kind)
	assert.True(t, sink.items[0].IsTerminal())
}

func TestDispatcherRunsConcurrently(t *testing.T) {
	d := NewDispatcher(2, 4)
	defer d.Stop()

	act := fakeActivation{events: []activation.Event{{ContentType: "t", Payload: 1}}}
	sink := &recordingSink{}
	meta := envelope.NewMetadata(nil, "hash")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := d.Dispatch(ctx, act, "check", nil, sink, meta, bidir.NewStandardChannel(bidir.NoopSink{Method: "check"}, time.Second))
	require.NoError(t, err)
	require.Len(t, sink.items, 2)
}

func TestDispatcherRecoversPanic(t *testing.T) {
	d := NewDispatcher(1, 1)
	defer d.Stop()

	act := fakeActivation{panics: true}
	sink := &recordingSink{}
	meta := envelope.NewMetadata(nil, "hash")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := d.Dispatch(ctx, act, "check", nil, sink, meta, bidir.NewStandardChannel(bidir.NoopSink{Method: "check"}, time.Second))
	require.NoError(t, err)
	require.Len(t, sink.items, 1)
	assert.Equal(t, envelope.KindError, sink.items[0].Kind)
}
