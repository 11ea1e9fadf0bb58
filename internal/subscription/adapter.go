// Package subscription drives one activation call's lazy, activation-
// native event stream into envelope.StreamItem values on an outbound
// sink, and guarantees the terminal invariant: exactly one Done or
// non-recoverable Error item, always last.
package subscription

import (
	"context"
	"fmt"

	"plexus/internal/activation"
	"plexus/internal/bidir"
	"plexus/pkg/envelope"
	"plexus/pkg/handle"

	"github.com/sirupsen/logrus"
)

// Sink receives the wrapped envelopes for one subscription, in order.
type Sink interface {
	Emit(ctx context.Context, item envelope.StreamItem) error
}

// emitter adapts activation.Emitter onto a Sink by wrapping every
// activation-native event as a Data envelope carrying the subscription's
// metadata (provenance and plexus hash fixed for the lifetime of the
// call).
type emitter struct {
	sink Sink
	meta envelope.Metadata
}

func (e *emitter) Emit(ctx context.Context, ev activation.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	item, err := envelope.Data(e.meta, ev.ContentType, ev.Payload)
	if err != nil {
		return fmt.Errorf("subscription: wrap event: %w", err)
	}
	return e.sink.Emit(ctx, item)
}

// EmitProgress wraps a non-terminal Progress item. Percentage is optional.
func (e *emitter) EmitProgress(ctx context.Context, message string, percentage *float64) error {
	return e.sink.Emit(ctx, envelope.Progress(e.meta, message, percentage))
}

// EmitError wraps a non-terminal, recoverable Error item. A non-recoverable
// Error can only ever come from Call returning a Go error, so this never
// takes a recoverable flag — it's always true.
func (e *emitter) EmitError(ctx context.Context, message string, code string) error {
	return e.sink.Emit(ctx, envelope.Error(e.meta, message, &code, true))
}

// Run invokes act.Call and drives its output to sink, then emits exactly
// one terminal envelope: Done if Call returned nil, a non-recoverable
// Error otherwise. The activation itself never controls the terminal
// envelope directly — its Emitter only carries Data, Progress, and
// recoverable Error items, none of them terminal — so the invariant holds
// regardless of what the activation does.
func Run(ctx context.Context, act activation.Activation, method string, params []byte, sink Sink, meta envelope.Metadata, ch bidir.Channel) error {
	em := &emitter{sink: sink, meta: meta}

	logrus.WithFields(logrus.Fields{"method": method, "provenance": meta.Provenance}).Debug("subscription: running activation call")

	callErr := act.Call(ctx, method, params, em, ch)
	if callErr != nil {
		logrus.WithFields(logrus.Fields{"method": method, "error": callErr}).Warn("subscription: activation call failed, emitting terminal error")
		errItem := envelope.Error(meta, callErr.Error(), nil, false)
		return sink.Emit(ctx, errItem)
	}

	return sink.Emit(ctx, envelope.Done(meta))
}

// RunResolveHandle invokes act.ResolveHandle and drives its output to sink
// under the same terminal-invariant guarantee as Run. h.Plugin is expected
// to already name act's own namespace; the router is responsible for that
// dispatch decision before calling in here.
func RunResolveHandle(ctx context.Context, act activation.Activation, h handle.Handle, sink Sink, meta envelope.Metadata) error {
	em := &emitter{sink: sink, meta: meta}

	logrus.WithFields(logrus.Fields{"handle": h.String(), "provenance": meta.Provenance}).Debug("subscription: resolving handle")

	callErr := act.ResolveHandle(ctx, h, em)
	if callErr != nil {
		logrus.WithFields(logrus.Fields{"handle": h.String(), "error": callErr}).Warn("subscription: resolve_handle failed, emitting terminal error")
		errItem := envelope.Error(meta, callErr.Error(), nil, false)
		return sink.Emit(ctx, errItem)
	}

	return sink.Emit(ctx, envelope.Done(meta))
}
