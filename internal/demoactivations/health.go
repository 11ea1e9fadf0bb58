// Package demoactivations ships two small, tested activation.Activation
// implementations that exercise the router, subscription adapter, and
// bidirectional channel end to end. Neither performs real I/O — per the
// spec, activation business logic (shell execution, file deletion, ...)
// is an external concern; these exist only to give the hub's own
// machinery concrete, realistic shapes to dispatch.
package demoactivations

import (
	"context"
	"encoding/json"

	"plexus/internal/activation"
	"plexus/internal/bidir"
	"plexus/pkg/handle"
)

// Health is the canonical "basic call" fixture: one namespace, one
// method, one Data event, then termination.
type Health struct{}

func (Health) Descriptor() activation.Descriptor {
	return activation.Descriptor{
		Namespace: "health",
		Version:   "0.1.0",
		Methods: []activation.MethodSchema{
			{Name: "check", Description: "reports whether the hub is serving traffic"},
		},
	}
}

type healthStatus struct {
	Status string `json:"status"`
}

func (Health) Call(ctx context.Context, method string, params json.RawMessage, emit activation.Emitter, ch bidir.Channel) error {
	return emit.Emit(ctx, activation.Event{
		ContentType: "health.event",
		Payload:     healthStatus{Status: "ok"},
	})
}

func (h Health) MethodHelp(name string) *string {
	return activation.MethodHelpFromDescriptor(h.Descriptor(), name)
}

// ResolveHandle echoes back the handle it was asked to resolve along with
// a fixed status, demonstrating the dispatch path end to end: Health owns
// no real externally-addressable data, so there's nothing more specific
// to look up.
func (Health) ResolveHandle(ctx context.Context, h handle.Handle, emit activation.Emitter) error {
	return emit.Emit(ctx, activation.Event{
		ContentType: "health.handle",
		Payload:     map[string]string{"handle": h.String(), "status": "ok"},
	})
}

func (h Health) FullSchema() activation.Descriptor {
	return h.Descriptor()
}
