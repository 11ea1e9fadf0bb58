package router

import (
	"context"
	"encoding/json"
	"fmt"

	"plexus/internal/activation"
	"plexus/internal/bidir"
	"plexus/pkg/handle"
	"plexus/pkg/plexusctx"
)

// selfNamespace is the fixed name of the router's own introspection
// activation, always registered and never overridable by Register.
const selfNamespace = "plexus"

// selfActivation answers the hub's self-referential methods: hash,
// list_activations, schema, and (honorarily — Route intercepts it
// before Call ever runs) call. It is a plain activation.Activation so
// it flows through the same Route/subscription path as every other
// namespace, keeping introspection calls subject to the same envelope
// and provenance rules as everything else.
type selfActivation struct {
	p *Plexus
}

func (s *selfActivation) Descriptor() activation.Descriptor {
	return activation.Descriptor{
		Namespace: selfNamespace,
		Version:   "1.0.0",
		Methods: []activation.MethodSchema{
			{Name: "call", Description: "dispatch a namespace.method call, converting routing failures into an in-stream error"},
			{Name: "hash", Description: "current process-wide plexus hash"},
			{Name: "list_activations", Description: "descriptors of every registered activation"},
			{Name: "schema", Description: "aggregate schema and total method count across every registered activation"},
		},
	}
}

// aggregateSchema is plexus.schema's payload: the spec's "aggregate
// schema, total method count" across every registered activation.
type aggregateSchema struct {
	Activations []activation.Descriptor `json:"activations"`
	MethodCount int                     `json:"method_count"`
}

func (s *selfActivation) Call(ctx context.Context, method string, params json.RawMessage, emit activation.Emitter, ch bidir.Channel) error {
	switch method {
	case "hash":
		return emit.Emit(ctx, activation.Event{ContentType: "plexus.hash", Payload: map[string]string{"hash": plexusctx.Current()}})

	case "list_activations":
		return emit.Emit(ctx, activation.Event{ContentType: "plexus.activations", Payload: s.p.Descriptors()})

	case "schema":
		descriptors := s.p.Descriptors()
		total := 0
		for _, d := range descriptors {
			total += len(d.Methods)
		}
		return emit.Emit(ctx, activation.Event{
			ContentType: "plexus.schema",
			Payload:     aggregateSchema{Activations: descriptors, MethodCount: total},
		})

	case "call":
		// Plexus.Route intercepts "plexus.call" before it ever reaches
		// Call; this case exists only so Descriptor/MethodHelp describe
		// the method honestly.
		return fmt.Errorf("plexus.call: dispatched directly by the router, not reachable here")

	default:
		return fmt.Errorf("plexus: unknown method %q", method)
	}
}

func (s *selfActivation) MethodHelp(name string) *string {
	return activation.MethodHelpFromDescriptor(s.Descriptor(), name)
}

func (s *selfActivation) ResolveHandle(ctx context.Context, h handle.Handle, emit activation.Emitter) error {
	return activation.HandleNotSupported(selfNamespace)
}

func (s *selfActivation) FullSchema() activation.Descriptor {
	return s.Descriptor()
}
