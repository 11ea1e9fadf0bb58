// Package activation defines the contract every plugin implements to be
// routed by the Plexus hub, plus the schema types used to describe an
// activation's namespace, version, and method surface for introspection
// (the "plexus.schema" self-call) and for building the MCP tool catalog.
package activation

import (
	"context"
	"encoding/json"
	"fmt"

	"plexus/internal/bidir"
	"plexus/pkg/handle"
)

// MethodSchema describes one callable method on an activation: its name,
// a human-readable description, and its JSON Schema for parameters and
// results. Both schema fields are opaque JSON documents — the router
// never interprets them, it only forwards them to introspection callers
// and to the MCP tool catalog builder.
type MethodSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Params      json.RawMessage `json:"params_schema,omitempty"`
	Result      json.RawMessage `json:"result_schema,omitempty"`
	Bidir       bool            `json:"bidirectional"`
}

// Descriptor identifies one registered activation: its namespace (the
// first segment of every "namespace.method" call it owns), its version,
// and the methods it exposes.
type Descriptor struct {
	Namespace string         `json:"namespace"`
	Version   string         `json:"version"`
	Methods   []MethodSchema `json:"methods"`
}

// MethodNames returns the method names in the order they were declared,
// used by the router's dispatch table and by plexus-hash computation
// (which keeps this order, so changing the declaration order changes the
// hash).
func (d Descriptor) MethodNames() []string {
	names := make([]string, len(d.Methods))
	for i, m := range d.Methods {
		names[i] = m.Name
	}
	return names
}

// MethodHelpFromDescriptor looks up name in descriptor and returns its
// description, satisfying the Activation.MethodHelp contract for any
// activation willing to delegate to its own Descriptor rather than keep
// a separate help table. Returns nil if name isn't declared.
func MethodHelpFromDescriptor(d Descriptor, name string) *string {
	for _, m := range d.Methods {
		if m.Name == name {
			help := m.Description
			return &help
		}
	}
	return nil
}

// HandleNotSupportedError is returned by ResolveHandle implementations
// that own no externally-addressable data; it's the default per spec
// §4.1 ("resolve_handle ... optional; default fails with
// HandleNotSupported").
type HandleNotSupportedError struct {
	Namespace string
}

func (e *HandleNotSupportedError) Error() string {
	return fmt.Sprintf("%s: handle resolution not supported", e.Namespace)
}

// HandleNotSupported constructs the default ResolveHandle failure for the
// given namespace.
func HandleNotSupported(namespace string) error {
	return &HandleNotSupportedError{Namespace: namespace}
}

// Event is one item an activation emits on its lazy, activation-native
// event stream, before the subscription adapter wraps it in an envelope.
// ContentType names the shape of Payload the same way an HTTP media type
// names a body; Payload is whatever JSON the activation method produces.
type Event struct {
	ContentType string
	Payload     interface{}
}

// Emitter is the activation-native output channel a Call implementation
// writes to. Emit blocks only on the consumer's backpressure; it returns
// an error if the subscription has already been cancelled.
//
// EmitProgress and EmitError surface the stream's two non-terminal item
// kinds (spec §3: "Progress and recoverable Error are non-terminal; they
// may appear any number of times before a terminal item"). EmitError
// always emits a recoverable Error — a non-recoverable Error is terminal,
// and the subscription adapter already appends exactly one terminal item
// after Call returns, so letting Call emit a terminal Error mid-stream
// through the Emitter would risk a second one following it. An activation
// that must stop with a fatal error returns a Go error from Call instead.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
	EmitProgress(ctx context.Context, message string, percentage *float64) error
	EmitError(ctx context.Context, message string, code string) error
}

// Activation is the contract every plugin implements. Call receives the
// bare method name (already stripped of its namespace by the router),
// the raw JSON parameters, an Emitter for activation-native events, and
// a bidirectional channel usable only when the invoked method's
// MethodSchema.Bidir is true — Call is free to ignore it otherwise.
// Call returns once the activation-native stream is exhausted; the
// subscription adapter then always emits the one terminal envelope
// (Done, or a non-recoverable Error if Call returned an error).
//
// MethodHelp, ResolveHandle, and FullSchema round out the introspection
// surface spec §4.1 requires of every activation. MethodHelp returns nil
// for an undeclared method. ResolveHandle resolves a handle addressed to
// this activation (h.Plugin must already match); activations that own no
// externally-addressable data should return HandleNotSupported(namespace).
// FullSchema returns the activation's own aggregate schema, normally just
// its Descriptor.
type Activation interface {
	Descriptor() Descriptor
	Call(ctx context.Context, method string, params json.RawMessage, emit Emitter, ch bidir.Channel) error
	MethodHelp(name string) *string
	ResolveHandle(ctx context.Context, h handle.Handle, emit Emitter) error
	FullSchema() Descriptor
}
