package bidir

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// pendingResult is what a Resolve call delivers to whatever goroutine is
// blocked waiting on a Register'd request.
type pendingResult struct {
	Data json.RawMessage
	Err  error
}

// Registry tracks in-flight bidirectional requests keyed by request ID.
// It is built on sync.Map rather than a mutex-guarded map, mirroring the
// teacher's lock-free SubscriptionMap in
// internal/mcp/message_queue_lockfree.go: registration and resolution
// happen from different goroutines (the activation issuing a request,
// the transport delivering a response) and neither side should block the
// other beyond the single map operation.
type Registry struct {
	pending sync.Map // uuid.UUID -> chan pendingResult
}

// NewRegistry builds an empty, ready-to-use Registry. Most callers want
// Global() instead; a fresh Registry is for a subscription-scoped
// "direct mode" channel that shouldn't be visible outside the stream
// that created it.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register allocates a one-shot delivery slot for id and returns the
// channel a waiter should receive from exactly once.
func (r *Registry) Register(id uuid.UUID) <-chan pendingResult {
	ch := make(chan pendingResult, 1)
	r.pending.Store(id, ch)
	return ch
}

// Cancel removes a pending slot without ever resolving it, used when a
// Request call's context is cancelled before a response arrives.
func (r *Registry) Cancel(id uuid.UUID) {
	r.pending.Delete(id)
}

// Resolve delivers a response to the waiter registered under id. It
// returns UnknownRequest if no such registration exists — either it was
// never made, already resolved, or already cancelled.
func (r *Registry) Resolve(id uuid.UUID, data json.RawMessage, err error) error {
	v, ok := r.pending.LoadAndDelete(id)
	if !ok {
		return UnknownRequest(id.String())
	}
	ch := v.(chan pendingResult)
	ch <- pendingResult{Data: data, Err: err}
	return nil
}

// global is the process-wide registry used by MCP's "_plexus_respond"
// pattern: a response arrives over an entirely separate JSON-RPC call
// than the one that issued the request, so the pending slot must be
// reachable from outside the originating subscription's local scope.
var global = NewRegistry()

// Global returns the process-wide Registry singleton.
func Global() *Registry {
	return global
}
