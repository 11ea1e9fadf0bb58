// Package router implements the Plexus hub: a registry of namespaced
// activations and the Route dispatch algorithm that wraps an
// activation's native event stream in envelope.StreamItems carrying
// provenance and the process-wide plexus hash.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"plexus/internal/activation"
	"plexus/internal/bidir"
	"plexus/internal/subscription"
	"plexus/pkg/deadlock"
	"plexus/pkg/envelope"
	"plexus/pkg/handle"
	"plexus/pkg/plexusctx"

	"github.com/sirupsen/logrus"
)

func init() {
	if os.Getenv("PLEXUS_DEADLOCK_DEBUG") == "1" {
		deadlock.Enable()
	}
}

// RoutingError is returned for the closed set of dispatch failures that
// happen before an activation's Call is ever invoked.
type RoutingError struct {
	Kind   RoutingErrorKind
	Detail string
}

type RoutingErrorKind int

const (
	ErrActivationNotFound RoutingErrorKind = iota
	ErrMethodNotFound
	ErrInvalidParams
)

func (e *RoutingError) Error() string {
	switch e.Kind {
	case ErrActivationNotFound:
		return fmt.Sprintf("Activation not found: %s", e.Detail)
	case ErrMethodNotFound:
		return fmt.Sprintf("Method not found: %s", e.Detail)
	case ErrInvalidParams:
		return fmt.Sprintf("Invalid params: %s", e.Detail)
	default:
		return fmt.Sprintf("Routing error: %s", e.Detail)
	}
}

// Plexus is the hub: a namespace-keyed activation registry plus the
// subscription dispatcher used to run every routed call.
type Plexus struct {
	name       string
	version    string
	mu         sync.RWMutex
	registry   map[string]activation.Activation
	dispatcher *subscription.Dispatcher
}

// New builds an empty Plexus. Register activations with Register, then
// call Finalize once to fix the process-wide plexus hash before serving
// any traffic.
func New(name, version string, dispatcher *subscription.Dispatcher) *Plexus {
	p := &Plexus{
		name:       name,
		version:    version,
		registry:   make(map[string]activation.Activation),
		dispatcher: dispatcher,
	}
	p.registry[selfNamespace] = &selfActivation{p: p}
	return p
}

// Register adds an activation under its own descriptor's namespace. It
// is the caller's responsibility to register every activation before
// Finalize runs — registration after Finalize does not change the
// plexus hash already computed.
func (p *Plexus) Register(act activation.Activation) {
	d := act.Descriptor()
	if d.Namespace == selfNamespace {
		logrus.Warn("router: refusing to register an activation under the reserved 'plexus' namespace")
		return
	}
	deadlock.BeforeLock(&p.mu, "Lock")
	p.mu.Lock()
	defer func() {
		p.mu.Unlock()
		deadlock.AfterUnlock(&p.mu)
	}()
	p.registry[d.Namespace] = act
}

// Finalize computes and fixes the process-wide plexus hash from the
// currently registered activation set. It must be called exactly once,
// after all Register calls and before the first Route call.
func (p *Plexus) Finalize() {
	p.mu.RLock()
	summaries := make([]plexusctx.ActivationSummary, 0, len(p.registry))
	for _, act := range p.registry {
		d := act.Descriptor()
		summaries = append(summaries, plexusctx.ActivationSummary{
			Namespace: d.Namespace,
			Version:   d.Version,
			Methods:   d.MethodNames(),
		})
	}
	p.mu.RUnlock()
	plexusctx.Init(summaries)
}

// Descriptors returns every registered activation's descriptor, sorted
// by namespace, for introspection (plexus.list_activations) and for
// building the MCP tool catalog.
func (p *Plexus) Descriptors() []activation.Descriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]activation.Descriptor, 0, len(p.registry))
	for _, act := range p.registry {
		out = append(out, act.Descriptor())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Namespace < out[j].Namespace })
	return out
}

func (p *Plexus) lookup(namespace string) (activation.Activation, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	act, ok := p.registry[namespace]
	return act, ok
}

func methodSchema(d activation.Descriptor, method string) (activation.MethodSchema, bool) {
	for _, m := range d.Methods {
		if m.Name == method {
			return m, true
		}
	}
	return activation.MethodSchema{}, false
}

// Route parses "namespace.method", looks up the owning activation,
// builds the Channel appropriate for the method's bidirectionality, and
// dispatches the call through the subscription adapter. provenance is
// extended by exactly one hop (the namespace) for this call.
//
// "plexus.call" is special-cased here rather than inside selfActivation's
// Call: it needs to re-enter Route itself so the nested dispatch inherits
// correct terminal-envelope framing, and RoutingError from the nested
// lookup must be converted into an in-stream Error+Done pair instead of
// surfacing as a transport-level failure (spec §4.2, §8 scenarios 1-2).
func (p *Plexus) Route(ctx context.Context, namespace, method string, params []byte, sink subscription.Sink, provenance []string, bidirTimeout time.Duration, outbound bidir.OutboundSink) error {
	if namespace == selfNamespace && method == "call" {
		return p.routeCall(ctx, params, sink, provenance, bidirTimeout, outbound)
	}

	act, ok := p.lookup(namespace)
	if !ok {
		return &RoutingError{Kind: ErrActivationNotFound, Detail: namespace}
	}

	schema, ok := methodSchema(act.Descriptor(), method)
	if !ok {
		return &RoutingError{Kind: ErrMethodNotFound, Detail: namespace + "." + method}
	}

	meta := envelope.NewMetadata(provenance, plexusctx.Current()).WithHop(namespace)

	logrus.WithFields(logrus.Fields{"namespace": namespace, "method": method, "provenance": meta.Provenance}).Debug("router: dispatching call")

	var ch bidir.Channel
	if schema.Bidir {
		ch = bidir.NewGlobalChannel(outbound, bidirTimeout)
	} else {
		ch = bidir.NewStandardChannel(bidir.NoopSink{Method: method}, bidirTimeout)
	}

	return p.dispatcher.Dispatch(ctx, act, method, params, sink, meta, ch)
}

// callParams is the wire shape of plexus.call's own parameters: the
// dotted "namespace.method" target and the raw params to forward to it.
type callParams struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func (p *Plexus) routeCall(ctx context.Context, params []byte, sink subscription.Sink, provenance []string, bidirTimeout time.Duration, outbound bidir.OutboundSink) error {
	var req callParams
	if err := json.Unmarshal(params, &req); err != nil {
		return &RoutingError{Kind: ErrInvalidParams, Detail: err.Error()}
	}

	ns, m, ok := strings.Cut(req.Method, ".")
	if !ok {
		return &RoutingError{Kind: ErrInvalidParams, Detail: req.Method}
	}

	meta := envelope.NewMetadata(provenance, plexusctx.Current()).WithHop(selfNamespace)
	err := p.Route(ctx, ns, m, req.Params, sink, meta.Provenance, bidirTimeout, outbound)

	var routingErr *RoutingError
	if !errors.As(err, &routingErr) {
		return err
	}

	logrus.WithFields(logrus.Fields{"method": req.Method, "error": routingErr}).Debug("router: plexus.call target failed to route, converting to in-stream error")
	if emitErr := sink.Emit(ctx, envelope.Error(meta, routingErr.Error(), nil, false)); emitErr != nil {
		return emitErr
	}
	return sink.Emit(ctx, envelope.Done(meta))
}

// ResolveHandle dispatches h to the activation named by h.Plugin, per
// spec §4.6 ("router dispatches resolve_handle to the activation named by
// h.plugin; unknown plugin → ActivationNotFound"). Unlike plexus.call, an
// unknown plugin is an ordinary transport-level RoutingError: resolve_handle
// carries no special in-stream-conversion requirement.
func (p *Plexus) ResolveHandle(ctx context.Context, h handle.Handle, sink subscription.Sink, provenance []string) error {
	act, ok := p.lookup(h.Plugin)
	if !ok {
		return &RoutingError{Kind: ErrActivationNotFound, Detail: h.Plugin}
	}

	meta := envelope.NewMetadata(provenance, plexusctx.Current()).WithHop(h.Plugin)
	return p.dispatcher.DispatchResolveHandle(ctx, act, h, sink, meta)
}
