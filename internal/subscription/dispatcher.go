package subscription

import (
	"context"
	"errors"

	"plexus/internal/activation"
	"plexus/internal/bidir"
	"plexus/pkg/envelope"
	"plexus/pkg/handle"

	"github.com/sirupsen/logrus"
)

// task bundles one queued unit of work for the worker pool. run carries
// the actual call (Run or RunResolveHandle, already closed over its
// arguments); label, sink, and meta exist only so runTask can log and emit
// a panic-recovery Error without the worker needing to know which kind of
// call it's running.
type task struct {
	ctx   context.Context
	label string
	run   func(ctx context.Context) error
	sink  Sink
	meta  envelope.Metadata
	done  chan error
}

// Dispatcher bounds the number of concurrently running activation calls,
// mirroring the teacher's EventBus worker pool in pkg/events/events.go:
// a fixed set of goroutines pull tasks off a buffered channel and run
// them with panic recovery, so one activation's bug can't take down the
// process or another subscription in flight.
type Dispatcher struct {
	tasks chan task
	done  chan struct{}
}

// NewDispatcher starts workerCount goroutines backed by a queue of
// depth queueDepth. workerCount should come from
// internal/config.Config.SubscriptionWorkers.
func NewDispatcher(workerCount, queueDepth int) *Dispatcher {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueDepth <= 0 {
		queueDepth = 64
	}
	d := &Dispatcher{
		tasks: make(chan task, queueDepth),
		done:  make(chan struct{}),
	}
	for i := 0; i < workerCount; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	for {
		select {
		case t := <-d.tasks:
			d.runTask(t)
		case <-d.done:
			return
		}
	}
}

func (d *Dispatcher) runTask(t task) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{"label": t.label, "panic": r}).Error("subscription: activation call panicked")
			errItem := envelope.Error(t.meta, "activation panicked", nil, false)
			t.done <- t.sink.Emit(t.ctx, errItem)
		}
	}()
	t.done <- t.run(t.ctx)
}

// enqueue queues run and blocks until it completes or ctx is cancelled,
// whichever comes first. run itself keeps executing in its worker even if
// enqueue returns early on context cancellation.
func (d *Dispatcher) enqueue(ctx context.Context, label string, sink Sink, meta envelope.Metadata, run func(ctx context.Context) error) error {
	select {
	case <-d.done:
		return errors.New("subscription: dispatcher stopped")
	default:
	}

	t := task{ctx: ctx, label: label, run: run, sink: sink, meta: meta, done: make(chan error, 1)}
	select {
	case d.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch enqueues one activation call and blocks until it completes or
// ctx is cancelled, whichever comes first. The call itself keeps running
// in its worker even if Dispatch returns early on context cancellation —
// callers that need hard cancellation should make act.Call respect ctx.
func (d *Dispatcher) Dispatch(ctx context.Context, act activation.Activation, method string, params []byte, sink Sink, meta envelope.Metadata, ch bidir.Channel) error {
	return d.enqueue(ctx, method, sink, meta, func(ctx context.Context) error {
		return Run(ctx, act, method, params, sink, meta, ch)
	})
}

// DispatchResolveHandle enqueues one resolve_handle call under the same
// worker pool and panic-recovery guarantees as Dispatch.
func (d *Dispatcher) DispatchResolveHandle(ctx context.Context, act activation.Activation, h handle.Handle, sink Sink, meta envelope.Metadata) error {
	return d.enqueue(ctx, h.String(), sink, meta, func(ctx context.Context) error {
		return RunResolveHandle(ctx, act, h, sink, meta)
	})
}

// Stop halts all workers. In-flight tasks are allowed to finish; no new
// tasks are accepted after Stop returns.
func (d *Dispatcher) Stop() {
	close(d.done)
}
