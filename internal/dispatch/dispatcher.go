package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/datachannel/internal/domain/message"
	"github.com/zjrosen/datachannel/internal/domain/state"
	"github.com/zjrosen/datachannel/internal/log"
	"github.com/zjrosen/datachannel/internal/pubsub"
	"github.com/zjrosen/datachannel/internal/queue"
	"github.com/zjrosen/datachannel/internal/registry"
	"github.com/zjrosen/datachannel/internal/tracing"
)

// DataHandler receives payloads on the Executor's context.
type DataHandler[T any] func(payload T)

// Option configures a Dispatcher.
type Option func(*options)

type options struct {
	tracer   trace.Tracer
	newRunID func() string
}

// WithTracer records one span per admitted run.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithRunIDs replaces the run ID generator (uuid by default).
func WithRunIDs(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newRunID = fn
		}
	}
}

// Dispatcher coordinates job streams for one state owner. Instances share
// nothing with each other.
type Dispatcher[T any] struct {
	exec     Executor
	onData   DataHandler[T]
	registry *registry.Registry
	queue    *queue.MessageQueue
	tracer   trace.Tracer
	newRunID func() string

	// gate orders queue and registry effects of deliveries against
	// Launch and CancelAll, whatever goroutine the Executor runs on.
	gate sync.Mutex

	mu    sync.Mutex
	scope *scope
	runs  map[string]*run // by event name
	wg    sync.WaitGroup
}

// scope is the background context shared by every stream launched since the
// last CancelAll.
type scope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *scope) live() bool {
	return s.ctx.Err() == nil
}

// run is one admitted launch.
type run struct {
	id    string
	event state.Event
	span  trace.Span
	seq   int // envelopes delivered; touched only on the Executor
}

// New creates a dispatcher that delivers on exec and hands payloads to
// onData. A nil exec falls back to a SerialExecutor, which delivers on the
// consumer goroutines; a nil onData discards payloads.
func New[T any](exec Executor, onData DataHandler[T], opts ...Option) *Dispatcher[T] {
	o := options{
		tracer:   noop.NewTracerProvider().Tracer("noop"),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if exec == nil {
		exec = NewSerialExecutor()
	}

	return &Dispatcher[T]{
		exec:     exec,
		onData:   onData,
		registry: registry.New(),
		queue:    queue.New(),
		tracer:   o.tracer,
		newRunID: o.newRunID,
		runs:     make(map[string]*run),
	}
}

// CanExecute reports whether Launch would admit event right now: nothing of
// the same name is active and no message is pending.
func (d *Dispatcher[T]) CanExecute(event state.Event) bool {
	if event == nil {
		return false
	}
	return !d.registry.IsActive(event) && d.queue.IsEmpty()
}

// Launch starts stream for event if CanExecute allows it, and otherwise does
// nothing. A nil stream is treated like a rejected launch.
func (d *Dispatcher[T]) Launch(event state.Event, stream state.Stream[T]) {
	if stream == nil {
		return
	}

	d.gate.Lock()
	if !d.CanExecute(event) {
		d.gate.Unlock()
		return
	}
	d.registry.Add(event)
	sc := d.currentScope()
	r := d.startRun(event)
	d.gate.Unlock()

	ctx := contextWithRunID(trace.ContextWithSpan(sc.ctx, r.span), r.id)

	log.Debug(log.CatDispatch, "launch admitted",
		"event", event.Name(),
		"run", r.id,
		"progress", event.WantsProgress(),
		"message", event.WantsMessage())

	d.wg.Add(1)
	go d.consume(ctx, sc, r, stream)
}

// consume reads stream until it ends or the scope is cancelled, posting each
// envelope to the Executor in production order.
func (d *Dispatcher[T]) consume(ctx context.Context, sc *scope, r *run, stream state.Stream[T]) {
	defer d.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			log.Error(log.CatDispatch, "stream panicked",
				"event", r.event.Name(),
				"run", r.id,
				"panic", fmt.Sprint(p),
				"stack", string(debug.Stack()))
		}
	}()

	ch := stream(ctx)
	if ch == nil {
		log.Warn(log.CatDispatch, "stream returned no channel", "event", r.event.Name(), "run", r.id)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-ch:
			if !ok {
				log.Debug(log.CatDispatch, "stream ended", "event", r.event.Name(), "run", r.id)
				return
			}
			d.exec.Post(func() { d.deliver(sc, r, env) })
		}
	}
}

// deliver applies one envelope. Runs on the Executor. Envelopes whose scope
// was cancelled before they got here are dropped, and so are the queue and
// registry effects of an envelope whose scope is cancelled while onData or
// the event's own methods run.
func (d *Dispatcher[T]) deliver(sc *scope, r *run, env state.Envelope[T]) {
	if !sc.live() {
		return
	}

	r.seq++
	r.span.AddEvent(tracing.EventEnvelopeDelivered, trace.WithAttributes(
		attribute.Int(tracing.AttrEnvelopeSeq, r.seq),
	))

	if env.Payload != nil && d.onData != nil {
		d.onData(*env.Payload)
	}

	// Event methods are caller code; resolve them before taking the gate.
	wantsMessage := env.Message != nil && r.event.WantsMessage()
	var errorInfo string
	if env.Completed != nil {
		errorInfo = env.Completed.ErrorInfo()
	}

	d.gate.Lock()
	defer d.gate.Unlock()

	// CancelAll may have run since the check above.
	if !sc.live() {
		return
	}

	if env.Message != nil {
		d.handleMessage(r, *env.Message, wantsMessage)
	}

	if env.Completed != nil {
		d.registry.Remove(env.Completed)
		d.finishRun(env.Completed, errorInfo, env.Message)
	}
}

func (d *Dispatcher[T]) handleMessage(r *run, msg message.Message, wanted bool) {
	attrs := trace.WithAttributes(
		attribute.String(tracing.AttrMessageKind, msg.Kind.String()),
		attribute.String(tracing.AttrMessageHint, msg.Hint.String()),
	)

	if !wanted {
		r.span.AddEvent(tracing.EventMessageSuppressed, attrs)
		return
	}
	if d.queue.Push(msg) {
		r.span.AddEvent(tracing.EventMessageQueued, attrs)
		return
	}
	r.span.AddEvent(tracing.EventMessageDuplicate, attrs)
}

// Dismiss removes the message at index from the queue.
func (d *Dispatcher[T]) Dismiss(index int) {
	d.queue.RemoveAt(index)
}

// DismissHead removes the active message.
func (d *Dispatcher[T]) DismissHead() {
	d.Dismiss(0)
}

// DismissAll clears the queue.
func (d *Dispatcher[T]) DismissAll() {
	d.queue.Clear()
}

// ActiveEventNames is a live view of the in-flight event names.
func (d *Dispatcher[T]) ActiveEventNames() registry.Names {
	return d.registry.ActiveNames()
}

// Messages returns a copy of the pending messages, head first.
func (d *Dispatcher[T]) Messages() []message.Message {
	return d.queue.Messages()
}

// Progress is true while some active event wants a busy indicator.
func (d *Dispatcher[T]) Progress() *pubsub.Value[bool] {
	return d.registry.Progress()
}

// Head is the message currently shown, or nil.
func (d *Dispatcher[T]) Head() *pubsub.Value[*message.Message] {
	return d.queue.Head()
}

// CancelAll aborts every in-flight stream, discards their undelivered
// envelopes and clears the active set. The next Launch is admitted as long
// as no message is pending.
func (d *Dispatcher[T]) CancelAll() {
	d.gate.Lock()
	d.mu.Lock()
	if d.scope != nil {
		d.scope.cancel()
		d.scope = nil
	}
	runs := d.runs
	d.runs = make(map[string]*run)
	d.mu.Unlock()
	d.registry.Clear()
	d.gate.Unlock()

	for _, r := range runs {
		r.span.AddEvent(tracing.EventCancelled)
		r.span.SetStatus(codes.Error, "cancelled")
		r.span.End()
	}

	log.Info(log.CatDispatch, "all jobs cancelled", "runs", len(runs))
}

// Shutdown cancels everything and waits for stream consumers to return, or
// for ctx to end.
func (d *Dispatcher[T]) Shutdown(ctx context.Context) error {
	d.CancelAll()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for stream consumers: %w", ctx.Err())
	}
}

// currentScope returns the live background scope, creating one if the last
// was cancelled or none exists yet.
func (d *Dispatcher[T]) currentScope() *scope {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.scope == nil {
		ctx, cancel := context.WithCancel(context.Background())
		d.scope = &scope{ctx: ctx, cancel: cancel}
	}
	return d.scope
}

func (d *Dispatcher[T]) startRun(event state.Event) *run {
	id := d.newRunID()
	_, span := d.tracer.Start(context.Background(), tracing.SpanRun,
		trace.WithAttributes(
			attribute.String(tracing.AttrEventName, event.Name()),
			attribute.String(tracing.AttrRunID, id),
			attribute.Bool(tracing.AttrWantsProgress, event.WantsProgress()),
			attribute.Bool(tracing.AttrWantsMessage, event.WantsMessage()),
		),
	)

	r := &run{id: id, event: event, span: span}

	d.mu.Lock()
	d.runs[event.Name()] = r
	d.mu.Unlock()

	return r
}

// finishRun ends the span of the run named by completed. errorInfo is
// completed's ErrorInfo and last the message carried by the completing
// envelope, if any.
func (d *Dispatcher[T]) finishRun(completed state.Event, errorInfo string, last *message.Message) {
	d.mu.Lock()
	r, ok := d.runs[completed.Name()]
	if ok {
		delete(d.runs, completed.Name())
	}
	d.mu.Unlock()

	if !ok {
		return
	}

	if last != nil && last.Kind == message.KindError {
		desc := errorInfo
		if desc == "" && last.HasText {
			desc = last.Text
		}
		r.span.SetStatus(codes.Error, desc)
	} else {
		r.span.SetStatus(codes.Ok, "")
	}
	r.span.End()

	log.Debug(log.CatDispatch, "run completed", "event", completed.Name(), "run", r.id, "envelopes", r.seq)
}
