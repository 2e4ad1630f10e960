package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/vdom"
)

// Default tracer name for bloom sessions.
const defaultTracerName = "bloom"

// State is the lifecycle state of a Session.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSuspended
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Reason tells why a session terminated.
type Reason int32

const (
	ReasonNone Reason = iota
	ReasonExhausted
	ReasonStopped
	ReasonFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonExhausted:
		return "exhausted"
	case ReasonStopped:
		return "stopped"
	case ReasonFailed:
		return "failed"
	default:
		return fmt.Sprintf("Reason(%d)", int32(r))
	}
}

// Session binds one producer to one mount point.
type Session struct {
	id       string
	label    string
	producer Producer
	mount    *dom.Node
	renderer Renderer
	gate     *Gate

	live    atomic.Bool
	ran     atomic.Bool // SessionStarted was recorded
	state   atomic.Int32
	renders atomic.Int64

	mu       sync.Mutex
	started  bool
	current  *vdom.VNode
	err      error
	reason   Reason
	rendered chan struct{} // closed and replaced after every apply

	ctx      context.Context
	cancel   context.CancelFunc
	stopLink func() bool
	termOnce sync.Once
	done     chan struct{}

	logger   *slog.Logger
	reporter ErrorReporter
	recorder Recorder
	tracer   trace.Tracer
	guard    func() bool
}

// New creates an idle session. Nothing is pulled until Start.
func New(producer Producer, mount *dom.Node, renderer Renderer, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:       uuid.NewString(),
		producer: producer,
		mount:    mount,
		renderer: renderer,
		gate:     NewGate(),
		rendered: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		logger:   slog.Default(),
		reporter: nopReporter{},
		recorder: NopRecorder{},
		tracer:   otel.Tracer(defaultTracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.id)
	if s.label != "" {
		s.logger = s.logger.With("label", s.label)
	}
	s.live.Store(true)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Label returns the session label.
func (s *Session) Label() string { return s.label }

// Mount returns the mount point.
func (s *Session) Mount() *dom.Node { return s.mount }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Renders returns the number of completed applies.
func (s *Session) Renders() int64 { return s.renders.Load() }

// Current returns the last applied tree.
func (s *Session) Current() *vdom.VNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Done is closed when the session terminates.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the failure that terminated the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Reason returns why the session terminated, or ReasonNone.
func (s *Session) Reason() Reason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Start pulls and applies the first tree on the calling goroutine, then
// hands over to the render loop. Cancelling ctx stops the session.
//
// A producer failure is not returned: it terminates the session and is
// available from Err.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.State() == StateTerminated {
		s.mu.Unlock()
		return ErrTerminated
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	s.stopLink = context.AfterFunc(ctx, s.Stop)
	s.state.Store(int32(StateRunning))
	s.recorder.SessionStarted(s.label)
	s.ran.Store(true)
	s.logger.Info("session started")

	if s.step() {
		go s.loop()
	}
	return nil
}

// Go starts the session on a new goroutine.
func (s *Session) Go(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Debug("session not started", "error", err)
		}
	}()
}

// Trigger requests a re-render. Triggers coalesce until the loop wakes.
// It has no effect on a terminated session.
func (s *Session) Trigger() {
	if !s.live.Load() {
		return
	}
	s.gate.Signal()
}

// Stop ends the session. An apply in progress completes first; a producer
// blocked in a pull sees its context cancelled. Stop is idempotent and safe
// from any goroutine.
func (s *Session) Stop() {
	if !s.live.Swap(false) {
		return
	}
	s.cancel()
	s.gate.Signal()

	s.mu.Lock()
	notStarted := !s.started
	s.started = true
	s.mu.Unlock()
	if notStarted {
		s.terminate(ReasonStopped, nil)
	}
}

// AwaitRenders blocks until at least n applies have completed. It returns
// ErrTerminated if the session ends first.
func (s *Session) AwaitRenders(ctx context.Context, n int64) error {
	for {
		s.mu.Lock()
		ch := s.rendered
		s.mu.Unlock()
		if s.renders.Load() >= n {
			return nil
		}
		select {
		case <-ch:
		case <-s.done:
			if s.renders.Load() >= n {
				return nil
			}
			return fmt.Errorf("%w (%s after %d renders)", ErrTerminated, s.Reason(), s.renders.Load())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) loop() {
	for {
		if err := s.gate.Wait(s.ctx); err != nil || !s.live.Load() {
			s.terminate(ReasonStopped, nil)
			return
		}
		s.state.Store(int32(StateRunning))
		if !s.step() {
			return
		}
	}
}

// step runs one pull and apply. It reports whether the session should
// suspend and wait for the next trigger.
func (s *Session) step() bool {
	if !s.live.Load() {
		s.terminate(ReasonStopped, nil)
		return false
	}

	st, err := s.pull()
	if !s.live.Load() {
		s.terminate(ReasonStopped, nil)
		return false
	}
	if err != nil {
		s.fail("pull", err)
		return false
	}

	if st.Tree != nil {
		if err := s.apply(st.Tree); err != nil {
			s.fail("apply", err)
			return false
		}
	}
	if st.Done {
		s.terminate(ReasonExhausted, nil)
		return false
	}

	s.state.Store(int32(StateSuspended))
	return true
}

func (s *Session) pull() (st Step, err error) {
	ctx, span := s.tracer.Start(s.ctx, "bloom.pull", trace.WithAttributes(
		attribute.String("bloom.session_id", s.id),
		attribute.String("bloom.label", s.label),
	))
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
		endSpan(span, err)
	}()
	return s.producer.Next(ctx)
}

func (s *Session) apply(tree *vdom.VNode) (err error) {
	if s.guard != nil && !s.guard() {
		s.logger.Debug("tree dropped by apply guard")
		return nil
	}

	_, span := s.tracer.Start(s.ctx, "bloom.apply", trace.WithAttributes(
		attribute.String("bloom.session_id", s.id),
		attribute.String("bloom.label", s.label),
	))
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			err = newPanicError(p)
		}
		endSpan(span, err)
	}()

	if err := s.renderer.Apply(s.mount, tree); err != nil {
		return err
	}
	elapsed := time.Since(start)

	s.mu.Lock()
	s.current = tree
	n := s.renders.Add(1)
	close(s.rendered)
	s.rendered = make(chan struct{})
	s.mu.Unlock()

	span.SetAttributes(attribute.Int64("bloom.render", n))
	s.recorder.RenderApplied(s.label, elapsed)
	s.logger.Debug("render applied", "render", n, "duration", elapsed)
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Session) fail(op string, err error) {
	perr := &ProducerError{SessionID: s.id, Label: s.label, Op: op, Err: err}

	attrs := []any{"op", op, "error", err}
	var pe *PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, "stack", string(pe.Stack))
	}
	s.logger.Error("producer failure", attrs...)

	s.recorder.SessionFailed(s.label, op)
	s.reporter.Report(perr)
	s.terminate(ReasonFailed, perr)
}

func (s *Session) terminate(reason Reason, err error) {
	s.termOnce.Do(func() {
		s.live.Store(false)
		s.mu.Lock()
		s.reason = reason
		s.err = err
		s.mu.Unlock()
		s.state.Store(int32(StateTerminated))
		s.cancel()
		if s.stopLink != nil {
			s.stopLink()
		}
		if c, ok := s.producer.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				s.logger.Warn("producer close failed", "error", cerr)
			}
		}
		if s.ran.Load() {
			s.recorder.SessionTerminated(s.label, reason)
		}
		s.logger.Info("session terminated", "reason", reason.String(), "renders", s.renders.Load())
		close(s.done)
	})
}
