package pipeline

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/tbourn/go-graceful-response/internal/domain"
)

// State is a step of a pipeline run.
type State int

// Run states, in order. Rejected and Emitted are terminal.
const (
	StateReceived State = iota
	StateGated
	StateRejected
	StateAccepted
	StateProcessed
	StateProjected
	StateEmitted
)

var stateNames = [...]string{"received", "gated", "rejected", "accepted", "processed", "projected", "emitted"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Result is what a pipeline run hands back to the transport.
type Result struct {
	State    State
	Status   int
	Header   http.Header
	Envelope domain.Envelope
}

// Controller wires the pipeline stages together. Build one with New at
// startup; only its predicate chain can change afterwards.
type Controller struct {
	chain     *Chain
	reject    RejectStrategy
	before    BeforeFunc
	after     AfterFunc
	processor ExceptionProcessor
	projector HTTPProjector
}

// Option configures a Controller.
type Option func(*Controller) error

// WithPredicates appends predicates to the chain.
func WithPredicates(ps ...Predicate) Option {
	return func(c *Controller) error { return c.chain.Append(ps...) }
}

// WithReject replaces the default Propagate strategy.
func WithReject(r RejectStrategy) Option {
	return func(c *Controller) error {
		if r == nil {
			return errors.New("pipeline: nil reject strategy")
		}
		c.reject = r
		return nil
	}
}

// WithBefore registers the before hook. Nil means no hook.
func WithBefore(f BeforeFunc) Option {
	return func(c *Controller) error {
		if f == nil {
			f = NoBefore
		}
		c.before = f
		return nil
	}
}

// WithAfter registers the after hook. Nil means no hook.
func WithAfter(f AfterFunc) Option {
	return func(c *Controller) error {
		if f == nil {
			f = NoAfter
		}
		c.after = f
		return nil
	}
}

// New returns a Controller. processor and projector are required.
func New(processor ExceptionProcessor, projector HTTPProjector, opts ...Option) (*Controller, error) {
	if processor == nil {
		return nil, errors.New("pipeline: nil exception processor")
	}
	if projector == nil {
		return nil, errors.New("pipeline: nil http projector")
	}
	c := &Controller{
		chain:     &Chain{},
		reject:    Propagate{},
		before:    NoBefore,
		after:     NoAfter,
		processor: processor,
		projector: projector,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Predicates exposes the chain so more gates can be appended at runtime.
func (c *Controller) Predicates() *Chain { return c.chain }

// Handle runs err through the pipeline. A non-nil error return means the
// error was rejected and declined: the caller should apply its own default
// handling. Otherwise the Result is ready to be written.
func (c *Controller) Handle(ctx context.Context, err error) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// RECEIVED -> GATED
	if !c.chain.Evaluate(err) {
		rejectedTotal.Inc()
		res, rerr := c.reject.Reject(ctx, err)
		res.State = StateRejected
		return res, rerr
	}

	// ACCEPTED -> PROCESSED
	c.before.call(ctx, err)
	env := c.processor.Process(ctx, err)

	// PROCESSED -> PROJECTED
	c.after.call(ctx, env, err)
	status, header := c.projector.Project(env, err)

	interceptedTotal.WithLabelValues(env.Code, strconv.Itoa(status)).Inc()
	return Result{
		State:    StateEmitted,
		Status:   status,
		Header:   header,
		Envelope: env,
	}, nil
}
