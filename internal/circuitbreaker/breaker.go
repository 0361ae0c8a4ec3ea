// internal/circuitbreaker/breaker.go
//
// Circuit breaker guarding calls to the external game-score platform.
// After MaxFailures consecutive counted failures the breaker opens and
// rejects calls until ResetTimeout has elapsed; the next call then runs as a
// half-open probe that either closes or re-opens the circuit.
//
// Not every error is a platform outage: an IsFailure predicate lets callers
// exclude client errors (bad user id, invalid game name) from the count.

package circuitbreaker

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// State represents the circuit breaker state.
type State int

const (
	Closed   State = iota // requests pass through
	Open                  // requests are rejected immediately
	HalfOpen              // one probe request allowed through
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Options tunes a Breaker. Zero values fall back to defaults.
type Options struct {
	MaxFailures  int
	ResetTimeout time.Duration
	// IsFailure decides whether err counts toward opening the circuit.
	// Nil counts every non-nil error.
	IsFailure func(err error) bool
	// OnStateChange observes transitions (metrics, tests).
	OnStateChange func(name string, from, to State)
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	name string
	opts Options

	mu              sync.Mutex
	state           State
	failures        int
	lastFailureTime time.Time
	probing         bool
}

// New creates a named Breaker.
func New(name string, opts Options) *Breaker {
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 5
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = 30 * time.Second
	}
	return &Breaker{name: name, opts: opts, state: Closed}
}

// Execute runs fn through the circuit breaker. If the circuit is open, or a
// half-open probe is already in flight, ErrCircuitOpen is returned without
// calling fn.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case Open:
		if time.Since(b.lastFailureTime) <= b.opts.ResetTimeout {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.setState(HalfOpen)
		b.probing = true
	case HalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probing = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false

	if err != nil && b.counts(err) {
		b.failures++
		b.lastFailureTime = time.Now()
		if b.state == HalfOpen || b.failures >= b.opts.MaxFailures {
			b.setState(Open)
		}
		return err
	}

	b.failures = 0
	b.setState(Closed)
	return err
}

// GetState returns the current state of the breaker.
func (b *Breaker) GetState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name identifies the guarded dependency in logs and metrics.
func (b *Breaker) Name() string { return b.name }

func (b *Breaker) counts(err error) bool {
	if b.opts.IsFailure == nil {
		return true
	}
	return b.opts.IsFailure(err)
}

// setState records a transition. Caller holds mu.
func (b *Breaker) setState(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	log.Warn().Str("breaker", b.name).Str("from", from.String()).Str("to", to.String()).Msg("circuit state change")
	if b.opts.OnStateChange != nil {
		b.opts.OnStateChange(b.name, from, to)
	}
}
