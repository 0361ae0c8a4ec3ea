// internal/game/engine.go
//
// Resolution engine for a single Seal Hunt session.
// Responsibilities:
//   - Reveal cells and resolve the outcome (continue / won / lost).
//   - Track state transitions: playing → won/lost (one-way).
//   - Count down the time limit; reaching zero forces a loss.
//
// Notes:
//   - Redundant reveals (cell already revealed, game already over) are no-ops.
//   - A session is safe for concurrent use: the countdown goroutine and
//     request handlers share it.

package game

import (
	"math/rand"
	"sync"
	"time"
)

// Session holds the state of one game.
type Session struct {
	mu sync.Mutex

	id         string
	level      Level
	cfg        LevelConfig
	board      *Board
	remaining  int // seconds left
	sealsFound int
	totalSeals int
	state      State
	startedAt  time.Time
	finishedAt time.Time

	countdown *Countdown
	onFinish  func(*Session)
}

// NewSession generates a board for cfg and returns a playing session.
// The countdown is not running until Start is called.
func NewSession(id string, level Level, cfg LevelConfig, rng *rand.Rand) (*Session, error) {
	b, err := Generate(cfg, rng)
	if err != nil {
		return nil, err
	}
	return &Session{
		id:         id,
		level:      level,
		cfg:        cfg,
		board:      b,
		remaining:  cfg.TimeLimit,
		totalSeals: b.Count(func(c Cell) bool { return c.HasSeal }),
		state:      StatePlaying,
		startedAt:  time.Now().UTC(),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Level returns the session's difficulty tier.
func (s *Session) Level() Level { return s.level }

// OnFinish registers fn to run once when the session reaches a terminal state.
// fn runs without the session lock held.
func (s *Session) OnFinish(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFinish = fn
}

// Reveal uncovers (row, col) and resolves the outcome.
//
// Revealing a failure loses the game and discloses the whole board.
// Revealing a seal counts it; finding the last one wins.
// Calls on a revealed cell or a finished game change nothing and report the
// current outcome.
func (s *Session) Reveal(row, col int) (Outcome, error) {
	s.mu.Lock()
	if !s.board.In(row, col) {
		s.mu.Unlock()
		return s.outcome(), ErrOutOfBounds
	}
	c := &s.board.Cells[row][col]
	if s.state != StatePlaying || c.IsRevealed {
		out := s.outcome()
		s.mu.Unlock()
		return out, nil
	}

	c.IsRevealed = true
	switch {
	case c.HasFailure:
		s.board.RevealAll()
		s.finish(StateLost)
	case c.HasSeal:
		s.sealsFound++
		if s.sealsFound == s.totalSeals {
			s.finish(StateWon)
		}
	}
	out := s.outcome()
	done := s.takeFinish()
	s.mu.Unlock()

	if done != nil {
		done(s)
	}
	return out, nil
}

// Tick consumes one second of the time limit. It reports false once the
// session is over, which stops the countdown.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.finish(StateLost)
	}
	running := s.state == StatePlaying
	done := s.takeFinish()
	s.mu.Unlock()

	if done != nil {
		done(s)
	}
	return running
}

// Expire forces a playing session to lost. It reports whether the state changed.
func (s *Session) Expire() bool {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return false
	}
	s.remaining = 0
	s.finish(StateLost)
	done := s.takeFinish()
	s.mu.Unlock()

	if done != nil {
		done(s)
	}
	return true
}

// Start runs the countdown, one Tick per interval, until the session ends or
// Stop is called. Calling Start twice has no effect.
func (s *Session) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown != nil || s.state != StatePlaying {
		return
	}
	s.countdown = StartCountdown(interval, s.Tick)
}

// Stop cancels the countdown. The session keeps its current state.
func (s *Session) Stop() {
	s.mu.Lock()
	cd := s.countdown
	s.mu.Unlock()
	if cd != nil {
		cd.Stop()
	}
}

// Score is the session's score: non-zero only once won.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeScore(s.state, s.remaining, s.cfg)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// finish moves to a terminal state and stops the countdown. Caller holds mu.
func (s *Session) finish(st State) {
	s.state = st
	s.finishedAt = time.Now().UTC()
	if s.countdown != nil {
		s.countdown.Stop()
	}
}

// takeFinish hands out the finish hook once the state is terminal. Caller holds mu.
func (s *Session) takeFinish() func(*Session) {
	if !s.state.Terminal() || s.onFinish == nil {
		return nil
	}
	fn := s.onFinish
	s.onFinish = nil
	return fn
}

func (s *Session) outcome() Outcome {
	switch s.state {
	case StateWon:
		return OutcomeWon
	case StateLost:
		return OutcomeLost
	}
	return OutcomeContinue
}
