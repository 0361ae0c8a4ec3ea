package game

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

// fixedBoard builds a 3x3 board:
//
//	S . F
//	. S .
//	. . .
func fixedBoard() *Board {
	b := newBoard(3, 3)
	b.Cells[0][0].HasSeal = true
	b.Cells[1][1].HasSeal = true
	b.Cells[0][2].HasFailure = true
	b.countAdjacent()
	return b
}

func sessionWith(b *Board) *Session {
	cfg := LevelConfig{Rows: b.Rows, Cols: b.Cols, SealDensity: 0.2, FailureDensity: 0.1, TimeLimit: 120, Multiplier: 1}
	return &Session{
		id:         "test",
		level:      LevelEasy,
		cfg:        cfg,
		board:      b,
		remaining:  cfg.TimeLimit,
		totalSeals: b.Count(func(c Cell) bool { return c.HasSeal }),
		state:      StatePlaying,
	}
}

func TestRevealFailureLosesAndDisclosesBoard(t *testing.T) {
	s := sessionWith(fixedBoard())
	out, err := s.Reveal(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if out != OutcomeLost || s.State() != StateLost {
		t.Fatalf("got outcome %s state %s, want lost", out, s.State())
	}
	if hidden := s.board.Count(func(c Cell) bool { return !c.IsRevealed }); hidden != 0 {
		t.Fatalf("%d cells still hidden after loss", hidden)
	}
	if s.Score() != 0 {
		t.Errorf("lost game scored %d", s.Score())
	}
}

func TestRevealAllSealsWins(t *testing.T) {
	s := sessionWith(fixedBoard())
	if out, _ := s.Reveal(2, 2); out != OutcomeContinue {
		t.Fatalf("empty cell: got %s", out)
	}
	if out, _ := s.Reveal(0, 0); out != OutcomeContinue {
		t.Fatalf("first seal: got %s", out)
	}
	if s.State() != StatePlaying {
		t.Fatalf("state after first seal: %s", s.State())
	}
	out, _ := s.Reveal(1, 1)
	if out != OutcomeWon || s.State() != StateWon {
		t.Fatalf("last seal: got %s/%s", out, s.State())
	}
	if s.sealsFound != s.totalSeals {
		t.Errorf("found %d of %d", s.sealsFound, s.totalSeals)
	}
}

func TestRevealIsIdempotent(t *testing.T) {
	s := sessionWith(fixedBoard())
	s.Reveal(0, 0)
	s.Reveal(0, 0)
	s.Reveal(0, 0)
	if s.sealsFound != 1 {
		t.Fatalf("seal counted %d times", s.sealsFound)
	}
	if s.State() != StatePlaying {
		t.Fatalf("state: %s", s.State())
	}
}

func TestRevealAfterTerminalIsNoop(t *testing.T) {
	s := sessionWith(fixedBoard())
	s.Reveal(0, 2)
	out, err := s.Reveal(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if out != OutcomeLost || s.sealsFound != 0 {
		t.Fatalf("reveal after loss changed state: outcome %s, found %d", out, s.sealsFound)
	}
}

func TestRevealOutOfBounds(t *testing.T) {
	s := sessionWith(fixedBoard())
	for _, rc := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		if _, err := s.Reveal(rc[0], rc[1]); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("Reveal(%d,%d): expected ErrOutOfBounds, got %v", rc[0], rc[1], err)
		}
	}
}

func TestTickExpiresAtZero(t *testing.T) {
	s := sessionWith(fixedBoard())
	s.remaining = 2
	if !s.Tick() {
		t.Fatal("first tick should keep running")
	}
	if s.Tick() {
		t.Fatal("second tick should stop the countdown")
	}
	if s.State() != StateLost {
		t.Fatalf("state after timeout: %s", s.State())
	}
	if s.Tick() {
		t.Fatal("tick after timeout should report stopped")
	}
}

func TestExpireOnlyFromPlaying(t *testing.T) {
	s := sessionWith(fixedBoard())
	s.Reveal(0, 0)
	s.Reveal(1, 1)
	if s.Expire() {
		t.Fatal("Expire changed a won session")
	}
	if s.State() != StateWon {
		t.Fatalf("state: %s", s.State())
	}
}

func TestOnFinishRunsOnce(t *testing.T) {
	s := sessionWith(fixedBoard())
	var calls int32
	s.OnFinish(func(*Session) { atomic.AddInt32(&calls, 1) })
	s.Reveal(0, 2)
	s.Reveal(0, 0)
	s.Expire()
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("OnFinish ran %d times", n)
	}
}

func TestCountdownExpiresSession(t *testing.T) {
	s := sessionWith(fixedBoard())
	s.remaining = 3
	finished := make(chan State, 1)
	s.OnFinish(func(ss *Session) { finished <- ss.State() })
	s.Start(time.Millisecond)

	select {
	case st := <-finished:
		if st != StateLost {
			t.Fatalf("state after countdown: %s", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never expired the session")
	}
	<-s.countdown.Done()
}

func TestStopCancelsCountdown(t *testing.T) {
	s := sessionWith(fixedBoard())
	s.Start(time.Millisecond)
	s.Stop()
	<-s.countdown.Done()
	before := s.Snapshot().Remaining
	time.Sleep(20 * time.Millisecond)
	if after := s.Snapshot().Remaining; after != before {
		t.Fatalf("remaining moved after Stop: %d → %d", before, after)
	}
	if s.State() != StatePlaying {
		t.Fatalf("Stop changed state to %s", s.State())
	}
}

func TestNewSessionEasyEndToEnd(t *testing.T) {
	s, err := NewSession("e2e", LevelEasy, Presets[LevelEasy], rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatal(err)
	}
	if s.totalSeals != 5 {
		t.Fatalf("easy board holds %d seals, want 5", s.totalSeals)
	}
	s.mu.Lock()
	s.remaining = 80
	s.mu.Unlock()

	var last Outcome
	for r := 0; r < s.board.Rows; r++ {
		for c := 0; c < s.board.Cols; c++ {
			if s.board.Cells[r][c].HasSeal {
				last, _ = s.Reveal(r, c)
			}
		}
	}
	if last != OutcomeWon {
		t.Fatalf("outcome after all seals: %s", last)
	}
	if got := s.Score(); got != 800 {
		t.Fatalf("score: got %d, want 800", got)
	}
}

func TestSnapshotHidesUnrevealed(t *testing.T) {
	s := sessionWith(fixedBoard())
	s.Reveal(1, 0)
	snap := s.Snapshot()
	if !snap.Cells[1][0].Revealed || snap.Cells[1][0].Adjacent != 0 {
		t.Errorf("revealed cell view: %+v", snap.Cells[1][0])
	}
	if v := snap.Cells[0][0]; v.Revealed || v.Seal {
		t.Errorf("hidden seal leaked: %+v", v)
	}
	if v := snap.Cells[0][2]; v.Failure {
		t.Errorf("hidden failure leaked: %+v", v)
	}
}
