// internal/game/types.go
//
// Core type definitions for the Seal Hunt game engine.
// Defines:
//   - Level / LevelConfig: difficulty tiers and their board presets.
//   - Cell / Board: the grid produced by the generator.
//   - State / Outcome: session lifecycle and per-reveal result.

package game

import "errors"

// Level names a difficulty tier.
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// Levels lists the tiers in ascending difficulty.
var Levels = []Level{LevelEasy, LevelMedium, LevelHard}

// LevelConfig is the immutable preset for one tier.
type LevelConfig struct {
	Rows           int     `json:"rows" yaml:"rows"`
	Cols           int     `json:"cols" yaml:"cols"`
	SealDensity    float64 `json:"sealDensity" yaml:"seal_density"`       // fraction of cells holding a seal
	FailureDensity float64 `json:"failureDensity" yaml:"failure_density"` // fraction of cells holding a failure
	TimeLimit      int     `json:"timeLimit" yaml:"time_limit"`           // seconds
	Multiplier     float64 `json:"multiplier" yaml:"multiplier"`          // score multiplier
}

// Presets are the built-in difficulty tiers.
var Presets = map[Level]LevelConfig{
	LevelEasy:   {Rows: 5, Cols: 5, SealDensity: 0.2, FailureDensity: 0.1, TimeLimit: 120, Multiplier: 1},
	LevelMedium: {Rows: 7, Cols: 7, SealDensity: 0.2, FailureDensity: 0.15, TimeLimit: 180, Multiplier: 2},
	LevelHard:   {Rows: 10, Cols: 10, SealDensity: 0.2, FailureDensity: 0.2, TimeLimit: 300, Multiplier: 3},
}

// ErrInvalidLevel reports an unknown tier or a configuration the generator
// cannot satisfy.
var ErrInvalidLevel = errors.New("invalid level configuration")

// ErrOutOfBounds reports reveal coordinates outside the board.
var ErrOutOfBounds = errors.New("cell out of bounds")

// Cell is one grid position. A cell holds at most one of seal or failure.
type Cell struct {
	HasSeal          bool `json:"hasSeal"`
	HasFailure       bool `json:"hasFailure"`
	IsRevealed       bool `json:"isRevealed"`
	AdjacentFailures int  `json:"adjacentFailures"` // unused when HasFailure
}

// Board is a rows x cols grid of cells.
type Board struct {
	Rows  int      `json:"rows"`
	Cols  int      `json:"cols"`
	Cells [][]Cell `json:"cells"`
}

// State is the session lifecycle: playing → won | lost, never back.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == StateWon || s == StateLost }

// Outcome is the result of a single reveal.
type Outcome string

const (
	OutcomeContinue Outcome = "continue"
	OutcomeWon      Outcome = "won"
	OutcomeLost     Outcome = "lost"
)
