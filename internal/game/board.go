// internal/game/board.go
//
// Board generation.
//   1. Validate the level configuration (a degenerate one would never finish
//      placing, or would hold no seal to win on).
//   2. Place floor(rows*cols*sealDensity) seals by rejection sampling.
//   3. Place floor(rows*cols*failureDensity) failures the same way; occupied cells are skipped.
//   4. Count adjacent failures for every non-failure cell.

package game

import (
	"fmt"
	"math"
	"math/rand"
)

// Validate checks that a board can be generated from cfg.
func (cfg LevelConfig) Validate() error {
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidLevel, cfg.Rows, cfg.Cols)
	}
	if cfg.SealDensity < 0 || cfg.FailureDensity < 0 {
		return fmt.Errorf("%w: negative density", ErrInvalidLevel)
	}
	if cfg.SealDensity+cfg.FailureDensity >= 1 {
		return fmt.Errorf("%w: seal+failure density %.2f must be below 1",
			ErrInvalidLevel, cfg.SealDensity+cfg.FailureDensity)
	}
	if cfg.SealCount() < 1 {
		return fmt.Errorf("%w: %dx%d at seal density %.2f holds no seals",
			ErrInvalidLevel, cfg.Rows, cfg.Cols, cfg.SealDensity)
	}
	if cfg.TimeLimit <= 0 {
		return fmt.Errorf("%w: time limit %d", ErrInvalidLevel, cfg.TimeLimit)
	}
	if cfg.Multiplier <= 0 {
		return fmt.Errorf("%w: multiplier %.2f", ErrInvalidLevel, cfg.Multiplier)
	}
	return nil
}

// SealCount is the number of seals a board for cfg holds.
func (cfg LevelConfig) SealCount() int {
	return int(math.Floor(float64(cfg.Rows*cfg.Cols) * cfg.SealDensity))
}

// FailureCount is the number of failures a board for cfg holds.
func (cfg LevelConfig) FailureCount() int {
	return int(math.Floor(float64(cfg.Rows*cfg.Cols) * cfg.FailureDensity))
}

// Generate builds a randomized board for cfg using rng.
func Generate(cfg LevelConfig, rng *rand.Rand) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seals, failures := cfg.SealCount(), cfg.FailureCount()
	if seals+failures > cfg.Rows*cfg.Cols {
		return nil, fmt.Errorf("%w: %d markers on %d cells", ErrInvalidLevel, seals+failures, cfg.Rows*cfg.Cols)
	}

	b := newBoard(cfg.Rows, cfg.Cols)
	b.place(rng, seals, func(c *Cell) { c.HasSeal = true })
	b.place(rng, failures, func(c *Cell) { c.HasFailure = true })
	b.countAdjacent()
	return b, nil
}

// GenerateLevel builds a board for one of the built-in presets.
func GenerateLevel(level Level, rng *rand.Rand) (*Board, error) {
	cfg, ok := Presets[level]
	if !ok {
		return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidLevel, level)
	}
	return Generate(cfg, rng)
}

func newBoard(rows, cols int) *Board {
	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}
	return &Board{Rows: rows, Cols: cols, Cells: cells}
}

// place marks count unoccupied cells drawn uniformly at random.
func (b *Board) place(rng *rand.Rand, count int, mark func(*Cell)) {
	for placed := 0; placed < count; {
		c := &b.Cells[rng.Intn(b.Rows)][rng.Intn(b.Cols)]
		if c.HasSeal || c.HasFailure {
			continue
		}
		mark(c)
		placed++
	}
}

func (b *Board) countAdjacent() {
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.Cells[r][c].HasFailure {
				continue
			}
			n := 0
			b.around(r, c, func(nr, nc int) {
				if b.Cells[nr][nc].HasFailure {
					n++
				}
			})
			b.Cells[r][c].AdjacentFailures = n
		}
	}
}

// around calls fn for each in-bounds neighbour of (r, c).
func (b *Board) around(r, c int, fn func(nr, nc int)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if nr, nc := r+dr, c+dc; b.In(nr, nc) {
				fn(nr, nc)
			}
		}
	}
}

// In reports whether (r, c) lies on the board.
func (b *Board) In(r, c int) bool {
	return r >= 0 && c >= 0 && r < b.Rows && c < b.Cols
}

// Count returns the number of cells matching pred.
func (b *Board) Count(pred func(Cell) bool) int {
	n := 0
	for _, row := range b.Cells {
		for _, c := range row {
			if pred(c) {
				n++
			}
		}
	}
	return n
}

// RevealAll discloses every cell.
func (b *Board) RevealAll() {
	for r := range b.Cells {
		for c := range b.Cells[r] {
			b.Cells[r][c].IsRevealed = true
		}
	}
}
