package game

import "time"

// CellView is what a player may see of a cell: contents only once revealed.
type CellView struct {
	Revealed bool `json:"revealed"`
	Seal     bool `json:"seal,omitempty"`
	Failure  bool `json:"failure,omitempty"`
	Adjacent int  `json:"adjacent,omitempty"`
}

// Snapshot is a point-in-time, player-safe copy of a session.
type Snapshot struct {
	ID         string       `json:"gameId"`
	Level      Level        `json:"level"`
	State      State        `json:"state"`
	Rows       int          `json:"rows"`
	Cols       int          `json:"cols"`
	Remaining  int          `json:"remainingTime"`
	Total      int          `json:"totalTime"`
	SealsFound int          `json:"sealsFound"`
	TotalSeals int          `json:"totalSeals"`
	Score      int          `json:"score"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
	Cells      [][]CellView `json:"cells"`
}

// Snapshot copies the session, hiding unrevealed cells.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cells := make([][]CellView, s.board.Rows)
	for r, row := range s.board.Cells {
		cells[r] = make([]CellView, len(row))
		for c, cell := range row {
			if !cell.IsRevealed {
				continue
			}
			v := CellView{Revealed: true, Seal: cell.HasSeal, Failure: cell.HasFailure}
			if !cell.HasFailure {
				v.Adjacent = cell.AdjacentFailures
			}
			cells[r][c] = v
		}
	}
	snap := Snapshot{
		ID:         s.id,
		Level:      s.level,
		State:      s.state,
		Rows:       s.board.Rows,
		Cols:       s.board.Cols,
		Remaining:  s.remaining,
		Total:      s.cfg.TimeLimit,
		SealsFound: s.sealsFound,
		TotalSeals: s.totalSeals,
		Score:      ComputeScore(s.state, s.remaining, s.cfg),
		StartedAt:  s.startedAt,
		Cells:      cells,
	}
	if !s.finishedAt.IsZero() {
		t := s.finishedAt
		snap.FinishedAt = &t
	}
	return snap
}
