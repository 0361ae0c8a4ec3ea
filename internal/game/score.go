package game

import "math"

// ComputeScore rewards remaining time scaled by the tier multiplier.
// Anything but a won game scores 0.
func ComputeScore(state State, remaining int, cfg LevelConfig) int {
	if state != StateWon || remaining <= 0 {
		return 0
	}
	return int(math.Round(float64(remaining) * 10 * cfg.Multiplier))
}
