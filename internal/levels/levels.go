// internal/levels/levels.go
//
// Level catalogue management.
//
// Responsibilities:
//   - Load the difficulty tiers from a YAML file or fall back to the embedded default.
//   - Merge loaded tiers over the built-in presets so a partial file only
//     overrides what it names.
//   - Validate every tier up front; a degenerate tier stops the server at
//     startup instead of hanging the generator later.
//
// File format:
//
//	levels:
//	  easy: {rows: 5, cols: 5, seal_density: 0.2, failure_density: 0.1, time_limit: 120, multiplier: 1}
//
// Environment variables:
//   LEVELS_FILE=/path/to/levels.yaml

package levels

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/sealhunt/assets"
	"github.com/robalobadob/sealhunt/internal/game"
)

// Catalogue maps each playable level to its configuration.
type Catalogue map[game.Level]game.LevelConfig

type file struct {
	Levels map[game.Level]game.LevelConfig `yaml:"levels"`
}

// Load reads path when set, else the embedded catalogue.
func Load(path string) (Catalogue, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = assets.Levels()
	}
	if err != nil {
		return nil, fmt.Errorf("levels: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalogue, merges it over game.Presets and validates
// the result.
func Parse(data []byte) (Catalogue, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("levels: decode: %w", err)
	}

	cat := make(Catalogue, len(game.Presets)+len(f.Levels))
	for lvl, cfg := range game.Presets {
		cat[lvl] = cfg
	}
	for lvl, cfg := range f.Levels {
		cat[lvl] = cfg
	}
	for lvl, cfg := range cat {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("levels: %s: %w", lvl, err)
		}
	}
	return cat, nil
}

// Lookup returns the configuration for lvl.
func (c Catalogue) Lookup(lvl game.Level) (game.LevelConfig, error) {
	cfg, ok := c[lvl]
	if !ok {
		return game.LevelConfig{}, fmt.Errorf("%w: unknown level %q", game.ErrInvalidLevel, lvl)
	}
	return cfg, nil
}

// Levels lists the catalogue's levels, easiest (fewest cells) first.
func (c Catalogue) Levels() []game.Level {
	out := make([]game.Level, 0, len(c))
	for lvl := range c {
		out = append(out, lvl)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := c[out[i]], c[out[j]]
		if a.Rows*a.Cols != b.Rows*b.Cols {
			return a.Rows*a.Cols < b.Rows*b.Cols
		}
		return out[i] < out[j]
	})
	return out
}
