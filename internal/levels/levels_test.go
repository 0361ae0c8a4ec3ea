package levels

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/robalobadob/sealhunt/internal/game"
)

func TestLoadEmbeddedMatchesPresets(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	for lvl, want := range game.Presets {
		got, err := cat.Lookup(lvl)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", lvl, err)
		}
		if got != want {
			t.Errorf("%s: got %+v, want %+v", lvl, got, want)
		}
	}
	levels := cat.Levels()
	if len(levels) != 3 || levels[0] != game.LevelEasy || levels[2] != game.LevelHard {
		t.Errorf("Levels order: got %v", levels)
	}
}

func TestParsePartialOverride(t *testing.T) {
	cat, err := Parse([]byte(`
levels:
  easy:
    rows: 6
    cols: 6
    seal_density: 0.25
    failure_density: 0.1
    time_limit: 90
    multiplier: 1.5
  blitz:
    rows: 4
    cols: 4
    seal_density: 0.25
    failure_density: 0.25
    time_limit: 30
    multiplier: 4
`))
	if err != nil {
		t.Fatal(err)
	}
	if easy, _ := cat.Lookup(game.LevelEasy); easy.Rows != 6 || easy.Multiplier != 1.5 {
		t.Errorf("easy override not applied: %+v", easy)
	}
	if hard, _ := cat.Lookup(game.LevelHard); hard != game.Presets[game.LevelHard] {
		t.Errorf("hard should keep its preset: %+v", hard)
	}
	if _, err := cat.Lookup("blitz"); err != nil {
		t.Errorf("blitz missing: %v", err)
	}
}

func TestParseRejectsDegenerateDensity(t *testing.T) {
	_, err := Parse([]byte(`
levels:
  hard:
    rows: 10
    cols: 10
    seal_density: 0.6
    failure_density: 0.5
    time_limit: 300
    multiplier: 3
`))
	if !errors.Is(err, game.ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestParseRejectsSeallessTier(t *testing.T) {
	_, err := Parse([]byte(`
levels:
  tiny:
    rows: 2
    cols: 2
    seal_density: 0.2
    failure_density: 0.2
    time_limit: 30
    multiplier: 1
`))
	if !errors.Is(err, game.ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestLookupUnknown(t *testing.T) {
	cat, _ := Load("")
	if _, err := cat.Lookup("nightmare"); !errors.Is(err, game.ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.yaml")
	if err := os.WriteFile(path, []byte("levels:\n  medium: {rows: 8, cols: 8, seal_density: 0.2, failure_density: 0.15, time_limit: 200, multiplier: 2}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cat, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if m, _ := cat.Lookup(game.LevelMedium); m.Rows != 8 || m.TimeLimit != 200 {
		t.Errorf("medium from file: %+v", m)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
