package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/robalobadob/sealhunt/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, config.Config{})
	if err != nil {
		t.Fatalf("default driver: %v", err)
	}
	if _, ok := b.(*Memory); !ok {
		t.Fatalf("default driver: got %T", b)
	}

	b, err = Open(ctx, config.Config{StoreDriver: config.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "x", "s.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := b.(*SQLite); !ok {
		t.Fatalf("sqlite: got %T", b)
	}
	_ = b.Close()

	for _, cfg := range []config.Config{
		{StoreDriver: config.DriverPostgres},
		{StoreDriver: "redis"},
	} {
		if b, err := Open(ctx, cfg); err == nil || b != nil {
			t.Errorf("%s: expected error, got %v", cfg.StoreDriver, b)
		}
	}
}
