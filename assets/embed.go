// assets/embed.go
//
// Files compiled into the binary: the default level catalogue and the SQL
// migrations for each relational leaderboard backend.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed levels.yaml sql
var FS embed.FS

// Levels returns the embedded level catalogue (YAML).
func Levels() ([]byte, error) {
	return FS.ReadFile("levels.yaml")
}

// Migrations returns the migration files for dialect ("sqlite" or "postgres").
func Migrations(dialect string) (fs.FS, error) {
	return fs.Sub(FS, "sql/"+dialect)
}
