package autorag

import "embed"

// migrationsFS carries the schema migrations so binaries embedding this
// package can run them without shipping the sql files alongside.
//
//go:embed data/sql/migrations
var migrationsFS embed.FS

// MigrationsFS exposes the embedded migration files.
func MigrationsFS() embed.FS {
	return migrationsFS
}
