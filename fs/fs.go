// Package appfs embeds the SQL migrations and the templates shipped with the binaries.
package appfs

import "embed"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql templates/*
var FS embed.FS

// MigrationsDir returns the migrations directory for a database engine.
func MigrationsDir(engine string) string {
	return "migrations/" + engine
}
