package database

import "embed"

// EmbedMigrations holds the goose migrations applied by RunMigrations.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
