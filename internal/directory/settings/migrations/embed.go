package migrations

import "embed"

// FS contains embedded SQLite migrations for settings storage.
//
//go:embed *.sql
var FS embed.FS
