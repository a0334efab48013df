// Package migrations holds the SQLite schema as embedded SQL files.
package migrations

import "embed"

// FS contains the embedded SQLite migrations, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
