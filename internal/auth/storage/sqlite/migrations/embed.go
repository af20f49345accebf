// Package migrations embeds the SQL schema for the identity store.
package migrations

import "embed"

// FS exposes the embedded migration files.
//
//go:embed *.sql
var FS embed.FS
