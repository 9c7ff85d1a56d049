// Package migrations embeds the SQL schema for every supported ledger store backend.
package migrations

import "embed"

// Postgres holds the migrations for the authoritative PostgreSQL store.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite holds the migrations for the embedded single-node store.
//
//go:embed sqlite/*.sql
var SQLite embed.FS
