// Package db embeds the storefront schema applied at startup and by the
// seed tool.
package db

import _ "embed"

// Schema creates the catalog, rating, session and API key tables. Every
// statement is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string
