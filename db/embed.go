// Package db embeds the schema applied on startup and by the seeder.
package db

import _ "embed"

// Schema holds the DDL for the storefront tables: products, offers, orders,
// and api_keys.
//
//go:embed migrations/001_schema.sql
var Schema string
