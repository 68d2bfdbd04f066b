// Package db embeds the goose migrations that define the prompts/media schema.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
