// Package store is the persistence collaborator for prompts and media. All
// SQL lives in internal/sqlinline and is executed through infra.SQLRunner so
// every statement is marker-tagged in logs. Row-level ownership is always a
// filter parameter here; callers never re-check ownership themselves.
package store

import (
	"github.com/rs/zerolog"

	"github.com/dreamframe/server/internal/infra"
)

// PG persists records in Postgres. It satisfies the narrow interfaces the
// orchestrators, poller and projector declare for themselves.
type PG struct {
	SQL    infra.SQLExecutor
	Logger zerolog.Logger
}

func NewPG(sql infra.SQLExecutor, logger zerolog.Logger) *PG {
	return &PG{SQL: sql, Logger: logger}
}
