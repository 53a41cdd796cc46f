// Package repository persists employees, time entries and the user cache in
// Postgres. Every method runs in a tenant-bound transaction so row-level
// security scopes all reads and writes.
package repository

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/punchclock/punchclock-backend/pkg/database"
	"github.com/punchclock/punchclock-backend/pkg/errors"
)

// mapErr turns driver errors into AppErrors. Unknown errors pass through.
// An id that is not a valid uuid cannot name a row, so it is not-found.
func mapErr(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation {
		return errors.NotFound(resource)
	}
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

const invalidTextRepresentation = "22P02"

// columns renders a column list, optionally qualified by a table alias.
func columns(cols []string, alias string) string {
	if alias == "" {
		return strings.Join(cols, ", ")
	}
	qualified := make([]string, len(cols))
	for i, c := range cols {
		qualified[i] = alias + "." + c
	}
	return strings.Join(qualified, ", ")
}
