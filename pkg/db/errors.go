package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
)

const (
	pgUniqueViolation = "23505"
	sqliteUnique      = "UNIQUE constraint failed: "
)

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally on the named constraint or index. SQLite reports the violated
// columns instead of the index name, so callers naming a constraint also pass
// its qualified columns (e.g. "reviews.gig_id", "reviews.reviewer_id").
func IsUniqueViolation(err error, constraintName string, columns ...string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.PG(err); ok {
		return pg.Code == pgUniqueViolation && (constraintName == "" || pg.Constraint == constraintName)
	}

	msg := err.Error()
	if i := strings.Index(msg, sqliteUnique); i >= 0 {
		if constraintName == "" && len(columns) == 0 {
			return true
		}
		failed := strings.TrimSpace(msg[i+len(sqliteUnique):])
		if constraintName != "" && failed == "index '"+constraintName+"'" {
			return true
		}
		return len(columns) > 0 && failed == strings.Join(columns, ", ")
	}
	if strings.Contains(msg, "duplicate key value") {
		return constraintName == "" || strings.Contains(msg, constraintName)
	}
	return false
}
