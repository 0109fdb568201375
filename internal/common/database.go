// File: internal/common/database.go
package common

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation.
// Postgres surfaces a typed *pq.Error; the sqlite driver used by the test
// databases only gives us the message, so fall back to string matching the
// way GORM itself suggests.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
