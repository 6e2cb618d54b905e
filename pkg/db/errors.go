package db

import (
	"errors"
	"strings"
)

// IsUniqueViolation reports whether the provided error references a unique
// violation constraint. When constraintName is provided, the helper looks for
// the constraint text in the error message. The whole unwrap chain is
// inspected so wrapped service errors still match. Both the Postgres and the
// sqlite (dev/test) driver messages are recognized.
func IsUniqueViolation(err error, constraintName string) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		msg := err.Error()
		if constraintName != "" && strings.Contains(msg, constraintName) {
			return true
		}
		if strings.Contains(msg, "duplicate key value") ||
			strings.Contains(msg, "UNIQUE constraint failed") {
			return true
		}
	}
	return false
}
