package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrBookNotFound is returned when the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrCategoryNotFound is returned when the requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrForbidden is returned when the acting user may not perform the
	// operation. It deliberately carries no detail about ownership.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned on login with an unknown email or a
	// wrong password. The two cases are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrCategoryInUse is returned when a category cannot be deleted because
	// books still reference it by name.
	ErrCategoryInUse = errors.New("category is still referenced by existing books")

	// ErrCannotDeleteSelf is returned when an admin tries to delete their
	// own account.
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
)

// ValidationError carries per-field validation messages. It is always
// recoverable and its fields are surfaced verbatim to the caller.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports a uniqueness violation on a single field, e.g. a
// duplicate username or category name.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// isUniqueViolation checks whether a PostgreSQL unique-constraint error
// occurred. PostgreSQL error code 23505 = unique_violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
