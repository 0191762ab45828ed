package access

import (
	"errors"
	"strings"
)

// ErrMissingUUID is returned by NewValidEntry when no uuid is supplied.
var ErrMissingUUID = errors.New("InvalidACPState: entry has no uuid")

// InvalidACPState reports that a stored rule-source entry is missing
// required structure or carries an unparseable filter. Raised only by the
// parser, never during enforcement.
func InvalidACPState(reason string) error {
	return errors.New("InvalidACPState: " + reason)
}

// IsInvalidACPState reports whether err was produced by InvalidACPState.
func IsInvalidACPState(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "InvalidACPState: ")
}

// SchemaViolation reports that a parsed receiver or target filter failed
// schema validation.
func SchemaViolation(detail string) error {
	return errors.New("SchemaViolation: " + detail)
}

// IsSchemaViolation reports whether err was produced by SchemaViolation.
func IsSchemaViolation(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "SchemaViolation: ")
}
