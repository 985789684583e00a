package errors

import (
	"fmt"
	"strings"
)

// SchemaError represents a fatal defect in the analytic file's structure:
// missing required columns, an empty or mismatched header, or too few valid
// indicators to proceed. Ingest stops when one of these is raised; softer
// findings are accumulated into the quality report instead.
type SchemaError struct {
	Reasons []string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	switch len(e.Reasons) {
	case 0:
		return "schema validation failed"
	case 1:
		return fmt.Sprintf("schema validation failed: %s", e.Reasons[0])
	default:
		return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Reasons, "; "))
	}
}

// NewSchemaError creates a schema error from one or more itemized reasons
func NewSchemaError(reasons ...string) *SchemaError {
	return &SchemaError{Reasons: reasons}
}

// DuplicateColumnError represents a repeated column name in the header.
// Duplicates make role assignment ambiguous, so classification aborts
// before any indicator group is emitted.
type DuplicateColumnError struct {
	Column string
}

// Error implements the error interface
func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate column name in header: %q", e.Column)
}

// NewDuplicateColumnError creates a duplicate column error
func NewDuplicateColumnError(column string) *DuplicateColumnError {
	return &DuplicateColumnError{Column: column}
}
