package danktable

import (
	"errors"
	"fmt"
	"strings"
)

// Error variables for table operations.
//
// Schema and version errors indicate programmer or data error, not
// transient conditions; they are returned to the caller without retry.
// IO failures are surfaced as-is, wrapped with %w.
var (
	ErrInvalidRowName   = errors.New("invalid row name")
	ErrKeyRowMissing    = errors.New("key row is not in the row list")
	ErrKeyRowImmutable  = errors.New("key row cannot be removed")
	ErrRowExists        = errors.New("row already exists")
	ErrRowNotFound      = errors.New("row not found")
	ErrLineNotFound     = errors.New("line not found")
	ErrCellCount        = errors.New("wrong number of cells in data line")
	ErrInvalidSeparator = errors.New("invalid separator")
	ErrMissingSetting   = errors.New("missing required setting")
	ErrCellUnreadable   = errors.New("cell is unreadable")
	ErrTypeMismatch     = errors.New("stored value does not match requested type")
)

// UnsupportedVersionError indicates a table file stamped with a format
// version outside the library's supported set.
//
// It carries the file's version and the supported set so callers can
// produce forward-compatible diagnostics ("file written by a newer
// library").
type UnsupportedVersionError struct {
	// FileVersion is the DankVersion value found in the file's settings
	// line. Empty if the setting was missing entirely.
	FileVersion string

	// Supported is the set of format versions this library can read.
	Supported []string
}

// Error formats the mismatch with both sides of the comparison.
func (e *UnsupportedVersionError) Error() string {
	file := e.FileVersion
	if file == "" {
		file = "(missing)"
	}

	return fmt.Sprintf("unsupported format version %s: this library writes %s and reads {%s}",
		file, FormatVersion, strings.Join(e.Supported, ", "))
}
