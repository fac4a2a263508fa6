package danktable

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSeparator is the cell delimiter used when [Config.Separator] is
// empty.
const DefaultSeparator = ":"

// Row names: ASCII letter first, then letters, digits, underscore. The
// same rule applies to table creation and every later row addition.
var validRowName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Schema describes a table: which row acts as the primary identifier,
// the cell delimiter, and the format version the file was stamped with.
type Schema struct {
	// KeyRow is the row whose value uniquely identifies a line.
	KeyRow string

	// Separator is the single-character cell delimiter.
	Separator string

	// Version is the DankVersion the file was read with. Writes always
	// re-stamp [FormatVersion] regardless of this value.
	Version string
}

// ValidRowName reports whether name is a legal row name.
func ValidRowName(name string) bool {
	return validRowName.MatchString(name)
}

// validateRowName returns [ErrInvalidRowName] with context if name is not
// a legal row name.
func validateRowName(name string) error {
	if !ValidRowName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidRowName, name)
	}

	return nil
}

// validateSeparator rejects separators that could collide with encoded
// cells, row names, or the file's line structure.
//
// Forbidden: anything longer than one byte, base64 alphabet characters
// (A-Za-z0-9+/=), underscore (legal in row names), semicolon (settings
// line delimiter), and line breaks.
func validateSeparator(sep string) error {
	if len(sep) != 1 {
		return fmt.Errorf("%w: %q must be a single character", ErrInvalidSeparator, sep)
	}

	c := sep[0]

	switch {
	case c >= 'A' && c <= 'Z',
		c >= 'a' && c <= 'z',
		c >= '0' && c <= '9':
		return fmt.Errorf("%w: %q collides with encoded cell tokens", ErrInvalidSeparator, sep)
	case strings.ContainsRune("+/=_", rune(c)):
		return fmt.Errorf("%w: %q collides with encoded cell tokens", ErrInvalidSeparator, sep)
	case c == ';':
		return fmt.Errorf("%w: %q collides with the settings line", ErrInvalidSeparator, sep)
	case c == '\n' || c == '\r':
		return fmt.Errorf("%w: line breaks are not allowed", ErrInvalidSeparator)
	}

	return nil
}
