package danktable

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// AbsentMarker is the reserved sentinel written for cells that hold no
// value. It is serialized and wrapped like any other string, so the wire
// format needs no special casing: detection happens after decoding.
//
// Known limitation: a stored string value that happens to equal the
// sentinel is indistinguishable from an absent cell after a reload. This
// is inherent to the format and deliberately not papered over.
const AbsentMarker = "/NaM/"

// cellEncoding wraps serialized cell text so tokens never contain the
// separator character or a newline. Standard base64 uses A-Za-z0-9+/=,
// all of which are rejected as separators by validateSeparator.
var cellEncoding = base64.StdEncoding

// EncodeCell serializes a cell value to a delimiter-safe token.
//
// The value is serialized to canonical JSON, then base64-wrapped. The
// absent marker encodes as its literal sentinel string. Unreadable cells
// pass their original raw token through unchanged, so rewriting a table
// never destroys bytes it could not decode.
func EncodeCell(v Value) (string, error) {
	if v.IsUnreadable() {
		return v.str, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding cell: %w", err)
	}

	return cellEncoding.EncodeToString(data), nil
}

// DecodeCell reverses [EncodeCell].
//
// Malformed tokens (invalid base64, or valid base64 that is not valid
// JSON) decode to an unreadable value rather than failing: a single
// corrupt cell must not block reading the rest of the line. A decoded
// string equal to [AbsentMarker] becomes the absent marker.
func DecodeCell(token string) Value {
	data, err := cellEncoding.DecodeString(token)
	if err != nil {
		return unreadable(token)
	}

	var v Value

	err = json.Unmarshal(data, &v)
	if err != nil {
		return unreadable(token)
	}

	if v.kind == KindString && v.str == AbsentMarker {
		return Absent()
	}

	return v
}
