package danktable

import (
	"fmt"
	"strings"
)

// FormatVersion is the on-disk layout revision this library writes.
// Writes always stamp this version, even when the file was read with an
// older supported one.
const FormatVersion = "1.0"

// Settings line keys. Unrecognized keys are ignored on read; known keys
// are always re-emitted on write.
const (
	settingKeyRow    = "KeyRow"
	settingSeparator = "Separator"
	settingVersion   = "DankVersion"
)

var supportedVersions = map[string]struct{}{
	"1.0": {},
}

// SupportedVersions returns the format versions this library can read.
func SupportedVersions() []string {
	return []string{"1.0"}
}

// ParseTable decodes a table file.
//
// Layout (newline-delimited, UTF-8, \r\n tolerated):
//
//	line 1: KeyRow:<name>;Separator:<char>;DankVersion:<semver>;
//	line 2: <rowName1><sep><rowName2><sep>...<rowNameN>
//	line 3+: <cell1><sep><cell2><sep>...<cellN>
//
// Fatal errors: missing or unsupported DankVersion
// ([UnsupportedVersionError]), missing KeyRow/Separator settings, invalid
// row names, key row not in the row list, and data lines whose cell count
// doesn't match the row definition ([ErrCellCount]). Individually corrupt
// cells are not fatal; they decode to unreadable values.
func ParseTable(data []byte) (*Table, error) {
	lines := splitLines(data)
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: file has no header", ErrMissingSetting)
	}

	schema, err := parseSettings(lines[0])
	if err != nil {
		return nil, err
	}

	rows, err := parseRowDefinition(lines[1], schema)
	if err != nil {
		return nil, err
	}

	t := &Table{Schema: schema, Rows: rows}

	for i, raw := range lines[2:] {
		cells := strings.Split(raw, schema.Separator)
		if len(cells) != len(rows) {
			return nil, fmt.Errorf("%w: line %d has %d cells, row definition has %d",
				ErrCellCount, i+3, len(cells), len(rows))
		}

		line := make(Line, len(rows))

		for j, token := range cells {
			line[rows[j]] = DecodeCell(token)
		}

		t.Lines = append(t.Lines, line)
	}

	return t, nil
}

// RenderTable serializes a table to its on-disk form, stamping the
// current [FormatVersion].
func RenderTable(t *Table) ([]byte, error) {
	var b strings.Builder

	sep := t.Schema.Separator

	b.WriteString(settingKeyRow + ":" + t.Schema.KeyRow + ";")
	b.WriteString(settingSeparator + ":" + sep + ";")
	b.WriteString(settingVersion + ":" + FormatVersion + ";")
	b.WriteByte('\n')

	b.WriteString(strings.Join(t.Rows, sep))
	b.WriteByte('\n')

	for _, line := range t.Lines {
		for i, row := range t.Rows {
			if i > 0 {
				b.WriteString(sep)
			}

			token, err := EncodeCell(line[row])
			if err != nil {
				return nil, fmt.Errorf("row %q: %w", row, err)
			}

			b.WriteString(token)
		}

		b.WriteByte('\n')
	}

	return []byte(b.String()), nil
}

// splitLines splits on \n, tolerating \r\n endings.
func splitLines(data []byte) []string {
	lines := strings.Split(string(data), "\n")

	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	// A trailing newline produces one empty tail element; drop it so line
	// counting stays stable.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// parseSettings decodes the first header line into a schema.
//
// The version gate runs before anything else so a file written by a newer
// library fails with a version error, not a confusing schema error.
func parseSettings(raw string) (Schema, error) {
	settings := map[string]string{}

	for _, pair := range strings.Split(raw, ";") {
		if pair == "" {
			continue
		}

		key, value, found := strings.Cut(pair, ":")
		if !found {
			continue
		}

		switch key {
		case settingKeyRow, settingSeparator, settingVersion:
			settings[key] = value
		}
		// Unrecognized keys are ignored for forward compatibility.
	}

	version := settings[settingVersion]

	if _, ok := supportedVersions[version]; !ok {
		return Schema{}, &UnsupportedVersionError{
			FileVersion: version,
			Supported:   SupportedVersions(),
		}
	}

	keyRow, ok := settings[settingKeyRow]
	if !ok || keyRow == "" {
		return Schema{}, fmt.Errorf("%w: %s", ErrMissingSetting, settingKeyRow)
	}

	sep, ok := settings[settingSeparator]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %s", ErrMissingSetting, settingSeparator)
	}

	err := validateSeparator(sep)
	if err != nil {
		return Schema{}, err
	}

	return Schema{KeyRow: keyRow, Separator: sep, Version: version}, nil
}

// parseRowDefinition decodes the second header line and checks the schema
// invariants: legal unique row names, key row present.
func parseRowDefinition(raw string, schema Schema) ([]string, error) {
	rows := strings.Split(raw, schema.Separator)

	seen := make(map[string]struct{}, len(rows))

	for _, name := range rows {
		err := validateRowName(name)
		if err != nil {
			return nil, err
		}

		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate row %q", ErrRowExists, name)
		}

		seen[name] = struct{}{}
	}

	if _, ok := seen[schema.KeyRow]; !ok {
		return nil, fmt.Errorf("%w: key row %q", ErrKeyRowMissing, schema.KeyRow)
	}

	return rows, nil
}
