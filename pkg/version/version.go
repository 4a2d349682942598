// Package version provides schema version parsing and comparison for
// register descriptions.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the description schema version implemented by this library.
const Current = "1.1"

// SchemaVersion represents a parsed "major.minor[.subminor]" schema version.
type SchemaVersion struct {
	Major    uint16
	Minor    uint16
	Subminor uint16
}

// Parse parses a "major.minor" or "major.minor.subminor" version string.
func Parse(s string) (SchemaVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 && len(parts) != 3 {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: expected major.minor[.subminor]", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return SchemaVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	v := SchemaVersion{Major: uint16(major), Minor: uint16(minor)}

	if len(parts) == 3 {
		subminor, err := strconv.ParseUint(parts[2], 10, 16)
		if err != nil || parts[2] == "" {
			return SchemaVersion{}, fmt.Errorf("invalid version %q: bad subminor component", s)
		}
		v.Subminor = uint16(subminor)
	}

	return v, nil
}

// String returns the version as "major.minor.subminor".
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Subminor)
}

// Compatible returns true if the other version has the same major version.
// Minor and subminor revisions are backward compatible.
func (v SchemaVersion) Compatible(other SchemaVersion) bool {
	return v.Major == other.Major
}

// FromQuery extracts the SchemaVersion parameter from a description
// location query string such as "SchemaVersion=1.1.0". The second return
// value reports whether the parameter was present.
func FromQuery(rawQuery string) (SchemaVersion, bool, error) {
	for _, param := range strings.Split(rawQuery, "&") {
		key, value, found := strings.Cut(param, "=")
		if !found || key != "SchemaVersion" {
			continue
		}
		v, err := Parse(value)
		if err != nil {
			return SchemaVersion{}, true, err
		}
		return v, true, nil
	}
	return SchemaVersion{}, false, nil
}

// Supported returns the schema version implemented by this library.
func Supported() SchemaVersion {
	v, _ := Parse(Current)
	return v
}
