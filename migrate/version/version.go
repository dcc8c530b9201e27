// Package version provides the totally ordered version value used to order
// migrations and to compare them against the history ledger.
package version

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

// Version is a three component migration version (major.minor.patch).
type Version struct {
	Major int
	Minor int
	Patch int
}

// New creates a version from its components.
func New(major, minor, patch int) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// Parse parses a version string such as "1.0.2" or "v1.2".
// Missing components default to zero; pre-release and metadata suffixes are rejected.
func Parse(s string) (Version, error) {
	v, err := goversion.NewVersion(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("invalid version %q: pre-release and build metadata are not supported", s)
	}

	segments := v.Segments()
	if len(segments) > 3 {
		for _, extra := range segments[3:] {
			if extra != 0 {
				return Version{}, fmt.Errorf("invalid version %q: more than three components", s)
			}
		}
	}

	var parts [3]int
	copy(parts[:], segments)
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// MustParse is like Parse but panics on error. Intended for migration declarations.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or +1 depending on whether v is less than, equal to,
// or greater than other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	default:
		return cmpInt(v.Patch, other.Patch)
	}
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// LessOrEqual reports whether v sorts before or equal to other.
func (v Version) LessOrEqual(other Version) bool {
	return v.Compare(other) <= 0
}

// IsZero reports whether v is 0.0.0.
func (v Version) IsZero() bool {
	return v == Version{}
}

// String renders the version as major.minor.patch.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
