package models

import (
	"fmt"
	"regexp"
	"strconv"
)

// versionPattern accepts canonical major.minor.patch only. Prefixed tags
// like "v1.0.0", prerelease suffixes and anything shorter or longer are
// rejected so deployment tags stay unambiguous.
var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Version represents a semantic version used for release tags
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a canonical version string (e.g., "1.2.3").
// ok is false for anything that is not exactly three dot-separated numbers.
func ParseVersion(s string) (Version, bool) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}

	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])

	return Version{Major: major, Minor: minor, Patch: patch}, true
}

// String returns the version as a string
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// BumpMajor returns a new version with the major component incremented
// and minor/patch reset to zero
func (v Version) BumpMajor() Version {
	return Version{Major: v.Major + 1}
}

// BumpMinor returns a new version with the minor component incremented
// and patch reset to zero
func (v Version) BumpMinor() Version {
	return Version{Major: v.Major, Minor: v.Minor + 1}
}

// BumpPatch returns a new version with the patch component incremented
func (v Version) BumpPatch() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
}

// Compare compares two versions numerically per component.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}

	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}

	if v.Patch != other.Patch {
		if v.Patch < other.Patch {
			return -1
		}
		return 1
	}

	return 0
}
