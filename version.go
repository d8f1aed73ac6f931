package cargoweb

import (
	"fmt"
	"regexp"
	"strconv"
)

// VersionTriple is a parsed major.minor.patch version.
type VersionTriple struct {
	Major int
	Minor int
	Patch int
}

// String renders the triple as "major.minor.patch".
func (v VersionTriple) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// ParseVersion extracts the first major.minor.patch triple from s.
//
// The input is typically the raw output of `<tool> --version`, for example
// "cargo-web 0.6.26". Anything around the triple is ignored.
//
// Returns an *Error of kind KindInvalidVersionFormat if s contains no triple.
func ParseVersion(s string) (VersionTriple, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return VersionTriple{}, newError(KindInvalidVersionFormat, fmt.Sprintf("no version triple in %q", s), nil)
	}

	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return VersionTriple{}, newError(KindInvalidVersionFormat, fmt.Sprintf("invalid version component %q", m[i+1]), err)
		}
		parts[i] = n
	}

	return VersionTriple{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// CompareVersions checks actual against required.
//
// This is not semantic-version ordering. Majors must match exactly: a lower
// actual major yields -1 and a higher one yields 1. With equal majors the
// result is 0 when actual has a higher minor (patch ignored) or the same
// minor and a patch at least as high; otherwise -1.
//
// # Examples
//
//	CompareVersions({0,7,2}, {0,6,3}) // 0, minor is newer
//	CompareVersions({0,6,2}, {0,6,3}) // -1
//	CompareVersions({2,6,3}, {1,6,3}) // 1
func CompareVersions(actual, required VersionTriple) int {
	switch {
	case actual.Major < required.Major:
		return -1
	case actual.Major > required.Major:
		return 1
	}

	if actual.Minor > required.Minor || (actual.Minor == required.Minor && actual.Patch >= required.Patch) {
		return 0
	}
	return -1
}
