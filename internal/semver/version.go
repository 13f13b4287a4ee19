// Package semver implements Semantic Versioning 2.0.0 parsing, precedence
// and requirement matching for plugin compatibility checks.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(
	`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-((?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?` +
		`(?:\+([0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`,
)

// Version is a parsed semantic version. Build metadata is kept for display
// but never participates in precedence or equality.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Prerelease string
	Build      string
}

// ParseError reports a malformed version or requirement string. Requirement
// is set when the error came from ParseRequirement; Clause then names the
// offending clause, which may be empty.
type ParseError struct {
	Input       string
	Clause      string
	Reason      string
	Requirement bool
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if !e.Requirement {
		return fmt.Sprintf("invalid version %q: %s", e.Input, e.Reason)
	}
	if strings.TrimSpace(e.Input) == "" {
		return fmt.Sprintf("invalid version requirement %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid version requirement %q: clause %q: %s", e.Input, e.Clause, e.Reason)
}

// Parse parses a MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD] string. Major, minor
// and patch must fit in a uint64; larger values are reported as a
// ParseError. Numeric pre-release identifiers have no size limit.
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, &ParseError{Input: s, Reason: "does not match MAJOR.MINOR.PATCH[-PRERELEASE][+BUILD]"}
	}

	var nums [3]uint64
	for i, field := range m[1:4] {
		n, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return Version{}, &ParseError{Input: s, Reason: fmt.Sprintf("numeric field %q out of range", field)}
		}
		nums[i] = n
	}

	return Version{
		Major:      nums[0],
		Minor:      nums[1],
		Patch:      nums[2],
		Prerelease: m[4],
		Build:      m[5],
	}, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String formats the version back into its canonical textual form.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		b.WriteByte('-')
		b.WriteString(v.Prerelease)
	}
	if v.Build != "" {
		b.WriteByte('+')
		b.WriteString(v.Build)
	}
	return b.String()
}

// Compare returns -1, 0 or 1 depending on whether v has lower, equal or
// higher precedence than other.
func (v Version) Compare(other Version) int {
	return Compare(v, other)
}

// Equal reports whether both versions share the same numeric core and
// pre-release, ignoring build metadata.
func (v Version) Equal(other Version) bool {
	return v.Major == other.Major &&
		v.Minor == other.Minor &&
		v.Patch == other.Patch &&
		v.Prerelease == other.Prerelease
}

// Less reports whether v has lower precedence than other.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// Compare orders two versions by SemVer 2.0.0 precedence.
func Compare(a, b Version) int {
	if c := compareUint(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareUint(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareUint(a.Patch, b.Patch); c != 0 {
		return c
	}

	switch {
	case a.Prerelease == "" && b.Prerelease == "":
		return 0
	case a.Prerelease == "":
		return 1
	case b.Prerelease == "":
		return -1
	}

	return comparePrerelease(a.Prerelease, b.Prerelease)
}

func comparePrerelease(a, b string) int {
	left := strings.Split(a, ".")
	right := strings.Split(b, ".")

	for i := 0; i < len(left) && i < len(right); i++ {
		if c := compareIdentifier(left[i], right[i]); c != 0 {
			return c
		}
	}

	return compareUint(uint64(len(left)), uint64(len(right)))
}

func compareIdentifier(a, b string) int {
	aNumeric := isNumeric(a)
	bNumeric := isNumeric(b)

	switch {
	case aNumeric && bNumeric:
		return compareDigits(a, b)
	case aNumeric:
		return -1
	case bNumeric:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func isNumeric(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compareDigits orders two numeric identifiers of any length. The grammar
// rejects leading zeros, so the longer string is the larger number.
func compareDigits(a, b string) int {
	if c := compareUint(uint64(len(a)), uint64(len(b))); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
