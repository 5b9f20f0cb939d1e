// pattern: Functional Core

package gitops

import (
	"fmt"
	"strconv"
	"strings"
)

// Part selects which component of a version to bump.
type Part int

const (
	Patch Part = iota
	Minor
	Major
)

func (p Part) String() string {
	switch p {
	case Major:
		return "major"
	case Minor:
		return "minor"
	default:
		return "patch"
	}
}

// ParsePart parses "major", "minor" or "patch".
func ParsePart(s string) (Part, error) {
	switch strings.ToLower(s) {
	case "major":
		return Major, nil
	case "minor":
		return Minor, nil
	case "patch":
		return Patch, nil
	}
	return Patch, fmt.Errorf("unknown version part %q (want major, minor or patch)", s)
}

// Version is a MAJOR.MINOR.PATCH triple.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less orders versions numerically.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// ParseVersion parses "1.2.3" or "v1.2.3".
func ParseVersion(s string) (Version, bool) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(s), "v"), ".")
	if len(parts) != 3 {
		return Version{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, false
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, true
}

// Bump increments part of current. Bumping major resets minor and patch;
// bumping minor resets patch. A current value that is not MAJOR.MINOR.PATCH
// yields "1.0.0".
func Bump(current string, part Part) string {
	v, ok := ParseVersion(current)
	if !ok {
		return "1.0.0"
	}
	switch part {
	case Major:
		v = Version{Major: v.Major + 1}
	case Minor:
		v = Version{Major: v.Major, Minor: v.Minor + 1}
	default:
		v.Patch++
	}
	return v.String()
}
