// Package version identifies this nom-go build and parses release strings.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Release is the library release implemented by this build.
const Release = "0.1.0"

// Semver represents a parsed "major.minor.patch" release.
type Semver struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses a "major.minor.patch" release string.
func Parse(s string) (Semver, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Semver{}, fmt.Errorf("invalid release %q: expected major.minor.patch", s)
	}
	nums := make([]uint16, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || p == "" {
			return Semver{}, fmt.Errorf("invalid release %q: bad component %q", s, p)
		}
		nums[i] = uint16(n)
	}
	return Semver{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the release as "major.minor.patch".
func (v Semver) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible reports whether both releases share a major version.
func (v Semver) Compatible(other Semver) bool {
	return v.Major == other.Major
}

// UserAgent returns the identification string CLIs print on startup.
func UserAgent() string {
	return "nom-go/" + Release
}
