// Package version provides build version information and semver utilities.
package version

import (
	"github.com/Masterminds/semver/v3"
)

var (
	parsedVersion  *semver.Version
	parseAttempted bool
)

// resetParsedVersion clears the cached parsed version for testing.
func resetParsedVersion() {
	parsedVersion = nil
	parseAttempted = false
}

// Parsed returns the parsed semantic version, or nil if unparseable.
// This is computed lazily on first call and cached.
func Parsed() *semver.Version {
	if parsedVersion != nil || parseAttempted {
		return parsedVersion
	}
	parseAttempted = true

	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil
	}
	parsedVersion = v
	return parsedVersion
}

// IsPrerelease returns true if the current version is a pre-release.
// Returns false for unparseable versions (like "dev").
func IsPrerelease() bool {
	v := Parsed()
	if v == nil {
		return false
	}
	return v.Prerelease() != ""
}

// IsDevBuild returns true if this is a development build (no valid semver).
func IsDevBuild() bool {
	return Parsed() == nil
}

// Semver is the broken-down current version, as reported by the status server.
type Semver struct {
	Major      uint64 `json:"major"`
	Minor      uint64 `json:"minor"`
	Patch      uint64 `json:"patch"`
	Prerelease string `json:"prerelease,omitempty"`
	Metadata   string `json:"metadata,omitempty"`
}

// Components returns the parts of the current version. ok is false for dev
// builds.
func Components() (s Semver, ok bool) {
	v := Parsed()
	if v == nil {
		return s, false
	}
	return Semver{
		Major:      v.Major(),
		Minor:      v.Minor(),
		Patch:      v.Patch(),
		Prerelease: v.Prerelease(),
		Metadata:   v.Metadata(),
	}, true
}

// Compare compares the current version to another version string.
// Returns: -1 if current < other, 0 if equal, 1 if current > other.
// Returns 0 if either version is unparseable.
func Compare(other string) int {
	current := Parsed()
	if current == nil {
		return 0
	}

	otherV, err := semver.NewVersion(other)
	if err != nil {
		return 0
	}

	return current.Compare(otherV)
}

// IsNewerThan returns true if the current version is newer than other.
// Returns false if either version is unparseable.
func IsNewerThan(other string) bool {
	return Compare(other) > 0
}

// Relation is how the running version relates to one recorded earlier,
// typically the last version that opened the database.
type Relation int

const (
	// RelationUnknown means nothing was recorded or either side is not semver.
	RelationUnknown Relation = iota
	RelationSame
	RelationUpgrade
	RelationDowngrade
)

// RelationTo classifies running this build against a database last opened
// by recorded.
func RelationTo(recorded string) Relation {
	if recorded == "" || IsDevBuild() {
		return RelationUnknown
	}
	if _, err := semver.NewVersion(recorded); err != nil {
		return RelationUnknown
	}
	switch {
	case IsNewerThan(recorded):
		return RelationUpgrade
	case Compare(recorded) < 0:
		return RelationDowngrade
	default:
		return RelationSame
	}
}
