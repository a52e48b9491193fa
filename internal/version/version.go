package version

import (
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the current version, overridden at build time with
// -ldflags "-X github.com/Xunop/e-shelf/internal/version.Version=...".
var Version = "0.2.0"

func GetCurrentVersion() string {
	return Version
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// GetMinorVersion returns "0.2" for "0.2.1".
func GetMinorVersion(version string) string {
	return strings.TrimPrefix(semver.MajorMinor(canonical(version)), "v")
}

// GetSchemaVersion returns the version of the schema shipped with version,
// patches do not change the schema.
func GetSchemaVersion(version string) string {
	return GetMinorVersion(version) + ".0"
}

func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(canonical(version), canonical(target)) >= 0
}

func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(canonical(version), canonical(target)) > 0
}

func IsValid(version string) bool {
	return semver.IsValid(canonical(version))
}

type SortVersion []string

func (s SortVersion) Len() int {
	return len(s)
}

func (s SortVersion) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s SortVersion) Less(i, j int) bool {
	return semver.Compare(canonical(s[i]), canonical(s[j])) < 0
}

// Sort orders versions oldest first.
func Sort(versions []string) {
	sort.Sort(SortVersion(versions))
}
