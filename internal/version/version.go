// Package version exposes the build version stamped in via ldflags.
package version

// version is overridden at build time:
//
//	-ldflags "-X github.com/bkyoung/pr-reviewer/internal/version.version=v1.2.3"
var version = "v0.0.0"

// Value returns the build version.
func Value() string {
	return version
}
