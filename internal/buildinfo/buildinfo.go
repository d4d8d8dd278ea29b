// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/garyellow/attendance-go/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/garyellow/attendance-go/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/garyellow/attendance-go/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns the release name reported to Sentry and /livez,
// e.g. "v1.2.0+abc1234". Empty fields fall back to "dev".
func Release() string {
	version := Version
	if version == "" {
		version = "dev"
	}
	if Commit == "" {
		return version
	}
	commit := Commit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return version + "+" + commit
}
