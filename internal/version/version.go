package version

import "fmt"

//nolint:gochecknoglobals // Set at link time.
var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// Commit is the short git SHA.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns the release tag.
func Short() string {
	return Version
}

// Full renders the release tag with commit and build time for the named binary.
func Full(program string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", program, Version, Commit, BuildTime)
}
