// Package version holds build metadata injected via ldflags.
package version

// Overridden at build time:
//
//	go build -ldflags "-X github.com/sofialex/pravex/internal/version.Version=v1.2.0"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
