package config

import "fmt"

// Linker-injected build metadata, for example:
//
//	go build -ldflags "-X weatherlookup/internal/config.version=1.2.3 \
//	    -X weatherlookup/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X weatherlookup/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo returns the linker-injected metadata.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}

// String renders "version (commit, built time)" for startup logs and -version.
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (%s, built %s)", b.Version, b.Commit, b.BuildTime)
}
