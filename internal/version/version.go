// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/stockdb/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/stockdb/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	         ./cmd/stockdb
package version

import "runtime/debug"

// Build-time variables (set via ldflags)
var (
	// Version is the semantic version (e.g., "1.0.0")
	Version = "dev"

	// Commit is the git commit hash (short form)
	Commit = "unknown"
)

// String returns "stockdb <version> (<commit>, <go version>)". When no commit
// was stamped it falls back to the VCS revision recorded by the toolchain.
func String() string {
	commit := Commit
	goVersion := "unknown"
	if info, ok := debug.ReadBuildInfo(); ok {
		goVersion = info.GoVersion
		if commit == "unknown" {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			}
		}
	}
	return "stockdb " + Version + " (" + commit + ", " + goVersion + ")"
}
