package app

import "fmt"

// Version and Commit are stamped via ldflags at release build time, e.g.
//
//	go build -ldflags "-X github.com/avolkova/journal/internal/app.Version=1.2.0"
var (
	Version = "dev"
	Commit  = "unknown"
)

// BuildVersion is the version string used in startup logs and /healthz.
func BuildVersion() string {
	if Commit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
