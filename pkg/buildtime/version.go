// Package buildtime tells which build of datapod is running.
package buildtime

import (
	_ "embed"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var version string

//go:embed revision
var revision string

func init() {
	version = strings.TrimSpace(version)
	revision = strings.TrimSpace(revision)
	if revision == "" {
		revision = vcsRevision()
	}
}

// vcsRevision reads the commit stamped by the go toolchain, if any.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	rev, dirty := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "unknown"
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

func VERSION() string {
	return version
}

// GIT_REVISION is the commit which datapod has been built from, or "unknown".
func GIT_REVISION() string {
	return revision
}

// VersionString is a line of version, commit and go runtime.
func VersionString() string {
	return fmt.Sprintf("%s (commit: %s, %s)\n", version, revision, runtime.Version())
}
