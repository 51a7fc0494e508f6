// Package version carries the build metadata of the depchain binary.
package version

import (
	"runtime/debug"
)

const unknown = "<unknown>"

// Version, Commit and Date are overridden at link time with -ldflags -X.
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills unset build metadata from the module build info,
// so `go install` builds still report a version and VCS revision.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = shortHash(setting.Value)
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

const shortHashLen = 12

func shortHash(hash string) string {
	if len(hash) > shortHashLen {
		return hash[:shortHashLen]
	}

	return hash
}

// String renders the version line printed by the CLI.
func String() string {
	return "depchain " + Version + " (commit: " + Commit + ", built: " + Date + ")"
}
