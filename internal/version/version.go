// Package version reports the build of the running binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

// Name is the program name reported by Info and the User-Agent header.
const Name = "neonusage"

// Set with -ldflags "-X github.com/j-veylop/neon-usage-tui/internal/version.Version=...".
// Empty values are filled from the module build info.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

var (
	once          sync.Once
	readBuildInfo = debug.ReadBuildInfo
)

func ensureInitialized() {
	once.Do(func() {
		info, ok := readBuildInfo()
		if !ok {
			info = &debug.BuildInfo{}
		}
		settings := make(map[string]string, len(info.Settings))
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}

		if Version == "" {
			Version = moduleVersion(info.Main.Version)
		}
		if Commit == "" {
			Commit = shortCommit(settings["vcs.revision"], settings["vcs.modified"] == "true")
		}
		if Date == "" {
			Date = buildDate(settings["vcs.time"])
		}
	})
}

// Reset clears values derived from build info so they are read again.
func Reset() {
	once = sync.Once{}
	Version, Commit, Date = "", "", ""
}

func moduleVersion(v string) string {
	if v == "" || v == "(devel)" {
		return "dev"
	}
	return strings.TrimPrefix(v, "v")
}

func shortCommit(rev string, dirty bool) string {
	if rev == "" {
		return "unknown"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

// buildDate keeps the date part of an RFC 3339 commit time.
func buildDate(vcsTime string) string {
	if date, _, ok := strings.Cut(vcsTime, "T"); ok {
		return date
	}
	return "unknown"
}

// GetVersion returns the program version.
func GetVersion() string {
	ensureInitialized()
	return Version
}

func GetCommit() string {
	ensureInitialized()
	return Commit
}

func GetDate() string {
	ensureInitialized()
	return Date
}

// UserAgent is sent with every billing API request.
func UserAgent() string {
	return Name + "/" + GetVersion()
}

// Info is the one-line build description printed by --version.
func Info() string {
	ensureInitialized()
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s/%s)",
		Name, Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
