// Package version reports the build of the binary.
package version

import (
	"runtime/debug"
	"sync"
)

// BuildInfo identifies a build
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Set with -ldflags "-X gscsync/internal/core/version.version=v0.3.0 -X ...commit=abcd -X ...date=2026-01-02"
var (
	version = "dev"
	commit  = ""
	date    = ""
)

var (
	once sync.Once
	info BuildInfo
)

// Info returns the ldflags values, falling back to the VCS stamp of the module build
func Info() BuildInfo {
	once.Do(func() {
		info = BuildInfo{Version: version, Commit: commit, Date: date}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	})
	return info
}

// String renders "version (commit, date)", omitting unknown parts
func (b BuildInfo) String() string {
	s := b.Version
	switch {
	case b.Commit != "" && b.Date != "":
		s += " (" + short(b.Commit) + ", " + b.Date + ")"
	case b.Commit != "":
		s += " (" + short(b.Commit) + ")"
	}
	return s
}

func short(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
