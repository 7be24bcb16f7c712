// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buildinfo reports the version of the running binary from the
// information the Go toolchain embeds into it.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// Info is the version information of a binary.
type Info struct {
	Version   string
	Revision  string // short VCS hash, "+dirty" appended for modified trees
	Time      time.Time
	GoVersion string
}

const unknown = "unknown"

//nolint:gochecknoglobals
var read = sync.OnceValue(func() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{Version: unknown, Revision: unknown, GoVersion: unknown}
	}

	return fromBuildInfo(bi)
})

// Read returns the version information of the running binary.
func Read() Info {
	return read()
}

// VersionString returns the version information of the running binary
// formatted for humans.
func VersionString() string {
	return Read().String()
}

func (i Info) String() string {
	built := "------"
	if !i.Time.IsZero() {
		built = i.Time.Format(time.UnixDate)
	}

	return fmt.Sprintf("Version: %s\nCode Revision %s from %s built with %s\n",
		i.Version, i.Revision, built, i.GoVersion)
}

func fromBuildInfo(bi *debug.BuildInfo) Info {
	info := Info{
		Version:   bi.Main.Version,
		Revision:  "unset",
		GoVersion: bi.GoVersion,
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) >= 7 {
				info.Revision = s.Value[:7]
			} else if s.Value != "" {
				info.Revision = s.Value
			}
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				info.Time = t
			}
		}
	}

	for _, s := range bi.Settings {
		if s.Key == "vcs.modified" && s.Value == "true" && info.Revision != "unset" {
			info.Revision += "+dirty"
		}
	}

	return info
}
