// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buildinfo

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFromBuildInfo(t *testing.T) {
	tests := []struct {
		name     string
		settings []debug.BuildSetting
		want     Info
	}{
		{
			name: "no vcs",
			want: Info{Version: "v1.2.3", Revision: "unset", GoVersion: "go1.25.0"},
		},
		{
			name: "clean tree",
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.time", Value: "2026-03-04T05:06:07Z"},
				{Key: "vcs.modified", Value: "false"},
			},
			want: Info{
				Version:   "v1.2.3",
				Revision:  "0123456",
				Time:      time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
				GoVersion: "go1.25.0",
			},
		},
		{
			name: "modified tree",
			settings: []debug.BuildSetting{
				{Key: "vcs.modified", Value: "true"},
				{Key: "vcs.revision", Value: "abc"},
				{Key: "vcs.time", Value: "garbage"},
			},
			want: Info{Version: "v1.2.3", Revision: "abc+dirty", GoVersion: "go1.25.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fromBuildInfo(&debug.BuildInfo{
				GoVersion: "go1.25.0",
				Main:      debug.Module{Version: "v1.2.3"},
				Settings:  tt.settings,
			})

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("fromBuildInfo mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	want := "Version: (devel)\nCode Revision unset from ------ built with go1.25.0\n"
	if got := (Info{Version: "(devel)", Revision: "unset", GoVersion: "go1.25.0"}).String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
