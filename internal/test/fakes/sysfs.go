// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fakes

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// NewSysfsTree creates a temporary directory laid out like /sys/class/gpio
// with the given pins already exported, their files holding "in", "0" and
// "none". Unlike the kernel, writing to export does not create directories.
func NewSysfsTree(t testing.TB, exported ...pin.Processor) string {
	t.Helper()

	root := t.TempDir()

	for _, name := range []string{"export", "unexport"} {
		if err := os.WriteFile(filepath.Join(root, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for _, p := range exported {
		dir := filepath.Join(root, "gpio"+strconv.Itoa(int(p)))
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}

		for name, content := range map[string]string{"direction": "in", "value": "0", "edge": "none"} {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}

	return root
}
