// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BlindspotSoftware/gpiohal/internal/test/fakes"
)

func writeConfig(t *testing.T) string {
	t.Helper()

	root := fakes.NewSysfsTree(t, 17, 27)
	doc := strings.Join([]string{
		"driver: sysfs",
		"sysfs-root: " + root,
		"layout: plus",
		"pins:",
		"  - {name: Led, pin: 17, direction: out}",
		"  - {name: Button, connector: P1-13, direction: in}",
		"",
	}, "\n")

	path := filepath.Join(t.TempDir(), "gpio.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestRun(t *testing.T) {
	path := writeConfig(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr error
	}{
		{
			name: "list",
			args: []string{"list"},
			want: []string{"GPIO17  Led", "GPIO27  Button  in"},
		},
		{
			name: "get by name",
			args: []string{"get", "Button"},
			want: []string{"Button: off"},
		},
		{
			name: "get by number",
			args: []string{"get", "GPIO17"},
			want: []string{"Led: off"},
		},
		{
			name: "set with hold",
			args: []string{"set", "Led", "on", "1ms"},
			want: []string{"Led: on"},
		},
		{
			name: "toggle with hold",
			args: []string{"toggle", "17", "1ms"},
			want: []string{"Led: on"},
		},
		{
			name: "blink",
			args: []string{"blink", "Led", "1ms"},
		},
		{
			name: "watch",
			args: []string{"watch", "5ms"},
			want: []string{"PIN"},
		},
		{
			name:    "unknown command",
			args:    []string{"reset"},
			wantErr: errInvalidCmdline,
		},
		{
			name:    "missing argument",
			args:    []string{"get"},
			wantErr: errInvalidCmdline,
		},
		{
			name:    "bad value",
			args:    []string{"set", "Led", "maybe"},
			wantErr: errInvalidCmdline,
		},
		{
			name:    "bad duration",
			args:    []string{"blink", "Led", "soon"},
			wantErr: errInvalidCmdline,
		},
		{
			name:    "no command",
			wantErr: errInvalidCmdline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer

			app := newApp(&stdout, &stderr, func(int) {}, append([]string{"gpioctl", "-c", path}, tt.args...))

			err := app.run()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("run = %v, want %v", err, tt.wantErr)
			}

			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout = %q, want it to contain %q", stdout.String(), want)
				}
			}
		})
	}
}

func TestRunSetInputFails(t *testing.T) {
	var stdout, stderr bytes.Buffer

	app := newApp(&stdout, &stderr, func(int) {}, []string{"gpioctl", "-c", writeConfig(t), "set", "Button", "on", "1ms"})

	if err := app.run(); err == nil || !strings.Contains(err.Error(), "input value cannot be set") {
		t.Errorf("run = %v, want input error", err)
	}
}

func TestHoldEndsOnCancel(t *testing.T) {
	var stdout, stderr bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app := newApp(&stdout, &stderr, func(int) {}, []string{"gpioctl", "-c", writeConfig(t), "set", "Led", "on"})
	app.ctx = ctx

	if err := app.run(); err != nil {
		t.Fatal(err)
	}
}

func TestStartExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "version", args: []string{"gpioctl", "version"}, want: 0},
		{name: "missing config", args: []string{"gpioctl", "-c", "/nonexistent/gpio.yaml", "list"}, want: 1},
		{name: "invalid", args: []string{"gpioctl", "frobnicate"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				stdout, stderr bytes.Buffer
				codes          []int
			)

			app := newApp(&stdout, &stderr, func(code int) { codes = append(codes, code) }, tt.args)
			app.start()

			if len(codes) != 1 || codes[0] != tt.want {
				t.Errorf("exit codes = %v, want [%d]", codes, tt.want)
			}
		})
	}
}
