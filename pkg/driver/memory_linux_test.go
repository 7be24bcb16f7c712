// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package driver

import "testing"

func TestRangesBase(t *testing.T) {
	tests := []struct {
		name   string
		ranges []byte
		want   int64
	}{
		{
			name:   "BCM2835",
			ranges: []byte{0x7e, 0, 0, 0, 0x20, 0, 0, 0, 0x01, 0, 0, 0},
			want:   0x20000000,
		},
		{
			name:   "BCM2836",
			ranges: []byte{0x7e, 0, 0, 0, 0x3f, 0, 0, 0, 0x01, 0, 0, 0},
			want:   0x3f000000,
		},
		{
			name:   "BCM2711",
			ranges: []byte{0x7e, 0, 0, 0, 0, 0, 0, 0, 0xfe, 0, 0, 0, 0x01, 0x80, 0, 0},
			want:   0xfe000000,
		},
		{
			name:   "truncated",
			ranges: []byte{0x7e, 0, 0},
			want:   peripheralBase,
		},
		{
			name:   "zero",
			ranges: make([]byte, 8),
			want:   peripheralBase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rangesBase(tt.ranges); got != tt.want {
				t.Errorf("rangesBase = %#x, want %#x", got, tt.want)
			}
		})
	}
}
