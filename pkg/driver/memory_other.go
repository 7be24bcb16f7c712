// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package driver

import "fmt"

// NewMemory is only available on Linux.
func NewMemory(_ ...Option) (*Memory, error) {
	return nil, fmt.Errorf("%w: memory mapped GPIO requires linux", ErrHardwareAccess)
}

func newEpollWaiter(_ string) (edgeWaiter, error) {
	return nil, ErrUnsupported
}
