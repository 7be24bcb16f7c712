// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package driver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// peripheralBase of the BCM2835, used when the device tree gives no hint.
	peripheralBase = 0x20000000
	gpioOffset     = 0x200000

	devMem      = "/dev/mem"
	socRanges   = "/proc/device-tree/soc/ranges"
	rangesStart = 4
)

// NewMemory maps the GPIO register block. It tries the configured device
// (default /dev/gpiomem) first, which exposes only the GPIO block and needs
// no offset, and falls back to /dev/mem at the GPIO base address.
//
// Failing to map the registers is fatal, no degraded driver is returned.
// The mapping is released by Close. A cleanup registered with the runtime
// unmaps it if the driver becomes unreachable without being closed.
func NewMemory(opts ...Option) (*Memory, error) {
	o := newOptions(opts)

	device := o.memoryDevice
	var base int64

	f, err := os.OpenFile(device, os.O_RDWR|os.O_SYNC, 0)
	if errors.Is(err, fs.ErrNotExist) {
		device = devMem
		base = gpioBase()
		f, err = os.OpenFile(device, os.O_RDWR|os.O_SYNC, 0)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrHardwareAccess, device, err)
	}

	// The mapping stays valid after the file is closed.
	defer f.Close()

	mem, err := unix.Mmap(int(f.Fd()), base, registerBlockSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%w: map %s at %#x: %v", ErrHardwareAccess, device, base, err)
	}

	regs := words(unsafe.Slice((*uint32)(unsafe.Pointer(&mem[0])), len(mem)/4))

	var cleanup runtime.Cleanup

	release := func() error {
		cleanup.Stop()

		return unix.Munmap(mem)
	}

	d := newMemory(regs, o, release)
	cleanup = runtime.AddCleanup(d, func(m []byte) {
		log.Print("Memory driver: unreachable without Close, unmapping register block")
		_ = unix.Munmap(m)
	}, mem)

	log.Printf("Memory driver: mapped GPIO registers from %s", device)

	return d, nil
}

// gpioBase reads the peripheral base address from the device tree.
func gpioBase() int64 {
	ranges, err := os.ReadFile(socRanges)
	if err != nil {
		return peripheralBase + gpioOffset
	}

	return rangesBase(ranges) + gpioOffset
}

// rangesBase returns the parent address of the first soc range. The BCM2711
// has two cell parent addresses, their upper cell at rangesStart is zero and
// the address follows in the next cell.
func rangesBase(ranges []byte) int64 {
	if len(ranges) < rangesStart+4 {
		return peripheralBase
	}

	base := binary.BigEndian.Uint32(ranges[rangesStart:])
	if base == 0 && len(ranges) >= rangesStart+8 {
		base = binary.BigEndian.Uint32(ranges[rangesStart+4:])
	}

	if base == 0 {
		return peripheralBase
	}

	return int64(base)
}
