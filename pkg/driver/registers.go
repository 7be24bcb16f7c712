// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"sync/atomic"

	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// Word offsets of the GPIO controller registers, see the BCM2835 ARM
// peripherals datasheet, chapter 6.
const (
	regFunctionSelect0 = 0  // GPFSEL0..5, 3 bits per pin
	regOutputSet0      = 7  // GPSET0..1
	regOutputClear0    = 10 // GPCLR0..1
	regLevel0          = 13 // GPLEV0..1
	regPullControl     = 37 // GPPUD
	regPullClock0      = 38 // GPPUDCLK0..1

	registerBlockSize = 4096
)

// Function select values.
const (
	functionInput  uint32 = 0b000
	functionOutput uint32 = 0b001
	functionMask   uint32 = 0b111
)

// Pull control codes written to GPPUD.
const (
	pullOff  uint32 = 0
	pullDown uint32 = 1
	pullUp   uint32 = 2
)

// registers is a block of 32-bit peripheral registers addressed by word offset.
type registers interface {
	load(offset int) uint32
	store(offset int, value uint32)
}

// words are registers backed by memory, either the mapped peripheral block or
// a plain slice in tests. Accesses are atomic so the compiler never merges or
// drops them.
type words []uint32

func (w words) load(offset int) uint32 {
	return atomic.LoadUint32(&w[offset])
}

func (w words) store(offset int, value uint32) {
	atomic.StoreUint32(&w[offset], value)
}

// bank returns the register offset from base for the 32-pin bank of p and
// the bit of p in that register.
func bank(base int, p pin.Processor) (int, uint32) {
	return base + int(p)/32, 1 << (uint(p) % 32)
}

// functionSelect returns the GPFSEL register of p and the shift of its 3 bits.
func functionSelect(p pin.Processor) (int, uint) {
	return regFunctionSelect0 + int(p)/10, (uint(p) % 10) * 3
}
