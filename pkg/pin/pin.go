// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pin identifies GPIO lines of the BCM2835 family system-on-chip.
//
// A Processor pin is the chip-internal line number as used by the GPIO
// controller registers. A Connector pin is the physical position on a board
// header. Connector pins are resolved to processor pins with a Mapping built
// for the detected board layout.
package pin

import (
	"fmt"
	"math/bits"
	"strings"
)

// Processor is the number of a GPIO line of the system-on-chip.
// Valid values are 0 to 31.
type Processor uint8

// MaxProcessor is the highest processor pin addressable by this package.
const MaxProcessor Processor = 31

// Valid reports whether p addresses an existing GPIO line.
func (p Processor) Valid() bool {
	return p <= MaxProcessor
}

func (p Processor) String() string {
	return fmt.Sprintf("GPIO%02d", uint8(p))
}

// Processors is a set of processor pins, one bit per pin.
type Processors uint32

// NewProcessors returns the set containing the given pins.
func NewProcessors(pins ...Processor) Processors {
	var set Processors
	for _, p := range pins {
		set = set.Set(p)
	}

	return set
}

// Set returns a copy of s with p added.
func (s Processors) Set(p Processor) Processors {
	return s | 1<<p
}

// Clear returns a copy of s with p removed.
func (s Processors) Clear(p Processor) Processors {
	return s &^ (1 << p)
}

// Has reports whether p is a member of s.
func (s Processors) Has(p Processor) bool {
	return s&(1<<p) != 0
}

// Len returns the number of pins in s.
func (s Processors) Len() int {
	return bits.OnesCount32(uint32(s))
}

// Pins returns the members of s in ascending order.
func (s Processors) Pins() []Processor {
	pins := make([]Processor, 0, s.Len())

	for rest := uint32(s); rest != 0; rest &= rest - 1 {
		pins = append(pins, Processor(bits.TrailingZeros32(rest)))
	}

	return pins
}

func (s Processors) String() string {
	names := make([]string, 0, s.Len())
	for _, p := range s.Pins() {
		names = append(names, p.String())
	}

	return "{" + strings.Join(names, ", ") + "}"
}
