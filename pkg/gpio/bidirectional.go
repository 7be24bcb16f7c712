// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/driver"
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// BidirectionalPin is a pin switching between input and output, as used by
// bit-banged buses with a shared data line.
//
// The pin is allocated on first use in the direction that use requires.
// Every direction change releases the previous allocation before the new one
// is made, the pin is never allocated twice.
type BidirectionalPin struct {
	drv      driver.Driver
	pin      pin.Processor
	resistor driver.Resistor

	mu        sync.Mutex
	allocated bool
	direction driver.Direction
	closed    bool
}

// InOut returns a handle for p. Nothing is allocated before the first I/O.
// resistor applies whenever the pin becomes an input.
func InOut(d driver.Driver, p pin.Processor, resistor driver.Resistor) *BidirectionalPin {
	return &BidirectionalPin{drv: d, pin: p, resistor: resistor}
}

// Pin returns the processor pin of the handle.
func (b *BidirectionalPin) Pin() pin.Processor {
	return b.pin
}

// Direction returns the current direction and whether the pin is allocated.
func (b *BidirectionalPin) Direction() (driver.Direction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.direction, b.allocated
}

// SetDirection allocates the pin in dir unless it already is.
func (b *BidirectionalPin) SetDirection(dir driver.Direction) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.setDirection(dir)
}

func (b *BidirectionalPin) setDirection(dir driver.Direction) error {
	if b.closed {
		return fmt.Errorf("%s: %w", b.pin, ErrClosed)
	}

	if b.allocated && b.direction == dir {
		return nil
	}

	if b.allocated {
		b.allocated = false
		if err := b.drv.Release(b.pin); err != nil {
			return fmt.Errorf("release %s: %w", b.pin, err)
		}
	}

	if err := b.drv.Allocate(b.pin, dir); err != nil {
		return fmt.Errorf("allocate %s as %s: %w", b.pin, dir, err)
	}

	if dir == driver.Input && b.resistor != driver.ResistorNone {
		if err := driver.SetResistor(b.drv, b.pin, b.resistor); err != nil {
			return errors.Join(err, b.drv.Release(b.pin))
		}
	}

	b.allocated = true
	b.direction = dir

	return nil
}

// Write switches the pin to output if needed and drives it.
func (b *BidirectionalPin) Write(value bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.setDirection(driver.Output); err != nil {
		return err
	}

	return b.drv.Write(b.pin, value)
}

// Read switches the pin to input if needed and reads it.
func (b *BidirectionalPin) Read() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.setDirection(driver.Input); err != nil {
		return false, err
	}

	return b.drv.Read(b.pin)
}

// Wait switches the pin to input if needed and waits for the level, see
// driver.Driver.Wait. The handle stays locked while waiting.
func (b *BidirectionalPin) Wait(waitForUp bool, timeout time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.setDirection(driver.Input); err != nil {
		return err
	}

	return b.drv.Wait(b.pin, waitForUp, timeout)
}

// Close releases the pin if it is allocated. Close is idempotent.
func (b *BidirectionalPin) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	if !b.allocated {
		return nil
	}

	b.allocated = false

	return b.drv.Release(b.pin)
}
