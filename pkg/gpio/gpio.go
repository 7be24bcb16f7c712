// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gpio provides single pin handles on top of a driver.Driver.
//
// Each handle owns exactly one allocated pin from construction until Close.
// Callers must Close a handle on every path, usually with defer, otherwise the
// pin stays exported or configured until the process exits.
//
//	led, err := gpio.Out(drv, 17)
//	if err != nil {
//		return err
//	}
//	defer led.Close()
//
//	return led.Write(true)
package gpio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/driver"
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// ErrClosed is returned for I/O on a closed handle.
var ErrClosed = errors.New("gpio: pin closed")

// handle is the allocation shared by all pin types.
type handle struct {
	drv driver.Driver
	pin pin.Processor

	once   sync.Once
	closed atomic.Bool
	err    error
}

func (h *handle) check() error {
	if h.closed.Load() {
		return fmt.Errorf("%s: %w", h.pin, ErrClosed)
	}

	return nil
}

func (h *handle) close() error {
	h.once.Do(func() {
		h.closed.Store(true)
		h.err = h.drv.Release(h.pin)
	})

	return h.err
}

// OutputPin is a pin driven by this process.
type OutputPin struct {
	handle
}

// Out allocates p as an output.
func Out(d driver.Driver, p pin.Processor) (*OutputPin, error) {
	if err := d.Allocate(p, driver.Output); err != nil {
		return nil, fmt.Errorf("allocate output %s: %w", p, err)
	}

	return &OutputPin{handle{drv: d, pin: p}}, nil
}

// Pin returns the processor pin of the handle.
func (o *OutputPin) Pin() pin.Processor {
	return o.pin
}

// Write drives the pin high (true) or low (false).
func (o *OutputPin) Write(value bool) error {
	if err := o.check(); err != nil {
		return err
	}

	return o.drv.Write(o.pin, value)
}

// Close releases the pin. Further calls return the result of the first one.
func (o *OutputPin) Close() error {
	return o.close()
}

// InputPin is a pin read by this process.
type InputPin struct {
	handle
}

// In allocates p as an input and applies resistor. ResistorNone is the
// default after allocation and needs no resistor support by the driver.
func In(d driver.Driver, p pin.Processor, resistor driver.Resistor) (*InputPin, error) {
	if err := d.Allocate(p, driver.Input); err != nil {
		return nil, fmt.Errorf("allocate input %s: %w", p, err)
	}

	if resistor != driver.ResistorNone {
		if err := driver.SetResistor(d, p, resistor); err != nil {
			return nil, errors.Join(err, d.Release(p))
		}
	}

	return &InputPin{handle{drv: d, pin: p}}, nil
}

// Pin returns the processor pin of the handle.
func (i *InputPin) Pin() pin.Processor {
	return i.pin
}

// Read returns the level of the pin.
func (i *InputPin) Read() (bool, error) {
	if err := i.check(); err != nil {
		return false, err
	}

	return i.drv.Read(i.pin)
}

// Wait blocks until the pin is high (waitForUp) or low, see driver.Driver.Wait.
func (i *InputPin) Wait(waitForUp bool, timeout time.Duration) error {
	if err := i.check(); err != nil {
		return err
	}

	return i.drv.Wait(i.pin, waitForUp, timeout)
}

// Close releases the pin. Further calls return the result of the first one.
func (i *InputPin) Close() error {
	return i.close()
}
