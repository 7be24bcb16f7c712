// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakes provides in-memory implementations of gpiohal entities for
// unit-testing code built on top of them.
package fakes

import (
	"fmt"
	"sync"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/driver"
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// Write is one recorded Driver.Write call.
type Write struct {
	Pin   pin.Processor
	Value bool
	Time  time.Time
}

// Resistor is one recorded Driver.SetPinResistor call.
type Resistor struct {
	Pin      pin.Processor
	Resistor driver.Resistor
}

// Driver is an in-memory implementation of driver.Driver.
//
// Behavior:
//   - Raw levels are set with SetLevel; Write on a pin also sets its level.
//   - Allocations, writes and resistor calls are recorded for inspection.
//   - Every call that would touch hardware increments Accesses.
//   - Errors can be injected via ReadErr / WriteErr / AllocateErr.
//   - StallReads blocks Read until the returned release function is called.
//
// Methods are safe for concurrent use.
type Driver struct {
	Caps driver.Capabilities

	mu          sync.Mutex
	levels      pin.Processors
	allocated   map[pin.Processor]driver.Direction
	writes      []Write
	resistors   []Resistor
	released    []pin.Processor
	accesses    int
	gate        chan struct{}
	entered     chan struct{}
	ReadErr     error
	WriteErr    error
	AllocateErr error
}

var _ driver.Driver = &Driver{}

// NewDriver returns a fake with all capabilities of the memory driver.
func NewDriver() *Driver {
	return &Driver{
		Caps:      driver.CanSetPinResistor | driver.CanSetPinDetectedEdges | driver.CanChangePinDirectionRapidly,
		allocated: make(map[pin.Processor]driver.Direction),
	}
}

// SetLevel sets the raw electrical level of p.
func (d *Driver) SetLevel(p pin.Processor, high bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if high {
		d.levels = d.levels.Set(p)
	} else {
		d.levels = d.levels.Clear(p)
	}
}

// Level returns the raw electrical level of p.
func (d *Driver) Level(p pin.Processor) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.levels.Has(p)
}

// Allocated returns the currently allocated pins and their direction.
func (d *Driver) Allocated() map[pin.Processor]driver.Direction {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[pin.Processor]driver.Direction, len(d.allocated))
	for p, dir := range d.allocated {
		out[p] = dir
	}

	return out
}

// Writes returns all recorded writes.
func (d *Driver) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]Write(nil), d.writes...)
}

// WrittenValues returns the values written to p in order.
func (d *Driver) WrittenValues(p pin.Processor) []bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	var values []bool
	for _, w := range d.writes {
		if w.Pin == p {
			values = append(values, w.Value)
		}
	}

	return values
}

// Resistors returns all recorded resistor configurations.
func (d *Driver) Resistors() []Resistor {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]Resistor(nil), d.resistors...)
}

// Released returns the pins passed to Release in order.
func (d *Driver) Released() []pin.Processor {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]pin.Processor(nil), d.released...)
}

// Accesses returns the number of calls that would have touched hardware.
func (d *Driver) Accesses() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.accesses
}

// StallReads makes every following Read block until release is called.
// entered receives a value each time a Read starts blocking.
func (d *Driver) StallReads() (entered <-chan struct{}, release func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	gate := make(chan struct{})
	d.gate = gate
	d.entered = make(chan struct{}, 1)

	var once sync.Once

	return d.entered, func() {
		once.Do(func() {
			d.mu.Lock()
			d.gate = nil
			d.mu.Unlock()
			close(gate)
		})
	}
}

// Capabilities implements driver.Driver.
func (d *Driver) Capabilities() driver.Capabilities {
	return d.Caps
}

// Allocate implements driver.Driver.
func (d *Driver) Allocate(p pin.Processor, dir driver.Direction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accesses++

	if d.AllocateErr != nil {
		return d.AllocateErr
	}

	d.allocated[p] = dir

	return nil
}

// SetPinResistor implements driver.Driver.
func (d *Driver) SetPinResistor(p pin.Processor, r driver.Resistor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accesses++
	d.resistors = append(d.resistors, Resistor{Pin: p, Resistor: r})

	return nil
}

// SetPinDetectedEdges implements driver.Driver.
func (d *Driver) SetPinDetectedEdges(_ pin.Processor, _ driver.Edges) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accesses++

	return nil
}

// Wait implements driver.Driver by polling the fake levels.
func (d *Driver) Wait(p pin.Processor, waitForUp bool, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = driver.DefaultWaitTimeout
	}

	deadline := time.Now().Add(timeout)

	for d.Level(p) != waitForUp {
		if !time.Now().Before(deadline) {
			return fmt.Errorf("fake %s: %w", p, driver.ErrTimeout)
		}

		time.Sleep(time.Millisecond)
	}

	return nil
}

// Read implements driver.Driver.
func (d *Driver) Read(p pin.Processor) (bool, error) {
	d.mu.Lock()
	gate, entered := d.gate, d.entered
	d.mu.Unlock()

	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.accesses++

	if d.ReadErr != nil {
		return false, d.ReadErr
	}

	return d.levels.Has(p), nil
}

// ReadPins implements driver.Driver.
func (d *Driver) ReadPins(pins pin.Processors) (pin.Processors, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accesses++

	if d.ReadErr != nil {
		return 0, d.ReadErr
	}

	return d.levels & pins, nil
}

// Write implements driver.Driver.
func (d *Driver) Write(p pin.Processor, value bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accesses++

	if d.WriteErr != nil {
		return d.WriteErr
	}

	d.writes = append(d.writes, Write{Pin: p, Value: value, Time: time.Now()})

	if value {
		d.levels = d.levels.Set(p)
	} else {
		d.levels = d.levels.Clear(p)
	}

	return nil
}

// Release implements driver.Driver.
func (d *Driver) Release(p pin.Processor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accesses++
	d.released = append(d.released, p)
	delete(d.allocated, p)

	return nil
}

// Close implements driver.Driver.
func (d *Driver) Close() error {
	return nil
}
