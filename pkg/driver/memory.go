// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// pullSettleTime approximates the 150 core cycles the pull control signal
// needs to settle.
const pullSettleTime = time.Microsecond

// edgeWaiter blocks until the kernel signals an edge on one pin.
type edgeWaiter interface {
	// arm acknowledges pending notifications, only later edges end block.
	arm() error
	// block returns true if an edge was signalled within timeout.
	block(timeout time.Duration) (bool, error)
	close() error
}

// Memory drives the GPIO controller through its memory-mapped registers.
//
// Every register access is issued twice in a row and only the second one
// counts. The peripheral bus may silently drop the first access after an
// access to another peripheral.
//
// Edge detection and Wait go through the sysfs edge and value files of a
// pin, as the kernel interrupt handling for GPIO lives there. Without a sysfs
// interface Wait polls the level register.
type Memory struct {
	regs         registers
	tree         sysfsTree
	pollInterval time.Duration
	newWaiter    func(path string) (edgeWaiter, error)
	release      func() error

	mu      sync.Mutex // serializes read-modify-write register sequences
	waiters map[pin.Processor]edgeWaiter

	closeOnce sync.Once
	closeErr  error
}

var _ Driver = &Memory{}

func newMemory(regs registers, o options, release func() error) *Memory {
	return &Memory{
		regs:         regs,
		tree:         sysfsTree{root: o.sysfsRoot},
		pollInterval: o.pollInterval,
		newWaiter:    newEpollWaiter,
		release:      release,
		waiters:      make(map[pin.Processor]edgeWaiter),
	}
}

// Capabilities implements Driver.
func (d *Memory) Capabilities() Capabilities {
	return CanSetPinResistor | CanSetPinDetectedEdges | CanChangePinDirectionRapidly
}

// Allocate implements Driver. Input pins get their pull resistor cleared
// and, if the sysfs interface exists, are exported with both edges armed.
func (d *Memory) Allocate(p pin.Processor, dir Direction) error {
	d.closeWaiter(p)

	function := functionInput
	if dir == Output {
		function = functionOutput
	}

	d.setFunction(p, function)

	if dir == Output {
		return nil
	}

	if err := d.SetPinResistor(p, ResistorNone); err != nil {
		return err
	}

	if !d.tree.available() {
		return nil
	}

	if err := d.tree.export(p); err != nil {
		return err
	}

	if err := d.SetPinDetectedEdges(p, EdgesBoth); err != nil {
		return errors.Join(err, d.tree.unexport(p))
	}

	return nil
}

// SetPinResistor implements Driver.
func (d *Memory) SetPinResistor(p pin.Processor, r Resistor) error {
	var code uint32

	switch r {
	case ResistorNone:
		code = pullOff
	case PullDown:
		code = pullDown
	case PullUp:
		code = pullUp
	default:
		return fmt.Errorf("set resistor on %s: unknown resistor %d", p, r)
	}

	clock, bit := bank(regPullClock0, p)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.write(regPullControl, code)
	time.Sleep(pullSettleTime)
	d.write(clock, bit)
	time.Sleep(pullSettleTime)
	d.write(regPullControl, 0)
	d.write(clock, 0)

	return nil
}

// SetPinDetectedEdges implements Driver by writing the sysfs edge file of p.
func (d *Memory) SetPinDetectedEdges(p pin.Processor, e Edges) error {
	if err := d.tree.setEdges(p, e); err != nil {
		return fmt.Errorf("detect %s edges on %s: %w", e, p, err)
	}

	return nil
}

// Wait implements Driver. The edge notification is only a hint, the level
// register is checked after arming the notification and before blocking, so
// an edge between the two is not lost.
func (d *Memory) Wait(p pin.Processor, waitForUp bool, timeout time.Duration) error {
	if v, _ := d.Read(p); v == waitForUp {
		return nil
	}

	w, err := d.waiter(p)
	if err != nil {
		log.Printf("Memory driver: no edge notification for %s, polling: %v", p, err)

		return pollUntil(func() (bool, error) { return d.Read(p) }, p, waitForUp, timeout, d.pollInterval)
	}

	timeout = waitTimeout(timeout)
	deadline := time.Now().Add(timeout)

	for {
		if err := w.arm(); err != nil {
			return fmt.Errorf("wait for %s: %w", p, err)
		}

		if v, _ := d.Read(p); v == waitForUp {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return timeoutError(p, waitForUp, timeout)
		}

		if _, err := w.block(remaining); err != nil {
			return fmt.Errorf("wait for %s: %w", p, err)
		}
	}
}

// Read implements Driver.
func (d *Memory) Read(p pin.Processor) (bool, error) {
	level, bit := bank(regLevel0, p)

	return d.read(level)&bit != 0, nil
}

// ReadPins implements Driver. Only the first bank is addressable by
// pin.Processors, so a single register read serves all pins.
func (d *Memory) ReadPins(pins pin.Processors) (pin.Processors, error) {
	return pin.Processors(d.read(regLevel0)) & pins, nil
}

// Write implements Driver. Dedicated set and clear registers are used so
// that no read-modify-write races with writers to other pins of the bank.
func (d *Memory) Write(p pin.Processor, value bool) error {
	base := regOutputClear0
	if value {
		base = regOutputSet0
	}

	offset, bit := bank(base, p)
	d.write(offset, bit)

	return nil
}

// Release implements Driver.
func (d *Memory) Release(p pin.Processor) error {
	d.closeWaiter(p)
	d.setFunction(p, functionInput)

	return d.tree.unexportIfExported(p)
}

// Close unmaps the register block. The driver must not be used afterwards.
func (d *Memory) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		var errs []error
		for p, w := range d.waiters {
			errs = append(errs, w.close())
			delete(d.waiters, p)
		}
		d.mu.Unlock()

		if d.release != nil {
			errs = append(errs, d.release())
		}

		d.closeErr = errors.Join(errs...)

		log.Print("Memory driver: register block released")
	})

	return d.closeErr
}

func (d *Memory) setFunction(p pin.Processor, function uint32) {
	offset, shift := functionSelect(p)

	d.mu.Lock()
	defer d.mu.Unlock()

	v := d.read(offset)
	v = v&^(functionMask<<shift) | function<<shift
	d.write(offset, v)
}

func (d *Memory) waiter(p pin.Processor) (edgeWaiter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if w, ok := d.waiters[p]; ok {
		return w, nil
	}

	if !d.tree.exported(p) {
		return nil, fmt.Errorf("%s not exported in %s", p, d.tree.root)
	}

	w, err := d.newWaiter(d.tree.attr(p, "value"))
	if err != nil {
		return nil, err
	}

	d.waiters[p] = w

	return w, nil
}

func (d *Memory) closeWaiter(p pin.Processor) {
	d.mu.Lock()
	w, ok := d.waiters[p]
	delete(d.waiters, p)
	d.mu.Unlock()

	if ok {
		if err := w.close(); err != nil {
			log.Printf("Memory driver: closing edge notification of %s: %v", p, err)
		}
	}
}

// read loads a register twice, the second value is authoritative.
func (d *Memory) read(offset int) uint32 {
	d.regs.load(offset)

	return d.regs.load(offset)
}

// write stores a register twice.
func (d *Memory) write(offset int, value uint32) {
	d.regs.store(offset, value)
	d.regs.store(offset, value)
}
