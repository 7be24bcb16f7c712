// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// Sysfs drives pins through the legacy /sys/class/gpio interface.
//
// Every allocated pin keeps its value file open until it is released. The
// open files belong to the Sysfs instance; independent instances never share
// file descriptors.
type Sysfs struct {
	tree         sysfsTree
	pollInterval time.Duration

	mu    sync.Mutex
	files map[pin.Processor]*os.File
}

var _ Driver = &Sysfs{}

// NewSysfs returns a driver for the sysfs interface. It does not touch the
// file system before the first Allocate.
func NewSysfs(opts ...Option) *Sysfs {
	o := newOptions(opts)

	return &Sysfs{
		tree:         sysfsTree{root: o.sysfsRoot},
		pollInterval: o.pollInterval,
		files:        make(map[pin.Processor]*os.File),
	}
}

// Capabilities implements Driver.
func (d *Sysfs) Capabilities() Capabilities {
	return CanWorkOnThirdPartyComputers
}

// Allocate implements Driver.
func (d *Sysfs) Allocate(p pin.Processor, dir Direction) error {
	if err := d.Release(p); err != nil {
		return err
	}

	if err := d.tree.export(p); err != nil {
		return err
	}

	if err := d.tree.setDirection(p, dir); err != nil {
		return errors.Join(fmt.Errorf("set %s direction %s: %w", p, dir, err), d.tree.unexport(p))
	}

	f, err := d.tree.openValue(p)
	if err != nil {
		return errors.Join(fmt.Errorf("open %s value: %w", p, err), d.tree.unexport(p))
	}

	d.mu.Lock()
	d.files[p] = f
	d.mu.Unlock()

	log.Printf("Sysfs driver: allocated %s as %s", p, dir)

	return nil
}

// SetPinResistor is not supported by the sysfs interface.
func (d *Sysfs) SetPinResistor(p pin.Processor, r Resistor) error {
	return fmt.Errorf("set %s resistor on %s: %w", r, p, ErrUnsupported)
}

// SetPinDetectedEdges is not supported by this driver.
func (d *Sysfs) SetPinDetectedEdges(p pin.Processor, e Edges) error {
	return fmt.Errorf("detect %s edges on %s: %w", e, p, ErrUnsupported)
}

// Wait implements Driver by polling the value file.
func (d *Sysfs) Wait(p pin.Processor, waitForUp bool, timeout time.Duration) error {
	return pollUntil(func() (bool, error) { return d.Read(p) }, p, waitForUp, timeout, d.pollInterval)
}

// Read implements Driver.
func (d *Sysfs) Read(p pin.Processor) (bool, error) {
	f, err := d.file(p)
	if err != nil {
		return false, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("read %s: %w", p, err)
	}

	var buf [1]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return false, fmt.Errorf("read %s: %w", p, err)
	}

	return buf[0] == '1', nil
}

// ReadPins implements Driver. Each pin is read separately.
func (d *Sysfs) ReadPins(pins pin.Processors) (pin.Processors, error) {
	var high pin.Processors

	for _, p := range pins.Pins() {
		v, err := d.Read(p)
		if err != nil {
			return 0, err
		}

		if v {
			high = high.Set(p)
		}
	}

	return high, nil
}

// Write implements Driver.
func (d *Sysfs) Write(p pin.Processor, value bool) error {
	f, err := d.file(p)
	if err != nil {
		return err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}

	b := byte('0')
	if value {
		b = '1'
	}

	if _, err := f.Write([]byte{b}); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}

	return nil
}

// Release implements Driver.
func (d *Sysfs) Release(p pin.Processor) error {
	d.mu.Lock()
	f, ok := d.files[p]
	delete(d.files, p)
	d.mu.Unlock()

	var errs []error
	if ok {
		errs = append(errs, f.Close())
	}

	errs = append(errs, d.tree.unexportIfExported(p))

	return errors.Join(errs...)
}

// Close closes the value files of pins that are still allocated. The pins stay exported.
func (d *Sysfs) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for p, f := range d.files {
		errs = append(errs, f.Close())
		delete(d.files, p)
	}

	return errors.Join(errs...)
}

func (d *Sysfs) file(p pin.Processor) (*os.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, ok := d.files[p]
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotAllocated)
	}

	return f, nil
}
