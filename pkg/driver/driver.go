// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver provides access to the GPIO controller of the BCM2835 family
// system-on-chip.
//
// Three implementations share the Driver interface:
//   - Memory drives the controller registers directly through /dev/gpiomem or /dev/mem.
//   - Sysfs uses the legacy /sys/class/gpio interface of the kernel.
//   - RPIO delegates to the go-rpio library.
//
// Optional operations are announced by Capabilities. Callers that want to stay
// portable across drivers ask before they use them, or go through helpers
// like SetResistor that do so.
//
// Drivers do not arbitrate pin usage. Allocating a pin twice simply overwrites
// the hardware state; it is the callers responsibility to not share pins
// between users, in this process or in others.
package driver

import (
	"errors"
	"fmt"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

var (
	// ErrUnsupported is returned for operations the driver lacks the capability for.
	ErrUnsupported = fmt.Errorf("gpio driver: %w", errors.ErrUnsupported)
	// ErrTimeout is returned by Wait if the pin did not reach the requested state in time.
	ErrTimeout = errors.New("gpio driver: timeout")
	// ErrHardwareAccess is returned by constructors that fail to reach the GPIO controller.
	ErrHardwareAccess = errors.New("gpio driver: hardware access failed")
	// ErrNotAllocated is returned for I/O on a pin that is not allocated, where the
	// driver is able to tell.
	ErrNotAllocated = errors.New("gpio driver: pin not allocated")
)

// DefaultWaitTimeout applies to Wait calls with a non-positive timeout.
const DefaultWaitTimeout = 5000 * time.Millisecond

// Driver is a GPIO controller.
//
// A pin must be allocated before it is read or written. Release is idempotent
// and may be called for pins that were never allocated.
type Driver interface {
	// Capabilities reports the optional operations supported by the driver.
	Capabilities() Capabilities
	// Allocate prepares p for use in the given direction.
	Allocate(p pin.Processor, d Direction) error
	// SetPinResistor configures the internal pull resistor of an input pin.
	// Requires CanSetPinResistor.
	SetPinResistor(p pin.Processor, r Resistor) error
	// SetPinDetectedEdges declares the transitions observable by Wait.
	// Requires CanSetPinDetectedEdges.
	SetPinDetectedEdges(p pin.Processor, e Edges) error
	// Wait blocks until p is high (waitForUp) or low. A non-positive timeout
	// means DefaultWaitTimeout. It returns ErrTimeout if the state is not reached in time.
	Wait(p pin.Processor, waitForUp bool, timeout time.Duration) error
	// Read returns the electrical level of p.
	Read(p pin.Processor) (bool, error)
	// ReadPins returns the subset of pins that are high.
	ReadPins(pins pin.Processors) (pin.Processors, error)
	// Write drives an output pin high (true) or low (false).
	Write(p pin.Processor, value bool) error
	// Release gives p back, leaving it as an input.
	Release(p pin.Processor) error
	// Close releases the resources held by the driver itself. Pins are not released.
	Close() error
}

// Capabilities is a set of optional driver features.
type Capabilities uint8

const (
	// CanSetPinResistor means SetPinResistor is supported.
	CanSetPinResistor Capabilities = 1 << iota
	// CanSetPinDetectedEdges means SetPinDetectedEdges is supported.
	CanSetPinDetectedEdges
	// CanChangePinDirectionRapidly means re-allocating a pin is cheap enough
	// for protocols that switch direction per bit.
	CanChangePinDirectionRapidly
	// CanWorkOnThirdPartyComputers means the driver does not depend on the
	// BCM2835 register layout.
	CanWorkOnThirdPartyComputers
)

// Has reports whether all capabilities of want are present in c.
func (c Capabilities) Has(want Capabilities) bool {
	return c&want == want
}

// Direction is the usage of a pin.
type Direction uint8

const (
	// Input means the level of the pin is controlled externally.
	Input Direction = iota
	// Output means the level of the pin is driven by the controller.
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "out"
	}

	return "in"
}

// Resistor is the internal pull resistor setting of an input pin.
type Resistor uint8

const (
	// ResistorNone lets the input float.
	ResistorNone Resistor = iota
	// PullDown holds an unconnected input low.
	PullDown
	// PullUp holds an unconnected input high.
	PullUp
)

func (r Resistor) String() string {
	switch r {
	case ResistorNone:
		return "none"
	case PullDown:
		return "pull-down"
	case PullUp:
		return "pull-up"
	default:
		return "unknown"
	}
}

// Edges is the set of transitions reported by the kernel for an input pin.
type Edges uint8

const (
	// EdgesNone disables edge detection.
	EdgesNone Edges = iota
	// EdgesRising reports low to high transitions.
	EdgesRising
	// EdgesFalling reports high to low transitions.
	EdgesFalling
	// EdgesBoth reports all transitions.
	EdgesBoth
)

// String returns the value as written to the sysfs edge file.
func (e Edges) String() string {
	switch e {
	case EdgesRising:
		return "rising"
	case EdgesFalling:
		return "falling"
	case EdgesBoth:
		return "both"
	default:
		return "none"
	}
}

// SetResistor configures the pull resistor of p if d supports it and
// returns ErrUnsupported without calling into the driver otherwise.
func SetResistor(d Driver, p pin.Processor, r Resistor) error {
	if !d.Capabilities().Has(CanSetPinResistor) {
		return fmt.Errorf("set %s resistor on %s: %w", r, p, ErrUnsupported)
	}

	return d.SetPinResistor(p, r)
}

// SetDetectedEdges configures edge detection of p if d supports it and
// returns ErrUnsupported without calling into the driver otherwise.
func SetDetectedEdges(d Driver, p pin.Processor, e Edges) error {
	if !d.Capabilities().Has(CanSetPinDetectedEdges) {
		return fmt.Errorf("detect %s edges on %s: %w", e, p, ErrUnsupported)
	}

	return d.SetPinDetectedEdges(p, e)
}

// New returns the driver registered under name. The empty name selects the
// memory driver.
//
//nolint:ireturn
func New(name string, opts ...Option) (Driver, error) {
	switch name {
	case "", MemoryName:
		d, err := NewMemory(opts...)
		if err != nil {
			return nil, err
		}

		return d, nil
	case SysfsName:
		return NewSysfs(opts...), nil
	case RPIOName:
		d, err := NewRPIO(opts...)
		if err != nil {
			return nil, err
		}

		return d, nil
	default:
		return nil, fmt.Errorf("unknown gpio driver %q", name)
	}
}

// Names of the available drivers as accepted by New.
const (
	MemoryName = "memory"
	SysfsName  = "sysfs"
	RPIOName   = "rpio"
)

const (
	defaultSysfsRoot    = "/sys/class/gpio"
	defaultMemoryDevice = "/dev/gpiomem"
	defaultPollInterval = time.Millisecond
)

type options struct {
	sysfsRoot    string
	memoryDevice string
	pollInterval time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		sysfsRoot:    defaultSysfsRoot,
		memoryDevice: defaultMemoryDevice,
		pollInterval: defaultPollInterval,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Option configures a driver constructor.
type Option func(*options)

// WithSysfsRoot sets the directory of the kernel GPIO sysfs interface.
// Default is /sys/class/gpio.
func WithSysfsRoot(path string) Option {
	return func(o *options) {
		o.sysfsRoot = path
	}
}

// WithMemoryDevice sets the device the memory driver maps the registers from.
// Default is /dev/gpiomem, falling back to /dev/mem if it does not exist.
func WithMemoryDevice(path string) Option {
	return func(o *options) {
		o.memoryDevice = path
	}
}

// WithPollInterval sets the interval at which drivers without edge
// notification re-read a pin during Wait.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

func waitTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultWaitTimeout
	}

	return timeout
}

func timeoutError(p pin.Processor, waitForUp bool, timeout time.Duration) error {
	level := "low"
	if waitForUp {
		level = "high"
	}

	return fmt.Errorf("%s did not become %s within %s: %w", p, level, timeout, ErrTimeout)
}

// pollUntil re-reads p every interval until it equals waitForUp or the timeout elapses.
func pollUntil(read func() (bool, error), p pin.Processor, waitForUp bool, timeout, interval time.Duration) error {
	timeout = waitTimeout(timeout)
	deadline := time.Now().Add(timeout)

	for {
		v, err := read()
		if err != nil {
			return err
		}

		if v == waitForUp {
			return nil
		}

		if !time.Now().Before(deadline) {
			return timeoutError(p, waitForUp, timeout)
		}

		time.Sleep(interval)
	}
}
