// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"fmt"
	"log"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPIO drives pins with the go-rpio library. go-rpio maps the register block
// once per process, so all RPIO instances share one mapping and closing any
// of them unmaps it for all.
type RPIO struct {
	pollInterval time.Duration
}

var _ Driver = &RPIO{}

// NewRPIO maps the GPIO registers through go-rpio.
func NewRPIO(opts ...Option) (*RPIO, error) {
	o := newOptions(opts)

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("%w: go-rpio: %v", ErrHardwareAccess, err)
	}

	log.Print("RPIO driver: GPIO memory mapped")

	return &RPIO{pollInterval: o.pollInterval}, nil
}

// Capabilities implements Driver.
func (d *RPIO) Capabilities() Capabilities {
	return CanSetPinResistor | CanSetPinDetectedEdges | CanChangePinDirectionRapidly
}

// Allocate implements Driver. Edge detection stays off until
// SetPinDetectedEdges enables it.
func (d *RPIO) Allocate(p pin.Processor, dir Direction) error {
	rp := rpio.Pin(p)

	if dir == Output {
		rp.Output()

		return nil
	}

	rp.Input()
	rp.PullOff()

	return nil
}

// SetPinResistor implements Driver.
func (d *RPIO) SetPinResistor(p pin.Processor, r Resistor) error {
	switch r {
	case ResistorNone:
		rpio.Pin(p).Pull(rpio.PullOff)
	case PullDown:
		rpio.Pin(p).Pull(rpio.PullDown)
	case PullUp:
		rpio.Pin(p).Pull(rpio.PullUp)
	default:
		return fmt.Errorf("set resistor on %s: unknown resistor %d", p, r)
	}

	return nil
}

// SetPinDetectedEdges implements Driver using the event detect registers.
func (d *RPIO) SetPinDetectedEdges(p pin.Processor, e Edges) error {
	rpio.Pin(p).Detect(rpioEdge(e))

	return nil
}

// Wait implements Driver. The event detect status is polled as a hint,
// the level is checked on every round.
func (d *RPIO) Wait(p pin.Processor, waitForUp bool, timeout time.Duration) error {
	rp := rpio.Pin(p)

	return pollUntil(func() (bool, error) {
		rp.EdgeDetected() // clears the event status

		return rp.Read() == rpio.High, nil
	}, p, waitForUp, timeout, d.pollInterval)
}

// Read implements Driver.
func (d *RPIO) Read(p pin.Processor) (bool, error) {
	return rpio.Pin(p).Read() == rpio.High, nil
}

// ReadPins implements Driver.
func (d *RPIO) ReadPins(pins pin.Processors) (pin.Processors, error) {
	var high pin.Processors

	for _, p := range pins.Pins() {
		if rpio.Pin(p).Read() == rpio.High {
			high = high.Set(p)
		}
	}

	return high, nil
}

// Write implements Driver.
func (d *RPIO) Write(p pin.Processor, value bool) error {
	if value {
		rpio.Pin(p).High()
	} else {
		rpio.Pin(p).Low()
	}

	return nil
}

// Release implements Driver.
func (d *RPIO) Release(p pin.Processor) error {
	rp := rpio.Pin(p)
	rp.Detect(rpio.NoEdge)
	rp.Input()

	return nil
}

// Close unmaps the go-rpio register mapping.
func (d *RPIO) Close() error {
	log.Print("RPIO driver: unmapping GPIO memory")

	return rpio.Close()
}

func rpioEdge(e Edges) rpio.Edge {
	switch e {
	case EdgesRising:
		return rpio.RiseEdge
	case EdgesFalling:
		return rpio.FallEdge
	case EdgesBoth:
		return rpio.AnyEdge
	default:
		return rpio.NoEdge
	}
}
