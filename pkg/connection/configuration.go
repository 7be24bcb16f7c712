// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connection

import (
	"fmt"
	"strings"

	"github.com/BlindspotSoftware/gpiohal/pkg/driver"
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// PinConfiguration describes one pin of a Connection.
//
// Configurations are built with Output, Input or Switch and refined with the
// chainable setters before they are handed to a Connection. Once owned by a
// Connection a configuration must not be modified anymore.
type PinConfiguration struct {
	// Pin is the processor pin.
	Pin pin.Processor
	// Direction is fixed for the lifetime of the configuration.
	Direction driver.Direction
	// Name optionally identifies the pin within its Connection.
	Name string
	// Reversed inverts the electrical level to obtain the logical value.
	Reversed bool
	// Switch makes an input toggle its logical value on each active edge
	// instead of following the level. The active edge is the one to a logical
	// high level.
	Switch bool
	// Resistor is applied to inputs when they are opened.
	Resistor driver.Resistor
	// Initial is the logical value of an output after opening and the
	// initial toggle state of a switch.
	Initial bool
	// OnChange is called with the new logical value of the pin.
	OnChange func(value bool)
}

// Output returns a configuration of p as output, initially logical low.
func Output(p pin.Processor) *PinConfiguration {
	return &PinConfiguration{Pin: p, Direction: driver.Output}
}

// Input returns a configuration of p as input following the pin level.
func Input(p pin.Processor) *PinConfiguration {
	return &PinConfiguration{Pin: p, Direction: driver.Input}
}

// Switch returns a configuration of p as input toggling on each active edge,
// like a push button turned into an on/off switch.
func Switch(p pin.Processor) *PinConfiguration {
	return &PinConfiguration{Pin: p, Direction: driver.Input, Switch: true}
}

// Named sets the name of the configuration.
func (c *PinConfiguration) Named(name string) *PinConfiguration {
	c.Name = name

	return c
}

// Revert inverts the sense of the pin.
func (c *PinConfiguration) Revert() *PinConfiguration {
	c.Reversed = true

	return c
}

// Enable sets the initial logical value to high.
func (c *PinConfiguration) Enable() *PinConfiguration {
	c.Initial = true

	return c
}

// WithResistor sets the resistor of an input.
func (c *PinConfiguration) WithResistor(r driver.Resistor) *PinConfiguration {
	c.Resistor = r

	return c
}

// OnStatusChanged sets the callback for value changes.
func (c *PinConfiguration) OnStatusChanged(fn func(value bool)) *PinConfiguration {
	c.OnChange = fn

	return c
}

// raw converts a logical value to the electrical level and back.
func (c *PinConfiguration) raw(v bool) bool {
	return v != c.Reversed
}

func (c *PinConfiguration) validate() error {
	if !c.Pin.Valid() {
		return fmt.Errorf("invalid pin %d", c.Pin)
	}

	if c.Direction == driver.Output && c.Switch {
		return fmt.Errorf("%s: output cannot be a switch", c.Pin)
	}

	if c.Direction == driver.Output && c.Resistor != driver.ResistorNone {
		return fmt.Errorf("%s: resistor on output", c.Pin)
	}

	return nil
}

// Kind returns "out", "in" or "switch".
func (c *PinConfiguration) Kind() string {
	if c.Switch {
		return "switch"
	}

	return c.Direction.String()
}

func (c *PinConfiguration) String() string {
	var b strings.Builder

	b.WriteString(c.Pin.String())

	if c.Name != "" {
		fmt.Fprintf(&b, " (%s)", c.Name)
	}

	fmt.Fprintf(&b, " %s", c.Kind())

	if c.Reversed {
		b.WriteString(" reversed")
	}

	return b.String()
}
