// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connection

import (
	"fmt"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/driver"
)

// run samples the inputs every pollInterval until stop is closed.
func (c *Connection) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

// sample reads every input once and publishes the changed logical values.
//
// Changes are detected against the previous level, not the published value.
// A plain input publishes its level on every change. A switch toggles and
// publishes only on the active edge, the opposite edge just updates the level.
func (c *Connection) sample() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open.Load() {
		return
	}

	var events []PinEvent

	for _, e := range c.entries() {
		cfg := e.config
		if cfg.Direction != driver.Input {
			continue
		}

		raw, err := c.drv.Read(cfg.Pin)
		if err != nil {
			c.onError(fmt.Errorf("sampling %s: %w", cfg.Pin, err))

			continue
		}

		if raw == e.raw {
			continue
		}

		e.raw = raw

		switch {
		case !cfg.Switch:
			v := cfg.raw(raw)
			c.setValue(e, v)
			events = append(events, PinEvent{Config: cfg, Value: v})
		case cfg.raw(raw):
			v := !c.getValue(e)
			c.setValue(e, v)
			events = append(events, PinEvent{Config: cfg, Value: v})
		}
	}

	c.publish(events...)
}
