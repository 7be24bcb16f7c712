// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connection

import (
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// PinEvent notifies about the logical value of a pin.
type PinEvent struct {
	Config *PinConfiguration
	Value  bool
}

// Pin returns the processor pin of the event.
func (e PinEvent) Pin() pin.Processor {
	return e.Config.Pin
}

// Name returns the configured name of the pin, if any.
func (e PinEvent) Name() string {
	return e.Config.Name
}

// Subscribe registers fn for all events of the connection and returns a
// function removing it again. Calling cancel more than once is harmless.
//
// Events of the sampler are delivered on the sampler goroutine, events of Set
// on the goroutine calling Set. fn must not call Open, Close, Add or Remove.
func (c *Connection) Subscribe(fn func(PinEvent)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.subs == nil {
		c.subs = make(map[uint64]func(PinEvent))
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()

		delete(c.subs, id)

		if len(c.subs) == 0 {
			c.subs = nil
		}
	}
}

func (c *Connection) publish(events ...PinEvent) {
	c.subMu.Lock()

	var handlers []func(PinEvent)
	if c.subs != nil {
		handlers = make([]func(PinEvent), 0, len(c.subs))
		for _, fn := range c.subs {
			handlers = append(handlers, fn)
		}
	}

	c.subMu.Unlock()

	for _, ev := range events {
		if ev.Config.OnChange != nil {
			ev.Config.OnChange(ev.Value)
		}

		for _, fn := range handlers {
			fn(ev)
		}
	}
}
