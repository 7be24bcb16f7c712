// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package connection manages a set of configured pins as one unit.
//
// A Connection opens all of its pins together, caches their logical values,
// samples inputs periodically to detect changes and closes everything again.
// The logical value of a pin is its electrical level, inverted for reversed
// configurations. Switch inputs keep a logical value of their own that toggles
// on each active edge.
//
// Structural operations (Open, Close, Add, Remove) and the sampler are
// mutually exclusive. Get and Set on open pins may be called from any
// goroutine, but setting the same output from several goroutines leaves the
// final value to the scheduler.
//
// Events are delivered synchronously. Handlers may call Get, Set, Toggle and
// Blink, but must not call Open, Close, Add or Remove of the same connection.
package connection

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/driver"
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

const (
	// DefaultPollInterval is the sampling period of inputs.
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultBlinkDuration applies to Blink calls with a non-positive duration.
	DefaultBlinkDuration = 250 * time.Millisecond
)

// Option configures a Connection.
type Option func(*Connection)

// WithPollInterval sets the sampling period of inputs.
func WithPollInterval(d time.Duration) Option {
	return func(c *Connection) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithErrorHandler sets the function receiving errors of the sampler.
// By default these errors are logged.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Connection) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// entry is the state of one configured pin.
type entry struct {
	config *PinConfiguration
	// raw is the last level observed by the sampler. Guarded by mu.
	raw bool
	// value is the logical value. Guarded by stateMu.
	value bool
}

// Connection is a set of configured pins on one driver.
type Connection struct {
	drv          driver.Driver
	pollInterval time.Duration
	onError      func(error)

	// lifeMu serializes Open and Close, including the wait for the sampler.
	lifeMu sync.Mutex
	// mu serializes the sampler with Open, Close, Add and Remove.
	mu   sync.Mutex
	open atomic.Bool
	stop chan struct{}
	done chan struct{}

	// stateMu guards the maps and the cached values.
	stateMu sync.RWMutex
	pins    map[pin.Processor]*entry
	names   map[string]*entry

	subMu   sync.Mutex
	subs    map[uint64]func(PinEvent)
	nextSub uint64
}

// New returns a closed connection of configs on d.
func New(d driver.Driver, configs []*PinConfiguration, opts ...Option) (*Connection, error) {
	c := &Connection{
		drv:          d,
		pollInterval: DefaultPollInterval,
		onError: func(err error) {
			log.Printf("Connection: %v", err)
		},
		pins:  make(map[pin.Processor]*entry),
		names: make(map[string]*entry),
	}

	for _, opt := range opts {
		opt(c)
	}

	for _, cfg := range configs {
		if err := c.insert(cfg); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Connection) insert(cfg *PinConfiguration) error {
	if cfg == nil {
		return errors.New("nil pin configuration")
	}

	if err := cfg.validate(); err != nil {
		return err
	}

	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if _, ok := c.pins[cfg.Pin]; ok {
		return fmt.Errorf("%s: %w", cfg.Pin, ErrDuplicatePin)
	}

	if cfg.Name != "" {
		if _, ok := c.names[cfg.Name]; ok {
			return fmt.Errorf("%q: %w", cfg.Name, ErrDuplicateName)
		}
	}

	e := &entry{config: cfg}
	c.pins[cfg.Pin] = e

	if cfg.Name != "" {
		c.names[cfg.Name] = e
	}

	return nil
}

func (c *Connection) delete(e *entry) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	delete(c.pins, e.config.Pin)

	if e.config.Name != "" {
		delete(c.names, e.config.Name)
	}
}

// entries returns the configured pins ordered by pin number.
func (c *Connection) entries() []*entry {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	out := make([]*entry, 0, len(c.pins))
	for _, e := range c.pins {
		out = append(out, e)
	}

	slices.SortFunc(out, func(a, b *entry) int {
		return int(a.config.Pin) - int(b.config.Pin)
	})

	return out
}

func (c *Connection) setValue(e *entry, v bool) {
	c.stateMu.Lock()
	e.value = v
	c.stateMu.Unlock()
}

func (c *Connection) getValue(e *entry) bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	return e.value
}

// IsOpen reports whether the connection is open.
func (c *Connection) IsOpen() bool {
	return c.open.Load()
}

// Open allocates all pins, writes the initial value of every output, seeds
// every input from one reading and starts the sampler. Each input publishes
// one initial event. Opening an open connection does nothing.
//
// If a pin fails to open, the pins opened so far are closed again and a
// *PinError is returned.
func (c *Connection) Open() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open.Load() {
		return nil
	}

	var (
		opened []*entry
		events []PinEvent
	)

	perr := newPinError("opening connection failed")

	for _, e := range c.entries() {
		ev, err := c.openPin(e)
		if err != nil {
			perr.add(e.config, err)

			continue
		}

		opened = append(opened, e)
		events = append(events, ev...)
	}

	if err := perr.orNil(); err != nil {
		for _, e := range opened {
			if _, cerr := c.closePin(e); cerr != nil {
				log.Printf("Connection: rollback of %s: %v", e.config.Pin, cerr)
			}
		}

		return err
	}

	c.open.Store(true)
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go c.run(c.stop, c.done)

	log.Printf("Connection: opened %d pins", len(opened))

	c.publish(events...)

	return nil
}

// Close drives every output to logical low, publishing that value, releases
// all pins and stops the sampler. No sampler event is published after Close
// returns. Closing a closed connection does nothing.
//
// All pins are released even if one of them fails, the failures are returned
// as *PinError.
func (c *Connection) Close() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open.Load() {
		return nil
	}

	c.open.Store(false)

	var events []PinEvent

	perr := newPinError("closing connection failed")

	for _, e := range c.entries() {
		ev, err := c.closePin(e)
		if err != nil {
			perr.add(e.config, err)
		}

		events = append(events, ev...)
	}

	c.publish(events...)

	log.Print("Connection: closed")

	return perr.orNil()
}

// Add inserts cfg. If the connection is open, the pin is opened like Open
// does for all pins.
func (c *Connection) Add(cfg *PinConfiguration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.insert(cfg); err != nil {
		return err
	}

	if !c.open.Load() {
		return nil
	}

	e := c.pins[cfg.Pin]

	events, err := c.openPin(e)
	if err != nil {
		c.delete(e)

		return err
	}

	log.Printf("Connection: added %s", cfg)

	c.publish(events...)

	return nil
}

// Remove closes the selected pin like Close does for all pins and removes it
// from the connection.
func (c *Connection) Remove(sel Selector) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.lookup(sel)
	if err != nil {
		return err
	}

	var events []PinEvent

	if c.open.Load() {
		events, err = c.closePin(e)
	}

	c.delete(e)
	c.publish(events...)

	log.Printf("Connection: removed %s", e.config)

	return err
}

// openPin allocates and initializes the pin of e. Must be called with mu held.
func (c *Connection) openPin(e *entry) ([]PinEvent, error) {
	cfg := e.config

	if err := c.drv.Allocate(cfg.Pin, cfg.Direction); err != nil {
		return nil, err
	}

	if cfg.Direction == driver.Output {
		if err := c.drv.Write(cfg.Pin, cfg.raw(cfg.Initial)); err != nil {
			return nil, errorAndRelease(c.drv, cfg.Pin, err)
		}

		c.setValue(e, cfg.Initial)

		return nil, nil
	}

	if cfg.Resistor != driver.ResistorNone {
		if err := driver.SetResistor(c.drv, cfg.Pin, cfg.Resistor); err != nil {
			return nil, errorAndRelease(c.drv, cfg.Pin, err)
		}
	}

	raw, err := c.drv.Read(cfg.Pin)
	if err != nil {
		return nil, errorAndRelease(c.drv, cfg.Pin, err)
	}

	e.raw = raw

	value := cfg.raw(raw)
	if cfg.Switch {
		value = cfg.Initial
	}

	c.setValue(e, value)

	return []PinEvent{{Config: cfg, Value: value}}, nil
}

// closePin drives an output low and releases the pin of e. Must be called
// with mu held. The output event is returned even if the release fails.
func (c *Connection) closePin(e *entry) ([]PinEvent, error) {
	cfg := e.config

	var (
		events []PinEvent
		err    error
	)

	if cfg.Direction == driver.Output {
		err = c.drv.Write(cfg.Pin, cfg.raw(false))
		c.setValue(e, false)
		events = append(events, PinEvent{Config: cfg, Value: false})
	}

	if rerr := c.drv.Release(cfg.Pin); rerr != nil && err == nil {
		err = rerr
	}

	return events, err
}

func errorAndRelease(d driver.Driver, p pin.Processor, err error) error {
	if rerr := d.Release(p); rerr != nil {
		log.Printf("Connection: release of %s after failure: %v", p, rerr)
	}

	return err
}

// Pins returns the configurations ordered by pin number.
func (c *Connection) Pins() []*PinConfiguration {
	entries := c.entries()

	out := make([]*PinConfiguration, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.config)
	}

	return out
}

// Lookup returns the configuration sel refers to.
func (c *Connection) Lookup(sel Selector) (*PinConfiguration, error) {
	e, err := c.lookup(sel)
	if err != nil {
		return nil, err
	}

	return e.config, nil
}

// Contains reports whether sel refers to a pin of the connection.
func (c *Connection) Contains(sel Selector) bool {
	_, err := c.lookup(sel)

	return err == nil
}

// Get returns the cached logical value of the selected pin. For inputs this
// is the value of the last sample, the pin is not read.
func (c *Connection) Get(sel Selector) (bool, error) {
	e, err := c.lookupOpen(sel)
	if err != nil {
		return false, err
	}

	return c.getValue(e), nil
}

// Set writes the logical value v to the selected output and publishes it.
func (c *Connection) Set(sel Selector, v bool) error {
	e, err := c.lookupOpen(sel)
	if err != nil {
		return err
	}

	cfg := e.config
	if cfg.Direction != driver.Output {
		return fmt.Errorf("%s: %w", cfg.Pin, ErrInputNotWritable)
	}

	if err := c.drv.Write(cfg.Pin, cfg.raw(v)); err != nil {
		return err
	}

	c.setValue(e, v)
	c.publish(PinEvent{Config: cfg, Value: v})

	return nil
}

// Toggle inverts the logical value of the selected output.
func (c *Connection) Toggle(sel Selector) error {
	v, err := c.Get(sel)
	if err != nil {
		return err
	}

	return c.Set(sel, !v)
}

// Blink sets the selected output, waits for d and clears it again. A
// non-positive d means DefaultBlinkDuration. Blink blocks for d.
func (c *Connection) Blink(sel Selector, d time.Duration) error {
	if d <= 0 {
		d = DefaultBlinkDuration
	}

	if err := c.Set(sel, true); err != nil {
		return err
	}

	time.Sleep(d)

	return c.Set(sel, false)
}

func (c *Connection) lookupOpen(sel Selector) (*entry, error) {
	if !c.IsOpen() {
		return nil, ErrNotOpen
	}

	return c.lookup(sel)
}

func (c *Connection) lookup(sel Selector) (*entry, error) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	return sel.lookup(c)
}

// Selector refers to a pin of a Connection: a configuration, a processor pin
// via ByPin or a name via ByName.
type Selector interface {
	// lookup is called with stateMu held for reading.
	lookup(c *Connection) (*entry, error)
}

type byPin pin.Processor

// ByPin selects the configuration of p.
func ByPin(p pin.Processor) Selector {
	return byPin(p)
}

func (s byPin) lookup(c *Connection) (*entry, error) {
	e, ok := c.pins[pin.Processor(s)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", pin.Processor(s), ErrUnknownPin)
	}

	return e, nil
}

type byName string

// ByName selects the configuration named name.
func ByName(name string) Selector {
	return byName(name)
}

func (s byName) lookup(c *Connection) (*entry, error) {
	e, ok := c.names[string(s)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", string(s), ErrUnknownName)
	}

	return e, nil
}

func (cfg *PinConfiguration) lookup(c *Connection) (*entry, error) {
	e, ok := c.pins[cfg.Pin]
	if !ok || e.config != cfg {
		return nil, fmt.Errorf("%s: %w", cfg, ErrUnknownPin)
	}

	return e, nil
}
