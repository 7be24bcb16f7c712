// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BlindspotSoftware/gpiohal/internal/output"
	"github.com/BlindspotSoftware/gpiohal/pkg/connection"
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

type command struct {
	minArgs, maxArgs int
	run              func(app *application, conn *connection.Connection, args []string) error
}

//nolint:gochecknoglobals
var commands = map[string]command{
	"list":   {0, 0, (*application).list},
	"get":    {1, 1, (*application).get},
	"set":    {2, 3, (*application).set},
	"toggle": {1, 2, (*application).toggle},
	"blink":  {1, 2, (*application).blink},
	"watch":  {0, 1, (*application).watch},
}

func (app *application) list(conn *connection.Connection, _ []string) error {
	pins := conn.Pins()
	states := make([]output.PinState, 0, len(pins))

	for _, cfg := range pins {
		v, err := conn.Get(cfg)
		if err != nil {
			return err
		}

		states = append(states, pinState(cfg, v))
	}

	app.formatter.WriteContent(output.Content{Type: output.TypePinList, Data: states})

	return nil
}

func (app *application) get(conn *connection.Connection, args []string) error {
	cfg, err := conn.Lookup(selector(args[0]))
	if err != nil {
		return err
	}

	v, err := conn.Get(cfg)
	if err != nil {
		return err
	}

	app.writeValue(cfg, v)

	return nil
}

func (app *application) set(conn *connection.Connection, args []string) error {
	v, err := parseValue(args[1])
	if err != nil {
		return err
	}

	hold, err := optionalDuration(args[2:])
	if err != nil {
		return err
	}

	cfg, err := conn.Lookup(selector(args[0]))
	if err != nil {
		return err
	}

	if err := conn.Set(cfg, v); err != nil {
		return err
	}

	app.writeValue(cfg, v)

	return app.hold(hold)
}

func (app *application) toggle(conn *connection.Connection, args []string) error {
	hold, err := optionalDuration(args[1:])
	if err != nil {
		return err
	}

	cfg, err := conn.Lookup(selector(args[0]))
	if err != nil {
		return err
	}

	if err := conn.Toggle(cfg); err != nil {
		return err
	}

	v, err := conn.Get(cfg)
	if err != nil {
		return err
	}

	app.writeValue(cfg, v)

	return app.hold(hold)
}

func (app *application) blink(conn *connection.Connection, args []string) error {
	d, err := optionalDuration(args[1:])
	if err != nil {
		return err
	}

	return conn.Blink(selector(args[0]), d)
}

func (app *application) watch(conn *connection.Connection, args []string) error {
	d, err := optionalDuration(args)
	if err != nil {
		return err
	}

	if err := app.list(conn, nil); err != nil {
		return err
	}

	defer conn.Subscribe(func(ev connection.PinEvent) {
		state := pinState(ev.Config, ev.Value)
		state.Timestamp = time.Now()
		app.formatter.WriteContent(output.Content{Type: output.TypePinEvent, Data: state})
	})()

	return app.hold(d)
}

// hold blocks for d, or until the application is interrupted if d is zero.
func (app *application) hold(d time.Duration) error {
	if d <= 0 {
		<-app.ctx.Done()

		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-app.ctx.Done():
	}

	return nil
}

func (app *application) writeValue(cfg *connection.PinConfiguration, v bool) {
	app.formatter.WriteContent(output.Content{Type: output.TypePinValue, Data: pinState(cfg, v)})
}

func pinState(cfg *connection.PinConfiguration, v bool) output.PinState {
	return output.PinState{
		Pin:   cfg.Pin.String(),
		Name:  cfg.Name,
		Kind:  cfg.Kind(),
		Value: v,
	}
}

// selector interprets arg as processor pin number, like 17 or GPIO17, or as
// configured name.
//
//nolint:ireturn
func selector(arg string) connection.Selector {
	if n, err := strconv.ParseUint(strings.TrimPrefix(arg, "GPIO"), 10, 8); err == nil {
		return connection.ByPin(pin.Processor(n))
	}

	return connection.ByName(arg)
}

func parseValue(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "high", "1", "true":
		return true, nil
	case "off", "low", "0", "false":
		return false, nil
	default:
		return false, fmt.Errorf("%w: value %q is not on or off", errInvalidCmdline, s)
	}
}

func optionalDuration(args []string) (time.Duration, error) {
	if len(args) == 0 {
		return 0, nil
	}

	d, err := time.ParseDuration(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errInvalidCmdline, err)
	}

	return d, nil
}
