// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package connection

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

var (
	ErrInputNotWritable = errors.New("input value cannot be set")
	ErrDuplicatePin     = errors.New("pin already in connection")
	ErrDuplicateName    = errors.New("name already in connection")
	ErrUnknownPin       = errors.New("pin not in connection")
	ErrUnknownName      = errors.New("name not in connection")
	ErrNotOpen          = errors.New("connection not open")
)

// PinError is a container for errors that occur while opening or closing
// several pins. All pins are visited even if one of them fails.
type PinError struct {
	Errs []PinErrorDetails
	msg  string
}

// PinErrorDetails is the failure of a single pin.
type PinErrorDetails struct {
	Pin  pin.Processor
	Name string
	Err  error
}

func newPinError(msg string) *PinError {
	return &PinError{
		Errs: make([]PinErrorDetails, 0),
		msg:  msg,
	}
}

func (e *PinError) add(cfg *PinConfiguration, err error) {
	e.Errs = append(e.Errs, PinErrorDetails{
		Pin:  cfg.Pin,
		Name: cfg.Name,
		Err:  err,
	})
}

// orNil returns e if it holds errors, and a nil error otherwise.
func (e *PinError) orNil() error {
	if len(e.Errs) == 0 {
		return nil
	}

	return e
}

func (e *PinError) Error() string {
	pins := make([]string, 0, len(e.Errs))
	for _, d := range e.Errs {
		pins = append(pins, fmt.Sprintf("%s: %v", d.Pin, d.Err))
	}

	if len(e.Errs) == 1 {
		return fmt.Sprintf("%s - 1 problem: %s", e.msg, pins[0])
	}

	return fmt.Sprintf("%s - %d problems: %s", e.msg, len(e.Errs), strings.Join(pins, "; "))
}

// Unwrap allows errors.Is and errors.As on the errors of the single pins.
func (e *PinError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errs))
	for _, d := range e.Errs {
		errs = append(errs, d.Err)
	}

	return errs
}
