// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package output provides interfaces and implementations for different output formats.
package output

import (
	"io"
	"os"
	"time"
)

// ContentType is an identifier for different kinds of formatted output.
type ContentType string

const (
	// TypeGeneral represents general text output.
	TypeGeneral ContentType = "general"

	// TypePinList represents the configured pins of a connection, Data is []PinState.
	TypePinList ContentType = "pin-list"

	// TypePinValue represents the value of a single pin, Data is PinState.
	TypePinValue ContentType = "pin-value"

	// TypePinEvent represents a change notification, Data is PinState.
	TypePinEvent ContentType = "pin-event"

	// TypeVersion represents version information.
	TypeVersion ContentType = "version"
)

// PinState is the logical value of a configured pin.
type PinState struct {
	Pin       string    `json:"pin" yaml:"pin"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Kind      string    `json:"kind" yaml:"kind"`
	Value     bool      `json:"value" yaml:"value"`
	Timestamp time.Time `json:"timestamp,omitzero" yaml:"timestamp,omitempty"`
}

// Content is a structured data unit to be formatted and displayed.
type Content struct {
	// Type identifies the category of this content.
	Type ContentType

	// Data holds the actual content, a string or one of the types named by Type.
	Data any

	// IsError indicates whether this content represents an error.
	IsError bool
}

// Formatter provides methods to format and output content in different styles.
type Formatter interface {
	// WriteContent formats and outputs a structured content object.
	WriteContent(content Content)

	// Write sends plain text to standard output as a convenience method.
	Write(text string)

	// WriteErr sends plain text to standard error as a convenience method.
	WriteErr(text string)
}

// Config contains the configuration options for output formatters.
type Config struct {
	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for standard error.
	Stderr io.Writer

	// Format specifies the output format (text, json, yaml).
	Format string
}

// New creates an appropriate output formatter based on the provided configuration.
//
//nolint:ireturn
func New(config Config) Formatter {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}

	switch config.Format {
	case "json":
		return newJSONFormatter(config)
	case "yaml":
		return newYAMLFormatter(config)
	default:
		return newTextFormatter(config)
	}
}

func writerFor(config Config, isError bool) io.Writer {
	if isError {
		return config.Stderr
	}

	return config.Stdout
}
