// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config provides the YAML representation of a driver and a set of
// pin configurations.
//
//	driver: sysfs
//	poll-interval: 20ms
//	pins:
//	  - name: Led
//	    pin: 17
//	    direction: out
//	  - name: Button
//	    connector: P1-13
//	    direction: in
//	    reversed: true
//	    resistor: pull-up
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/connection"
	"github.com/BlindspotSoftware/gpiohal/pkg/driver"
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrValidation = errors.New("validation error")

// Config describes a driver and the pins of a connection on it.
type Config struct {
	// Driver is one of the names accepted by driver.New.
	Driver       string        `yaml:"driver" validate:"omitempty,oneof=memory sysfs rpio"`
	SysfsRoot    string        `yaml:"sysfs-root" validate:"omitempty,startswith=/"`
	MemoryDevice string        `yaml:"memory-device" validate:"omitempty,startswith=/"`
	PollInterval time.Duration `yaml:"poll-interval" validate:"gte=0"`
	// Layout overrides the probed board layout for connector pins.
	Layout string `yaml:"layout" validate:"omitempty,oneof=rev1 rev2 plus"`
	Pins   []Pin  `yaml:"pins" validate:"required"`
}

// configAlias is used when parsing YAML to avoid recursion.
type configAlias Config

// UnmarshalYAML unmarshals a Config from a YAML node and adds custom validation.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var cfg configAlias
	if err := node.Decode(&cfg); err != nil {
		return err
	}

	*c = Config(cfg)

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return wrapValidatorErrors(err, node)
	}

	names := make(map[string]bool, len(c.Pins))

	for _, p := range c.Pins {
		if p.Name == "" {
			continue
		}

		if names[p.Name] {
			return fmt.Errorf("yaml: line %d: duplicate pin name %q", p.line, p.Name)
		}

		names[p.Name] = true
	}

	return nil
}

// Pin describes one pin configuration. Exactly one of Pin and Connector
// identifies the pin.
type Pin struct {
	Name      string `yaml:"name" validate:"omitempty,printascii"`
	Pin       *uint8 `yaml:"pin" validate:"omitempty,max=31"`
	Connector string `yaml:"connector" validate:"omitempty,startswith=P"`
	Direction string `yaml:"direction" validate:"required,oneof=in out"`
	Switch    bool   `yaml:"switch"`
	Reversed  bool   `yaml:"reversed"`
	Resistor  string `yaml:"resistor" validate:"omitempty,oneof=none pull-up pull-down"`
	Initial   bool   `yaml:"initial"`

	line int
}

// pinAlias is used when parsing YAML to avoid recursion.
type pinAlias Pin

// UnmarshalYAML unmarshals a Pin from a YAML node and adds custom validation.
func (p *Pin) UnmarshalYAML(node *yaml.Node) error {
	var pa pinAlias
	if err := node.Decode(&pa); err != nil {
		return err
	}

	*p = Pin(pa)
	p.line = node.Line

	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return wrapValidatorErrors(err, node)
	}

	if (p.Pin == nil) == (p.Connector == "") {
		return fmt.Errorf("yaml: line %d: exactly one of pin and connector must be set", node.Line)
	}

	if p.Direction == "out" && (p.Switch || (p.Resistor != "" && p.Resistor != "none")) {
		return fmt.Errorf("yaml: line %d: switch and resistor apply to inputs only", node.Line)
	}

	return nil
}

// Parse decodes a Config from r.
func Parse(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty configuration")
		}

		return nil, err
	}

	return &cfg, nil
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// NewDriver opens the configured driver.
//
//nolint:ireturn
func (c *Config) NewDriver() (driver.Driver, error) {
	var opts []driver.Option

	if c.SysfsRoot != "" {
		opts = append(opts, driver.WithSysfsRoot(c.SysfsRoot))
	}

	if c.MemoryDevice != "" {
		opts = append(opts, driver.WithMemoryDevice(c.MemoryDevice))
	}

	return driver.New(c.Driver, opts...)
}

// Mapping returns the mapping for connector pins, probing the board unless
// a layout is configured.
func (c *Config) Mapping() (*pin.Mapping, error) {
	if c.Layout == "" {
		return pin.Default(), nil
	}

	layout, err := pin.ParseLayout(c.Layout)
	if err != nil {
		return nil, err
	}

	return pin.NewMapping(layout)
}

// PinConfigurations converts the pins, resolving connector pins with m.
func (c *Config) PinConfigurations(m *pin.Mapping) ([]*connection.PinConfiguration, error) {
	configs := make([]*connection.PinConfiguration, 0, len(c.Pins))

	for _, p := range c.Pins {
		cfg, err := p.configuration(m)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}

		configs = append(configs, cfg)
	}

	return configs, nil
}

// ConnectionOptions returns the options of a connection built from c.
func (c *Config) ConnectionOptions() []connection.Option {
	if c.PollInterval == 0 {
		return nil
	}

	return []connection.Option{connection.WithPollInterval(c.PollInterval)}
}

func (p *Pin) processor(m *pin.Mapping) (pin.Processor, error) {
	if p.Pin != nil {
		return pin.Processor(*p.Pin), nil
	}

	conn, err := pin.ParseConnector(p.Connector)
	if err != nil {
		return 0, err
	}

	return m.Processor(conn)
}

func (p *Pin) configuration(m *pin.Mapping) (*connection.PinConfiguration, error) {
	proc, err := p.processor(m)
	if err != nil {
		return nil, err
	}

	var cfg *connection.PinConfiguration

	switch {
	case p.Direction == "out":
		cfg = connection.Output(proc)
	case p.Switch:
		cfg = connection.Switch(proc)
	default:
		cfg = connection.Input(proc)
	}

	cfg.Named(p.Name).WithResistor(resistor(p.Resistor))

	if p.Reversed {
		cfg.Revert()
	}

	if p.Initial {
		cfg.Enable()
	}

	return cfg, nil
}

func resistor(s string) driver.Resistor {
	switch s {
	case "pull-up":
		return driver.PullUp
	case "pull-down":
		return driver.PullDown
	default:
		return driver.ResistorNone
	}
}

func wrapValidatorErrors(err error, node *yaml.Node) error {
	if err == nil {
		return nil
	}

	var valErrors validator.ValidationErrors
	if !errors.As(err, &valErrors) {
		// not of type ValidationErrors
		return err
	}

	errMsg := make([]string, 0, len(valErrors))
	for _, valErr := range valErrors {
		errMsg = append(errMsg,
			fmt.Sprintf("yaml: line %d: field validation for '%s' failed on the '%s' tag",
				node.Line, valErr.Field(), valErr.Tag()))
	}

	return fmt.Errorf("%w:\n%s", ErrValidation, strings.Join(errMsg, "\n"))
}
