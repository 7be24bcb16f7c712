// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// gpioctl reads and drives the pins described by a gpiohal configuration file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/BlindspotSoftware/gpiohal/internal/buildinfo"
	"github.com/BlindspotSoftware/gpiohal/internal/output"
	"github.com/BlindspotSoftware/gpiohal/pkg/config"
	"github.com/BlindspotSoftware/gpiohal/pkg/connection"
)

const usageAbstract = `gpioctl - Read and drive GPIO pins of a configuration file.
`
const usageSynopsis = `
SYNOPSIS:
	gpioctl [options] list
	gpioctl [options] get <pin>
	gpioctl [options] set <pin> on|off [hold]
	gpioctl [options] toggle <pin> [hold]
	gpioctl [options] blink <pin> [duration]
	gpioctl [options] watch [duration]
	gpioctl version

`
const usageDescription = `
A pin is given by its configured name or its processor pin number.

Pins are released when gpioctl exits, outputs are driven low before. set and
toggle therefore keep the new value for the hold duration, or until gpioctl is
interrupted if no duration is given. watch prints input changes for the given
duration or until interrupted.

`

const (
	configInfo       = `Path of the pin configuration file`
	outputFormatInfo = `Output format, text|json|yaml, default is text`
)

func newApp(stdout, stderr io.Writer, exitFunc func(int), args []string) *application {
	var app application

	app.stdout = stdout
	app.stderr = stderr
	app.exitFunc = exitFunc
	app.ctx = context.Background()

	fs := flag.NewFlagSet(args[0], flag.ExitOnError)
	fs.SetOutput(stderr)

	app.printFlagDefaults = func() {
		fmt.Fprint(stderr, "OPTIONS:\n")
		fs.PrintDefaults()
	}
	fs.Usage = func() {
		fmt.Fprint(stderr, usageAbstract, usageSynopsis, usageDescription)
		app.printFlagDefaults()
	}
	// Flags
	fs.StringVar(&app.configPath, "c", "gpio.yaml", configInfo)
	fs.StringVar(&app.outputFormat, "f", "", outputFormatInfo)

	//nolint:errcheck // flag.Parse always returns no error because of flag.ExitOnError
	fs.Parse(args[1:])
	app.args = fs.Args()

	app.formatter = output.New(output.Config{
		Stdout: stdout,
		Stderr: stderr,
		Format: app.outputFormat,
	})

	return &app
}

type application struct {
	stdout   io.Writer
	stderr   io.Writer
	exitFunc func(int)

	// ctx ends hold and watch periods early.
	ctx context.Context

	// flags
	configPath        string
	outputFormat      string
	args              []string
	printFlagDefaults func()

	formatter output.Formatter
}

var errInvalidCmdline = errors.New("invalid command line")

// start is the entry point of the application.
func (app *application) start() {
	log.SetOutput(app.stderr)

	app.exit(app.run())
}

// run executes the command line and returns its error.
func (app *application) run() (err error) {
	if len(app.args) == 0 {
		return errInvalidCmdline
	}

	name, args := app.args[0], app.args[1:]

	if name == "version" {
		app.formatter.WriteContent(output.Content{
			Type: output.TypeVersion,
			Data: "GPIO Control\n" + buildinfo.VersionString(),
		})

		return nil
	}

	cmd, ok := commands[name]
	if !ok || len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return errInvalidCmdline
	}

	cfg, err := config.Load(app.configPath)
	if err != nil {
		return err
	}

	drv, err := cfg.NewDriver()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, drv.Close()) }()

	mapping, err := cfg.Mapping()
	if err != nil {
		return err
	}

	configs, err := cfg.PinConfigurations(mapping)
	if err != nil {
		return err
	}

	conn, err := connection.New(drv, configs, cfg.ConnectionOptions()...)
	if err != nil {
		return err
	}

	if err := conn.Open(); err != nil {
		return err
	}
	defer func() { err = errors.Join(err, conn.Close()) }()

	return cmd.run(app, conn, args)
}

// exit terminates the application. If the provided error is not nil, it is printed to
// the standard error output. Command line errors print the usage additionally.
func (app *application) exit(err error) {
	if err == nil {
		app.exitFunc(0)

		return
	}

	log.Print(err)

	if errors.Is(err, errInvalidCmdline) {
		fmt.Fprint(app.stderr, usageSynopsis)
		app.printFlagDefaults()
	}

	app.exitFunc(1)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout, os.Stderr, os.Exit, os.Args)
	app.ctx = ctx
	app.start()
}
