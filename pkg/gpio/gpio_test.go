// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpio_test

import (
	"errors"
	"testing"
	"time"

	"github.com/BlindspotSoftware/gpiohal/internal/test/fakes"
	"github.com/BlindspotSoftware/gpiohal/pkg/driver"
	"github.com/BlindspotSoftware/gpiohal/pkg/gpio"
	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
	"github.com/google/go-cmp/cmp"
)

func TestOut(t *testing.T) {
	fake := fakes.NewDriver()

	led, err := gpio.Out(fake, 17)
	if err != nil {
		t.Fatal(err)
	}

	if got := fake.Allocated()[17]; got != driver.Output {
		t.Errorf("direction = %s, want out", got)
	}

	for _, v := range []bool{true, false} {
		if err := led.Write(v); err != nil {
			t.Fatal(err)
		}
	}

	if diff := cmp.Diff([]bool{true, false}, fake.WrittenValues(17)); diff != "" {
		t.Errorf("written values mismatch (-want +got):\n%s", diff)
	}

	if err := led.Close(); err != nil {
		t.Fatal(err)
	}

	if err := led.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if diff := cmp.Diff([]pin.Processor{17}, fake.Released()); diff != "" {
		t.Errorf("released mismatch (-want +got):\n%s", diff)
	}

	if err := led.Write(true); !errors.Is(err, gpio.ErrClosed) {
		t.Errorf("Write after Close = %v, want ErrClosed", err)
	}
}

func TestOutAllocateError(t *testing.T) {
	fake := fakes.NewDriver()
	fake.AllocateErr = driver.ErrHardwareAccess

	if _, err := gpio.Out(fake, 4); !errors.Is(err, driver.ErrHardwareAccess) {
		t.Errorf("Out = %v, want ErrHardwareAccess", err)
	}
}

func TestIn(t *testing.T) {
	tests := []struct {
		name         string
		caps         driver.Capabilities
		resistor     driver.Resistor
		wantErr      error
		wantResistor []fakes.Resistor
		wantReleased []pin.Processor
	}{
		{
			name:     "no resistor needs no capability",
			caps:     0,
			resistor: driver.ResistorNone,
		},
		{
			name:         "pull-up",
			caps:         driver.CanSetPinResistor,
			resistor:     driver.PullUp,
			wantResistor: []fakes.Resistor{{Pin: 22, Resistor: driver.PullUp}},
		},
		{
			name:         "unsupported resistor releases the pin",
			caps:         driver.CanWorkOnThirdPartyComputers,
			resistor:     driver.PullDown,
			wantErr:      driver.ErrUnsupported,
			wantReleased: []pin.Processor{22},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := fakes.NewDriver()
			fake.Caps = tt.caps

			in, err := gpio.In(fake, 22, tt.resistor)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("In = %v, want %v", err, tt.wantErr)
			}

			if err == nil {
				defer in.Close()
			}

			if diff := cmp.Diff(tt.wantResistor, fake.Resistors()); diff != "" {
				t.Errorf("resistors mismatch (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff(tt.wantReleased, fake.Released()); diff != "" {
				t.Errorf("released mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInputPinRead(t *testing.T) {
	fake := fakes.NewDriver()

	in, err := gpio.In(fake, 27, driver.ResistorNone)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	fake.SetLevel(27, true)

	got, err := in.Read()
	if err != nil {
		t.Fatal(err)
	}

	if !got {
		t.Error("Read = false, want true")
	}

	if err := in.Wait(true, 10*time.Millisecond); err != nil {
		t.Errorf("Wait(up) = %v", err)
	}

	if err := in.Wait(false, 10*time.Millisecond); !errors.Is(err, driver.ErrTimeout) {
		t.Errorf("Wait(down) = %v, want ErrTimeout", err)
	}
}

func TestBidirectionalPin(t *testing.T) {
	fake := fakes.NewDriver()
	data := gpio.InOut(fake, 10, driver.PullUp)

	if _, allocated := data.Direction(); allocated {
		t.Fatal("allocated before first use")
	}

	if fake.Accesses() != 0 {
		t.Fatal("InOut touched the driver")
	}

	if err := data.Write(true); err != nil {
		t.Fatal(err)
	}

	if dir, _ := data.Direction(); dir != driver.Output {
		t.Errorf("direction after Write = %s, want out", dir)
	}

	// Same direction does not re-allocate.
	if err := data.Write(false); err != nil {
		t.Fatal(err)
	}

	if len(fake.Released()) != 0 {
		t.Errorf("released %v while staying output", fake.Released())
	}

	fake.SetLevel(10, true)

	got, err := data.Read()
	if err != nil {
		t.Fatal(err)
	}

	if !got {
		t.Error("Read = false, want true")
	}

	if dir, _ := data.Direction(); dir != driver.Input {
		t.Errorf("direction after Read = %s, want in", dir)
	}

	if diff := cmp.Diff([]pin.Processor{10}, fake.Released()); diff != "" {
		t.Errorf("direction change must release first (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]fakes.Resistor{{Pin: 10, Resistor: driver.PullUp}}, fake.Resistors()); diff != "" {
		t.Errorf("resistors mismatch (-want +got):\n%s", diff)
	}

	if err := data.SetDirection(driver.Output); err != nil {
		t.Fatal(err)
	}

	if err := data.Close(); err != nil {
		t.Fatal(err)
	}

	if err := data.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if diff := cmp.Diff([]pin.Processor{10, 10, 10}, fake.Released()); diff != "" {
		t.Errorf("released mismatch (-want +got):\n%s", diff)
	}

	if len(fake.Allocated()) != 0 {
		t.Errorf("still allocated after Close: %v", fake.Allocated())
	}

	if _, err := data.Read(); !errors.Is(err, gpio.ErrClosed) {
		t.Errorf("Read after Close = %v, want ErrClosed", err)
	}
}

func TestBidirectionalPinCloseUnused(t *testing.T) {
	fake := fakes.NewDriver()

	if err := gpio.InOut(fake, 9, driver.ResistorNone).Close(); err != nil {
		t.Fatal(err)
	}

	if fake.Accesses() != 0 {
		t.Errorf("Close of unused pin made %d driver calls", fake.Accesses())
	}
}

func TestCloseDuringWrites(t *testing.T) {
	fake := fakes.NewDriver()

	led, err := gpio.Out(fake, 17)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			if err := led.Write(true); errors.Is(err, gpio.ErrClosed) {
				return
			}
		}
	}()

	if err := led.Close(); err != nil {
		t.Fatal(err)
	}

	<-done

	if diff := cmp.Diff([]pin.Processor{17}, fake.Released()); diff != "" {
		t.Errorf("released pins mismatch (-want +got):\n%s", diff)
	}
}
