// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pin

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLayoutFromRevision(t *testing.T) {
	tests := []struct {
		name     string
		revision string
		want     Layout
		wantErr  bool
	}{
		{name: "rev1 model B", revision: "0002", want: LayoutRev1},
		{name: "rev1 with ECN0001", revision: "0003", want: LayoutRev1},
		{name: "rev2 model B", revision: "000e", want: LayoutRev2},
		{name: "rev2 over-voltage flag", revision: "1000004", want: LayoutRev2},
		{name: "model B+", revision: "0010", want: LayoutPlus},
		{name: "new style Pi 4", revision: "c03111", want: LayoutPlus},
		{name: "surrounding whitespace", revision: " 0003\n", want: LayoutRev1},
		{name: "garbage", revision: "zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LayoutFromRevision(tt.revision)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LayoutFromRevision(%q) error = %v, wantErr %v", tt.revision, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("LayoutFromRevision(%q) = %s, want %s", tt.revision, got, tt.want)
			}
		})
	}
}

func TestMappingProcessor(t *testing.T) {
	tests := []struct {
		name      string
		layout    Layout
		connector Connector
		want      Processor
		wantErr   bool
	}{
		{name: "rev1 P1-03", layout: LayoutRev1, connector: P1Pin03, want: 0},
		{name: "rev2 P1-03", layout: LayoutRev2, connector: P1Pin03, want: 2},
		{name: "rev1 P1-13", layout: LayoutRev1, connector: P1Pin13, want: 21},
		{name: "plus P1-13", layout: LayoutPlus, connector: P1Pin13, want: 27},
		{name: "common P1-11", layout: LayoutRev1, connector: P1Pin11, want: 17},
		{name: "rev2 P5-06", layout: LayoutRev2, connector: P5Pin06, want: 31},
		{name: "plus P1-40", layout: LayoutPlus, connector: P1Pin40, want: 21},
		{name: "P5 absent on plus", layout: LayoutPlus, connector: P5Pin03, wantErr: true},
		{name: "P1-40 absent on rev1", layout: LayoutRev1, connector: P1Pin40, wantErr: true},
		{name: "power pin", layout: LayoutPlus, connector: Connector{P1, 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMapping(tt.layout)
			if err != nil {
				t.Fatalf("NewMapping(%s): %v", tt.layout, err)
			}

			got, err := m.Processor(tt.connector)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Processor(%s) error = %v, wantErr %v", tt.connector, err, tt.wantErr)
			}

			if !tt.wantErr && got != tt.want {
				t.Errorf("Processor(%s) = %s, want %s", tt.connector, got, tt.want)
			}
		})
	}
}

func TestMappingConnector(t *testing.T) {
	m, err := NewMapping(LayoutRev2)
	if err != nil {
		t.Fatal(err)
	}

	c, ok := m.Connector(27)
	if !ok || c != P1Pin13 {
		t.Errorf("Connector(27) = %s, %t, want %s, true", c, ok, P1Pin13)
	}

	if _, ok := m.Connector(5); ok {
		t.Error("GPIO05 is not routed on rev2 boards")
	}
}

func TestNewMappingUnknownLayout(t *testing.T) {
	if _, err := NewMapping(Layout(42)); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestProcessors(t *testing.T) {
	set := NewProcessors(17, 4, 27)
	set = set.Set(31).Clear(4)

	if diff := cmp.Diff([]Processor{17, 27, 31}, set.Pins()); diff != "" {
		t.Errorf("Pins() mismatch (-want +got):\n%s", diff)
	}

	if !set.Has(27) || set.Has(4) {
		t.Errorf("Has() wrong for %s", set)
	}

	if set.Len() != 3 {
		t.Errorf("Len() = %d, want 3", set.Len())
	}

	if got, want := set.String(), "{GPIO17, GPIO27, GPIO31}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStrings(t *testing.T) {
	if got := Processor(4).String(); got != "GPIO04" {
		t.Errorf("Processor.String() = %q", got)
	}

	if got := P5Pin03.String(); got != "P5-03" {
		t.Errorf("Connector.String() = %q", got)
	}
}

func TestParseConnector(t *testing.T) {
	tests := []struct {
		in      string
		want    Connector
		wantErr bool
	}{
		{in: "P1-07", want: P1Pin07},
		{in: "P1-7", want: P1Pin07},
		{in: "P5-04", want: P5Pin04},
		{in: "P3-07", wantErr: true},
		{in: "P1-00", wantErr: true},
		{in: "1-07", wantErr: true},
		{in: "P1", wantErr: true},
		{in: "P1-x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConnector(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConnector(%q) err = %v, wantErr %t", tt.in, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("ParseConnector(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLayout(t *testing.T) {
	for _, l := range []Layout{LayoutRev1, LayoutRev2, LayoutPlus} {
		got, err := ParseLayout(l.String())
		if err != nil || got != l {
			t.Errorf("ParseLayout(%q) = %s, %v", l.String(), got, err)
		}
	}

	if _, err := ParseLayout("zero"); err == nil {
		t.Error("ParseLayout(zero) succeeded")
	}
}
