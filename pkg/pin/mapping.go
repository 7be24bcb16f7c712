// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pin

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"periph.io/x/host/v3/distro"
)

// Layout is the header wiring of a board generation.
type Layout uint8

const (
	// LayoutRev1 is the 26-pin P1 header of the first Model B boards.
	LayoutRev1 Layout = iota + 1
	// LayoutRev2 is the 26-pin P1 header plus the P5 header of revision 2 boards.
	LayoutRev2
	// LayoutPlus is the 40-pin header of B+ and all later boards.
	LayoutPlus
)

func (l Layout) String() string {
	switch l {
	case LayoutRev1:
		return "rev1"
	case LayoutRev2:
		return "rev2"
	case LayoutPlus:
		return "plus"
	default:
		return "unknown"
	}
}

// ParseLayout returns the layout with the given String form.
func ParseLayout(s string) (Layout, error) {
	for _, l := range []Layout{LayoutRev1, LayoutRev2, LayoutPlus} {
		if l.String() == s {
			return l, nil
		}
	}

	return 0, fmt.Errorf("unknown board layout %q", s)
}

// Mapping resolves connector pins to processor pins for one board layout.
// A Mapping is read-only after construction and safe for concurrent use.
type Mapping struct {
	layout Layout
	table  map[Connector]Processor
}

// NewMapping builds the connector table of the given layout.
func NewMapping(layout Layout) (*Mapping, error) {
	table := make(map[Connector]Processor, 40)

	// Common to all layouts.
	for c, p := range map[Connector]Processor{
		P1Pin07: 4, P1Pin08: 14, P1Pin10: 15, P1Pin11: 17, P1Pin12: 18,
		P1Pin15: 22, P1Pin16: 23, P1Pin18: 24, P1Pin19: 10, P1Pin21: 9,
		P1Pin22: 25, P1Pin23: 11, P1Pin24: 8, P1Pin26: 7,
	} {
		table[c] = p
	}

	switch layout {
	case LayoutRev1:
		table[P1Pin03] = 0
		table[P1Pin05] = 1
		table[P1Pin13] = 21
	case LayoutRev2:
		table[P1Pin03] = 2
		table[P1Pin05] = 3
		table[P1Pin13] = 27
		table[P5Pin03] = 28
		table[P5Pin04] = 29
		table[P5Pin05] = 30
		table[P5Pin06] = 31
	case LayoutPlus:
		table[P1Pin03] = 2
		table[P1Pin05] = 3
		table[P1Pin13] = 27
		table[P1Pin27] = 0
		table[P1Pin28] = 1
		table[P1Pin29] = 5
		table[P1Pin31] = 6
		table[P1Pin32] = 12
		table[P1Pin33] = 13
		table[P1Pin35] = 19
		table[P1Pin36] = 16
		table[P1Pin37] = 26
		table[P1Pin38] = 20
		table[P1Pin40] = 21
	default:
		return nil, fmt.Errorf("unknown board layout %d", layout)
	}

	return &Mapping{layout: layout, table: table}, nil
}

// Layout returns the board layout the mapping was built for.
func (m *Mapping) Layout() Layout {
	return m.layout
}

// Processor returns the processor pin wired to c.
func (m *Mapping) Processor(c Connector) (Processor, error) {
	p, ok := m.table[c]
	if !ok {
		return 0, fmt.Errorf("connector pin %s carries no GPIO on %s boards", c, m.layout)
	}

	return p, nil
}

// Connector returns the connector position of p, if p is routed to a header.
func (m *Mapping) Connector(p Processor) (Connector, bool) {
	for c, q := range m.table {
		if q == p {
			return c, true
		}
	}

	return Connector{}, false
}

// LayoutFromRevision derives the board layout from a revision code as printed
// in the Revision line of /proc/cpuinfo.
func LayoutFromRevision(revision string) (Layout, error) {
	code, err := strconv.ParseUint(strings.TrimSpace(revision), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid board revision %q: %w", revision, err)
	}

	const newStyle = 1 << 23
	if code&newStyle != 0 {
		return LayoutPlus, nil
	}

	// Old style codes carry over-voltage and warranty flags above the
	// revision number.
	code &= 0xffff

	switch {
	case code == 0x2 || code == 0x3:
		return LayoutRev1, nil
	case code < 0x10:
		return LayoutRev2, nil
	default:
		return LayoutPlus, nil
	}
}

// Probe detects the layout of the board the process runs on. Boards that
// cannot be identified are reported as LayoutPlus.
func Probe() Layout {
	revision, ok := distro.CPUInfo()["Revision"]
	if !ok {
		log.Print("Pin mapping: no board revision found, assuming 40-pin layout")

		return LayoutPlus
	}

	layout, err := LayoutFromRevision(revision)
	if err != nil {
		log.Printf("Pin mapping: %v, assuming 40-pin layout", err)

		return LayoutPlus
	}

	log.Printf("Pin mapping: detected %q revision %s, %s layout", distro.DTModel(), revision, layout)

	return layout
}

//nolint:gochecknoglobals
var defaultMapping = sync.OnceValue(func() *Mapping {
	m, err := NewMapping(Probe())
	if err != nil {
		panic(err) // Probe only returns known layouts
	}

	return m
})

// Default returns the mapping of the board the process runs on. The board
// is probed on the first call, the result is shared by all later calls.
func Default() *Mapping {
	return defaultMapping()
}
