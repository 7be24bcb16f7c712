// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pin

import (
	"fmt"
	"strconv"
	"strings"
)

// Header identifies a pin header of the board.
type Header uint8

const (
	// P1 is the main GPIO header (J8 on 40-pin boards).
	P1 Header = 1
	// P5 is the auxiliary header of revision 2 boards.
	P5 Header = 5
)

// Connector is a physical pin position on a board header.
type Connector struct {
	Header   Header
	Position uint8
}

func (c Connector) String() string {
	return fmt.Sprintf("P%d-%02d", c.Header, c.Position)
}

// ParseConnector parses the String form of a connector pin, like "P1-07".
// Leading zeros of the position are optional.
func ParseConnector(s string) (Connector, error) {
	header, position, ok := strings.Cut(strings.TrimPrefix(s, "P"), "-")
	if !ok || !strings.HasPrefix(s, "P") {
		return Connector{}, fmt.Errorf("invalid connector pin %q", s)
	}

	h, err := strconv.ParseUint(header, 10, 8)
	if err != nil || (Header(h) != P1 && Header(h) != P5) {
		return Connector{}, fmt.Errorf("invalid header in connector pin %q", s)
	}

	pos, err := strconv.ParseUint(position, 10, 8)
	if err != nil || pos == 0 {
		return Connector{}, fmt.Errorf("invalid position in connector pin %q", s)
	}

	return Connector{Header(h), uint8(pos)}, nil
}

// Connector pins carrying a GPIO line on at least one board layout.
//
//nolint:gochecknoglobals
var (
	P1Pin03 = Connector{P1, 3}
	P1Pin05 = Connector{P1, 5}
	P1Pin07 = Connector{P1, 7}
	P1Pin08 = Connector{P1, 8}
	P1Pin10 = Connector{P1, 10}
	P1Pin11 = Connector{P1, 11}
	P1Pin12 = Connector{P1, 12}
	P1Pin13 = Connector{P1, 13}
	P1Pin15 = Connector{P1, 15}
	P1Pin16 = Connector{P1, 16}
	P1Pin18 = Connector{P1, 18}
	P1Pin19 = Connector{P1, 19}
	P1Pin21 = Connector{P1, 21}
	P1Pin22 = Connector{P1, 22}
	P1Pin23 = Connector{P1, 23}
	P1Pin24 = Connector{P1, 24}
	P1Pin26 = Connector{P1, 26}
	P1Pin27 = Connector{P1, 27}
	P1Pin28 = Connector{P1, 28}
	P1Pin29 = Connector{P1, 29}
	P1Pin31 = Connector{P1, 31}
	P1Pin32 = Connector{P1, 32}
	P1Pin33 = Connector{P1, 33}
	P1Pin35 = Connector{P1, 35}
	P1Pin36 = Connector{P1, 36}
	P1Pin37 = Connector{P1, 37}
	P1Pin38 = Connector{P1, 38}
	P1Pin40 = Connector{P1, 40}

	P5Pin03 = Connector{P5, 3}
	P5Pin04 = Connector{P5, 4}
	P5Pin05 = Connector{P5, 5}
	P5Pin06 = Connector{P5, 6}
)
