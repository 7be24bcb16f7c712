// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// TextFormatter implements Formatter with plain text formatting.
type TextFormatter struct {
	config Config
}

func newTextFormatter(config Config) *TextFormatter {
	return &TextFormatter{config: config}
}

// WriteContent formats and outputs structured content.
func (f *TextFormatter) WriteContent(content Content) {
	writer := writerFor(f.config, content.IsError)

	switch data := content.Data.(type) {
	case []PinState:
		writePinList(writer, data)
	case PinState:
		if content.Type == TypePinEvent {
			fmt.Fprintf(writer, "%s %s %s\n", data.Timestamp.Format(time.TimeOnly+".000"), label(data), onOff(data.Value))
		} else {
			fmt.Fprintf(writer, "%s: %s\n", label(data), onOff(data.Value))
		}
	default:
		fmt.Fprintln(writer, data)
	}
}

// Write sends text to standard output.
func (f *TextFormatter) Write(text string) {
	f.WriteContent(Content{Type: TypeGeneral, Data: text})
}

// WriteErr sends text to standard error.
func (f *TextFormatter) WriteErr(text string) {
	f.WriteContent(Content{Type: TypeGeneral, Data: text, IsError: true})
}

func writePinList(w io.Writer, pins []PinState) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "PIN\tNAME\tKIND\tVALUE")

	for _, p := range pins {
		name := p.Name
		if name == "" {
			name = "-"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Pin, name, p.Kind, onOff(p.Value))
	}

	tw.Flush()
}

func label(p PinState) string {
	if p.Name != "" {
		return p.Name
	}

	return p.Pin
}

func onOff(v bool) string {
	if v {
		return "on"
	}

	return "off"
}
