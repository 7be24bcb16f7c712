// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"encoding/json"
	"fmt"
	"log"
)

// JSONFormatter formats output as JSON objects, one per line.
type JSONFormatter struct {
	config Config
}

// JSONOutput is a struct for JSON formatted output.
type JSONOutput struct {
	ContentType string `json:"contentType"`
	Data        any    `json:"data"`
	Error       bool   `json:"error,omitempty"`
}

func newJSONFormatter(config Config) *JSONFormatter {
	return &JSONFormatter{config: config}
}

// WriteContent formats and outputs structured content.
func (f *JSONFormatter) WriteContent(content Content) {
	bytes, err := json.Marshal(JSONOutput{
		ContentType: string(content.Type),
		Data:        content.Data,
		Error:       content.IsError,
	})
	if err != nil {
		log.Printf("Error marshaling JSON: %v", err)

		return
	}

	fmt.Fprintln(writerFor(f.config, content.IsError), string(bytes))
}

// Write sends text to standard output.
func (f *JSONFormatter) Write(text string) {
	f.WriteContent(Content{Type: TypeGeneral, Data: text})
}

// WriteErr sends text to standard error.
func (f *JSONFormatter) WriteErr(text string) {
	f.WriteContent(Content{Type: TypeGeneral, Data: text, IsError: true})
}
