// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"fmt"
	"log"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as a stream of YAML documents.
type YAMLFormatter struct {
	config Config
}

// YAMLOutput is a struct for YAML formatted output.
type YAMLOutput struct {
	ContentType string `yaml:"contentType"`
	Data        any    `yaml:"data"`
	Error       bool   `yaml:"error,omitempty"`
}

func newYAMLFormatter(config Config) *YAMLFormatter {
	return &YAMLFormatter{config: config}
}

// WriteContent formats and outputs structured content.
func (f *YAMLFormatter) WriteContent(content Content) {
	bytes, err := yaml.Marshal(YAMLOutput{
		ContentType: string(content.Type),
		Data:        content.Data,
		Error:       content.IsError,
	})
	if err != nil {
		log.Printf("Error marshaling YAML: %v", err)

		return
	}

	fmt.Fprintf(writerFor(f.config, content.IsError), "---\n%s", bytes)
}

// Write sends text to standard output.
func (f *YAMLFormatter) Write(text string) {
	f.WriteContent(Content{Type: TypeGeneral, Data: text})
}

// WriteErr sends text to standard error.
func (f *YAMLFormatter) WriteErr(text string) {
	f.WriteContent(Content{Type: TypeGeneral, Data: text, IsError: true})
}
