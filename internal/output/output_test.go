// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

var testPins = []PinState{
	{Pin: "GPIO17", Name: "Led", Kind: "out", Value: true},
	{Pin: "GPIO27", Kind: "in"},
}

func TestTextFormatter(t *testing.T) {
	var stdout, stderr bytes.Buffer

	f := New(Config{Stdout: &stdout, Stderr: &stderr})

	f.WriteContent(Content{Type: TypePinList, Data: testPins})
	f.WriteContent(Content{Type: TypePinValue, Data: testPins[1]})
	f.WriteContent(Content{Type: TypePinEvent, Data: PinState{
		Pin:       "GPIO17",
		Name:      "Led",
		Value:     true,
		Timestamp: time.Date(2026, 1, 2, 13, 4, 5, 6e6, time.UTC),
	}})
	f.WriteErr("boom")

	want := strings.Join([]string{
		"PIN     NAME  KIND  VALUE",
		"GPIO17  Led   out   on",
		"GPIO27  -     in    off",
		"GPIO27: off",
		"13:04:05.006 Led on",
		"",
	}, "\n")

	if diff := cmp.Diff(want, stdout.String()); diff != "" {
		t.Errorf("stdout mismatch (-want +got):\n%s", diff)
	}

	if stderr.String() != "boom\n" {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var stdout, stderr bytes.Buffer

	f := New(Config{Stdout: &stdout, Stderr: &stderr, Format: "json"})

	f.WriteContent(Content{Type: TypePinList, Data: testPins})
	f.WriteErr("boom")

	var got struct {
		ContentType string     `json:"contentType"`
		Data        []PinState `json:"data"`
	}

	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	if got.ContentType != string(TypePinList) {
		t.Errorf("contentType = %q", got.ContentType)
	}

	if diff := cmp.Diff(testPins, got.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(stderr.String(), `"error":true`) {
		t.Errorf("stderr = %q, want error flag", stderr.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	var stdout bytes.Buffer

	f := New(Config{Stdout: &stdout, Format: "yaml"})

	f.WriteContent(Content{Type: TypePinValue, Data: testPins[0]})
	f.Write("done")

	docs := strings.Split(strings.TrimPrefix(stdout.String(), "---\n"), "---\n")
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2:\n%s", len(docs), stdout.String())
	}

	var got struct {
		ContentType string   `yaml:"contentType"`
		Data        PinState `yaml:"data"`
	}

	if err := yaml.Unmarshal([]byte(docs[0]), &got); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(testPins[0], got.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(docs[1], "data: done") {
		t.Errorf("second document = %q", docs[1])
	}
}
