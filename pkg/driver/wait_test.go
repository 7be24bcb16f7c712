// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestWaitTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{name: "unspecified", timeout: 0, want: 5 * time.Second},
		{name: "negative", timeout: -1, want: 5 * time.Second},
		{name: "given", timeout: 20 * time.Millisecond, want: 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := waitTimeout(tt.timeout); got != tt.want {
				t.Errorf("waitTimeout(%s) = %s, want %s", tt.timeout, got, tt.want)
			}
		})
	}
}

func TestTimeoutErrorOfDefault(t *testing.T) {
	err := timeoutError(17, true, waitTimeout(0))

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error %v is not ErrTimeout", err)
	}

	if want := "GPIO17 did not become high within 5s"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want it to contain %q", err, want)
	}
}

func TestPollUntilZeroTimeoutWaits(t *testing.T) {
	start := time.Now()

	err := pollUntil(func() (bool, error) {
		return time.Since(start) > 30*time.Millisecond, nil
	}, 4, true, 0, time.Millisecond)
	if err != nil {
		t.Errorf("pollUntil = %v, want the default timeout to outlast the change", err)
	}
}
