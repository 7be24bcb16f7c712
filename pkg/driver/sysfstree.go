// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BlindspotSoftware/gpiohal/pkg/pin"
)

// permissionRetryDelay is the time given to udev to fix up permissions of
// freshly exported pin files before the access is retried once.
const permissionRetryDelay = 100 * time.Millisecond

// sysfsTree is the kernel GPIO sysfs interface below root:
//
//	root/export, root/unexport
//	root/gpioN/{direction,value,edge}
type sysfsTree struct {
	root string
}

func (t sysfsTree) available() bool {
	_, err := os.Stat(filepath.Join(t.root, "export"))

	return err == nil
}

func (t sysfsTree) pinDir(p pin.Processor) string {
	return filepath.Join(t.root, "gpio"+strconv.Itoa(int(p)))
}

func (t sysfsTree) attr(p pin.Processor, name string) string {
	return filepath.Join(t.pinDir(p), name)
}

func (t sysfsTree) exported(p pin.Processor) bool {
	_, err := os.Stat(t.pinDir(p))

	return err == nil
}

// export makes p available in the tree. A pin that is already exported is
// unexported first so a stale configuration from a previous user is dropped.
func (t sysfsTree) export(p pin.Processor) error {
	if t.exported(p) {
		if err := t.unexport(p); err != nil {
			return err
		}
	}

	if err := writeFile(filepath.Join(t.root, "export"), strconv.Itoa(int(p))); err != nil {
		return fmt.Errorf("export %s: %w", p, err)
	}

	return nil
}

func (t sysfsTree) unexport(p pin.Processor) error {
	if err := writeFile(filepath.Join(t.root, "unexport"), strconv.Itoa(int(p))); err != nil {
		return fmt.Errorf("unexport %s: %w", p, err)
	}

	return nil
}

// unexportIfExported is the idempotent variant of unexport used on release.
func (t sysfsTree) unexportIfExported(p pin.Processor) error {
	if !t.exported(p) {
		return nil
	}

	return t.unexport(p)
}

func (t sysfsTree) setDirection(p pin.Processor, d Direction) error {
	return retryOnPermission(func() error {
		return writeFile(t.attr(p, "direction"), d.String())
	})
}

func (t sysfsTree) setEdges(p pin.Processor, e Edges) error {
	return retryOnPermission(func() error {
		return writeFile(t.attr(p, "edge"), e.String())
	})
}

func (t sysfsTree) openValue(p pin.Processor) (*os.File, error) {
	var f *os.File

	err := retryOnPermission(func() error {
		var err error
		f, err = os.OpenFile(t.attr(p, "value"), os.O_RDWR, 0)

		return err
	})

	return f, err
}

// retryOnPermission runs op and, if it fails with a permission error, runs it
// once more after permissionRetryDelay. Right after an export the kernel
// creates the pin files owned by root and udev adjusts them asynchronously.
func retryOnPermission(op func() error) error {
	err := op()
	if !errors.Is(err, fs.ErrPermission) {
		return err
	}

	time.Sleep(permissionRetryDelay)

	return op()
}

func writeFile(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(value); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}
