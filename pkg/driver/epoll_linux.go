// Copyright 2026 Blindspot Software
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package driver

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// epollWaiter waits for the kernel to flag the sysfs value file of a pin,
// which happens on every edge enabled in the pins edge file.
type epollWaiter struct {
	fd     int
	epfd   int
	events [1]unix.EpollEvent
}

func newEpollWaiter(path string) (edgeWaiter, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		unix.Close(fd)

		return nil, fmt.Errorf("epoll create: %w", err)
	}

	event := unix.EpollEvent{Events: unix.EPOLLPRI | unix.EPOLLERR | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		unix.Close(epfd)
		unix.Close(fd)

		return nil, fmt.Errorf("epoll add %s: %w", path, err)
	}

	return &epollWaiter{fd: fd, epfd: epfd}, nil
}

// arm reads the value file, which acknowledges a pending notification.
func (w *epollWaiter) arm() error {
	var buf [8]byte
	if _, err := unix.Seek(w.fd, 0, 0); err != nil {
		return err
	}

	if _, err := unix.Read(w.fd, buf[:]); err != nil && !errors.Is(err, unix.EAGAIN) {
		return err
	}

	return nil
}

func (w *epollWaiter) block(timeout time.Duration) (bool, error) {
	ms := int(timeout / time.Millisecond)
	if ms == 0 {
		ms = 1
	}

	n, err := unix.EpollWait(w.epfd, w.events[:], ms)
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (w *epollWaiter) close() error {
	return errors.Join(unix.Close(w.epfd), unix.Close(w.fd))
}
