//go:build linux

// File: internal/sockets/sockets_linux.go
// Author: momentics <momentics@gmail.com>
//
// Blocking-mode TCP sockets owned by raw descriptor. The reactor performs
// all I/O on them, so they never enter the Go runtime poller.

package sockets

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// TCP4 opens an IPv4 stream socket.
func TCP4() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	return fd, nil
}

// Listen binds an IPv4 listener on addr ("host:port", port 0 picks one)
// and returns its descriptor and bound address.
func Listen(addr string, backlog int) (int, netip.AddrPort, error) {
	ap, err := netip.ParseAddrPort(addr)
	if err != nil {
		return -1, netip.AddrPort{}, fmt.Errorf("listen %q: %w", addr, err)
	}
	if !ap.Addr().Unmap().Is4() {
		return -1, netip.AddrPort{}, fmt.Errorf("listen %q: %w", addr, ErrNotIPv4)
	}
	fd, err := TCP4()
	if err != nil {
		return -1, netip.AddrPort{}, err
	}
	fail := func(op string, err error) (int, netip.AddrPort, error) {
		unix.Close(fd)
		return -1, netip.AddrPort{}, fmt.Errorf("%s %s: %w", op, addr, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fail("setsockopt", err)
	}
	sa := &unix.SockaddrInet4{Port: int(ap.Port()), Addr: ap.Addr().Unmap().As4()}
	if err := unix.Bind(fd, sa); err != nil {
		return fail("bind", err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return fail("listen", err)
	}
	bound, err := unix.Getsockname(fd)
	if err != nil {
		return fail("getsockname", err)
	}
	in4, ok := bound.(*unix.SockaddrInet4)
	if !ok {
		return fail("getsockname", ErrNotIPv4)
	}
	return fd, netip.AddrPortFrom(netip.AddrFrom4(in4.Addr), uint16(in4.Port)), nil
}

// Close closes fd, ignoring EINTR.
func Close(fd int) error {
	err := unix.Close(fd)
	if errors.Is(err, unix.EINTR) {
		return nil
	}
	return err
}
