// File: internal/sockets/sockaddr.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw sockaddr_in encoding for operations that pass addresses to the
// kernel by pointer.

package sockets

import (
	"encoding/binary"
	"errors"
	"net/netip"
)

const (
	afInet          = 2
	SizeofSockaddr4 = 16
	// SizeofSockaddrAny is large enough for any address family.
	SizeofSockaddrAny = 112
)

// ErrNotIPv4 is returned for addresses outside the IPv4 family.
var ErrNotIPv4 = errors.New("sockets: not an IPv4 address")

// EncodeInet4 renders ap as a struct sockaddr_in.
func EncodeInet4(ap netip.AddrPort) ([]byte, error) {
	addr := ap.Addr().Unmap()
	if !addr.Is4() {
		return nil, ErrNotIPv4
	}
	buf := make([]byte, SizeofSockaddr4)
	binary.NativeEndian.PutUint16(buf[0:2], afInet)
	binary.BigEndian.PutUint16(buf[2:4], ap.Port())
	a4 := addr.As4()
	copy(buf[4:8], a4[:])
	return buf, nil
}

// DecodeInet4 parses the first n bytes of buf as a struct sockaddr_in.
func DecodeInet4(buf []byte, n uint32) (netip.AddrPort, error) {
	if n < 8 || int(n) > len(buf) {
		return netip.AddrPort{}, ErrNotIPv4
	}
	if binary.NativeEndian.Uint16(buf[0:2]) != afInet {
		return netip.AddrPort{}, ErrNotIPv4
	}
	port := binary.BigEndian.Uint16(buf[2:4])
	addr := netip.AddrFrom4([4]byte(buf[4:8]))
	return netip.AddrPortFrom(addr, port), nil
}
