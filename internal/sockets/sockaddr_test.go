// File: internal/sockets/sockaddr_test.go
// Author: momentics <momentics@gmail.com>

package sockets

import (
	"encoding/binary"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeInet4Layout(t *testing.T) {
	buf, err := EncodeInet4(netip.MustParseAddrPort("127.0.0.1:8080"))
	require.NoError(t, err)
	require.Len(t, buf, SizeofSockaddr4)
	assert.EqualValues(t, afInet, binary.NativeEndian.Uint16(buf))
	assert.Equal(t, []byte{0x1f, 0x90}, buf[2:4])
	assert.Equal(t, []byte{127, 0, 0, 1}, buf[4:8])
	assert.Equal(t, make([]byte, 8), buf[8:])
}

func TestDecodeInet4(t *testing.T) {
	ap := netip.MustParseAddrPort("10.1.2.3:443")
	buf, err := EncodeInet4(ap)
	require.NoError(t, err)

	got, err := DecodeInet4(buf, SizeofSockaddr4)
	require.NoError(t, err)
	assert.Equal(t, ap, got)

	_, err = DecodeInet4(buf, 4)
	assert.ErrorIs(t, err, ErrNotIPv4)
}

func TestEncodeRejectsIPv6(t *testing.T) {
	_, err := EncodeInet4(netip.MustParseAddrPort("[::1]:80"))
	assert.ErrorIs(t, err, ErrNotIPv4)

	// v4-mapped addresses are accepted
	buf, err := EncodeInet4(netip.MustParseAddrPort("[::ffff:127.0.0.1]:80"))
	require.NoError(t, err)
	assert.Equal(t, []byte{127, 0, 0, 1}, buf[4:8])
}
