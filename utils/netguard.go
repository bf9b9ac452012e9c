package utils

import (
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"
)

// PublicDialer returns a dialer that refuses loopback, private, link-local
// and unspecified addresses. The check runs on the resolved address, so a
// public hostname pointing inward is refused too.
func PublicDialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			ap, err := netip.ParseAddrPort(address)
			if err != nil {
				return fmt.Errorf("refusing to dial %s: %w", address, err)
			}
			if !IsPublicAddr(ap.Addr()) {
				return fmt.Errorf("refusing to dial non-public address %s", address)
			}
			return nil
		},
	}
}

// IsPublicAddr reports whether addr is routable on the public internet.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}
