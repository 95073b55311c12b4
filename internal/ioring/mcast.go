// Package ioring adapts an external multicast RTP feed (an SDR front
// end such as ka9q-radio, or an rtl_tcp-over-RTP bridge) into the
// engine's IqRing. It has no outbound RTP path for PCM audio.
//
// Socket setup mirrors the teacher's own listen_mcast()-equivalent: a
// SO_REUSEPORT/SO_REUSEADDR UDP socket joined to the group on the
// requested interface, plus the loopback interface for local traffic.
package ioring

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// JoinMulticast opens a UDP4 socket bound to addr's port, sets
// SO_REUSEPORT/SO_REUSEADDR, and joins the multicast group on iface
// (and on the loopback interface, for local-only traffic). iface may
// be nil to skip the interface-specific join.
func JoinMulticast(ctx context.Context, addr *net.UDPAddr, iface *net.Interface) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
					sockErr = fmt.Errorf("ioring: set SO_REUSEPORT: %w", err)
					return
				}
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					sockErr = fmt.Errorf("ioring: set SO_REUSEADDR: %w", err)
					return
				}
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(ctx, "udp4", addr.String())
	if err != nil {
		return nil, fmt.Errorf("ioring: listen %s: %w", addr, err)
	}
	udpConn := conn.(*net.UDPConn)

	if err := udpConn.SetReadBuffer(1024 * 1024); err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("ioring: set read buffer: %w", err)
	}

	p := ipv4.NewPacketConn(udpConn)
	if iface != nil {
		if err := p.JoinGroup(iface, addr); err != nil {
			udpConn.Close()
			return nil, fmt.Errorf("ioring: join group on %s: %w", iface.Name, err)
		}
	}
	if loop, err := loopbackInterface(); err == nil && loop != nil {
		_ = p.JoinGroup(loop, addr)
	}

	return udpConn, nil
}

func loopbackInterface() (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		if ifaces[i].Flags&net.FlagLoopback != 0 {
			return &ifaces[i], nil
		}
	}
	return nil, nil
}
