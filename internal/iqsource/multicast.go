// Package iqsource receives the inbound I/Q frame stream (spec §6.1) over
// UDP multicast. Socket setup is adapted directly from the teacher's
// audio.go setupDataSocket/receiveLoop: SO_REUSEPORT/SO_REUSEADDR via
// golang.org/x/sys/unix, group join via golang.org/x/net/ipv4, and an RTP
// unwrap per packet.
package iqsource

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/cwsl/wwvsync/internal/wwvframe"
)

// FrameHandler is called once per decoded continuous frame, in arrival
// order, from the receiver's single goroutine.
type FrameHandler func(wwvframe.Frame)

// MulticastSource listens on one UDP multicast group and decodes each
// packet as an RTP-wrapped continuous frame.
type MulticastSource struct {
	addr  *net.UDPAddr
	iface *net.Interface

	mu      sync.RWMutex
	running bool
	conn    *net.UDPConn

	onFrame FrameHandler
}

// NewMulticastSource builds a source bound to addr (e.g. "239.1.2.3:5004")
// on the named interface ("" joins on the default interface only).
func NewMulticastSource(address, ifaceName string, onFrame FrameHandler) (*MulticastSource, error) {
	addr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, fmt.Errorf("iqsource: resolve %q: %w", address, err)
	}
	var iface *net.Interface
	if ifaceName != "" {
		iface, err = net.InterfaceByName(ifaceName)
		if err != nil {
			return nil, fmt.Errorf("iqsource: interface %q: %w", ifaceName, err)
		}
	}
	return &MulticastSource{addr: addr, iface: iface, onFrame: onFrame}, nil
}

// setupSocket mirrors the teacher's setupDataSocket: reusable address
// binding so multiple collaborators can share the group, then join.
func setupSocket(addr *net.UDPAddr, iface *net.Interface) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
					sockErr = fmt.Errorf("SO_REUSEPORT: %w", err)
					return
				}
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					sockErr = fmt.Errorf("SO_REUSEADDR: %w", err)
					return
				}
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(context.Background(), "udp4", addr.String())
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	udpConn := conn.(*net.UDPConn)

	if err := udpConn.SetReadBuffer(4 * 1024 * 1024); err != nil {
		log.Printf("[iqsource] warning: failed to set read buffer size: %v", err)
	}

	p := ipv4.NewPacketConn(udpConn)
	if err := p.JoinGroup(iface, addr); err != nil {
		log.Printf("[iqsource] warning: failed to join multicast group on %v: %v", iface, err)
	}

	return udpConn, nil
}

// Start opens the socket and begins the receive loop in a new goroutine.
func (s *MulticastSource) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	conn, err := setupSocket(s.addr, s.iface)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	go s.receiveLoop()
	log.Printf("[iqsource] listening on %s", s.addr)
	return nil
}

// Stop closes the socket, unblocking the receive loop.
func (s *MulticastSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.conn != nil {
		s.conn.Close()
	}
	log.Printf("[iqsource] stopped")
}

func (s *MulticastSource) receiveLoop() {
	buf := make([]byte, 65536)
	for {
		s.mu.RLock()
		running := s.running
		conn := s.conn
		s.mu.RUnlock()
		if !running {
			return
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if !s.running {
				return
			}
			log.Printf("[iqsource] read error: %v", err)
			continue
		}

		frame, err := wwvframe.DecodeRTPPacket(buf[:n])
		if err != nil {
			log.Printf("[iqsource] frame decode error: %v", err)
			continue
		}
		if s.onFrame != nil {
			s.onFrame(frame)
		}
	}
}
