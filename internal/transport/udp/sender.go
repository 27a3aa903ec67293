// SPDX-License-Identifier: MIT
package udp

import (
	"fmt"
	"io"
	"net"
	"sync"

	applog "leopold/internal/log"
)

// Sender ships packets to a single UDP target. Safe for concurrent use.
type Sender struct {
	conn   *net.UDPConn
	target *net.UDPAddr
	mu     sync.Mutex
	closed bool
}

// NewSender dials the target address ("host:port"). UDP is
// connectionless; the dial only pins the destination and local socket.
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("udp: resolve target %q: %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("udp: dial %q: %w", targetAddress, err)
	}

	applog.Infof("udp: sending to %s", conn.RemoteAddr())
	return &Sender{conn: conn, target: udpAddr}, nil
}

// Send transmits one packet. The lock covers the write so a concurrent
// Close cannot pull the socket out from under it.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("udp: sender is closed")
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("udp: send: %w", err)
	}
	return nil
}

// Close closes the socket. Safe to call more than once.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("udp: close: %w", err)
	}
	return nil
}

var _ io.Closer = (*Sender)(nil)
