// Package netdrv provides a loopback netsock.Driver for development and
// tests: every socket connects or listens against an in-process byte
// pipe instead of a real NIC. The actual TCP/IP wire protocol a
// hardware build would run is out of core's scope (spec.md §1); this
// driver exists so cmd/kernel has something concrete to wire into
// svc.Table without depending on real network hardware.
package netdrv

import (
	"errors"
	"sync"

	"gvisor.dev/gvisor/pkg/tcpip"

	"github.com/rpi3kernel/core/internal/netsock"
)

// Loopback is a netsock.Driver whose sockets exchange bytes through an
// in-memory byte buffer rather than a NIC.
type Loopback struct {
	mu      sync.Mutex
	sockets map[*loopbackSocket]struct{}
}

// New returns an empty loopback driver.
func New() *Loopback {
	return &Loopback{sockets: make(map[*loopbackSocket]struct{})}
}

// Create implements netsock.Driver.
func (l *Loopback) Create() (netsock.DriverSocket, error) {
	s := &loopbackSocket{}
	l.mu.Lock()
	l.sockets[s] = struct{}{}
	l.mu.Unlock()
	return s, nil
}

// Close implements netsock.Driver.
func (l *Loopback) Close(s netsock.DriverSocket) error {
	sock, ok := s.(*loopbackSocket)
	if !ok {
		return errors.New("netdrv: socket not owned by this driver")
	}
	l.mu.Lock()
	delete(l.sockets, sock)
	l.mu.Unlock()
	sock.mu.Lock()
	sock.closed = true
	sock.mu.Unlock()
	return nil
}

type loopbackSocket struct {
	mu        sync.Mutex
	buf       []byte
	connected bool
	listening bool
	closed    bool
}

func (s *loopbackSocket) Connect(addr tcpip.Address, port uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("netdrv: socket closed")
	}
	s.connected = true
	return nil
}

func (s *loopbackSocket) Listen(port uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("netdrv: socket closed")
	}
	s.listening = true
	return nil
}

func (s *loopbackSocket) Send(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("netdrv: socket closed")
	}
	s.buf = append(s.buf, data...)
	return len(data), nil
}

func (s *loopbackSocket) Recv(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("netdrv: socket closed")
	}
	n := copy(buf, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

func (s *loopbackSocket) Status() netsock.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return netsock.Status{
		Active:    s.connected || s.listening,
		Listening: s.listening,
		CanSend:   (s.connected || s.listening) && !s.closed,
		CanRecv:   len(s.buf) > 0,
	}
}
