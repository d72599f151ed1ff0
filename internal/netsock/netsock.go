// Package netsock implements the kernel-side socket bookkeeping consumed
// by the svc socket syscalls: per-process handle tables, status flags,
// and the ephemeral-port bitmap. The actual TCP/IP wire protocol is an
// out-of-scope collaborator (spec.md §1); this package defines the
// Driver boundary it's expected to satisfy, grounded on the reference
// netstack this corpus carries (internal/netstack/netstack.go,
// internal/netstack/tcp.go) without reimplementing its protocol engine.
package netsock

import "gvisor.dev/gvisor/pkg/tcpip"

// Driver is the network-stack boundary core calls into. A real driver
// wraps a NIC/PHY and an actual TCP state machine; core only ever routes
// syscall arguments to it and copies results back into the trap frame.
type Driver interface {
	Create() (DriverSocket, error)
	Close(s DriverSocket) error
}

// DriverSocket is one connection's worth of driver-side state.
type DriverSocket interface {
	Connect(addr tcpip.Address, port uint16) error
	Listen(port uint16) error
	Send(data []byte) (int, error)
	Recv(buf []byte) (int, error)
	Status() Status
}

// Status mirrors the four booleans sock_status returns (spec.md §4.5).
type Status struct {
	Active    bool
	Listening bool
	CanSend   bool
	CanRecv   bool
}

// Handle is one entry in a process's socket table: the descriptor's
// driver-side backing plus the locally-assigned ephemeral port, if any.
// sock_close is intentionally unimplemented (spec.md §9 Open Question):
// descriptors are never recycled within a process's lifetime, so an
// index into Process.Sockets is a stable, collision-free descriptor for
// as long as the process lives.
type Handle struct {
	Sock DriverSocket
	Port uint16
	Used bool // true once a port has been assigned via Connect/Listen
}
