package proc

import (
	"github.com/rpi3kernel/core/internal/netsock"
	"github.com/rpi3kernel/core/internal/trap"
	"github.com/rpi3kernel/core/internal/vm"
)

// Process is the kernel's unit of scheduling: a saved register context,
// its user page table, its state, and its open sockets (spec.md §3).
// The scheduler's run queue owns Process values; dropping one frees its
// page table (§4.7).
type Process struct {
	Context trap.Frame
	Vmap    *vm.PageTable
	Sockets []netsock.Handle

	state State
}

// New wraps a freshly-built trap frame and user page table as a
// not-yet-scheduled process. Scheduler.Add stamps its id and appends it
// to the run queue.
func New(context trap.Frame, vmap *vm.PageTable) *Process {
	return &Process{Context: context, Vmap: vmap, state: ReadyState()}
}

// Pid returns the process id stored in the trap frame's TPIDR field.
func (p *Process) Pid() uint64 { return p.Context.TPIDR }

// SetPid stamps id into the trap frame's TPIDR field.
func (p *Process) SetPid(id uint64) { p.Context.TPIDR = id }

// State returns the process's current state kind.
func (p *Process) State() StateKind { return p.state.Kind }

// SetState transitions the process to a new state.
func (p *Process) SetState(s State) { p.state = s }

// AddSocket appends a new socket handle, returning its descriptor (index
// into Sockets). Descriptors are never recycled (spec.md §9): sock_close
// is unimplemented, so indices stay stable and collision-free for the
// process's lifetime.
func (p *Process) AddSocket(h netsock.Handle) uint64 {
	p.Sockets = append(p.Sockets, h)
	return uint64(len(p.Sockets) - 1)
}

// Socket returns the handle at descriptor desc, or ok=false if desc is
// out of range.
func (p *Process) Socket(desc uint64) (*netsock.Handle, bool) {
	if desc >= uint64(len(p.Sockets)) {
		return nil, false
	}
	return &p.Sockets[desc], true
}
