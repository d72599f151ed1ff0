// Package dispatch implements handle_exception: the single entry point
// the vector table's assembly stub calls with a decoded (source, kind)
// pair, the raw ESR, the live trap frame, and the fault address (spec.md
// §4.4). It is the orchestration layer that wires trap syndrome
// decoding, the IRQ registries, the scheduler, the syscall table, and
// the debug shell together without those packages importing one
// another, the same top-level-switchboard shape the reference
// hypervisor's trap.go uses to fan a single trap entry out to MMIO,
// syscall, and interrupt-controller emulation without those subsystems
// depending on each other.
package dispatch

import (
	"fmt"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/irqctl"
	"github.com/rpi3kernel/core/internal/sched"
	"github.com/rpi3kernel/core/internal/svc"
	"github.com/rpi3kernel/core/internal/trap"
)

// FIQMask is the DAIF.F bit toggle: on hardware `msr daifclr/daifset,
// #1`; Dispatcher brackets IRQ and SVC handling with it exactly as
// spec.md §4.4 describes so a higher-priority FIQ can still preempt
// a slow IRQ or syscall handler.
type FIQMask interface {
	Enable()
	Disable()
}

// ShellFactory starts a debug-shell session over the console in
// response to a Brk trap, returning once the user types "exit".
type ShellFactory func()

// Dispatcher holds every collaborator handle_exception fans out to. It
// is shared across all cores; the LocalByCore/PendingLocal slices are indexed
// by the physical core id passed to Handle, since each core owns its
// own local-interrupt registry and pending-bit view (spec.md §3's
// per-core block).
type Dispatcher struct {
	Global       *irqctl.GlobalRegistry
	LocalByCore  []*irqctl.LocalRegistry
	Pending      irqctl.PendingGlobal
	PendingLocal []irqctl.PendingLocal
	Sched        *sched.Scheduler
	Svc          *svc.Table
	FIQ          FIQMask
	Shell        ShellFactory

	// FIQHandler is the single FIQ vector's target (USB is the FIQ
	// source on this board, spec.md §6). bootseq.Boot leaves it nil, and
	// Handle panics on an FIQ while it is nil.
	FIQHandler irqctl.Handler
}

// Handle is handle_exception: it decodes the Synchronous case's ESR
// itself (the vector only distinguishes source/kind, not EC) and
// fans out per spec.md §4.4's dispatch-policy-by-kind table.
func (d *Dispatcher) Handle(info trap.Info, esr uint64, tf *trap.Frame, far uint64, core int) {
	switch info.Kind {
	case trap.Synchronous:
		d.handleSynchronous(esr, tf, core)
	case trap.IRQ:
		d.handleIRQ(tf, core)
	case trap.FIQ:
		if d.FIQHandler == nil {
			panic("dispatch: FIQ fired with no handler registered")
		}
		d.FIQHandler(tf)
	case trap.SError:
		// not handled (spec.md §4.4): surfaced for observability only.
	default:
		panic(fmt.Sprintf("dispatch: unknown trap kind %v", info.Kind))
	}
}

func (d *Dispatcher) handleSynchronous(esr uint64, tf *trap.Frame, core int) {
	syn := trap.Decode(esr)
	switch syn.Kind {
	case trap.Brk:
		if d.Shell != nil {
			d.Shell()
		}
		tf.ELR += 4
	case trap.Svc:
		d.withFIQEnabled(func() {
			d.Svc.Handle(core, uint64(syn.Imm), tf)
		})
	default:
		panic(fmt.Sprintf("dispatch: fatal synchronous exception: %+v", syn))
	}
}

// handleIRQ invokes every pending interrupt's handler unconditionally,
// global then local (original_source/kern/src/traps.rs's top-level
// dispatch and traps/irq.rs's registry, both of which call the
// registered handler directly off the pending bit with no
// "is anything registered" guard). An interrupt that fires pending but
// unregistered is a registration bug, and irqctl.(Global|Local)Registry's
// Invoke panics on it, matching spec.md §7 ("Unknown interrupt invoked
// ⇒ panic, indicates a registration bug").
func (d *Dispatcher) handleIRQ(tf *trap.Frame, core int) {
	d.withFIQEnabled(func() {
		for _, irq := range board.GlobalIRQs {
			if d.Pending != nil && d.Pending.Pending(irq) {
				d.Global.Invoke(core, irq, tf)
			}
		}
	})

	if core >= len(d.LocalByCore) {
		return
	}
	local := d.LocalByCore[core]
	var pending irqctl.PendingLocal
	if core < len(d.PendingLocal) {
		pending = d.PendingLocal[core]
	}
	for _, irq := range board.LocalIRQs {
		if pending != nil && pending.Pending(irq) {
			local.Invoke(core, irq, tf)
		}
	}
}

func (d *Dispatcher) withFIQEnabled(fn func()) {
	if d.FIQ != nil {
		d.FIQ.Enable()
		defer d.FIQ.Disable()
	}
	fn()
}
