// Package bootseq implements the kernel entry's boot sequence: the
// strict "physical allocator -> filesystem handle -> VM manager
// (initialize, per-core setup, barrier) -> IRQ registries -> scheduler
// -> wake application cores" order spec.md §2 describes. It exists
// separately from cmd/kernel so the sequence itself (without the
// hardware-specific register pokes cmd/kernel's configureMMU callback
// supplies) is unit-testable on a host.
package bootseq

import (
	"log/slog"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/bootcfg"
	"github.com/rpi3kernel/core/internal/dispatch"
	"github.com/rpi3kernel/core/internal/fsimg"
	"github.com/rpi3kernel/core/internal/irqctl"
	"github.com/rpi3kernel/core/internal/kmutex"
	"github.com/rpi3kernel/core/internal/netsock"
	"github.com/rpi3kernel/core/internal/palloc"
	"github.com/rpi3kernel/core/internal/percore"
	"github.com/rpi3kernel/core/internal/proc"
	"github.com/rpi3kernel/core/internal/sched"
	"github.com/rpi3kernel/core/internal/svc"
	"github.com/rpi3kernel/core/internal/trap"
	"github.com/rpi3kernel/core/internal/vm"
)

// Kernel is every live singleton the boot sequence constructs, handed
// back to cmd/kernel, which wakes the application cores, wires timer
// preemption, and serves the debug shell. No per-core start() loop that
// dispatches user processes is run from it.
type Kernel struct {
	Cores    *percore.Table
	Alloc    *palloc.Allocator
	FS       fsimg.Source
	KernelPT *vm.PageTable
	Barrier  *vm.Barrier
	Global   *irqctl.GlobalRegistry
	Local    []*irqctl.LocalRegistry
	Sched    *sched.Scheduler
	Svc      *svc.Table
	Dispatch *dispatch.Dispatcher
}

// Boot runs the sequence once, on the bootstrap core, exactly as
// spec.md §2 orders it. Core 0 raises its mmu_ready flag and joins the
// MMU barrier without blocking Boot; the other numCores-1 application
// cores complete the barrier through WakeApplicationCore after Boot
// returns.
func Boot(cfg bootcfg.Config, fs fsimg.Source, net netsock.Driver, clock svc.Clock, numCores int, log *slog.Logger) *Kernel {
	log.Info("boot: bringing up physical allocator", "ram_end", cfg.RAMEnd, "kernel_image_end", cfg.KernelImageEnd)
	alloc := palloc.New(uintptr(cfg.KernelImageEnd), uintptr(cfg.RAMEnd))

	log.Info("boot: filesystem handle ready", "root", cfg.FSRootPath)

	log.Info("boot: building kernel page table")
	kpt := vm.NewKernelTable(cfg.RAMEnd)

	cores := &percore.Table{}
	barrier := vm.NewBarrier(cores, numCores)

	log.Info("boot: bringing up bootstrap core's MMU", "core", 0)
	cores.SetMMUReady(0)
	// The barrier only releases once every core has arrived, and the
	// application cores are woken after Boot returns, so core 0 waits on
	// it in the background instead of here.
	go barrier.Wait()

	log.Info("boot: initializing IRQ registries")
	global := irqctl.NewGlobalRegistry(cores)
	local := make([]*irqctl.LocalRegistry, numCores)
	for i := range local {
		local[i] = irqctl.NewLocalRegistry(cores)
	}

	log.Info("boot: initializing scheduler")
	scheduler := sched.New(kmutex.New(cores))

	svcTable := &svc.Table{
		Sched: scheduler,
		Alloc: alloc,
		Net:   net,
		Ports: &netsock.PortMap{},
		Clock: clock,
	}

	d := &dispatch.Dispatcher{
		Global:      global,
		LocalByCore: local,
		Sched:       scheduler,
		Svc:         svcTable,
	}

	return &Kernel{
		Cores:    cores,
		Alloc:    alloc,
		FS:       fs,
		KernelPT: kpt,
		Barrier:  barrier,
		Global:   global,
		Local:    local,
		Sched:    scheduler,
		Svc:      svcTable,
		Dispatch: d,
	}
}

// WakeApplicationCore brings up one non-bootstrap core's MMU and joins
// it to the barrier, the last boot-sequence step spec.md §2 names
// ("wakes application cores; each repeats the EL drop and MMU setup,
// then joins the scheduler"). On hardware, waking the core itself
// (writing its spin-table slot + SEV, board.SpinTableBase) happens
// before this is called; here it only performs the MMU side.
func (k *Kernel) WakeApplicationCore(core int, configureMMURegisters func()) {
	k.Barrier.BringUpCore(core, configureMMURegisters)
}

// Timer is the hardware timer boundary the preemption handlers rearm:
// Timer1 (global, core 0 only) and CNTPNSIRQ (local, every core). Both
// are armed with the same spec.md §4.3 TICK period.
type Timer interface {
	Rearm(tickMs int)
}

// WireTimerPreemption registers the timer-driven preemption handler
// spec.md §4.3 describes: re-arm the timer, then rotate the run queue
// with SCHEDULER.switch_to(Ready, tf). Core 0 wires Timer1 (global);
// every core, including 0, additionally wires its own CNTPNSIRQ (local).
func (k *Kernel) WireTimerPreemption(core int, timer Timer, tick int) {
	handler := func(tf *trap.Frame) {
		timer.Rearm(tick)
		k.Sched.ScheduleOut(core, proc.ReadyState(), tf)
		k.Sched.SwitchTo(core, tf)
	}
	if core == 0 {
		k.Global.Register(core, board.Timer1, handler)
	}
	k.Local[core].Register(core, board.CNTPNSIRQ, handler)
}
