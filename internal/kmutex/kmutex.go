// Package kmutex implements the multicore-safe test-and-set spinlock that
// guards every global singleton in the kernel (allocator, scheduler, VM
// manager, filesystem handle, IRQ registries, network driver). It has two
// code paths (spec.md §5):
//
//   - Pre-MMU, only core 0 running: a plain load/store pair, since there
//     is no other core to race with yet.
//   - Post-MMU, parallel cores: a sequentially-consistent compare-and-swap,
//     recording the owning core and bumping that core's preemption
//     counter.
//
// Which path runs is decided per-call from percore.Table's mmu_ready flag
// for the calling core, mirroring the Go runtime's own CAS-based mutex
// idiom (see the lock_futex.go-style active-spin loop this corpus carries
// as reference) adapted to a spin-only lock: there is no OS to futex-sleep
// on below the scheduler.
package kmutex

import (
	"sync/atomic"

	"github.com/rpi3kernel/core/internal/percore"
)

// noOwner is the sentinel recorded in owner while the lock is free.
const noOwner = -1

// Mutex is a spinlock with an owner field and per-core preemption
// accounting. The zero value is a valid, unlocked mutex.
type Mutex struct {
	locked atomic.Bool
	owner  atomic.Int64

	cores *percore.Table
}

// New returns a Mutex that cooperates with the given per-core table for
// preemption-counter bookkeeping once the MMU is up.
func New(cores *percore.Table) *Mutex {
	m := &Mutex{cores: cores}
	m.owner.Store(noOwner)
	return m
}

// Lock acquires the mutex for the calling core. core must be the physical
// core id (0-3) the caller is currently executing on.
func (m *Mutex) Lock(core int) {
	if m.cores == nil || !m.cores.MMUReady(core) {
		m.lockPreMMU(core)
		return
	}
	m.lockPostMMU(core)
}

// lockPreMMU is valid only while core 0 is the sole running core: no
// other core can be contending, so a relaxed load/store pair suffices.
func (m *Mutex) lockPreMMU(core int) {
	if core != 0 {
		panic("kmutex: pre-MMU lock attempted from non-bootstrap core")
	}
	m.locked.Store(true)
	m.owner.Store(int64(core))
}

// lockPostMMU spins on a sequentially-consistent compare-and-swap until it
// wins, then records ownership and bumps the owning core's preemption
// counter.
func (m *Mutex) lockPostMMU(core int) {
	for !m.locked.CompareAndSwap(false, true) {
		// busy-wait; no OS thread to yield to below the scheduler.
	}
	m.owner.Store(int64(core))
	if m.cores != nil {
		m.cores.IncPreemption(core)
	}
}

// Unlock releases the mutex. It is idempotent: releasing from a core that
// is not the recorded owner is a no-op, guarding against nested mismatched
// drops (spec.md §5).
func (m *Mutex) Unlock(core int) {
	if m.owner.Load() != int64(core) {
		return
	}
	m.owner.Store(noOwner)
	m.locked.Store(false)
	if m.cores != nil && m.cores.MMUReady(core) {
		m.cores.DecPreemption(core)
	}
}

// Held reports whether the mutex is currently locked.
func (m *Mutex) Held() bool {
	return m.locked.Load()
}

// Owner returns the core id holding the mutex, or -1 if it is free.
func (m *Mutex) Owner() int {
	return int(m.owner.Load())
}

// Critical runs fn while holding the mutex for core, unlocking
// unconditionally afterward even if fn panics. This is the "expose
// critical(|inner| ...) for composite operations" shape spec.md's design
// notes call for.
func (m *Mutex) Critical(core int, fn func()) {
	m.Lock(core)
	defer m.Unlock(core)
	fn()
}
