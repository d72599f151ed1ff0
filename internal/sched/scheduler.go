// Package sched implements the single system-wide round-robin scheduler:
// a FIFO run queue of proc.Process values guarded by a kmutex so every
// core can call add/schedule_out/switch_to/kill concurrently (spec.md
// §4.3). The tie-breaking rule falls out of the queue discipline itself:
// switch_to always moves its pick to the front, and schedule_out always
// re-appends to the back, so the next switch_to naturally advances to
// whichever ready process has waited longest.
package sched

import (
	"github.com/rpi3kernel/core/internal/kmutex"
	"github.com/rpi3kernel/core/internal/palloc"
	"github.com/rpi3kernel/core/internal/proc"
	"github.com/rpi3kernel/core/internal/trap"
)

// Scheduler owns the run queue and the monotonically increasing process
// id counter (spec.md §3: `{processes: FIFO<Process>, last_id}`).
type Scheduler struct {
	mu    *kmutex.Mutex
	queue []*proc.Process
	lastID uint64
}

// New returns an empty scheduler. mu should be shared with no other
// singleton; the scheduler is the only owner of its run queue.
func New(mu *kmutex.Mutex) *Scheduler {
	return &Scheduler{mu: mu}
}

// Add assigns the next process id, stamps it into p's trap frame, and
// appends p to the back of the run queue. Id 0 is never assigned (it is
// reserved, spec.md §9); ok is false once the 64-bit counter would wrap,
// at which point the scheduler refuses to admit more processes rather
// than risk id reuse.
func (s *Scheduler) Add(core int, p *proc.Process) (id uint64, ok bool) {
	s.mu.Lock(core)
	defer s.mu.Unlock(core)

	if s.lastID == ^uint64(0) {
		return 0, false
	}
	s.lastID++
	p.SetPid(s.lastID)
	s.queue = append(s.queue, p)
	return s.lastID, true
}

// ScheduleOut finds the process whose pid equals tf.TPIDR, removes it
// from its current queue position, transitions it to newState, copies tf
// into its saved context, and re-appends it to the back. ok is false if
// no such process exists.
func (s *Scheduler) ScheduleOut(core int, newState proc.State, tf *trap.Frame) (ok bool) {
	s.mu.Lock(core)
	defer s.mu.Unlock(core)

	i := s.indexOf(tf.TPIDR)
	if i < 0 {
		return false
	}
	p := s.removeAt(i)
	p.SetState(newState)
	p.Context = *tf
	s.queue = append(s.queue, p)
	return true
}

// SwitchTo walks the queue front-to-back, picks the first process whose
// IsReady() returns true, removes it, marks it Running, copies its
// context into tf, moves it to the front of the queue, and returns its
// id. ok is false when no process is ready; the caller is expected to
// spin on wfi until the next tick.
func (s *Scheduler) SwitchTo(core int, tf *trap.Frame) (id uint64, ok bool) {
	s.mu.Lock(core)
	defer s.mu.Unlock(core)

	for i, p := range s.queue {
		if !p.IsReady() {
			continue
		}
		p = s.removeAt(i)
		p.SetState(proc.RunningState())
		*tf = p.Context
		s.queue = append([]*proc.Process{p}, s.queue...)
		return p.Pid(), true
	}
	return 0, false
}

// Kill removes the process whose pid equals tf.TPIDR, frees its
// resources (its user page table's pages, returned to alloc), marks it
// Dead, and returns its id. ok is false if no such process exists.
func (s *Scheduler) Kill(core int, tf *trap.Frame, alloc *palloc.Allocator) (id uint64, ok bool) {
	s.mu.Lock(core)
	defer s.mu.Unlock(core)

	i := s.indexOf(tf.TPIDR)
	if i < 0 {
		return 0, false
	}
	p := s.removeAt(i)
	if p.Vmap != nil {
		p.Vmap.Drop(alloc)
	}
	p.SetState(proc.DeadState())
	return p.Pid(), true
}

// Get returns the process whose pid equals pid, without disturbing the
// queue. svc syscalls use this to reach a process's socket table, which
// the trap frame itself doesn't carry.
func (s *Scheduler) Get(core int, pid uint64) (*proc.Process, bool) {
	s.mu.Lock(core)
	defer s.mu.Unlock(core)

	i := s.indexOf(pid)
	if i < 0 {
		return nil, false
	}
	return s.queue[i], true
}

// Len reports the number of processes currently tracked, live or dead-
// but-not-yet-collected, for diagnostics and tests.
func (s *Scheduler) Len(core int) int {
	s.mu.Lock(core)
	defer s.mu.Unlock(core)
	return len(s.queue)
}

func (s *Scheduler) indexOf(pid uint64) int {
	for i, p := range s.queue {
		if p.Pid() == pid {
			return i
		}
	}
	return -1
}

// removeAt deletes and returns the element at i, preserving the order of
// everything else (the run queue's FIFO discipline depends on this).
func (s *Scheduler) removeAt(i int) *proc.Process {
	p := s.queue[i]
	s.queue = append(s.queue[:i:i], s.queue[i+1:]...)
	return p
}
