// Package svc implements the supervisor-call table: the twelve syscalls
// spec.md §4.5 defines, each reading its arguments out of the trap
// frame's x0..x5 and writing results into x0..x3 plus the OsError code
// into x7. This mirrors the reference hypervisor's ecall dispatch table
// (internal/hv/riscv/rv64/trap.go's syscall switch) adapted to this
// kernel's fixed twelve-entry surface instead of a Linux-shaped one.
package svc

import (
	"fmt"
	"unicode/utf8"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/netsock"
	"github.com/rpi3kernel/core/internal/palloc"
	"github.com/rpi3kernel/core/internal/proc"
	"github.com/rpi3kernel/core/internal/sched"
	"github.com/rpi3kernel/core/internal/trap"
)

// Syscall numbers, matching spec.md §4.5's table exactly.
const (
	Sleep = iota + 1
	Time
	Exit
	Write
	Getpid
	WriteStr
	SockCreate
	SockStatus
	SockConnect
	SockListen
	SockSend
	SockRecv
)

// Table wires the scheduler, console sink, network driver, ephemeral
// port map, and wall clock together into the single entry point the
// dispatcher calls for every Svc(n) syndrome.
type Table struct {
	Sched   *sched.Scheduler
	Alloc   *palloc.Allocator
	Console Console
	Net     netsock.Driver
	Ports   *netsock.PortMap
	Clock   Clock
}

// Handle dispatches syscall n for the process currently described by tf,
// on the given physical core. Numbers outside 1..12 panic, matching
// spec.md §6: "others cause unimplemented panics."
func (t *Table) Handle(core int, n uint64, tf *trap.Frame) {
	switch n {
	case Sleep:
		t.sleep(core, tf)
	case Time:
		t.time(tf)
	case Exit:
		t.exit(core, tf)
	case Write:
		t.write(tf)
	case Getpid:
		t.getpid(tf)
	case WriteStr:
		t.writeStr(core, tf)
	case SockCreate:
		t.sockCreate(core, tf)
	case SockStatus:
		t.sockStatus(core, tf)
	case SockConnect:
		t.sockConnect(core, tf)
	case SockListen:
		t.sockListen(core, tf)
	case SockSend:
		t.sockSend(core, tf)
	case SockRecv:
		t.sockRecv(core, tf)
	default:
		panic(fmt.Sprintf("svc: unimplemented syscall #%d", n))
	}
}

// sleepPredicate is the canonical Waiting(pred) pattern spec.md §4.5
// describes: capture the start time, and on each poll compare against
// the wall clock, delivering the elapsed milliseconds into x0 on
// success.
type sleepPredicate struct {
	clock    Clock
	startMs  uint64
	targetMs uint64
}

func (p *sleepPredicate) Poll(proc *proc.Process) bool {
	secs, nanos := p.clock.Now()
	now := millis(secs, nanos)
	elapsed := now - p.startMs
	if elapsed < p.targetMs {
		return false
	}
	proc.Context.SetResult(elapsed, 0, 0, 0)
	proc.Context.SetErr(uint64(Ok))
	return true
}

func (t *Table) sleep(core int, tf *trap.Frame) {
	ms := tf.Arg(0)
	secs, nanos := t.Clock.Now()
	pred := &sleepPredicate{clock: t.Clock, startMs: millis(secs, nanos), targetMs: ms}
	t.Sched.ScheduleOut(core, proc.WaitingState(pred), tf)
}

func (t *Table) time(tf *trap.Frame) {
	secs, nanos := t.Clock.Now()
	tf.SetResult(secs, nanos, 0, 0)
	tf.SetErr(uint64(Ok))
}

func (t *Table) exit(core int, tf *trap.Frame) {
	t.closeAllSockets(core, tf.Pid())
	t.Sched.Kill(core, tf, t.Alloc)
}

func (t *Table) write(tf *trap.Frame) {
	b := byte(tf.Arg(0))
	if err := t.Console.WriteByte(b); err != nil {
		tf.SetErr(uint64(IoError))
		return
	}
	tf.SetErr(uint64(Ok))
}

func (t *Table) getpid(tf *trap.Frame) {
	tf.SetResult(tf.Pid(), 0, 0, 0)
	tf.SetErr(uint64(Ok))
}

// validateUserSlice enforces spec.md §4.5's user-buffer rule: va must be
// at or above USER_IMG_BASE and va+len must not overflow u64.
func validateUserSlice(va, length uint64) bool {
	if va < board.UserImgBase {
		return false
	}
	end := va + length
	return end >= va // no wraparound
}

func (t *Table) writeStr(core int, tf *trap.Frame) {
	va, length := tf.Arg(0), tf.Arg(1)
	if !validateUserSlice(va, length) {
		tf.SetErr(uint64(BadAddress))
		return
	}
	p, ok := t.Sched.Get(core, tf.Pid())
	if !ok || p.Vmap == nil {
		tf.SetErr(uint64(BadAddress))
		return
	}
	raw, err := p.Vmap.ReadAt(va, int(length))
	if err != nil {
		tf.SetErr(uint64(BadAddress))
		return
	}
	s := decodeValidUTF8(raw)
	n, err := t.Console.WriteString(s)
	if err != nil {
		tf.SetErr(uint64(IoError))
		return
	}
	tf.SetResult(uint64(n), 0, 0, 0)
	tf.SetErr(uint64(Ok))
}

// decodeValidUTF8 truncates raw at the first invalid byte sequence,
// matching spec.md's "UTF-8 decodes" note without panicking on a
// malformed user-supplied buffer.
func decodeValidUTF8(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	valid := raw
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			valid = raw[:i]
			break
		}
		i += size
	}
	return string(valid)
}

func (t *Table) closeAllSockets(core int, pid uint64) {
	p, ok := t.Sched.Get(core, pid)
	if !ok || t.Net == nil {
		return
	}
	for i := range p.Sockets {
		h := &p.Sockets[i]
		if h.Sock != nil {
			t.Net.Close(h.Sock)
			if h.Used {
				t.Ports.Erase(h.Port)
			}
			h.Sock = nil
		}
	}
}
