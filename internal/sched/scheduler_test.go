package sched

import (
	"testing"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/kmutex"
	"github.com/rpi3kernel/core/internal/palloc"
	"github.com/rpi3kernel/core/internal/proc"
	"github.com/rpi3kernel/core/internal/trap"
	"github.com/rpi3kernel/core/internal/vm"
)

func newTestScheduler() *Scheduler {
	return New(kmutex.New(nil))
}

func TestAddAssignsIncreasingNonZeroIds(t *testing.T) {
	s := newTestScheduler()
	p1 := proc.New(trap.Frame{}, nil)
	p2 := proc.New(trap.Frame{}, nil)

	id1, ok := s.Add(0, p1)
	if !ok || id1 == 0 {
		t.Fatalf("Add #1: id=%d ok=%v, want nonzero id", id1, ok)
	}
	id2, ok := s.Add(0, p2)
	if !ok || id2 <= id1 {
		t.Fatalf("Add #2: id=%d, want > %d", id2, id1)
	}
	if p1.Pid() != id1 || p2.Pid() != id2 {
		t.Fatal("Add must stamp the id into the process's trap frame")
	}
}

func TestSwitchToPicksFirstReadyAndMovesToFront(t *testing.T) {
	s := newTestScheduler()
	a := proc.New(trap.Frame{}, nil)
	b := proc.New(trap.Frame{}, nil)
	idA, _ := s.Add(0, a)
	idB, _ := s.Add(0, b)

	var tf trap.Frame
	id, ok := s.SwitchTo(0, &tf)
	if !ok || id != idA {
		t.Fatalf("SwitchTo #1: id=%d ok=%v, want %d", id, ok, idA)
	}
	if a.State() != proc.Running {
		t.Fatal("picked process must become Running")
	}

	// a is Running (not ready); b is still Ready, so it's picked next.
	id, ok = s.SwitchTo(0, &tf)
	if !ok || id != idB {
		t.Fatalf("SwitchTo #2: id=%d ok=%v, want %d", id, ok, idB)
	}
}

func TestSwitchToReturnsNotOkWhenNoneReady(t *testing.T) {
	s := newTestScheduler()
	p := proc.New(trap.Frame{}, nil)
	s.Add(0, p)

	var tf trap.Frame
	if _, ok := s.SwitchTo(0, &tf); !ok {
		t.Fatal("expected first SwitchTo to succeed")
	}
	// p is now Running; nothing else is ready.
	if _, ok := s.SwitchTo(0, &tf); ok {
		t.Fatal("expected SwitchTo to report not-ready with no Ready processes")
	}
}

func TestScheduleOutRoundRobinsToBack(t *testing.T) {
	s := newTestScheduler()
	a := proc.New(trap.Frame{}, nil)
	b := proc.New(trap.Frame{}, nil)
	idA, _ := s.Add(0, a)
	s.Add(0, b)

	var tf trap.Frame
	s.SwitchTo(0, &tf) // picks a, tf.TPIDR == idA

	tf.X[0] = 0xBEEF
	if !s.ScheduleOut(0, proc.ReadyState(), &tf) {
		t.Fatal("ScheduleOut should find the running process by pid")
	}
	if a.State() != proc.Ready {
		t.Fatalf("state = %v, want Ready", a.State())
	}
	if a.Context.X[0] != 0xBEEF {
		t.Fatal("ScheduleOut must copy tf into the saved context")
	}

	// b was never scheduled out, so it's still Ready and at the front of
	// the queue (a was re-appended to the back) — b should be picked now.
	id, ok := s.SwitchTo(0, &tf)
	if !ok {
		t.Fatal("expected a ready process")
	}
	if id == idA {
		t.Fatal("expected round-robin to prefer b over the just-rescheduled a")
	}
}

func TestScheduleOutUnknownPidFails(t *testing.T) {
	s := newTestScheduler()
	var tf trap.Frame
	tf.TPIDR = 999
	if s.ScheduleOut(0, proc.ReadyState(), &tf) {
		t.Fatal("expected false for an unknown pid")
	}
}

func TestKillRemovesAndFreesResources(t *testing.T) {
	alloc := palloc.NewOverRegion(make([]byte, 1<<20))

	vmap := vm.New(board.UserRW)
	vmap.UserAlloc(alloc, board.UserImgBase, board.UserRW)

	s := newTestScheduler()
	p := proc.New(trap.Frame{}, vmap)
	id, _ := s.Add(0, p)

	var tf trap.Frame
	tf.TPIDR = id
	gotID, ok := s.Kill(0, &tf, alloc)
	if !ok || gotID != id {
		t.Fatalf("Kill: id=%d ok=%v, want %d", gotID, ok, id)
	}
	if p.State() != proc.Dead {
		t.Fatalf("state = %v, want Dead", p.State())
	}
	if s.Len(0) != 0 {
		t.Fatal("Kill must remove the process from the run queue")
	}
	if vmap.IsValid(board.UserImgBase) {
		t.Fatal("Kill must free the process's user pages")
	}
}

func TestKillUnknownPidFails(t *testing.T) {
	s := newTestScheduler()
	var tf trap.Frame
	tf.TPIDR = 12345
	if _, ok := s.Kill(0, &tf, nil); ok {
		t.Fatal("expected false for an unknown pid")
	}
}
