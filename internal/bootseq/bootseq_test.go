package bootseq

import (
	"io"
	"log/slog"
	"testing"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/bootcfg"
	"github.com/rpi3kernel/core/internal/netdrv"
	"github.com/rpi3kernel/core/internal/proc"
	"github.com/rpi3kernel/core/internal/svc"
	"github.com/rpi3kernel/core/internal/trap"
)

// tinyConfig keeps NewKernelTable's identity-map walk small enough for a
// fast host test: a few pages of RAM instead of a full gigabyte.
func tinyConfig() bootcfg.Config {
	return bootcfg.Config{
		RAMEnd:         4 * board.PageSize,
		KernelImageEnd: board.PageSize,
		FSRootPath:     "/",
	}
}

type fakeTimer struct{ rearmed int }

func (f *fakeTimer) Rearm(tickMs int) { f.rearmed++ }

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBootProducesAllSingletons(t *testing.T) {
	k := Boot(tinyConfig(), nil, netdrv.New(), svc.SystemClock{}, 1, silentLogger())

	if k.Alloc == nil || k.KernelPT == nil || k.Sched == nil || k.Svc == nil || k.Dispatch == nil {
		t.Fatal("Boot must populate every singleton")
	}
	if !k.Cores.MMUReady(0) {
		t.Fatal("Boot must bring up core 0's MMU before returning")
	}
	if len(k.Local) != 1 {
		t.Fatalf("len(Local) = %d, want 1", len(k.Local))
	}
}

func TestWireTimerPreemptionRotatesOnInvoke(t *testing.T) {
	k := Boot(tinyConfig(), nil, netdrv.New(), svc.SystemClock{}, 1, silentLogger())
	timer := &fakeTimer{}
	k.WireTimerPreemption(0, timer, board.Tick)

	if !k.Global.Registered(0, board.Timer1) {
		t.Fatal("expected Timer1 to be registered on core 0")
	}
	if !k.Local[0].Registered(0, board.CNTPNSIRQ) {
		t.Fatal("expected CNTPNSIRQ to be registered on core 0")
	}

	idA, _ := k.Sched.Add(0, proc.New(trap.Frame{}, nil))
	idB, _ := k.Sched.Add(0, proc.New(trap.Frame{}, nil))

	var tf trap.Frame
	if id, ok := k.Sched.SwitchTo(0, &tf); !ok || id != idA {
		t.Fatalf("SwitchTo = %d, %v, want %d", id, ok, idA)
	}

	k.Global.Invoke(0, board.Timer1, &tf)
	if timer.rearmed != 1 {
		t.Fatalf("rearmed = %d, want 1", timer.rearmed)
	}
	if tf.TPIDR != idB {
		t.Fatalf("after the tick tf.TPIDR = %d, want %d (the next process in round-robin order)", tf.TPIDR, idB)
	}
}

func TestWakeApplicationCoreJoinsBarrier(t *testing.T) {
	k := Boot(tinyConfig(), nil, netdrv.New(), svc.SystemClock{}, 2, silentLogger())

	done := make(chan struct{})
	go func() {
		k.WakeApplicationCore(1, nil)
		close(done)
	}()
	<-done

	if !k.Cores.MMUReady(1) {
		t.Fatal("expected core 1's MMU to be marked ready")
	}
}
