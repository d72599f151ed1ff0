package kmutex

import (
	"sync"
	"testing"

	"github.com/rpi3kernel/core/internal/percore"
)

func TestLockUnlockPreMMU(t *testing.T) {
	m := New(&percore.Table{})
	m.Lock(0)
	if !m.Held() {
		t.Fatal("expected lock held")
	}
	if m.Owner() != 0 {
		t.Fatalf("owner = %d, want 0", m.Owner())
	}
	m.Unlock(0)
	if m.Held() {
		t.Fatal("expected lock released")
	}
}

func TestUnlockByNonOwnerIsNoop(t *testing.T) {
	m := New(&percore.Table{})
	m.Lock(0)
	m.Unlock(1) // not the owner; must not release
	if !m.Held() {
		t.Fatal("non-owner unlock must not release the lock")
	}
	m.Unlock(0)
	if m.Held() {
		t.Fatal("owner unlock must release the lock")
	}
}

func TestPostMMUMutualExclusion(t *testing.T) {
	cores := &percore.Table{}
	for i := 0; i < percore.NumCoresMax; i++ {
		cores.SetMMUReady(i)
	}
	m := New(cores)

	var (
		wg        sync.WaitGroup
		counter   int
		observed  [percore.NumCoresMax]bool
		mismatch  bool
		iterCount = 2000
	)

	for core := 0; core < percore.NumCoresMax; core++ {
		core := core
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterCount; i++ {
				m.Lock(core)
				if m.Owner() != core {
					mismatch = true
				}
				observed[core] = true
				counter++
				m.Unlock(core)
			}
		}()
	}
	wg.Wait()

	if mismatch {
		t.Fatal("observed a core seeing a different owner while holding the lock")
	}
	if counter != iterCount*percore.NumCoresMax {
		t.Fatalf("counter = %d, want %d (lost updates indicate a broken critical section)", counter, iterCount*percore.NumCoresMax)
	}
	for i, ok := range observed {
		if !ok {
			t.Errorf("core %d never acquired the lock", i)
		}
	}
}

func TestPreemptionCounterTracksAcquisition(t *testing.T) {
	cores := &percore.Table{}
	cores.SetMMUReady(0)
	m := New(cores)

	if cores.Preemption(0) != 0 {
		t.Fatalf("expected 0 preemption count before any lock")
	}
	m.Lock(0)
	if cores.Preemption(0) != 1 {
		t.Fatalf("expected preemption count 1 while held, got %d", cores.Preemption(0))
	}
	m.Unlock(0)
	if cores.Preemption(0) != 0 {
		t.Fatalf("expected preemption count back to 0 after release, got %d", cores.Preemption(0))
	}
}

func TestCriticalUnlocksOnPanic(t *testing.T) {
	cores := &percore.Table{}
	cores.SetMMUReady(0)
	m := New(cores)

	func() {
		defer func() { recover() }()
		m.Critical(0, func() {
			panic("boom")
		})
	}()

	if m.Held() {
		t.Fatal("expected Critical to unlock even after a panic")
	}
}
