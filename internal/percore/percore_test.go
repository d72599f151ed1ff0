package percore

import "testing"

func TestPreemptionCounterIncDec(t *testing.T) {
	var tbl Table
	if got := tbl.Preemption(0); got != 0 {
		t.Fatalf("initial Preemption = %d, want 0", got)
	}
	if got := tbl.IncPreemption(0); got != 1 {
		t.Fatalf("IncPreemption = %d, want 1", got)
	}
	if got := tbl.DecPreemption(0); got != 0 {
		t.Fatalf("DecPreemption = %d, want 0", got)
	}
}

func TestDecPreemptionBelowZeroPanics(t *testing.T) {
	var tbl Table
	defer func() {
		if recover() == nil {
			t.Fatal("expected DecPreemption below zero to panic")
		}
	}()
	tbl.DecPreemption(0)
}

func TestMMUReadyStartsFalse(t *testing.T) {
	var tbl Table
	if tbl.MMUReady(2) {
		t.Fatal("expected MMUReady to start false")
	}
	tbl.SetMMUReady(2)
	if !tbl.MMUReady(2) {
		t.Fatal("expected MMUReady to be true after SetMMUReady")
	}
}

func TestCoresAreIndependent(t *testing.T) {
	var tbl Table
	tbl.IncPreemption(0)
	if tbl.Preemption(1) != 0 {
		t.Fatal("expected core 1's counter to be unaffected by core 0's increment")
	}
}
