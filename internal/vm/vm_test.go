package vm

import (
	"testing"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/palloc"
	"github.com/rpi3kernel/core/internal/percore"
)

func TestNewPageTablePrefillsL2(t *testing.T) {
	pt := New(board.UserRW)
	for i := 0; i < numL3Table; i++ {
		e := pt.L2[i]
		if !e.Valid() {
			t.Fatalf("L2[%d] not valid", i)
		}
		if e.Type() != TypeTable {
			t.Fatalf("L2[%d] type = %v, want TypeTable", i, e.Type())
		}
		if e.Addr() != tableAddr(pt.L3[i]) {
			t.Fatalf("L2[%d] addr mismatch", i)
		}
	}
}

func TestLocatePanicsOnBadL2Index(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range L2 index")
		}
	}()
	// L2 index 3 is out of range (only 0..2 are backed by an L3 table).
	locate(uint64(3) << 29)
}

func TestLocatePanicsOnMisalignedAddress(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for misaligned address")
		}
	}()
	locate(1)
}

func TestLocateInjective(t *testing.T) {
	seen := map[[2]int]uint64{}
	for l2 := 0; l2 < numL3Table; l2++ {
		for l3 := 0; l3 < l3Entries; l3 += 777 { // sample, not exhaustive
			va := (uint64(l2) << 29) | (uint64(l3) << 16)
			gotL2, gotL3, off := locate(va)
			if off != 0 {
				t.Fatalf("unexpected offset for va=%#x", va)
			}
			key := [2]int{gotL2, gotL3}
			if prior, ok := seen[key]; ok && prior != va {
				t.Fatalf("locate not injective: va=%#x and va=%#x both map to %v", prior, va, key)
			}
			seen[key] = va
			if gotL2 != l2 || gotL3 != l3 {
				t.Fatalf("locate(%#x) = (%d,%d), want (%d,%d)", va, gotL2, gotL3, l2, l3)
			}
		}
	}
}

func TestUserAllocWriteAndIsValid(t *testing.T) {
	alloc := palloc.NewOverRegion(make([]byte, 4<<20))
	pt := New(board.UserRW)

	buf := pt.UserAlloc(alloc, board.UserImgBase, board.UserRW)
	buf[0] = 0xAB

	if !pt.IsValid(board.UserImgBase) {
		t.Fatal("expected mapping to be valid after UserAlloc")
	}
	if got := pt.Entry(board.UserImgBase).AP(); got != APUserRW {
		t.Fatalf("AP = %v, want APUserRW", got)
	}
}

func TestUserAllocPanicsOnDoubleAlloc(t *testing.T) {
	alloc := palloc.NewOverRegion(make([]byte, 4<<20))
	pt := New(board.UserRW)
	pt.UserAlloc(alloc, board.UserImgBase, board.UserRW)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double alloc")
		}
	}()
	pt.UserAlloc(alloc, board.UserImgBase, board.UserRW)
}

func TestUserAllocPanicsBelowBase(t *testing.T) {
	alloc := palloc.NewOverRegion(make([]byte, 4<<20))
	pt := New(board.UserRW)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for va below USER_IMG_BASE")
		}
	}()
	pt.UserAlloc(alloc, 0x1000, board.UserRW)
}

func TestDropFreesPagesForReuse(t *testing.T) {
	region := make([]byte, 4<<20)
	alloc := palloc.NewOverRegion(region)
	pt := New(board.UserRW)

	pt.UserAlloc(alloc, board.UserImgBase, board.UserRW)
	pt.Drop(alloc)

	// The next same-size allocation may reuse the freed page.
	p := alloc.Alloc(PageSize, PageSize)
	if p == 0 {
		t.Fatal("expected a successful allocation after Drop freed a page")
	}
}

func TestKernelTableIdentityMapsRAM(t *testing.T) {
	pt := NewKernelTable(3 * PageSize)
	for pa := uint64(0); pa < 3*PageSize; pa += PageSize {
		if !pt.IsValid(pa) {
			t.Fatalf("expected identity mapping to be valid at %#x", pa)
		}
		if pt.Entry(pa).Addr() != pa {
			t.Fatalf("expected identity mapping addr(%#x) == %#x", pa, pa)
		}
	}
}

func TestBarrierReleasesAfterAllCoresReady(t *testing.T) {
	cores := &percore.Table{}
	b := NewBarrier(cores, 2)

	done := make(chan struct{})
	go func() {
		b.BringUpCore(1, nil)
		close(done)
	}()

	b.BringUpCore(0, nil)
	<-done

	if !AllReady(cores, 2) {
		t.Fatal("expected every core to be mmu_ready after the barrier")
	}
}
