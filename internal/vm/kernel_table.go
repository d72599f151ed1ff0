package vm

import "github.com/rpi3kernel/core/internal/board"

// NewKernelTable builds the kernel's identity map: every physical page in
// [0, ramEnd) mapped KERN_RW/normal-memory, followed by the two MMIO
// windows mapped KERN_RW/device-memory with outer shareability
// (spec.md §4.2).
//
// Unlike UserAlloc, the kernel table's pages are never carved from the
// physical allocator: they are the identity map over RAM that already
// exists, so SetEntry is called directly with addr == va.
func NewKernelTable(ramEnd uint64) *PageTable {
	pt := New(board.KernRW)

	for pa := uint64(0); pa < ramEnd; pa += PageSize {
		pt.SetEntry(pa, NewEntry(pa, true, ShInnerShareable, APKernRW, AttrMem, TypePage))
	}

	mapDeviceWindow(pt, board.MMIOBase, board.MMIOBaseEnd)
	mapDeviceWindow(pt, board.MMIOHighBase, board.MMIOHighBaseEnd)

	return pt
}

func mapDeviceWindow(pt *PageTable, base, end uint64) {
	for pa := base; pa < end; pa += PageSize {
		pt.SetEntry(pa, NewEntry(pa, true, ShOuterShareable, APKernRW, AttrDevice, TypePage))
	}
}
