package proc

import (
	"fmt"
	"io"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/fsimg"
	"github.com/rpi3kernel/core/internal/palloc"
	"github.com/rpi3kernel/core/internal/trap"
	"github.com/rpi3kernel/core/internal/vm"
)

// spsrEL0IRQUnmasked sets SPSR_EL1.M = 0b0000 (EL0t) and masks D/A/F
// while leaving IRQ (I) unmasked, so the process can still be preempted
// by the scheduler's timer tick while FIQ stays masked (spec.md §4.3).
const spsrEL0IRQUnmasked = (1 << 9) | (1 << 8) | (1 << 6) // D=1, A=1, F=1, I=0

// Create loads a program image from a FAT32 path and returns a fresh,
// not-yet-scheduled process (spec.md §4.3):
//
//  1. allocate a fresh user page table;
//  2. allocate and zero one stack page at USER_STACK_BASE;
//  3. open the file and map it page by page starting at USER_IMG_BASE,
//     zero-padding the final partial page;
//  4. initialize the trap frame.
func Create(alloc *palloc.Allocator, fs fsimg.Source, path string, kernelTTBR0 uint64) (*Process, error) {
	vmap := vm.New(board.UserRW)

	stack := vmap.UserAlloc(alloc, board.UserStackBase, board.UserRW)
	for i := range stack {
		stack[i] = 0
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("proc: open %s: %w", path, err)
	}
	defer f.Close()

	if err := loadImage(vmap, alloc, f); err != nil {
		return nil, fmt.Errorf("proc: load %s: %w", path, err)
	}

	ctx := trap.Frame{
		ELR:   board.UserImgBase,
		SPSR:  spsrEL0IRQUnmasked,
		SP:    board.UserStackBase + board.PageSize - 16,
		TTBR0: kernelTTBR0,
		TTBR1: vmap.Base(),
	}

	return New(ctx, vmap), nil
}

// loadImage reads f a page at a time into successive RWX pages starting
// at USER_IMG_BASE. A final short read is zero-padded within one more
// allocated page rather than causing an error (spec.md §4.3 step 3).
func loadImage(vmap *vm.PageTable, alloc *palloc.Allocator, f fsimg.File) error {
	va := uint64(board.UserImgBase)
	buf := make([]byte, board.PageSize)

	for {
		n, err := io.ReadFull(f, buf)
		if n > 0 {
			page := vmap.UserAlloc(alloc, va, board.UserRW)
			copy(page, buf[:n])
			for i := n; i < len(page); i++ {
				page[i] = 0
			}
			va += board.PageSize
		}
		if err == io.EOF {
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			return nil // final partial page already handled above
		}
		if err != nil {
			return err
		}
	}
}
