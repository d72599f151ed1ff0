package vm

import (
	"fmt"
	"unsafe"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/palloc"
)

// PageSize is the 64 KiB translation granule (TCR_EL1.TG0/TG1 = 0b01/0b11).
const PageSize = board.PageSize

const (
	l2Entries  = 8192
	l3Entries  = 8192
	numL3Table = 3 // 3 * 8192 * 64KiB = 1.5 GiB, enough for both windows
)

// L2Table and L3Table are fixed-size translation tables; spec.md requires
// exactly three L3 tables per PageTable (8192 entries each).
type L2Table [l2Entries]Entry
type L3Table [l3Entries]Entry

// PageTable owns one L2 table plus exactly three L3 tables. Kernel tables
// are constructed with AccessPerm=KernRW; user tables with UserRW.
type PageTable struct {
	L2   *L2Table
	L3   [numL3Table]*L3Table
	perm board.AccessPerm
}

// New allocates a PageTable with three zeroed L3 tables and pre-fills the
// first three L2 entries to point at them, TYPE=Table VALID=1 AF=1
// SH=ISh ATTR=Mem AP=perm (spec.md §4.2).
func New(perm board.AccessPerm) *PageTable {
	pt := &PageTable{L2: &L2Table{}, perm: perm}
	ap := apFor(perm)
	for i := 0; i < numL3Table; i++ {
		// A table descriptor keeps only address bits [47:16], so each L3
		// table is placed on a 64 KiB boundary inside a two-page buffer.
		buf := make([]byte, 2*PageSize)
		off := (PageSize - ptrToUintptr(&buf[0])%PageSize) % PageSize
		l3 := (*L3Table)(unsafe.Pointer(&buf[off]))
		pt.L3[i] = l3
		addr := uint64(tableAddr(l3))
		pt.L2[i] = NewEntry(addr, true, ShInnerShareable, ap, AttrMem, TypeTable)
	}
	return pt
}

func apFor(perm board.AccessPerm) AP {
	if perm == board.UserRW {
		return APUserRW
	}
	return APKernRW
}

// locate splits a page-aligned virtual address into its L2 index, L3
// index, and page offset, panicking on an out-of-range L2 index or a
// misaligned address exactly as spec.md §4.2 requires.
func locate(va uint64) (l2index, l3index int, pageOffset uint64) {
	pageOffset = va & (PageSize - 1)
	l3index = int((va >> 16) & 0x1FFF)
	l2index = int((va >> 29) & 0x1FFF)
	if l2index > numL3Table-1 {
		panic(fmt.Sprintf("vm: locate(%#x): L2 index %d out of range", va, l2index))
	}
	if pageOffset != 0 {
		panic(fmt.Sprintf("vm: locate(%#x): address is not page-aligned", va))
	}
	return l2index, l3index, pageOffset
}

// tableOffset converts a virtual address as the caller writes it (a raw
// kernel identity-mapped address for a kernel table, or a
// USER_IMG_BASE-relative address for a user table) into the offset
// locate() indexes with. A user table's addresses carry the TTBR1
// sign-extended prefix, which the table walk never consults — only the
// offset from USER_IMG_BASE selects L2/L3 indices.
func (pt *PageTable) tableOffset(va uint64) uint64 {
	if pt.perm == board.UserRW {
		return va - board.UserImgBase
	}
	return va
}

// SetEntry overwrites the L3 entry addressed by va.
func (pt *PageTable) SetEntry(va uint64, e Entry) {
	l2i, l3i, _ := locate(pt.tableOffset(va))
	pt.L3[l2i][l3i] = e
}

// Entry returns the L3 entry addressed by va.
func (pt *PageTable) Entry(va uint64) Entry {
	l2i, l3i, _ := locate(pt.tableOffset(va))
	return pt.L3[l2i][l3i]
}

// IsValid reports whether the L3 entry addressed by va has its VALID bit
// set.
func (pt *PageTable) IsValid(va uint64) bool {
	return pt.Entry(va).Valid()
}

// Base returns the physical address of the L2 table, the value loaded
// into TTBR0_EL1/TTBR1_EL1.
func (pt *PageTable) Base() uint64 {
	return tableAddr(pt.L2)
}

// tableAddr is the host-simulation stand-in for "the physical address of
// this table": on real hardware the Go heap pointer already is the
// physical address, since the kernel page table identity-maps RAM.
func tableAddr[T any](t *T) uint64 {
	return uint64(ptrToUintptr(t))
}

// UserAlloc allocates one fresh 64 KiB page from alloc, maps it at va
// with the given permission, and returns a writable slice over it.
// va must be >= board.UserImgBase; allocating into an already-valid L3
// entry is a programmer error and panics (spec.md §4.2).
func (pt *PageTable) UserAlloc(alloc *palloc.Allocator, va uint64, perm board.AccessPerm) []byte {
	if va < board.UserImgBase {
		panic(fmt.Sprintf("vm: UserAlloc(%#x): below USER_IMG_BASE", va))
	}
	if pt.IsValid(va) {
		panic(fmt.Sprintf("vm: UserAlloc(%#x): already mapped", va))
	}

	phys := alloc.Alloc(PageSize, PageSize)
	if phys == 0 {
		panic("vm: UserAlloc: physical allocator exhausted")
	}

	ap := apFor(perm)
	pt.SetEntry(va, NewEntry(uint64(phys), true, ShInnerShareable, ap, AttrMem, TypePage))

	return bytesAt(phys, PageSize)
}

// ErrUnmapped is returned by ReadAt/WriteAt when the requested range
// crosses a page that isn't currently mapped.
var ErrUnmapped = fmt.Errorf("vm: address not mapped")

// ReadAt copies n bytes starting at va out of the user address space,
// walking page boundaries as needed. It is the svc package's translation
// from a validated user (va, len) pair into kernel-readable bytes
// (spec.md §4.5 write_str/sock_send).
func (pt *PageTable) ReadAt(va uint64, n int) ([]byte, error) {
	out := make([]byte, n)
	if err := pt.forEachPage(va, out, pt.copyFromPage); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteAt copies data into the user address space starting at va,
// walking page boundaries as needed (spec.md §4.5 sock_recv).
func (pt *PageTable) WriteAt(va uint64, data []byte) error {
	return pt.forEachPage(va, data, pt.copyToPage)
}

// forEachPage splits buf across the pages [va, va+len(buf)) and invokes
// apply once per page with the page-local offset and the slice of buf
// that page covers.
func (pt *PageTable) forEachPage(va uint64, buf []byte, apply func(pageVA uint64, pageOff uint64, chunk []byte) error) error {
	remaining := buf
	for len(remaining) > 0 {
		pageVA := va &^ (PageSize - 1)
		pageOff := va & (PageSize - 1)
		n := PageSize - pageOff
		if uint64(len(remaining)) < n {
			n = uint64(len(remaining))
		}
		if err := apply(pageVA, pageOff, remaining[:n]); err != nil {
			return err
		}
		remaining = remaining[n:]
		va += n
	}
	return nil
}

func (pt *PageTable) copyFromPage(pageVA, pageOff uint64, chunk []byte) error {
	if !pt.IsValid(pageVA) {
		return ErrUnmapped
	}
	page := bytesAt(uintptr(pt.Entry(pageVA).Addr()), PageSize)
	copy(chunk, page[pageOff:])
	return nil
}

func (pt *PageTable) copyToPage(pageVA, pageOff uint64, chunk []byte) error {
	if !pt.IsValid(pageVA) {
		return ErrUnmapped
	}
	page := bytesAt(uintptr(pt.Entry(pageVA).Addr()), PageSize)
	copy(page[pageOff:], chunk)
	return nil
}

// Drop walks every L3 entry and frees each valid page back to alloc. The
// kernel page table is never dropped (spec.md §4.2); calling Drop on it is
// the caller's mistake to avoid, not something this method guards against
// beyond freeing whatever happens to be mapped.
func (pt *PageTable) Drop(alloc *palloc.Allocator) {
	for _, l3 := range pt.L3 {
		for i, e := range l3 {
			if e.Valid() {
				alloc.Dealloc(uintptr(e.Addr()), PageSize, PageSize)
				l3[i] = 0
			}
		}
	}
}
