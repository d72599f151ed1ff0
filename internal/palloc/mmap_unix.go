//go:build unix

package palloc

import "golang.org/x/sys/unix"

// NewMMap creates an allocator over a fresh anonymous mapping of size
// bytes, the host stand-in for "raw physical RAM" that doesn't live on
// the Go heap (and therefore can't be moved or collected out from under
// a raw uintptr the way a []byte region theoretically could). This
// mirrors how the reference hypervisor backs a guest's physical address
// space with unix.Mmap rather than a Go slice (internal/hv/kvm/kvm.go).
//
// The returned MMapRegion must be closed with Unmap once the allocator
// is no longer in use.
type MMapRegion struct {
	*Allocator
	mem []byte
}

// NewMMap maps size bytes of anonymous, read-write memory and returns an
// Allocator over it.
func NewMMap(size int) (*MMapRegion, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &MMapRegion{Allocator: NewOverRegion(mem), mem: mem}, nil
}

// Unmap releases the backing mapping. The allocator must not be used
// afterward.
func (r *MMapRegion) Unmap() error {
	return unix.Munmap(r.mem)
}
