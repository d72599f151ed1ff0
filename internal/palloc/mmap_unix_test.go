//go:build unix

package palloc

import "testing"

func TestNewMMapAllocAndDealloc(t *testing.T) {
	r, err := NewMMap(1 << 20)
	if err != nil {
		t.Fatalf("NewMMap: %v", err)
	}
	defer r.Unmap()

	p := r.Alloc(64, 8)
	if p == 0 {
		t.Fatal("expected a non-null allocation from a fresh mapping")
	}
	if p < r.RegionBase() {
		t.Fatalf("pointer %#x lies before the mapped region base %#x", p, r.RegionBase())
	}
	r.Dealloc(p, 64, 8)
}
