package vm

import (
	"sync/atomic"

	"github.com/rpi3kernel/core/internal/board"
	"github.com/rpi3kernel/core/internal/percore"
)

// Barrier coordinates the per-core MMU bring-up sequence: each core
// configures MAIR_EL1/TCR_EL1/TTBR{0,1}_EL1, issues the barriers, sets
// SCTLR_EL1.{M,C,I}, raises its own percore.Table mmu_ready flag, then
// calls Wait, which busy-waits until every core has done the same. This
// establishes the happens-before relation spec.md §4.2/§5 requires between
// "all MMUs up" and any code that depends on it (e.g. dispatching the
// first process).
type Barrier struct {
	cores     *percore.Table
	readyCnt  atomic.Int32
	numCores  int32
}

// NewBarrier creates a Barrier for the given per-core table and core
// count (board.NumCores on real hardware).
func NewBarrier(cores *percore.Table, numCores int) *Barrier {
	return &Barrier{cores: cores, numCores: int32(numCores)}
}

// BringUpCore performs the register-level bring-up for one core (modeled
// here as configureMMURegisters, out of this core's scope — it's asm/
// cgo glue the boot stub supplies) and then raises that core's mmu_ready
// flag before joining the Wait barrier.
func (b *Barrier) BringUpCore(core int, configureMMURegisters func()) {
	if configureMMURegisters != nil {
		configureMMURegisters()
	}
	b.cores.SetMMUReady(core)
	b.Wait()
}

// Wait increments the shared ready-core counter and busy-waits until it
// equals numCores.
func (b *Barrier) Wait() {
	b.readyCnt.Add(1)
	for b.readyCnt.Load() != b.numCores {
		// spin; no futex/WFE available pre-scheduler.
	}
}

// AllReady reports whether every core registered in cores has raised its
// mmu_ready flag. Only the tests call it; the boot sequence does not.
func AllReady(cores *percore.Table, numCores int) bool {
	for i := 0; i < numCores; i++ {
		if !cores.MMUReady(i) {
			return false
		}
	}
	return true
}

// DefaultNumCores is board.NumCores, exposed here so callers that only
// import vm don't also need board for the common case.
const DefaultNumCores = board.NumCores
