// Package trap defines the trap frame layout, the exception-source/kind
// sum types, and ESR_EL1 syndrome decoding (spec.md §4.4). The frame's C
// layout is fixed: the assembly vector stub that stacks registers on
// entry and the context_restore stub that pops them on return both
// hard-code these offsets, the same contract the reference hypervisor's
// register file has with its own trap-entry assembly
// (internal/hv/riscv/rv64/cpu.go's X array / frame dump).
package trap

// Frame is the saved register snapshot written by the vector and
// restored on return-from-exception. Field order is load-bearing: any
// reimplementation must preserve (elr, spsr, sp, tpidr, ttbr0, ttbr1,
// q[32], x[31], zero) exactly, so the save/restore assembly stays
// offset-agnostic to the Go struct layout (spec.md §9 Design Notes).
type Frame struct {
	ELR   uint64
	SPSR  uint64
	SP    uint64
	TPIDR uint64 // the process id
	TTBR0 uint64
	TTBR1 uint64
	Q     [32][2]uint64 // 128-bit SIMD/FP registers, low/high halves
	X     [31]uint64    // general-purpose registers x0..x30
	Zero  uint64         // padding so the frame stays 16-byte aligned
}

// Pid returns the owning process id stored in TPIDR.
func (f *Frame) Pid() uint64 { return f.TPIDR }

// Arg returns SVC argument register n (x0..x5 per spec.md §4.5).
func (f *Frame) Arg(n int) uint64 { return f.X[n] }

// SetResult writes the syscall result registers x0..x3.
func (f *Frame) SetResult(r0, r1, r2, r3 uint64) {
	f.X[0] = r0
	f.X[1] = r1
	f.X[2] = r2
	f.X[3] = r3
}

// SetErr writes the OsError code into x7, the dedicated error-return
// register (spec.md §4.5/§7).
func (f *Frame) SetErr(code uint64) { f.X[7] = code }
