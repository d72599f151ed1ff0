package irqctl

import "github.com/rpi3kernel/core/internal/board"

// PendingGlobal is the interrupt-controller boundary this core consumes
// rather than implements (the real GIC/BCM2836 interrupt-controller
// driver lives outside core scope, spec.md §1). It reports whether a
// given global interrupt's pending bit is currently set.
type PendingGlobal interface {
	Pending(irq board.GlobalIRQ) bool
}

// PendingLocal is the per-core analogue of PendingGlobal.
type PendingLocal interface {
	Pending(irq board.LocalIRQ) bool
}
