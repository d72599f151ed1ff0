// Package proc defines the process abstraction: its state machine and
// the per-process resources the scheduler and syscall surface operate
// on (spec.md §3 Data Model, §4.3).
package proc

// Predicate is the "can this Waiting process resume?" callback a
// blocking syscall installs. In a language with closures over captured
// state this would be `func(p *Process) bool`; expressed as an interface
// here (spec.md §9 Design Notes) so each blocking syscall gets its own
// named, testable concrete type (Sleep, SockReady, ...) instead of an
// anonymous closure capturing mutable state by reference.
type Predicate interface {
	// Poll is called by the scheduler's is_ready check. It may mutate
	// p (typically p.Context) to deliver a result before returning
	// true. Once it returns true the process transitions to Ready and
	// Poll is never called again for this Waiting episode.
	Poll(p *Process) bool
}

// StateKind discriminates the four process states.
type StateKind int

const (
	Ready StateKind = iota
	Running
	Waiting
	Dead
)

func (k StateKind) String() string {
	switch k {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Waiting:
		return "Waiting"
	case Dead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// State is the tagged union {Ready, Running, Waiting(Predicate), Dead}
// (spec.md §3 Data Model).
type State struct {
	Kind      StateKind
	predicate Predicate // only meaningful when Kind == Waiting
}

// ReadyState, RunningState, and DeadState construct the three
// predicate-free states.
func ReadyState() State   { return State{Kind: Ready} }
func RunningState() State { return State{Kind: Running} }
func DeadState() State    { return State{Kind: Dead} }

// WaitingState constructs a Waiting state gated on pred.
func WaitingState(pred Predicate) State {
	if pred == nil {
		panic("proc: WaitingState requires a non-nil predicate")
	}
	return State{Kind: Waiting, predicate: pred}
}

// IsReady implements the scheduler's is_ready rule (spec.md §4.3): Ready
// is always ready; Waiting polls its predicate and, on true, transitions
// p's state to Ready (the predicate may have mutated p.Context already);
// Running and Dead are never ready. Idempotent on Ready/Dead/Running;
// monotone on Waiting (once Poll returns true, the state flips to Ready
// and every subsequent IsReady call short-circuits true without
// re-polling).
func (p *Process) IsReady() bool {
	switch p.state.Kind {
	case Ready:
		return true
	case Waiting:
		if p.state.predicate.Poll(p) {
			p.state = ReadyState()
			return true
		}
		return false
	default: // Running, Dead
		return false
	}
}
