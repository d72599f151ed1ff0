package trap

// Source identifies which stack pointer / exception level the trapped
// context was executing at.
type Source int

const (
	CurrentSpEl0 Source = iota
	CurrentSpElx
	LowerAArch64
	LowerAArch32
)

// Kind identifies which of the four vector groups fired.
type Kind int

const (
	Synchronous Kind = iota
	IRQ
	FIQ
	SError
)

// Info is the (source, kind) pair the vector passes to the dispatcher
// alongside the trap frame (spec.md §4.4).
type Info struct {
	Source Source
	Kind   Kind
}

// FaultKind enumerates the DFSC/IFSC short-form fault classes used by
// InstructionAbort and DataAbort syndromes.
type FaultKind int

const (
	FaultAddressSize FaultKind = iota
	FaultTranslation
	FaultAccessFlag
	FaultPermission
	FaultAlignment
	FaultTlbConflict
	FaultOther
)

// decodeFaultKind maps the low bits of a DFSC/IFSC field (ESR_EL1.ISS
// [5:0]) to a FaultKind. Status codes follow ARMv8-A DDI0487, table
// D13-25 (abbreviated to the classes the kernel distinguishes).
func decodeFaultKind(dfsc uint32) FaultKind {
	switch dfsc >> 2 {
	case 0b000:
		return FaultAddressSize
	case 0b001:
		return FaultTranslation
	case 0b010:
		return FaultAccessFlag
	case 0b011:
		return FaultPermission
	}
	switch dfsc {
	case 0b100001:
		return FaultAlignment
	case 0b110000:
		return FaultTlbConflict
	}
	return FaultOther
}

// SyndromeKind discriminates the decoded ESR_EL1.EC sum type (spec.md
// §4.4); Syndrome.Kind holds one, and callers switch on it.
type SyndromeKind int

const (
	Unknown SyndromeKind = iota
	WfiWfe
	SimdFp
	IllegalExecutionState
	Svc
	Hvc
	Smc
	MsrMrsSystem
	InstructionAbort
	PCAlignmentFault
	DataAbort
	SpAlignmentFault
	TrappedFpu
	SyndromeSError
	Breakpoint
	Step
	Watchpoint
	Brk
	Other
)

// Syndrome carries the decoded EC plus whatever payload that EC defines:
// an immediate for Svc/Hvc/Smc/Brk, or a (FaultKind, level) pair for the
// two abort variants.
type Syndrome struct {
	Kind      SyndromeKind
	Imm       uint16
	Fault     FaultKind
	Level     uint8
	RawEC     uint32 // for SyndromeKind == Other
}

// ESR_EL1.EC values (ARMv8-A DDI0487, table D13-6).
const (
	ecUnknown      = 0b000000
	ecWFx          = 0b000001
	ecSIMDFP       = 0b000111
	ecIllegalState = 0b001110
	ecSVC64        = 0b010101
	ecHVC64        = 0b010110
	ecSMC64        = 0b010111
	ecMSRMRS       = 0b011000
	ecIAbortLower  = 0b100000
	ecIAbortSame   = 0b100001
	ecPCAlign      = 0b100010
	ecDAbortLower  = 0b100100
	ecDAbortSame   = 0b100101
	ecSPAlign      = 0b100110
	ecFPTrapped    = 0b101100
	ecSErrorEC     = 0b101111
	ecBreakpointLo = 0b110000
	ecBreakpointSa = 0b110001
	ecStepLo       = 0b110010
	ecStepSa       = 0b110011
	ecWatchpointLo = 0b110100
	ecWatchpointSa = 0b110101
	ecBRK64        = 0b111100
)

// Decode maps an ESR_EL1 value to a Syndrome, following the EC field
// (bits [31:26]) and, where relevant, the ISS field (bits [24:0]).
func Decode(esr uint64) Syndrome {
	ec := uint32(esr>>26) & 0x3F
	iss := uint32(esr) & 0x01FF_FFFF

	switch ec {
	case ecUnknown:
		return Syndrome{Kind: Unknown}
	case ecWFx:
		return Syndrome{Kind: WfiWfe}
	case ecSIMDFP:
		return Syndrome{Kind: SimdFp}
	case ecIllegalState:
		return Syndrome{Kind: IllegalExecutionState}
	case ecSVC64:
		return Syndrome{Kind: Svc, Imm: uint16(iss & 0xFFFF)}
	case ecHVC64:
		return Syndrome{Kind: Hvc, Imm: uint16(iss & 0xFFFF)}
	case ecSMC64:
		return Syndrome{Kind: Smc, Imm: uint16(iss & 0xFFFF)}
	case ecMSRMRS:
		return Syndrome{Kind: MsrMrsSystem}
	case ecIAbortLower, ecIAbortSame:
		return Syndrome{Kind: InstructionAbort, Fault: decodeFaultKind(iss & 0x3F), Level: uint8(iss & 0x3)}
	case ecPCAlign:
		return Syndrome{Kind: PCAlignmentFault}
	case ecDAbortLower, ecDAbortSame:
		return Syndrome{Kind: DataAbort, Fault: decodeFaultKind(iss & 0x3F), Level: uint8(iss & 0x3)}
	case ecSPAlign:
		return Syndrome{Kind: SpAlignmentFault}
	case ecFPTrapped:
		return Syndrome{Kind: TrappedFpu}
	case ecSErrorEC:
		return Syndrome{Kind: SyndromeSError}
	case ecBreakpointLo, ecBreakpointSa:
		return Syndrome{Kind: Breakpoint}
	case ecStepLo, ecStepSa:
		return Syndrome{Kind: Step}
	case ecWatchpointLo, ecWatchpointSa:
		return Syndrome{Kind: Watchpoint}
	case ecBRK64:
		return Syndrome{Kind: Brk, Imm: uint16(iss & 0xFFFF)}
	default:
		return Syndrome{Kind: Other, RawEC: ec}
	}
}
