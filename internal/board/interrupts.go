package board

// GlobalIRQ identifies an interrupt routed through the GIC's global
// (SPI-equivalent) banks, handled on core 0.
type GlobalIRQ int

const (
	Timer1 GlobalIRQ = 1
	Timer3 GlobalIRQ = 3
	Usb    GlobalIRQ = 9
	Gpio0  GlobalIRQ = 49
	Gpio1  GlobalIRQ = 50
	Gpio2  GlobalIRQ = 51
	Gpio3  GlobalIRQ = 52
	Uart   GlobalIRQ = 57
)

// GlobalIRQs is the fixed poll order used by the IRQ dispatch path
// (spec.md §4.4): every global interrupt whose pending bit is set is
// invoked, in this order, on each IRQ entry to core 0.
var GlobalIRQs = [...]GlobalIRQ{Timer1, Timer3, Usb, Gpio0, Gpio1, Gpio2, Gpio3, Uart}

// LocalIRQ identifies a per-core interrupt source in the BCM2836 local
// interrupt controller.
type LocalIRQ int

const (
	CNTPSIRQ       LocalIRQ = 0
	CNTPNSIRQ      LocalIRQ = 1
	CNTHPIRQ       LocalIRQ = 2
	CNTVIRQ        LocalIRQ = 3
	Mailbox0       LocalIRQ = 4
	Mailbox1       LocalIRQ = 5
	Mailbox2       LocalIRQ = 6
	Mailbox3       LocalIRQ = 7
	GPU            LocalIRQ = 8
	PMU            LocalIRQ = 9
	AxiOutstanding LocalIRQ = 10
	LocalTimer     LocalIRQ = 11
)

// LocalIRQs is the per-core poll order.
var LocalIRQs = [...]LocalIRQ{
	CNTPSIRQ, CNTPNSIRQ, CNTHPIRQ, CNTVIRQ,
	Mailbox0, Mailbox1, Mailbox2, Mailbox3,
	GPU, PMU, AxiOutstanding, LocalTimer,
}

// USB is routed to the FIQ line at the interrupt controller (spec.md §6).
// Usb still appears in GlobalIRQs, so the IRQ poll loop invokes its
// global handler whenever its pending bit is reported set.
const USBIsFIQ = true
