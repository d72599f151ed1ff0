package svc

// OsError is the taxonomy delivered to user space through trap frame
// register x7 (spec.md §4.5/§7). Zero means success.
type OsError uint64

const (
	Ok OsError = iota
	Unknown
	BadAddress
	NoEntry
	NoMemory
	IoError
	InvalidArgument
	InvalidSocket
	IllegalSocketOperation
)

func (e OsError) String() string {
	switch e {
	case Ok:
		return "Ok"
	case Unknown:
		return "Unknown"
	case BadAddress:
		return "BadAddress"
	case NoEntry:
		return "NoEntry"
	case NoMemory:
		return "NoMemory"
	case IoError:
		return "IoError"
	case InvalidArgument:
		return "InvalidArgument"
	case InvalidSocket:
		return "InvalidSocket"
	case IllegalSocketOperation:
		return "IllegalSocketOperation"
	default:
		return "Unknown"
	}
}
