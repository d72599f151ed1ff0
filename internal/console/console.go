// Package console implements the kernel's UART sink: a Writer that
// expands '\n' to "\r\n" on the way out (spec.md §6 "8-N-1 UART ...
// \n auto-expands to \r\n on write"), plus a host-side raw-mode
// transport for running the kernel's console and debug shell against a
// real terminal during development, grounded on the reference
// hypervisor's raw-mode TTY setup (internal/vmm/terminal.go) which this
// corpus drives with golang.org/x/term.
package console

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/term"
)

// Sink is the svc package's Console boundary, implemented by UART.
type Sink interface {
	WriteByte(b byte) error
	WriteString(s string) (int, error)
}

// UART wraps an io.ReadWriter (the real GPIO 14/15 Mini UART on
// hardware, a pty or raw stdio host transport under test) with the
// \n -> \r\n expansion spec.md requires and read_byte-style blocking
// reads for the shell's line discipline.
type UART struct {
	rw io.ReadWriter
	r  *bufio.Reader
}

// New wraps rw, a full-duplex byte stream, as a UART sink.
func New(rw io.ReadWriter) *UART {
	return &UART{rw: rw, r: bufio.NewReader(rw)}
}

// WriteByte writes one byte, expanding a bare '\n' to "\r\n".
func (u *UART) WriteByte(b byte) error {
	if b == '\n' {
		if _, err := u.rw.Write([]byte{'\r', '\n'}); err != nil {
			return err
		}
		return nil
	}
	_, err := u.rw.Write([]byte{b})
	return err
}

// WriteString writes s a byte at a time through WriteByte so every
// embedded '\n' gets the same expansion, returning the number of input
// bytes consumed (not the number of wire bytes written).
func (u *UART) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		if err := u.WriteByte(s[i]); err != nil {
			return i, err
		}
	}
	return len(s), nil
}

// ReadByte blocks until one byte is available, mirroring the UART
// driver's blocking read_byte (spec.md §6, original_source
// kern/src/console.rs).
func (u *UART) ReadByte() (byte, error) {
	return u.r.ReadByte()
}

// HostTerminal puts the controlling terminal into raw mode (no line
// buffering, no local echo) for the duration of fn, restoring the prior
// terminal state on return. This is the zero-hardware development path:
// cmd/kernel runs the debug shell against the host terminal instead of
// real UART registers.
func HostTerminal(fn func(rw io.ReadWriter) error) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, oldState)

	return fn(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout})
}
