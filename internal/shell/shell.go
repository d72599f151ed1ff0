// Package shell implements the kernel-hosted debug shell: echo, cwd, cd,
// cat, ls [-a] [dir], exit (spec.md §6), entered both as the normal
// kernel console and from a user `brk` trap. Line editing (backspace,
// bell on control bytes and on a full line) follows
// original_source/kern/src/shell.rs exactly; cat's output is sanitized
// through github.com/charmbracelet/x/ansi.Strip, the same escape-stripping
// helper the reference terminal emulator (internal/term/terminal.go in
// this corpus) uses when it scrapes rendered text.
package shell

import (
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/rpi3kernel/core/internal/fsimg"
)

const maxLine = 512

// IO is the shell's byte-level console boundary: blocking single-byte
// reads (matching console.UART.ReadByte) and a string sink.
type IO interface {
	ReadByte() (byte, error)
	WriteString(s string) (int, error)
}

// Shell holds the state a running debug-shell session needs: its
// current working directory and the filesystem it reads from.
type Shell struct {
	io  IO
	fs  fsimg.Source
	cwd string
}

// New returns a shell rooted at "/".
func New(io IO, fs fsimg.Source) *Shell {
	return &Shell{io: io, fs: fs, cwd: "/"}
}

// Run drives the read-eval-print loop until the user types "exit" or
// the underlying stream errors. prefix is printed before every line
// (spec.md §6, original_source shell.rs's `prefix` parameter).
func (s *Shell) Run(prefix string) error {
	var line []byte
	s.print(prefix)

	for {
		b, err := s.io.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case b == '\r' || b == '\n':
			s.print("\n")
			if done := s.eval(string(line)); done {
				return nil
			}
			line = line[:0]
			s.print(prefix)
		case b == '\x08' || b == '\x7f':
			if len(line) > 0 {
				line = line[:len(line)-1]
				s.print("\x08\x20\x08")
			}
		case b < '\x1a':
			s.print("\x07")
		default:
			if len(line) >= maxLine {
				s.print("\x07")
				continue
			}
			line = append(line, b)
			s.print(string(b))
		}
	}
}

func (s *Shell) print(str string) { s.io.WriteString(str) }

// eval parses and runs one line, returning true iff the shell should
// exit.
func (s *Shell) eval(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "echo":
		s.print(strings.Join(args[1:], " ") + "\n")
	case "cwd":
		s.print(s.cwd + "\n")
	case "cd":
		if len(args) != 2 {
			s.print("cd requires <directory>\n")
		} else {
			s.cwd = s.canonicalize(path.Join(s.cwd, args[1]))
		}
	case "cat":
		if len(args) < 2 {
			s.print("cat requires at least one <path>\n")
		} else {
			for _, p := range args[1:] {
				s.doCat(path.Join(s.cwd, p))
			}
		}
	case "ls":
		s.doLsArgs(args[1:])
	case "exit":
		s.print("exit\n")
		return true
	default:
		s.print(fmt.Sprintf("unknown command: %s\n", args[0]))
	}
	return false
}

// canonicalize resolves "." and ".." components the way path.Clean
// does; kept as its own step so a future caller can diverge from
// path.Clean's semantics without touching call sites (spec.md's
// original canonicalize walks components one at a time).
func (s *Shell) canonicalize(p string) string {
	return path.Clean(p)
}

func (s *Shell) doCat(p string) {
	f, err := s.fs.Open(p)
	if err != nil {
		s.print(fmt.Sprintf("%s is not exist\n", p))
		return
	}
	defer f.Close()

	buf := make([]byte, 512)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			s.io.WriteString(ansi.Strip(string(buf[:n])))
		}
		if err != nil {
			break
		}
	}
	s.print("\n")
}

func (s *Shell) doLsArgs(args []string) {
	switch len(args) {
	case 0:
		s.doLs(s.cwd, false)
	case 1:
		if args[0] == "-a" {
			s.doLs(s.cwd, true)
		} else {
			s.doLs(path.Join(s.cwd, args[0]), false)
		}
	case 2:
		if args[0] != "-a" {
			s.print("bad arguments\n")
			return
		}
		s.doLs(path.Join(s.cwd, args[1]), true)
	default:
		s.print("too many args\n")
	}
}

func (s *Shell) doLs(dir string, showAll bool) {
	entries, err := s.fs.List(s.canonicalize(dir))
	if err != nil {
		s.print(fmt.Sprintf("invalid path: %s\n", dir))
		return
	}
	for _, e := range entries {
		s.printEntry(e, showAll)
	}
}

func (s *Shell) printEntry(e fsimg.DirEntry, showAll bool) {
	if !showAll && (e.Hidden || e.Name == "." || e.Name == "..") {
		return
	}
	kind := byte('-')
	if e.IsDir {
		kind = 'd'
	}
	hidden := byte('-')
	if e.Hidden {
		hidden = 'h'
	}
	ro := byte('-')
	if e.ReadOnly {
		ro = 'r'
	}
	s.print(fmt.Sprintf("%c%c%c %10d %s %s\n", kind, hidden, ro, e.Size, e.Modified, e.Name))
}
