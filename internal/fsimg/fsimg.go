// Package fsimg defines the boundary between process creation and the
// FAT32 filesystem library, which is out of this core's scope (spec.md
// §1): core only ever opens a root-relative path and reads it a page at
// a time.
package fsimg

import "io"

// Source is the filesystem handle both process creation and the debug
// shell consume. A real implementation wraps the FAT32 library's root
// directory; core treats it as an io.Reader factory plus a directory
// lister (spec.md §6 "ls [-a] [dir]", original_source
// kern/src/shell.rs's do_ls/do_cat).
type Source interface {
	// Open returns a reader positioned at the start of the file at the
	// given root-relative path.
	Open(path string) (File, error)

	// List returns the entries of the directory at path, or an error if
	// path doesn't name a directory.
	List(path string) ([]DirEntry, error)
}

// File is a single opened program image or shell-readable file. Core
// reads it one page at a time (board.PageSize bytes) while building a
// process's user page table (spec.md §4.3); the shell's `cat` reads it
// in arbitrary chunks.
type File interface {
	io.Reader
	io.Closer
}

// DirEntry is one FAT32 directory entry, carrying exactly the metadata
// the shell's `ls` formats (original_source kern/src/shell.rs's
// print_ls_entry).
type DirEntry struct {
	Name     string
	IsDir    bool
	Hidden   bool
	ReadOnly bool
	Size     uint64
	Modified string
}
