// Package hostfs implements fsimg.Source over a real host directory tree,
// for running the kernel's scheduler, syscalls, and debug shell against
// an ordinary filesystem during development instead of the real FAT32
// SD-card library (out of core's scope, spec.md §1). cmd/kernel uses
// this as its fsimg.Source when no hardware FAT32 driver is wired in.
package hostfs

import (
	"os"
	"path/filepath"

	"github.com/rpi3kernel/core/internal/fsimg"
)

// FS roots fsimg.Source-style paths ("/foo/bar") at a real host
// directory.
type FS struct {
	root string
}

// New returns an FS rooted at root.
func New(root string) *FS {
	return &FS{root: root}
}

func (f *FS) resolve(path string) string {
	return filepath.Join(f.root, filepath.Clean("/"+path))
}

// Open implements fsimg.Source.
func (f *FS) Open(path string) (fsimg.File, error) {
	return os.Open(f.resolve(path))
}

// List implements fsimg.Source.
func (f *FS) List(path string) ([]fsimg.DirEntry, error) {
	entries, err := os.ReadDir(f.resolve(path))
	if err != nil {
		return nil, err
	}

	out := make([]fsimg.DirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, fsimg.DirEntry{
			Name:     e.Name(),
			IsDir:    e.IsDir(),
			Hidden:   len(e.Name()) > 0 && e.Name()[0] == '.',
			ReadOnly: info.Mode().Perm()&0o200 == 0,
			Size:     uint64(info.Size()),
			Modified: info.ModTime().Format("2006-01-02 15:04"),
		})
	}
	return out, nil
}
