// Package mapped provides read-only byte views of files, backed by mmap.
package mapped

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/npillmayer/morpheme/internal/errs"
)

// File is an immutable view of a file's contents. Views built with FromBytes
// are not backed by a mapping and Close is a no-op for them.
type File struct {
	name string
	data []byte
	m    mmap.MMap
}

// Open maps the file at path read-only. Empty files cannot be mapped and
// are reported as size errors.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.Open, path, err, "open")
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, errs.Wrap(errs.Open, path, err, "stat")
	}
	if st.Size() == 0 {
		return nil, errs.New(errs.Size, path, "empty file")
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errs.Wrap(errs.Open, path, err, "mmap")
	}
	return &File{name: path, data: m, m: m}, nil
}

// FromBytes wraps an in-memory buffer. The buffer must not be modified
// while the view is in use.
func FromBytes(name string, b []byte) *File {
	return &File{name: name, data: b}
}

func (f *File) Name() string  { return f.name }
func (f *File) Bytes() []byte { return f.data }
func (f *File) Len() int      { return len(f.data) }

// Close unmaps the file. The byte view is invalid afterwards.
func (f *File) Close() error {
	if f == nil || f.m == nil {
		return nil
	}
	err := f.m.Unmap()
	f.m, f.data = nil, nil
	return err
}
