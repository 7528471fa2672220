// Package storage implements the paged file layer and the LRU buffer
// pool that sits above it.
//
// EDUCATIONAL NOTES:
// ------------------
// Every on-disk object MicroDB manages -- a table's definition page or
// its rows -- is read and written a whole page at a time. This file
// implements the bottom layer: named-file creation/deletion and
// unbuffered, page-indexed reads and writes. Nothing here is cached;
// every call touches the host file system. Caching is the buffer
// pool's job (pool.go), one layer up.
package storage

import (
	"errors"
	"fmt"
	"os"

	"github.com/cabewaldrop/microdb/internal/dberrors"
)

const (
	// PageSize is the fixed width of every on-disk I/O unit, in bytes.
	PageSize = 4096

	// NumBuffer is the number of frames the buffer pool holds.
	NumBuffer = 4

	// MaxFilename bounds the length of a file name accepted from a
	// structured request. It is not enforced by the os package itself;
	// callers constructing table file names should check it.
	MaxFilename = 256
)

// File is an open file handle: the host file descriptor plus the name
// it was opened under. It is owned by the caller and must be
// explicitly closed (directly, or via BufferPool.CloseFile).
type File struct {
	f         *os.File
	name      string
	pageCount int
}

// Name returns the file name the handle was opened with.
func (f *File) Name() string {
	return f.name
}

// PageCount returns the number of pages the file currently holds, as
// observed at open time and updated as writes extend the file, whether
// made directly or through a BufferPool that has not yet flushed them.
func (f *File) PageCount() int {
	return f.pageCount
}

// CreateFile creates a new, empty named file. It fails if the host
// rejects creation -- including when the file already exists.
func CreateFile(name string) error {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, errorsJoin(err, dberrors.ErrHostIO))
	}
	return f.Close()
}

// DeleteFile removes a named file. It fails if the file is missing or
// unremovable.
func DeleteFile(name string) error {
	if err := os.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", name, errorsJoin(err, dberrors.ErrFileNotFound))
		}
		return fmt.Errorf("delete %s: %w", name, errorsJoin(err, dberrors.ErrHostIO))
	}
	return nil
}

// OpenFile opens an existing file read/write. The returned handle is
// positioned arbitrarily; callers must not assume an offset and must
// use ReadPage/WritePage. Fails if the file does not exist or cannot
// be opened read/write.
func OpenFile(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_RDWR, 0644)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", name, errorsJoin(err, dberrors.ErrFileNotFound))
		}
		return nil, fmt.Errorf("open %s: %w", name, errorsJoin(err, dberrors.ErrHostIO))
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, errorsJoin(err, dberrors.ErrHostIO))
	}
	return &File{f: f, name: name, pageCount: int(info.Size() / PageSize)}, nil
}

// Close closes the underlying file descriptor. It does not flush any
// buffer pool frames -- callers that went through a BufferPool should
// call BufferPool.CloseFile instead so dirty pages are written back
// first.
func (f *File) Close() error {
	if err := f.f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.name, errorsJoin(err, dberrors.ErrHostIO))
	}
	return nil
}

// ReadPage seeks to pageIndex*PageSize and reads exactly PageSize
// bytes into out. A short read is a failure. len(out) must be
// PageSize.
func (f *File) ReadPage(pageIndex int, out []byte) error {
	if len(out) != PageSize {
		return fmt.Errorf("read page %d of %s: buffer is %d bytes, want %d", pageIndex, f.name, len(out), PageSize)
	}
	n, err := f.f.ReadAt(out, int64(pageIndex)*PageSize)
	if n != PageSize {
		if err == nil {
			err = dberrors.ErrHostIO
		}
		return fmt.Errorf("read page %d of %s: short read (%d of %d bytes): %w", pageIndex, f.name, n, PageSize, errorsJoin(err, dberrors.ErrHostIO))
	}
	return nil
}

// WritePage seeks to pageIndex*PageSize and writes exactly PageSize
// bytes from in. A short write is a failure. Writing at
// pageIndex == f.PageCount() extends the file by one page. len(in)
// must be PageSize.
func (f *File) WritePage(pageIndex int, in []byte) error {
	if len(in) != PageSize {
		return fmt.Errorf("write page %d of %s: buffer is %d bytes, want %d", pageIndex, f.name, len(in), PageSize)
	}
	n, err := f.f.WriteAt(in, int64(pageIndex)*PageSize)
	if err != nil {
		return fmt.Errorf("write page %d of %s: %w", pageIndex, f.name, errorsJoin(err, dberrors.ErrHostIO))
	}
	if n != PageSize {
		return fmt.Errorf("write page %d of %s: short write (%d of %d bytes): %w", pageIndex, f.name, n, PageSize, dberrors.ErrHostIO)
	}
	if pageIndex >= f.pageCount {
		f.pageCount = pageIndex + 1
	}
	return nil
}

// NumPages returns the page count of a named file without opening it:
// floor(file_size / PageSize). Returns ErrFileNotFound if the file
// does not exist.
func NumPages(name string) (int, error) {
	info, err := os.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("stat %s: %w", name, errorsJoin(err, dberrors.ErrFileNotFound))
		}
		return 0, fmt.Errorf("stat %s: %w", name, errorsJoin(err, dberrors.ErrHostIO))
	}
	return int(info.Size() / PageSize), nil
}

// errorsJoin wraps a host error together with one of our sentinel
// kinds so errors.Is matches both the underlying os error and the
// sentinel.
func errorsJoin(host, kind error) error {
	return errors.Join(host, kind)
}
