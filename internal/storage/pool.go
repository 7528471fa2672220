// pool.go implements the buffer pool: a fixed NUM_BUFFER-frame LRU
// cache of pages sitting between the file layer and everything above
// it (the catalog and the record engine).
//
// EDUCATIONAL NOTE:
// -----------------
// Unlike a map-backed cache, the pool here is the small, fixed-size
// array the original design calls for: NUM_BUFFER frames linked into a
// doubly-linked LRU list (most-recently-used at the front). A lookup
// is a linear scan of that list -- with four frames, the scan is
// cheaper than the bookkeeping a hash map would add, and it mirrors
// the single-copy invariant directly: the same scan that finds a hit
// is the scan that would have found a duplicate.
package storage

import (
	"container/list"
	"fmt"
)

func newSizeError(op string, pageIndex int, f *File, got int) error {
	return fmt.Errorf("%s page %d of %s: buffer is %d bytes, want %d", op, pageIndex, f.Name(), got, PageSize)
}

// frame is one buffer pool slot. A frame is empty when file is nil and
// pageIndex is -1; otherwise it is occupied and dirty iff it has been
// written through the pool since its last load.
type frame struct {
	file      *File
	pageIndex int
	data      [PageSize]byte
	dirty     bool
}

func (fr *frame) empty() bool {
	return fr.file == nil
}

func (fr *frame) reset() {
	fr.file = nil
	fr.pageIndex = -1
	fr.dirty = false
	for i := range fr.data {
		fr.data[i] = 0
	}
}

// BufferPool mediates all access to data and definition files above
// the file layer. It caches up to NumBuffer frames and enforces that
// every (file, page) pair is cached in at most one frame.
//
// BufferPool is not safe for concurrent use: it has no locks, and
// MicroDB's storage core is single-threaded by design.
type BufferPool struct {
	lru *list.List // elements hold *frame; front = most recently used
}

// NewBufferPool allocates NumBuffer empty frames and links them.
func NewBufferPool() *BufferPool {
	p := &BufferPool{lru: list.New()}
	for i := 0; i < NumBuffer; i++ {
		fr := &frame{pageIndex: -1}
		p.lru.PushBack(fr)
	}
	return p
}

// find returns the list element holding the frame caching (f,
// pageIndex), or nil.
func (p *BufferPool) find(f *File, pageIndex int) *list.Element {
	for e := p.lru.Front(); e != nil; e = e.Next() {
		fr := e.Value.(*frame)
		if fr.file == f && fr.pageIndex == pageIndex {
			return e
		}
	}
	return nil
}

// victim picks the frame to reuse for a miss: the first empty frame
// encountered during a head-to-tail scan, else the LRU tail.
func (p *BufferPool) victim() *list.Element {
	for e := p.lru.Front(); e != nil; e = e.Next() {
		if e.Value.(*frame).empty() {
			return e
		}
	}
	return p.lru.Back()
}

// flush writes a frame back through the file layer if it is dirty,
// and marks it clean.
func (p *BufferPool) flush(fr *frame) error {
	if fr.empty() || !fr.dirty {
		return nil
	}
	if err := fr.file.WritePage(fr.pageIndex, fr.data[:]); err != nil {
		return err
	}
	fr.dirty = false
	return nil
}

// ReadPage copies the bytes of (f, pageIndex) into out, fetching the
// page from disk on a cache miss. len(out) must be PageSize.
func (p *BufferPool) ReadPage(f *File, pageIndex int, out []byte) error {
	if len(out) != PageSize {
		return newSizeError("read", pageIndex, f, len(out))
	}

	if e := p.find(f, pageIndex); e != nil {
		fr := e.Value.(*frame)
		copy(out, fr.data[:])
		p.lru.MoveToFront(e)
		return nil
	}

	e := p.victim()
	fr := e.Value.(*frame)
	if err := p.flush(fr); err != nil {
		return err
	}

	var loaded [PageSize]byte
	if err := f.ReadPage(pageIndex, loaded[:]); err != nil {
		return err
	}

	fr.file = f
	fr.pageIndex = pageIndex
	fr.data = loaded
	fr.dirty = false
	copy(out, fr.data[:])
	p.lru.MoveToFront(e)
	return nil
}

// WritePage overwrites the bytes of (f, pageIndex) with in and marks
// the owning frame dirty, loading the page first on a cache miss if it
// already exists on disk (so the frame starts from a consistent image
// rather than a stale victim's leftover bytes). len(in) must be
// PageSize.
func (p *BufferPool) WritePage(f *File, pageIndex int, in []byte) error {
	if len(in) != PageSize {
		return newSizeError("write", pageIndex, f, len(in))
	}

	if e := p.find(f, pageIndex); e != nil {
		fr := e.Value.(*frame)
		copy(fr.data[:], in)
		fr.dirty = true
		p.lru.MoveToFront(e)
		return nil
	}

	e := p.victim()
	fr := e.Value.(*frame)
	if err := p.flush(fr); err != nil {
		return err
	}

	if pageIndex < f.PageCount() {
		var loaded [PageSize]byte
		if err := f.ReadPage(pageIndex, loaded[:]); err != nil {
			return err
		}
		fr.data = loaded
	} else {
		for i := range fr.data {
			fr.data[i] = 0
		}
		f.pageCount = pageIndex + 1
	}
	copy(fr.data[:], in)
	fr.file = f
	fr.pageIndex = pageIndex
	fr.dirty = true
	p.lru.MoveToFront(e)
	return nil
}

// CloseFile flushes and evicts every frame owned by f, then closes f.
func (p *BufferPool) CloseFile(f *File) error {
	for e := p.lru.Front(); e != nil; e = e.Next() {
		fr := e.Value.(*frame)
		if fr.file != f {
			continue
		}
		if err := p.flush(fr); err != nil {
			return err
		}
		fr.reset()
	}
	return f.Close()
}

// Finalize flushes every dirty frame. It must be called before the
// process exits so no buffered write is lost; it does not close any
// file handles, since the pool does not own them.
func (p *BufferPool) Finalize() error {
	for e := p.lru.Front(); e != nil; e = e.Next() {
		if err := p.flush(e.Value.(*frame)); err != nil {
			return err
		}
	}
	return nil
}
