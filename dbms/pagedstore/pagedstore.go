// Package pagedstore implements the paged address space that underlies
// both the geometry NodePool and the ColorPool: a logical array of P
// fixed-size pages, each W words, with lazy materialization, per-page
// dirty tracking, per-page free tracking, and a flush operation that
// emits a diff to a Backend.
//
// The structure is the teacher's dbms/pager.Pager reworked for an
// in-memory, word-addressed, concurrently-read address space instead of
// a single file-backed byte pager: Open/Read/Write/Close becomes
// New/ReadPage/WritePage/Flush, and the on-disk Page [4096]byte becomes
// an in-memory []uint32 page buffer swapped under copy-on-write so reads
// stay lock-free while writes serialize per page.
package pagedstore

import (
	"sync"
	"sync/atomic"
)

// PageID identifies a page within a Store.
type PageID = uint32

// OpKind distinguishes the two PageOp variants a Backend receives.
type OpKind int

const (
	// OpBind copies Words into backing storage starting at OffsetWords
	// within the page.
	OpBind OpKind = iota
	// OpUnbind releases the page; subsequent reads are zeros.
	OpUnbind
)

// PageOp is one entry in a flush diff.
type PageOp struct {
	PageID      PageID
	OffsetWords int
	Words       []uint32
	Kind        OpKind
}

// Backend is implemented by whatever receives a Store's flush diffs: an
// in-memory map for tests, a memory-mapped file, or (as wired here) a
// Pebble-backed KV store. The core never names a graphics API; a GPU
// sparse buffer binder would implement this same interface.
type Backend interface {
	Apply(ops []PageOp) error
}

type pageState struct {
	words atomic.Pointer[[]uint32] // nil => absent; swapped copy-on-write
	mu    sync.Mutex               // serializes writers to this one page

	// dirty range [dirtyLo, dirtyHi) in words, guarded by mu.
	dirtyLo, dirtyHi int
	dirty            bool
	freed            bool
}

// Store is a logical array of PageCount pages, each WordsPerPage words.
type Store struct {
	wordsPerPage int
	pages        []pageState
}

// New allocates a Store with the given page geometry. Pages start
// absent; no memory is committed until the first write.
func New(pageCount, wordsPerPage int) *Store {
	return &Store{
		wordsPerPage: wordsPerPage,
		pages:        make([]pageState, pageCount),
	}
}

// WordsPerPage returns the configured page size in words.
func (s *Store) WordsPerPage() int { return s.wordsPerPage }

// PageCount returns the number of pages in the address space.
func (s *Store) PageCount() int { return len(s.pages) }

// ReadPage returns the page's word slice if resident, otherwise a fresh
// all-zeros slice. Safe to call on never-written pages. Lock-free: it
// only loads the current page-buffer pointer, which writers replace
// atomically rather than mutate in place, so a concurrent writer can
// never hand back a torn buffer.
func (s *Store) ReadPage(id PageID) []uint32 {
	p := &s.pages[id]
	if buf := p.words.Load(); buf != nil {
		return *buf
	}
	return make([]uint32, s.wordsPerPage)
}

// WritePage materializes the page on first write, copies words into it
// starting at offset, and extends the page's dirty range.
func (s *Store) WritePage(id PageID, offset int, words []uint32) {
	p := &s.pages[id]
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf []uint32
	if cur := p.words.Load(); cur != nil {
		buf = append([]uint32(nil), (*cur)...)
	} else {
		buf = make([]uint32, s.wordsPerPage)
	}
	copy(buf[offset:], words)
	p.words.Store(&buf)
	p.freed = false

	lo, hi := offset, offset+len(words)
	s.extendDirtyLocked(p, lo, hi)
}

// ZeroPage is equivalent to WritePage with a zero-filled words slice of
// length count; it still marks the range dirty.
func (s *Store) ZeroPage(id PageID, offset, count int) {
	s.WritePage(id, offset, make([]uint32, count))
}

// FreePage releases the page's buffer and records the free for the next
// flush to emit as an Unbind.
func (s *Store) FreePage(id PageID) {
	p := &s.pages[id]
	p.mu.Lock()
	defer p.mu.Unlock()
	p.words.Store(nil)
	p.freed = true
	p.dirty = false
}

func (s *Store) extendDirtyLocked(p *pageState, lo, hi int) {
	if !p.dirty {
		p.dirtyLo, p.dirtyHi = lo, hi
		p.dirty = true
		return
	}
	if lo < p.dirtyLo {
		p.dirtyLo = lo
	}
	if hi > p.dirtyHi {
		p.dirtyHi = hi
	}
}

// Stats summarizes the Store's current page-residency state, for
// dbms/metrics.
type Stats struct {
	Resident int // pages with a materialized buffer
	Dirty    int // pages with an unflushed write
	Freed    int // pages freed since the last flush
}

// Stats reports the Store's current residency counts. Read-only;
// callers must still serialize against concurrent writers themselves
// (the submission queue already does, for the pools this backs).
func (s *Store) Stats() Stats {
	var st Stats
	for i := range s.pages {
		p := &s.pages[i]
		p.mu.Lock()
		if p.words.Load() != nil {
			st.Resident++
		}
		if p.dirty {
			st.Dirty++
		}
		if p.freed {
			st.Freed++
		}
		p.mu.Unlock()
	}
	return st
}

// Flush emits {page_id, offset, words} for each dirty page and
// {page_id, Unbind} for each freed page, clears both tracking sets, and
// hands the diff to backend. Must be single-threaded with respect to
// other Store writes; the caller (the submission queue that serializes
// edits) is responsible for ensuring no edit is in flight during a
// flush.
func (s *Store) Flush(backend Backend) error {
	var ops []PageOp
	for i := range s.pages {
		p := &s.pages[i]
		p.mu.Lock()
		switch {
		case p.freed:
			ops = append(ops, PageOp{PageID: PageID(i), Kind: OpUnbind})
			p.freed = false
		case p.dirty:
			buf := p.words.Load()
			words := append([]uint32(nil), (*buf)[p.dirtyLo:p.dirtyHi]...)
			ops = append(ops, PageOp{PageID: PageID(i), OffsetWords: p.dirtyLo, Words: words, Kind: OpBind})
			p.dirty = false
		}
		p.mu.Unlock()
	}
	if len(ops) == 0 {
		return nil
	}
	return backend.Apply(ops)
}
