// Package backend provides concrete pagedstore.Backend implementations:
// InMemoryBackend for tests and small runs, and PebbleBackend for
// persisting page diffs into a Pebble LSM (spec.md §6).
package backend

import (
	"encoding/binary"
	"sync"

	"github.com/voxeldag/voxeldag/dbms/pagedstore"
)

// InMemoryBackend applies page diffs to a plain map keyed by PageID,
// each value the page's full WordsPerPage-sized word slice. It never
// persists anything beyond the process lifetime; useful as the default
// backend in tests and cmd/voxelbench runs that don't care about
// durability.
type InMemoryBackend struct {
	wordsPerPage int

	mu    sync.Mutex
	pages map[pagedstore.PageID][]uint32
}

// NewInMemoryBackend returns a backend sized for pages of wordsPerPage
// words.
func NewInMemoryBackend(wordsPerPage int) *InMemoryBackend {
	return &InMemoryBackend{
		wordsPerPage: wordsPerPage,
		pages:        make(map[pagedstore.PageID][]uint32),
	}
}

// Apply implements pagedstore.Backend.
func (b *InMemoryBackend) Apply(ops []pagedstore.PageOp) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case pagedstore.OpUnbind:
			delete(b.pages, op.PageID)
		case pagedstore.OpBind:
			page, ok := b.pages[op.PageID]
			if !ok {
				page = make([]uint32, b.wordsPerPage)
				b.pages[op.PageID] = page
			}
			copy(page[op.OffsetWords:], op.Words)
		}
	}
	return nil
}

// Page returns a copy of the page's current words, or nil if it has
// never been bound (or was unbound). Exposed for tests that want to
// assert on persisted content without a round trip through a Store.
func (b *InMemoryBackend) Page(id pagedstore.PageID) []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	page, ok := b.pages[id]
	if !ok {
		return nil
	}
	return append([]uint32(nil), page...)
}

func encodePageKey(pool string, id pagedstore.PageID) []byte {
	key := make([]byte, len(pool)+1+4)
	n := copy(key, pool)
	key[n] = ':'
	binary.BigEndian.PutUint32(key[n+1:], id)
	return key
}
