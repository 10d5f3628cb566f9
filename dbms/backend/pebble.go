package backend

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/voxeldag/voxeldag/dbms/pagedstore"
)

// PebbleBackend persists page diffs into a Pebble LSM, keyed by
// "<pool>:<page_id>", one key per page holding its full WordsPerPage
// words as little-endian bytes. It stands in for the "memory-mapped
// file" backend spec.md §6 describes: durable, but with no format
// beyond raw page bytes.
type PebbleBackend struct {
	db           *pebble.DB
	pool         string
	wordsPerPage int
}

// OpenPebbleBackend opens (or creates) a Pebble database at dir for the
// named pool's pages.
func OpenPebbleBackend(dir, pool string, wordsPerPage int) (*PebbleBackend, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("backend: pebble open: %w", err)
	}
	return &PebbleBackend{db: db, pool: pool, wordsPerPage: wordsPerPage}, nil
}

// Close cleanly shuts down Pebble, flushing any in-memory state.
func (b *PebbleBackend) Close() error {
	return b.db.Close()
}

// Apply implements pagedstore.Backend. A bind op only carries its dirty
// word range, so an existing page is read back, patched in place, and
// rewritten whole; Pebble has no partial-value update.
func (b *PebbleBackend) Apply(ops []pagedstore.PageOp) error {
	batch := b.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		key := encodePageKey(b.pool, op.PageID)
		switch op.Kind {
		case pagedstore.OpUnbind:
			if err := batch.Delete(key, nil); err != nil {
				return fmt.Errorf("backend: pebble delete: %w", err)
			}
		case pagedstore.OpBind:
			page, err := b.readPage(key)
			if err != nil {
				return err
			}
			patchWords(page, op.OffsetWords, op.Words)
			if err := batch.Set(key, page, nil); err != nil {
				return fmt.Errorf("backend: pebble set: %w", err)
			}
		}
	}
	return batch.Commit(pebble.Sync)
}

func (b *PebbleBackend) readPage(key []byte) ([]byte, error) {
	val, closer, err := b.db.Get(key)
	if err == pebble.ErrNotFound {
		return make([]byte, b.wordsPerPage*4), nil
	}
	if err != nil {
		return nil, fmt.Errorf("backend: pebble get: %w", err)
	}
	page := append([]byte(nil), val...)
	closer.Close()
	return page, nil
}

func patchWords(page []byte, offsetWords int, words []uint32) {
	for i, w := range words {
		binary.LittleEndian.PutUint32(page[(offsetWords+i)*4:], w)
	}
}
