// Package nodepool implements the hash-consed geometry octree pool:
// insert-or-find of inner nodes and 4×4×4 leaves, keyed by level, over a
// bucketed pagedstore.Store (spec.md §4.2).
package nodepool

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/voxeldag/voxeldag/dbms/dagerr"
	"github.com/voxeldag/voxeldag/dbms/pagedstore"
)

// Pool owns a pagedstore.Store partitioned into per-level buckets and
// implements hash-consed upsert over it.
type Pool struct {
	cfg     Config
	addr    pagedstore.AddressSpace
	buckets []bucket

	// levelBucketBase[level] is the first bucket index assigned to level.
	levelBucketBase []int

	root atomic.Uint32 // Pointer, stored as uint32

	log *zap.Logger
}

// New validates cfg, lays out bucket geometry across a freshly allocated
// Store, and returns an empty Pool (root = Null).
func New(cfg Config, log *zap.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	levelBase := make([]int, cfg.LeafLevel()+1)
	totalBuckets := 0
	for lvl := 0; lvl <= cfg.LeafLevel(); lvl++ {
		levelBase[lvl] = totalBuckets
		totalBuckets += cfg.bucketsAtLevel(lvl)
	}

	pagesPerBucket := cfg.pagesPerBucket()
	wordsPerPage := cfg.wordsPerPage()
	store := pagedstore.New(totalBuckets*pagesPerBucket, wordsPerPage)

	p := &Pool{
		cfg:             cfg,
		addr:            pagedstore.AddressSpace{Store: store},
		buckets:         make([]bucket, totalBuckets),
		levelBucketBase: levelBase,
		log:             log,
	}
	wordsPerBucket := pagesPerBucket * wordsPerPage
	for i := range p.buckets {
		p.buckets[i] = *newBucket(uint32(i*wordsPerBucket), wordsPerBucket)
	}
	p.root.Store(uint32(Null))
	return p, nil
}

// Config returns the pool's configuration.
func (p *Pool) Config() Config { return p.cfg }

// Root returns the current root pointer.
func (p *Pool) Root() Pointer { return Pointer(p.root.Load()) }

// SetRoot installs a new root pointer.
func (p *Pool) SetRoot(ptr Pointer) { p.root.Store(uint32(ptr)) }

// Flush emits the pool's dirty/freed-page diff to backend.
func (p *Pool) Flush(backend pagedstore.Backend) error {
	return p.addr.Store.Flush(backend)
}

// Stats reports the pool's page residency, for dbms/metrics.
func (p *Pool) Stats() pagedstore.Stats { return p.addr.Store.Stats() }

// BucketFill returns each bucket's fractional occupancy (used_words /
// capacity_words), for dbms/metrics' bucket-fill histogram.
func (p *Pool) BucketFill() []float64 {
	out := make([]float64, len(p.buckets))
	for i := range p.buckets {
		b := &p.buckets[i]
		out[i] = float64(b.usedWords.Load()) / float64(b.capacityWords)
	}
	return out
}

// Words returns the raw stored words for a real (non-sentinel) pointer
// at the given level.
func (p *Pool) Words(level int, ptr Pointer) []uint32 {
	n := LeafWordCount
	if level != p.cfg.LeafLevel() {
		first := p.addr.ReadWords(uint32(ptr), 1)
		n = innerNodeSize(childMask(first[0]))
	}
	return p.addr.ReadWords(uint32(ptr), n)
}

func hashWords(words []uint32) uint64 {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return xxhash.Sum64(buf)
}

func (p *Pool) bucketIndex(level int, words []uint32) int {
	h := hashWords(words)
	n := p.cfg.bucketsAtLevel(level)
	return p.levelBucketBase[level] + int(h%uint64(n))
}

// Upsert inserts-or-finds words (already normalized by the caller — see
// NormalizeInner/NormalizeLeaf) at level, returning its canonical
// address. words must never itself be all-Null/all-Filled content; that
// is the caller's job to detect before calling Upsert.
func (p *Pool) Upsert(level int, words []uint32) (Pointer, error) {
	bIdx := p.bucketIndex(level, words)
	b := &p.buckets[bIdx]
	h := hashWords(words)

	used := b.usedWords.Load() // acquire
	if addr, ok := p.scanBucket(b, level, 0, used, words); ok {
		return addr, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	usedNow := b.usedWords.Load()
	if b.filter.mayContain(h) {
		if addr, ok := p.scanBucket(b, level, used, usedNow, words); ok {
			return addr, nil
		}
	}

	need := len(words)
	if int(usedNow)+need > b.capacityWords {
		return Null, dagerr.OutOfBuckets(level, bIdx)
	}
	addr := b.baseWordAddr + usedNow
	p.addr.WriteWords(addr, words)
	b.filter.add(h)
	b.usedWords.Store(usedNow + uint32(need)) // release: publishes the write above
	return Pointer(addr), nil
}

// scanBucket walks the nodes stored in [from, to) within bucket b at
// level, returning the address of one matching words exactly.
func (p *Pool) scanBucket(b *bucket, level int, from, to uint32, words []uint32) (Pointer, bool) {
	pos := from
	for pos < to {
		first := p.addr.ReadWords(b.baseWordAddr+pos, 1)
		sz := nodeWordCount(p.cfg, level, first[0])
		if sz == len(words) {
			candidate := p.addr.ReadWords(b.baseWordAddr+pos, sz)
			if wordsEqual(candidate, words) {
				return Pointer(b.baseWordAddr + pos), true
			}
		}
		pos += uint32(sz)
	}
	return Null, false
}

func wordsEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
