// Package gc implements the threaded mark-sweep-compact collector of
// spec.md §4.5: a parallel BFS mark over the geometry octree, followed
// by a deterministic root-down rewrite into fresh shadow pools (the color
// octree is rewritten in lock-step with geometry during that rewrite).
package gc

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/voxeldag/voxeldag/dbms/editor"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
)

// markSet is the "concurrent set" spec.md §4.5 step 1 inserts reachable
// addresses into. bitset.BitSet grows on demand, so callers never need
// to know the pool's address-space size up front; the mutex is the only
// concession mark makes to bitset.BitSet not being safe for concurrent
// writers.
type markSet struct {
	mu sync.Mutex
	bs *bitset.BitSet
}

func newMarkSet() *markSet { return &markSet{bs: bitset.New(0)} }

// insert reports whether addr was newly marked — false means some other
// branch of the BFS already reached it, so the caller must not recurse
// into it again. This both prevents exponential blowup over a shared DAG
// and gives mark its "each reachable node inserted once" semantics.
func (s *markSet) insert(addr uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bs.Test(uint(addr)) {
		return false
	}
	s.bs.Set(uint(addr))
	return true
}

// count returns the number of marked addresses, for GC statistics.
func (s *markSet) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.bs.Count())
}

// markGeometry runs the parallel BFS of spec.md §4.5 step 1 from nodes'
// current root, reading children only through Words (no mutation), and
// returns the set of reachable node/leaf addresses.
func markGeometry(nodes *nodepool.Pool, fanoutThreshold int) (*markSet, error) {
	marks := newMarkSet()
	cfg := nodes.Config()

	var walk func(level int, ptr nodepool.Pointer) error
	walk = func(level int, ptr nodepool.Pointer) error {
		if ptr.IsSentinel() {
			return nil
		}
		if !marks.insert(uint32(ptr)) {
			return nil
		}
		if level == cfg.LeafLevel() {
			return nil
		}
		words := nodes.Words(level, ptr)
		return editor.FanOut(level+1, fanoutThreshold, func(i int) error {
			return walk(level+1, nodepool.ChildAt(words, i))
		})
	}

	if err := walk(0, nodes.Root()); err != nil {
		return nil, err
	}
	return marks, nil
}
