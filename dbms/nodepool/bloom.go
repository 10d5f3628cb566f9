package nodepool

import "github.com/bits-and-blooms/bitset"

// bucketFilter is a per-bucket membership summary over node-content
// hashes. Upsert consults it only under the bucket lock, to skip the
// rescan of the tail appended since its unlocked scan when a candidate
// definitely isn't present; the unlocked scan itself always runs. It is the same run-length/hash
// summary idea as the teacher's index/lsmtree BloomFilter (there used to
// skip an SSTable segment whose filter can't contain a key), rewritten
// around a single 64-bit content hash per node instead of fnv-hashed int64
// keys, and backed by bits-and-blooms/bitset instead of a []bool.
type bucketFilter struct {
	bits *bitset.BitSet
	m    uint
	k    int
}

func newBucketFilter(sizeBits uint, k int) *bucketFilter {
	return &bucketFilter{bits: bitset.New(sizeBits), m: sizeBits, k: k}
}

// derive produces k probe positions from a single 64-bit content hash by
// salting it k ways, mirroring getHashes in the teacher's bloom filter.
func (f *bucketFilter) derive(h uint64) []uint {
	positions := make([]uint, f.k)
	for i := 0; i < f.k; i++ {
		mixed := h ^ (uint64(i+1) * 0x9E3779B97F4A7C15)
		positions[i] = uint(mixed % uint64(f.m))
	}
	return positions
}

func (f *bucketFilter) add(h uint64) {
	for _, pos := range f.derive(h) {
		f.bits.Set(pos)
	}
}

// mayContain returns false when h is definitely absent from the bucket;
// true means "might be present, scan to confirm."
func (f *bucketFilter) mayContain(h uint64) bool {
	for _, pos := range f.derive(h) {
		if !f.bits.Test(pos) {
			return false
		}
	}
	return true
}
