package nodepool

import (
	"sync"
	"sync/atomic"
)

// bucket is a contiguous run of pages inside a Pool, addressed by
// hash(node) mod bucket_count_at_level — the unit of serialization for
// writes (spec.md GLOSSARY).
type bucket struct {
	baseWordAddr uint32
	capacityWords int

	usedWords atomic.Uint32 // acquire/release published tail, relative to baseWordAddr
	mu        sync.Mutex    // guards the locked rescan + append + filter writes

	filter *bucketFilter
}

func newBucket(baseWordAddr uint32, capacityWords int) *bucket {
	return &bucket{
		baseWordAddr:  baseWordAddr,
		capacityWords: capacityWords,
		filter:        newBucketFilter(uint(capacityWords)*4+64, 3),
	}
}
