package colorpool

import "github.com/voxeldag/voxeldag/dbms/dagerr"

// Config fully parameterizes a Pool, per spec.md §6.
type Config struct {
	// LeafLevel is K: the color octree's own leaf level, K <= L-2. A
	// VBRLeaf at this level encodes colors for all voxels in its cube.
	LeafLevel int

	// NodeBitsPerNodePage: a color-node page holds 2^NodeBitsPerNodePage
	// 8-tagged-pointer node slots (8 words each).
	NodeBitsPerNodePage int

	// WordBitsPerLeafPage: a VBR-leaf page holds 2^WordBitsPerLeafPage
	// words of the size-prefixed leaf vector.
	WordBitsPerLeafPage int

	// KeepHistory disables the !keep_history in-place leaf reuse fast
	// path when true: every SetLeaf then allocates a fresh slot, which is
	// required for undo but incompatible with the GC's stream-compact
	// pass (spec.md §6).
	KeepHistory bool

	// NodePageCount and LeafPageCount size the two backing PagedStores.
	NodePageCount int
	LeafPageCount int
}

// DefaultConfig returns a modestly sized configuration suitable for
// tests and cmd/voxelbench's default sweep.
func DefaultConfig() Config {
	return Config{
		LeafLevel:           15,
		NodeBitsPerNodePage: 7, // 128 node slots (8 words each) per page
		WordBitsPerLeafPage: 12,
		KeepHistory:         false,
		NodePageCount:       64,
		LeafPageCount:       64,
	}
}

// Validate checks the invariants spec.md §6 lists for ColorPool config.
func (c Config) Validate() error {
	if c.LeafLevel < 0 {
		return dagerr.InvalidConfig("leaf_level must be >= 0")
	}
	if c.NodeBitsPerNodePage <= 0 {
		return dagerr.InvalidConfig("node_bits_per_node_page must be positive")
	}
	if c.WordBitsPerLeafPage <= 0 {
		return dagerr.InvalidConfig("word_bits_per_leaf_page must be positive")
	}
	if c.NodePageCount <= 0 || c.LeafPageCount <= 0 {
		return dagerr.InvalidConfig("node_page_count and leaf_page_count must be positive")
	}
	return nil
}

func (c Config) nodeWordsPerPage() int { return (1 << uint(c.NodeBitsPerNodePage)) * nodeWordCount }
func (c Config) leafWordsPerPage() int { return 1 << uint(c.WordBitsPerLeafPage) }
