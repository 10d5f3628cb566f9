package nodepool

import "github.com/voxeldag/voxeldag/dbms/dagerr"

// Config fully parameterizes a Pool, per spec.md §6.
type Config struct {
	// LevelCount is L: side length is 2^L voxels. Node levels run
	// 0..L-2; level L-2 holds 4×4×4 leaves; level L is the voxel level.
	LevelCount int

	// TopLevelCount is the number of levels (starting at the root) that
	// use BucketBitsPerTopLevel buckets instead of
	// BucketBitsPerBottomLevel; typically small so that shallow, rarely
	// mutated levels don't waste address space.
	TopLevelCount int

	// WordBitsPerPage: a page holds 2^WordBitsPerPage words.
	WordBitsPerPage int

	// PageBitsPerBucket: a bucket is a contiguous run of 2^PageBitsPerBucket pages.
	PageBitsPerBucket int

	// BucketBitsPerTopLevel: a top level is assigned 2^BucketBitsPerTopLevel buckets.
	BucketBitsPerTopLevel int

	// BucketBitsPerBottomLevel: a bottom level is assigned 2^BucketBitsPerBottomLevel buckets.
	BucketBitsPerBottomLevel int
}

// DefaultConfig returns a configuration sized for a full L=17 world with
// modest bucket counts, matching the "typical 128 vs 2048" example in
// spec.md §4.2.
func DefaultConfig() Config {
	return Config{
		LevelCount:               17,
		TopLevelCount:            4,
		WordBitsPerPage:          10, // 1024 words/page
		PageBitsPerBucket:        2,  // 4 pages/bucket
		BucketBitsPerTopLevel:    7,  // 128 buckets
		BucketBitsPerBottomLevel: 11, // 2048 buckets
	}
}

// Validate checks the invariants spec.md §6 lists for NodePool config.
func (c Config) Validate() error {
	if c.LevelCount < 3 {
		return dagerr.InvalidConfig("level_count must be >= 3")
	}
	if c.BucketBitsPerTopLevel > c.BucketBitsPerBottomLevel {
		return dagerr.InvalidConfig("bucket_bits_per_top_level must be <= bucket_bits_per_bottom_level")
	}
	if c.TopLevelCount < 0 || c.TopLevelCount > c.LevelCount {
		return dagerr.InvalidConfig("top_level_count out of range")
	}
	if c.WordBitsPerPage <= 0 || c.PageBitsPerBucket < 0 {
		return dagerr.InvalidConfig("page geometry must be positive")
	}

	totalBuckets := 0
	for lvl := 0; lvl <= c.LeafLevel(); lvl++ {
		totalBuckets += c.bucketsAtLevel(lvl)
	}
	wordsPerPage := 1 << c.WordBitsPerPage
	pagesPerBucket := 1 << c.PageBitsPerBucket
	totalWords := int64(totalBuckets) * int64(pagesPerBucket) * int64(wordsPerPage)
	if totalWords > int64(^uint32(0)) {
		return dagerr.InvalidConfig("total word capacity does not fit in 32 bits")
	}
	return nil
}

// LeafLevel is L-2, the level at which nodes are 4×4×4 bit leaves.
func (c Config) LeafLevel() int { return c.LevelCount - 2 }

// VoxelLevel is L, one past the leaf level.
func (c Config) VoxelLevel() int { return c.LevelCount }

// Side returns the voxel-cube side length of a subtree rooted at level.
func (c Config) Side(level int) int { return 1 << uint(c.LevelCount-level) }

func (c Config) bucketsAtLevel(level int) int {
	if level < c.TopLevelCount {
		return 1 << c.BucketBitsPerTopLevel
	}
	return 1 << c.BucketBitsPerBottomLevel
}

func (c Config) wordsPerPage() int   { return 1 << c.WordBitsPerPage }
func (c Config) pagesPerBucket() int { return 1 << c.PageBitsPerBucket }
func (c Config) wordsPerBucket() int { return c.wordsPerPage() * c.pagesPerBucket() }
