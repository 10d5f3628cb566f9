package editor

import "golang.org/x/sync/errgroup"

// FanOut runs work(0..7), one call per octant, in parallel while
// childLevel is still shallow — below threshold, so each task still
// covers many thousands of voxels (spec.md §4.3) — and sequentially
// once childLevel reaches the threshold, to avoid spawning a goroutine
// per near-leaf subtree. Shared by Engine's edit descent and the
// garbage collector's mark/compact descents (spec.md §4.5), which fan
// out across octants the same way.
func FanOut(childLevel, threshold int, work func(i int) error) error {
	if childLevel >= threshold {
		for i := 0; i < 8; i++ {
			if err := work(i); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error { return work(i) })
	}
	return g.Wait()
}
