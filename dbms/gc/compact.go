package gc

import (
	"sync"

	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/editor"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
)

// nodeRemap memoizes old-pool -> shadow-pool address translation during
// compact. A node reachable through several parents (the DAG's whole
// point) must only be emitted into the shadow pool once; the memo is
// also what lets compact terminate on a shared subtree instead of
// re-walking it once per parent.
type nodeRemap struct {
	mu    sync.Mutex
	cache map[nodepool.Pointer]nodepool.Pointer
}

func newNodeRemap() *nodeRemap {
	return &nodeRemap{cache: make(map[nodepool.Pointer]nodepool.Pointer)}
}

func (r *nodeRemap) get(old nodepool.Pointer) (nodepool.Pointer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.cache[old]
	return p, ok
}

func (r *nodeRemap) put(old, new_ nodepool.Pointer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[old] = new_
}

// compactGeometry implements spec.md §4.5 step 2 for the geometry
// octree: a deterministic root-down walk that re-upserts every live
// node into dst, returning the remapped root.
func compactGeometry(src, dst *nodepool.Pool, fanoutThreshold int) (nodepool.Pointer, error) {
	cfg := src.Config()
	rm := newNodeRemap()

	var walk func(level int, ptr nodepool.Pointer) (nodepool.Pointer, error)
	walk = func(level int, ptr nodepool.Pointer) (nodepool.Pointer, error) {
		if ptr.IsSentinel() {
			return ptr, nil
		}
		if mapped, ok := rm.get(ptr); ok {
			return mapped, nil
		}

		if level == cfg.LeafLevel() {
			newPtr, err := dst.Upsert(level, src.Words(level, ptr))
			if err != nil {
				return nodepool.Null, err
			}
			rm.put(ptr, newPtr)
			return newPtr, nil
		}

		words := src.Words(level, ptr)
		var children nodepool.InnerChildren
		err := editor.FanOut(level+1, fanoutThreshold, func(i int) error {
			newChild, err := walk(level+1, nodepool.ChildAt(words, i))
			if err != nil {
				return err
			}
			children[i] = newChild
			return nil
		})
		if err != nil {
			return nodepool.Null, err
		}

		newPtr, ok := nodepool.NormalizeInner(children)
		if !ok {
			newPtr, err = dst.Upsert(level, nodepool.BuildInner(children))
			if err != nil {
				return nodepool.Null, err
			}
		}
		rm.put(ptr, newPtr)
		return newPtr, nil
	}

	return walk(0, src.Root())
}

// colorRemap memoizes old-pool -> shadow-pool translation for color
// Node/VBRLeaf addresses; SolidColor and Null pointers carry their own
// value and never need remapping.
type colorRemap struct {
	mu    sync.Mutex
	cache map[colorpool.Pointer]colorpool.Pointer
}

func newColorRemap() *colorRemap {
	return &colorRemap{cache: make(map[colorpool.Pointer]colorpool.Pointer)}
}

func (r *colorRemap) get(old colorpool.Pointer) (colorpool.Pointer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.cache[old]
	return p, ok
}

func (r *colorRemap) put(old, new_ colorpool.Pointer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[old] = new_
}

// compactColors implements spec.md §4.5's combined-GC rule: it walks the
// color octree in lock-step with the (already-reachable) geometry
// octree read from src, rather than independently re-deriving which
// color subtrees are live. srcNodes is the pre-GC geometry pool, used
// only for navigation (its own compaction is compactGeometry's job).
func compactColors(srcNodes *nodepool.Pool, srcColors, dstColors *colorpool.Pool, fanoutThreshold int) (colorpool.Pointer, error) {
	gcfg := srcNodes.Config()
	rm := newColorRemap()

	var walk func(level int, gPtr nodepool.Pointer, cPtr colorpool.Pointer) (colorpool.Pointer, error)
	walk = func(level int, gPtr nodepool.Pointer, cPtr colorpool.Pointer) (colorpool.Pointer, error) {
		switch cPtr.Tag() {
		case colorpool.TagNull, colorpool.TagSolidColor:
			return cPtr, nil
		case colorpool.TagVBRLeaf:
			if mapped, ok := rm.get(cPtr); ok {
				return mapped, nil
			}
			chunk := srcColors.Leaf(cPtr)
			newPtr, err := dstColors.SetLeaf(colorpool.Null, chunk)
			if err != nil {
				return colorpool.Null, err
			}
			rm.put(cPtr, newPtr)
			return newPtr, nil
		}

		// TagNode.
		if mapped, ok := rm.get(cPtr); ok {
			return mapped, nil
		}
		if gPtr.IsSentinel() || level == gcfg.LeafLevel() {
			// Should not happen in a well-formed tree (a color Node
			// cannot outlive its geometry subtree, and color never
			// stores real Node structure below its own leaf level),
			// but fall back to an independent descent over the color
			// children rather than lose data.
			children := srcColors.Node(cPtr)
			var out [8]colorpool.Pointer
			err := editor.FanOut(level+1, fanoutThreshold, func(i int) error {
				p, err := walk(level+1, gPtr, children[i])
				if err != nil {
					return err
				}
				out[i] = p
				return nil
			})
			if err != nil {
				return colorpool.Null, err
			}
			newPtr, err := dstColors.PutNode(out)
			if err != nil {
				return colorpool.Null, err
			}
			rm.put(cPtr, newPtr)
			return newPtr, nil
		}

		gWords := srcNodes.Words(level, gPtr)
		cChildren := srcColors.Node(cPtr)
		var out [8]colorpool.Pointer
		err := editor.FanOut(level+1, fanoutThreshold, func(i int) error {
			p, err := walk(level+1, nodepool.ChildAt(gWords, i), cChildren[i])
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
		if err != nil {
			return colorpool.Null, err
		}
		newPtr, err := dstColors.PutNode(out)
		if err != nil {
			return colorpool.Null, err
		}
		rm.put(cPtr, newPtr)
		return newPtr, nil
	}

	return walk(0, srcNodes.Root(), srcColors.Root())
}
