package editor

import (
	"github.com/voxeldag/voxeldag/dbms/colorpool"
	"github.com/voxeldag/voxeldag/dbms/dagerr"
	"github.com/voxeldag/voxeldag/dbms/nodepool"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// rewriteColorNode drives the octree-fused color edit of spec.md §4.3:
// above the color octree's own leaf level K, geometry and color nodes
// are rewritten in lock-step from the single EditNodeColor decision;
// at K the color subtree collapses into one VBR chunk and the
// remaining geometry levels (down through the voxel level) are walked
// by fillBuf, which threads color through EditVoxelColor and writes
// directly into a flat per-voxel color buffer instead of maintaining
// real color-node storage.
func (e *Engine) rewriteColorNode(ed VBREditor, level int, coord nodepool.Coord, gPtr nodepool.Pointer, cPtr colorpool.Pointer, color vbr.Color) (nodepool.Pointer, colorpool.Pointer, error) {
	decision := ed.EditNodeColor(level, coord, gPtr, &color)
	switch decision {
	case Unaffected:
		return gPtr, cPtr, nil
	case Clear:
		return nodepool.Null, colorpool.Null, nil
	case Fill:
		return nodepool.Filled, colorpool.SolidColorPointer(color), nil
	case Proceed:
		// fall through
	default:
		panic(dagerr.InvalidEditorPanic{Reason: "EditNodeColor returned an unrecognized Decision"})
	}

	k := e.Colors.Config().LeafLevel
	if level == k {
		return e.collapseToLeaf(ed, level, coord, gPtr, cPtr, color)
	}

	gChildren := e.childrenOf(level, gPtr)
	cChildren := e.colorChildrenOf(cPtr)
	gcfg := e.Nodes.Config()
	childSide := gcfg.Side(level + 1)

	var outG nodepool.InnerChildren
	var outC [8]colorpool.Pointer
	rewrite := func(i int) error {
		childCoord := coord.Add(nodepool.OctantOffset(i, childSide))
		g, c, err := e.rewriteColorNode(ed, level+1, childCoord, gChildren[i], cChildren[i], color)
		if err != nil {
			return err
		}
		outG[i], outC[i] = g, c
		return nil
	}
	if err := e.fanOut(level+1, rewrite); err != nil {
		return nodepool.Null, colorpool.Null, err
	}

	newG, err := e.normalizeAndUpsertGeom(level, outG)
	if err != nil {
		return nodepool.Null, colorpool.Null, err
	}
	newC, err := e.normalizeAndUpsertColor(outC)
	if err != nil {
		return nodepool.Null, colorpool.Null, err
	}
	return newG, newC, nil
}

func (e *Engine) normalizeAndUpsertGeom(level int, children nodepool.InnerChildren) (nodepool.Pointer, error) {
	if p, ok := nodepool.NormalizeInner(children); ok {
		return p, nil
	}
	return e.Nodes.Upsert(level, nodepool.BuildInner(children))
}

func (e *Engine) normalizeAndUpsertColor(children [8]colorpool.Pointer) (colorpool.Pointer, error) {
	allNull := true
	for _, c := range children {
		if c != colorpool.Null {
			allNull = false
			break
		}
	}
	if allNull {
		return colorpool.Null, nil
	}
	if first := children[0]; first.Tag() == colorpool.TagSolidColor {
		allSame := true
		for _, c := range children {
			if c != first {
				allSame = false
				break
			}
		}
		if allSame {
			return first, nil
		}
	}
	return e.Colors.PutNode(children)
}

// colorChildrenOf expands cPtr's 8 children: Null/SolidColor sentinels
// broadcast to all 8 (a solid or empty subtree is equivalent to every
// child being that same solid/empty subtree), a Node pointer reads its
// 8 stored children. A VBRLeaf cannot appear above the color leaf level
// by construction.
func (e *Engine) colorChildrenOf(cPtr colorpool.Pointer) [8]colorpool.Pointer {
	var out [8]colorpool.Pointer
	switch cPtr.Tag() {
	case colorpool.TagNode:
		return e.Colors.Node(cPtr)
	default:
		for i := range out {
			out[i] = cPtr
		}
		return out
	}
}

// collapseToLeaf is only reached once EditNodeColor has already returned
// Proceed at the color leaf level. It decodes the current color subtree
// into a flat per-voxel buffer, lets fillBuf rewrite the remaining
// geometry levels while threading color through EditVoxelColor, and
// re-encodes the result into a (possibly reused) VBR leaf slot.
func (e *Engine) collapseToLeaf(ed VBREditor, level int, coord nodepool.Coord, gPtr nodepool.Pointer, cPtr colorpool.Pointer, color vbr.Color) (nodepool.Pointer, colorpool.Pointer, error) {
	gcfg := e.Nodes.Config()
	bitsTotal := gcfg.VoxelLevel() - level
	n := 1 << uint(3*bitsTotal)

	orig := make([]vbr.Color, n)
	switch cPtr.Tag() {
	case colorpool.TagNull:
		// leave as zero-value Color{}
	case colorpool.TagSolidColor:
		c := cPtr.Color()
		for i := range orig {
			orig[i] = c
		}
	case colorpool.TagVBRLeaf:
		chunk := e.Colors.Leaf(cPtr)
		for i := range orig {
			orig[i] = chunk.At(i)
		}
	}

	buf := make([]vbr.Color, n)
	newG, err := e.fillBuf(ed, level, coord, gPtr, color, bitsTotal, nodepool.Coord{}, orig, buf)
	if err != nil {
		return nodepool.Null, colorpool.Null, err
	}

	chunk := vbr.Encode(buf)
	prev := colorpool.Null
	if cPtr.Tag() == colorpool.TagVBRLeaf {
		prev = cPtr
	}
	newC, err := e.Colors.SetLeaf(prev, chunk)
	if err != nil {
		return nodepool.Null, colorpool.Null, err
	}
	return newG, newC, nil
}

// fillBuf rewrites the geometry subtree at (level, coord) while
// threading per-voxel color through EditVoxelColor, writing directly
// into buf at the Morton-contiguous range this subtree covers (orig
// holds the pre-edit colors at the same indices, consulted on
// Unaffected). bitsTotal is the number of per-axis bits spanning the
// whole color-leaf cube; localOrigin is coord expressed relative to
// that cube's corner.
func (e *Engine) fillBuf(ed VBREditor, level int, coord nodepool.Coord, gPtr nodepool.Pointer, color vbr.Color, bitsTotal int, localOrigin nodepool.Coord, orig, buf []vbr.Color) (nodepool.Pointer, error) {
	gcfg := e.Nodes.Config()
	levelsRemaining := gcfg.VoxelLevel() - level
	start := mortonIndex(localOrigin.X, localOrigin.Y, localOrigin.Z, bitsTotal)
	count := 1 << uint(3*levelsRemaining)

	decision := ed.EditNodeColor(level, coord, gPtr, &color)
	switch decision {
	case Unaffected:
		copy(buf[start:start+count], orig[start:start+count])
		return gPtr, nil
	case Clear:
		for i := start; i < start+count; i++ {
			buf[i] = vbr.Color{}
		}
		return nodepool.Null, nil
	case Fill:
		for i := start; i < start+count; i++ {
			buf[i] = color
		}
		return nodepool.Filled, nil
	case Proceed:
		// fall through
	default:
		panic(dagerr.InvalidEditorPanic{Reason: "EditNodeColor returned an unrecognized Decision"})
	}

	if level == gcfg.LeafLevel() {
		return e.fillLeafVoxels(ed, coord, gPtr, color, localOrigin, bitsTotal, orig, buf)
	}

	children := e.childrenOf(level, gPtr)
	childSide := gcfg.Side(level + 1)
	var out nodepool.InnerChildren
	rewrite := func(i int) error {
		childCoord := coord.Add(nodepool.OctantOffset(i, childSide))
		childLocal := localOrigin.Add(nodepool.OctantOffset(i, childSide))
		p, err := e.fillBuf(ed, level+1, childCoord, children[i], color, bitsTotal, childLocal, orig, buf)
		if err != nil {
			return err
		}
		out[i] = p
		return nil
	}
	if err := e.fanOut(level+1, rewrite); err != nil {
		return nodepool.Null, err
	}
	return e.normalizeAndUpsertGeom(level, out)
}

// fillLeafVoxels handles the 4x4x4 voxel block at geometry leaf level,
// calling EditVoxelColor once per voxel.
func (e *Engine) fillLeafVoxels(ed VBREditor, coord nodepool.Coord, gPtr nodepool.Pointer, color vbr.Color, localOrigin nodepool.Coord, bitsTotal int, orig, buf []vbr.Color) (nodepool.Pointer, error) {
	var words []uint32
	if gPtr != nodepool.Null && gPtr != nodepool.Filled {
		words = e.Nodes.Words(e.Nodes.Config().LeafLevel(), gPtr)
	}
	leaf := nodepool.DecodeLeaf(gPtr, words)

	var out nodepool.Leaf
	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				idx := mortonIndex(localOrigin.X+x, localOrigin.Y+y, localOrigin.Z+z, bitsTotal)
				voxelColor := orig[idx]
				v, c := ed.EditVoxelColor(coord.Add(nodepool.Coord{X: x, Y: y, Z: z}), leaf.At(x, y, z), &voxelColor)
				out.Set(x, y, z, v)
				buf[idx] = c
			}
		}
	}

	if p, ok := nodepool.NormalizeLeaf(out); ok {
		return p, nil
	}
	return e.Nodes.Upsert(e.Nodes.Config().LeafLevel(), out.Encode())
}

// mortonIndex interleaves the low bits bits-per-axis of x, y, z
// (z-y-x major, MSB first) into a single linear index — the same
// octant ordering convention as nodepool.OctantOffset, generalized
// across an entire color-leaf cube instead of one recursive step.
// Because the index is built MSB-first, any octant-aligned cube of a
// power-of-two side maps to a contiguous index range.
func mortonIndex(x, y, z, bitsPerAxis int) int {
	idx := 0
	for b := bitsPerAxis - 1; b >= 0; b-- {
		zb := (z >> uint(b)) & 1
		yb := (y >> uint(b)) & 1
		xb := (x >> uint(b)) & 1
		idx = idx<<3 | zb<<2 | yb<<1 | xb
	}
	return idx
}
