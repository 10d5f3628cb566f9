package nodepool

import "math/bits"

// Coord is an integer voxel-space coordinate, used both for the
// recursive descent (as the origin of the subtree currently being
// visited) and for absolute voxel addressing.
type Coord struct {
	X, Y, Z int
}

// Add returns c + d.
func (c Coord) Add(d Coord) Coord { return Coord{c.X + d.X, c.Y + d.Y, c.Z + d.Z} }

// OctantOffset returns the origin offset of octant i (0..7) within a
// parent subtree of the given childSide, using z-y-x major ordering:
// bit 2 of i is z, bit 1 is y, bit 0 is x (spec.md §4.2 "Tie-breaks").
func OctantOffset(i, childSide int) Coord {
	return Coord{
		X: (i & 1) * childSide,
		Y: ((i >> 1) & 1) * childSide,
		Z: ((i >> 2) & 1) * childSide,
	}
}

// InnerChildren describes the up-to-8 child pointers of a candidate
// inner node, indexed by octant 0..7 lexicographically (z-y-x major).
type InnerChildren [8]Pointer

// BuildInner assembles the raw words for an inner node from its 8
// children, in canonical (non-normalized) form: header word with the
// childmask of non-Null children, followed by the pointer words for set
// octants in order. The caller must run NormalizeInner before handing
// these words to Pool.Upsert — BuildInner alone never returns Null or
// Filled.
func BuildInner(children InnerChildren) []uint32 {
	var mask byte
	for i, c := range children {
		if c != Null {
			mask |= 1 << uint(i)
		}
	}
	words := make([]uint32, innerNodeSize(mask))
	words[0] = makeInnerHeader(mask)
	w := 1
	for i, c := range children {
		if mask&(1<<uint(i)) != 0 {
			words[w] = uint32(c)
			w++
		}
	}
	return words
}

// ChildAt returns the pointer stored for octant i within words produced
// by BuildInner (or read back from a stored inner node), treating
// octants whose childmask bit is clear as Null.
func ChildAt(words []uint32, i int) Pointer {
	mask := childMask(words[0])
	if mask&(1<<uint(i)) == 0 {
		return Null
	}
	// Word index is 1 + popcount of mask bits below i.
	below := mask & ((1 << uint(i)) - 1)
	return Pointer(words[1+bits.OnesCount8(below)])
}

// NormalizeInner collapses an all-Null or all-Filled set of children to
// the corresponding sentinel; this is the only guarantee of canonical
// form spec.md §4.2 makes. ok is false if the node must actually be
// stored (mixed children).
func NormalizeInner(children InnerChildren) (p Pointer, ok bool) {
	allNull, allFilled := true, true
	for _, c := range children {
		if c != Null {
			allNull = false
		}
		if c != Filled {
			allFilled = false
		}
	}
	switch {
	case allNull:
		return Null, true
	case allFilled:
		return Filled, true
	default:
		return 0, false
	}
}

// Leaf is a decoded 4×4×4 block of voxel occupancy bits, row-major
// (bitIndex = z*16 + y*4 + x).
type Leaf [64]bool

func leafBitIndex(x, y, z int) int { return z*16 + y*4 + x }

// Encode packs the leaf into its two-word wire form.
func (l Leaf) Encode() []uint32 {
	var words [2]uint32
	for i, set := range l {
		if !set {
			continue
		}
		words[i/32] |= 1 << uint(i%32)
	}
	return words[:]
}

// DecodeLeaf unpacks a stored leaf's two words, or the Null/Filled
// sentinel, into a Leaf.
func DecodeLeaf(p Pointer, words []uint32) Leaf {
	var l Leaf
	switch p {
	case Null:
		return l // all false
	case Filled:
		for i := range l {
			l[i] = true
		}
		return l
	default:
		for i := range l {
			l[i] = words[i/32]&(1<<uint(i%32)) != 0
		}
		return l
	}
}

// At returns the bit at local coordinate (x,y,z) within the leaf cube.
func (l Leaf) At(x, y, z int) bool { return l[leafBitIndex(x, y, z)] }

// Set assigns the bit at local coordinate (x,y,z).
func (l *Leaf) Set(x, y, z int, v bool) { l[leafBitIndex(x, y, z)] = v }

// NormalizeLeaf collapses an all-zero or all-one leaf to Null/Filled.
func NormalizeLeaf(l Leaf) (p Pointer, ok bool) {
	allZero, allOne := true, true
	for _, b := range l {
		if b {
			allZero = false
		} else {
			allOne = false
		}
	}
	switch {
	case allZero:
		return Null, true
	case allOne:
		return Filled, true
	default:
		return 0, false
	}
}
