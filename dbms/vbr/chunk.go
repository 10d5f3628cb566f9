package vbr

// MacroBlock is a random-access entry pointing at the (block, bit
// offset) covering one 2^M-voxel span (spec.md §3.3).
type MacroBlock struct {
	BlockIndex         int
	VoxelOffsetInBlock int
	BitOffset          int
}

// BlockHeader is one run of voxels sharing an endpoint pair (spec.md
// §3.3). WBits == 0 means the block is solid color A.
type BlockHeader struct {
	A, B   Color
	Length int
	WBits  int
}

// Chunk is a fully encoded VBR color sequence: N voxel colors packed
// into MacroBlocks + BlockHeaders + a weight bitstream.
type Chunk struct {
	N           int
	MacroBlocks []MacroBlock
	Headers     []BlockHeader
	WeightBits  []byte
	WeightLen   int // number of valid bits in WeightBits
}

// M is the macro-block exponent: one MacroBlock per 2^M voxels.
const M = 3

// At decodes the color of voxel index i by locating the covering
// macro-block, scanning forward through block headers until the block
// containing i, reading wbits weight bits at the computed offset, and
// interpolating the endpoints (spec.md §3.3).
func (c Chunk) At(i int) Color {
	mbIdx := i >> uint(M)
	mb := c.MacroBlocks[mbIdx]
	voxelsInto := mb.VoxelOffsetInBlock + (i - mbIdx<<uint(M))
	bitOffset := mb.BitOffset
	blockIdx := mb.BlockIndex

	for {
		h := c.Headers[blockIdx]
		if voxelsInto < h.Length {
			if h.WBits == 0 {
				return h.A
			}
			w := ReadBits(c.WeightBits, bitOffset+voxelsInto*h.WBits, h.WBits)
			max := (1 << uint(h.WBits)) - 1
			return lerpColor(h.A, h.B, int(w), max)
		}
		voxelsInto -= h.Length
		bitOffset += h.Length * h.WBits
		blockIdx++
	}
}
