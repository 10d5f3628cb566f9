package vbr

import "encoding/binary"

// EncodeWords serializes c into a flat []uint32, the wire form stored in
// a ColorPool VBR leaf slot (spec.md §4.2's size-prefixed leaf slot holds
// exactly these words after its capacity-word prefix).
func (c Chunk) EncodeWords() []uint32 {
	weightWords := (c.WeightLen + 31) / 32
	words := make([]uint32, 0, 4+3*len(c.MacroBlocks)+4*len(c.Headers)+weightWords)
	words = append(words, uint32(c.N), uint32(len(c.MacroBlocks)), uint32(len(c.Headers)), uint32(c.WeightLen))
	for _, mb := range c.MacroBlocks {
		words = append(words, uint32(mb.BlockIndex), uint32(mb.VoxelOffsetInBlock), uint32(mb.BitOffset))
	}
	for _, h := range c.Headers {
		words = append(words, h.A.Pack(), h.B.Pack(), uint32(h.Length), uint32(h.WBits))
	}
	padded := make([]byte, weightWords*4)
	copy(padded, c.WeightBits)
	for i := 0; i < weightWords; i++ {
		words = append(words, binary.LittleEndian.Uint32(padded[i*4:]))
	}
	return words
}

// DecodeWords reverses EncodeWords.
func DecodeWords(words []uint32) Chunk {
	var c Chunk
	c.N = int(words[0])
	numMB := int(words[1])
	numHeaders := int(words[2])
	c.WeightLen = int(words[3])
	pos := 4

	c.MacroBlocks = make([]MacroBlock, numMB)
	for i := 0; i < numMB; i++ {
		c.MacroBlocks[i] = MacroBlock{
			BlockIndex:         int(words[pos]),
			VoxelOffsetInBlock: int(words[pos+1]),
			BitOffset:          int(words[pos+2]),
		}
		pos += 3
	}

	c.Headers = make([]BlockHeader, numHeaders)
	for i := 0; i < numHeaders; i++ {
		c.Headers[i] = BlockHeader{
			A:      Unpack(words[pos]),
			B:      Unpack(words[pos+1]),
			Length: int(words[pos+2]),
			WBits:  int(words[pos+3]),
		}
		pos += 4
	}

	weightWords := (c.WeightLen + 31) / 32
	buf := make([]byte, weightWords*4)
	for i := 0; i < weightWords; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], words[pos+i])
	}
	c.WeightBits = buf
	return c
}

// WordLen returns how many uint32 words EncodeWords would produce,
// without actually serializing.
func (c Chunk) WordLen() int {
	weightWords := (c.WeightLen + 31) / 32
	return 4 + 3*len(c.MacroBlocks) + 4*len(c.Headers) + weightWords
}
