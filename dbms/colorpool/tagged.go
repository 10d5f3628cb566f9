// Package colorpool implements the color octree of spec.md §3.2: a
// parallel tree of 32-bit tagged pointers {Node, SolidColor, VBRLeaf,
// Null} over two PagedStores — a fixed-size node array and a
// variable-length, size-prefixed VBR leaf vector.
package colorpool

import "github.com/voxeldag/voxeldag/dbms/vbr"

// Tag distinguishes the four tagged-pointer variants.
type Tag uint32

const (
	TagNode Tag = iota
	TagSolidColor
	TagVBRLeaf
	TagNull
)

const (
	tagBits  = 2
	tagShift = 32 - tagBits
	dataMask = 1<<tagShift - 1
)

// Pointer is the color octree's 32-bit tagged pointer: a 2-bit tag plus
// 30 bits of data, per spec.md §3.2.
type Pointer uint32

// Null is the canonical empty-subtree tagged pointer.
var Null = MakePointer(TagNull, 0)

// MakePointer packs a tag and data field into a Pointer. data must fit
// in 30 bits; the caller (this package's own constructors) guarantees
// that for every tag.
func MakePointer(tag Tag, data uint32) Pointer {
	return Pointer(uint32(tag)<<tagShift | (data & dataMask))
}

// Tag returns the pointer's 2-bit variant tag.
func (p Pointer) Tag() Tag { return Tag(uint32(p) >> tagShift) }

// Data returns the pointer's 30-bit data field.
func (p Pointer) Data() uint32 { return uint32(p) & dataMask }

// SolidColorPointer packs a Color directly into a SolidColor tagged
// pointer's data field.
func SolidColorPointer(c vbr.Color) Pointer {
	return MakePointer(TagSolidColor, c.Pack()&dataMask)
}

// Color unpacks a SolidColor pointer's data field back into a Color.
// Only valid when Tag() == TagSolidColor.
func (p Pointer) Color() vbr.Color {
	return vbr.Unpack(p.Data())
}

// NodePointer packs a node-array index into a Node tagged pointer.
func NodePointer(index uint32) Pointer { return MakePointer(TagNode, index) }

// LeafPointer packs a leaf-vector address into a VBRLeaf tagged pointer.
func LeafPointer(addr uint32) Pointer { return MakePointer(TagVBRLeaf, addr) }

// nodeWordCount is the fixed size in words of a color-node slot: 8
// tagged child pointers.
const nodeWordCount = 8
