package colorpool

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/voxeldag/voxeldag/dbms/dagerr"
	"github.com/voxeldag/voxeldag/dbms/pagedstore"
	"github.com/voxeldag/voxeldag/dbms/vbr"
)

// Pool owns the color octree's two PagedStores — a fixed-size node
// array and a variable-length, size-prefixed VBR leaf vector — each
// wrapped in a safe paged vector (spec.md §4.1's "Paged vector variant").
type Pool struct {
	cfg Config

	nodes *pagedstore.Vector
	leafs *pagedstore.Vector

	root atomic.Uint32 // Pointer, stored as uint32

	log *zap.Logger
}

// New validates cfg and allocates both backing stores.
func New(cfg Config, log *zap.Logger) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	nodeStore := pagedstore.New(cfg.NodePageCount, cfg.nodeWordsPerPage())
	leafStore := pagedstore.New(cfg.LeafPageCount, cfg.leafWordsPerPage())

	p := &Pool{
		cfg:   cfg,
		nodes: pagedstore.NewVector(pagedstore.AddressSpace{Store: nodeStore}),
		leafs: pagedstore.NewVector(pagedstore.AddressSpace{Store: leafStore}),
		log:   log,
	}
	p.root.Store(uint32(Null))
	return p, nil
}

// Config returns the pool's configuration.
func (p *Pool) Config() Config { return p.cfg }

// Root returns the current color-octree root.
func (p *Pool) Root() Pointer { return Pointer(p.root.Load()) }

// SetRoot installs a new root pointer.
func (p *Pool) SetRoot(ptr Pointer) { p.root.Store(uint32(ptr)) }

// Flush emits both backing stores' dirty/freed-page diffs to backend.
func (p *Pool) Flush(backend pagedstore.Backend) error {
	if err := p.nodes.AddressSpace().Store.Flush(backend); err != nil {
		return err
	}
	return p.leafs.AddressSpace().Store.Flush(backend)
}

// NodeStats and LeafStats report page residency for the node array and
// the VBR leaf vector respectively, for dbms/metrics.
func (p *Pool) NodeStats() pagedstore.Stats { return p.nodes.AddressSpace().Store.Stats() }
func (p *Pool) LeafStats() pagedstore.Stats { return p.leafs.AddressSpace().Store.Stats() }

// Fill returns each store's fractional occupancy (used_words /
// capacity), for dbms/metrics' bucket-fill-style gauges.
func (p *Pool) Fill() (nodeFill, leafFill float64) {
	nodeFill = float64(p.nodes.UsedWords()) / float64(p.nodes.Capacity())
	leafFill = float64(p.leafs.UsedWords()) / float64(p.leafs.Capacity())
	return
}

// PutNode appends a fresh color-node slot holding the eight given
// tagged child pointers and returns a Node tagged pointer to it. Color
// nodes are never deduplicated or mutated in place (spec.md §3.2).
func (p *Pool) PutNode(children [8]Pointer) (Pointer, error) {
	words := make([]uint32, nodeWordCount)
	for i, c := range children {
		words[i] = uint32(c)
	}
	addr, ok := p.nodes.Append(words)
	if !ok {
		return Null, dagerr.OutOfPages("colorpool.nodes", nodeWordCount, p.nodes.Capacity())
	}
	return NodePointer(addr), nil
}

// Node reads back the eight tagged child pointers stored at a Node
// pointer's address.
func (p *Pool) Node(ptr Pointer) [8]Pointer {
	words := p.nodes.Read(ptr.Data(), nodeWordCount)
	var out [8]Pointer
	for i, w := range words {
		out[i] = Pointer(w)
	}
	return out
}

// SetLeaf encodes chunk and stores it as a VBRLeaf, returning the new
// tagged pointer. When cfg.KeepHistory is false and prev names an
// existing VBRLeaf whose slot capacity is large enough, the slot is
// reused in place (spec.md §6's !keep_history fast path); otherwise a
// fresh slot is appended.
func (p *Pool) SetLeaf(prev Pointer, chunk vbr.Chunk) (Pointer, error) {
	words := chunk.EncodeWords()

	if !p.cfg.KeepHistory && prev.Tag() == TagVBRLeaf {
		capWords := p.leafs.Read(prev.Data(), 1)[0]
		if int(capWords) >= len(words) {
			slot := make([]uint32, 1+capWords)
			slot[0] = capWords
			copy(slot[1:], words)
			p.leafs.OverwriteInPlace(prev.Data(), slot)
			return prev, nil
		}
	}

	slot := make([]uint32, 1+len(words))
	slot[0] = uint32(len(words))
	copy(slot[1:], words)
	addr, ok := p.leafs.Append(slot)
	if !ok {
		return Null, dagerr.OutOfPages("colorpool.leafs", len(slot), p.leafs.Capacity())
	}
	return LeafPointer(addr), nil
}

// Leaf decodes the VBR chunk stored at a VBRLeaf pointer's address.
func (p *Pool) Leaf(ptr Pointer) vbr.Chunk {
	capWords := p.leafs.Read(ptr.Data(), 1)[0]
	words := p.leafs.Read(ptr.Data()+1, int(capWords))
	return vbr.DecodeWords(words)
}
