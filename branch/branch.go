// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package branch implements a single logical chain segment: a checkpoint
// height, an optional parent, a backing HeaderFile and a cached length.
// Branches never own each other directly -- a Branch resolves its parent
// through a Resolver supplied by the registry (the chainset package),
// keeping the parent-pointer graph an arena lookup rather than a cycle of
// Go pointers.
package branch

import (
	"github.com/EXCCoin/exccd/bpqerr"
	"github.com/EXCCoin/exccd/chaincfg"
	"github.com/EXCCoin/exccd/chaincfg/chainhash"
	"github.com/EXCCoin/exccd/hashoracle"
	"github.com/EXCCoin/exccd/headerfile"
	"github.com/EXCCoin/exccd/wire"
)

// Resolver looks up a branch by the checkpoint height of its first
// record. It is how a Branch reaches its parent without holding a direct
// pointer to it.
type Resolver interface {
	Resolve(checkpoint int64) (*Branch, bool)
}

// SaveObserver is notified after a header or chunk is durably written to a
// branch, so the registry can consider promoting it over its parent.
type SaveObserver interface {
	ConsiderSwap(b *Branch) error
}

// Branch is a contiguous run of headers, starting at absolute height
// Checkpoint, stored in File. ParentID, when non-nil, names the
// checkpoint of the branch whose tail this branch continues below its own
// Checkpoint height.
type Branch struct {
	Checkpoint int64
	ParentID   *int64

	File   *headerfile.HeaderFile
	size   int64 // cached record count

	params   *chaincfg.Params
	oracle   hashoracle.HashOracle
	resolver Resolver
	observer SaveObserver
}

// New constructs a Branch with a cached size of zero. Callers must call
// Refresh before using Height/Size; the HeaderFile's own cache is not
// consulted until then.
func New(checkpoint int64, parentID *int64, file *headerfile.HeaderFile, params *chaincfg.Params, oracle hashoracle.HashOracle, resolver Resolver, observer SaveObserver) *Branch {
	return &Branch{
		Checkpoint: checkpoint,
		ParentID:   parentID,
		File:       file,
		params:     params,
		oracle:     oracle,
		resolver:   resolver,
		observer:   observer,
	}
}

// Refresh reloads the cached record count from the backing file.
func (b *Branch) Refresh() error {
	if err := b.File.Refresh(); err != nil {
		return err
	}
	b.size = b.File.RecordCount()
	return nil
}

// Size returns the number of records currently stored in this branch.
func (b *Branch) Size() int64 {
	return b.size
}

// Height returns Checkpoint + Size - 1, the absolute height of this
// branch's tip. When the branch is empty this is Checkpoint - 1, a height
// strictly below the branch's own storage window.
func (b *Branch) Height() int64 {
	return b.Checkpoint + b.size - 1
}

// IsRoot reports whether this is the main branch (ParentID == nil).
func (b *Branch) IsRoot() bool {
	return b.ParentID == nil
}

// Parent resolves and returns this branch's parent. It returns (nil, false)
// for the root branch, or when the resolver does not know the parent.
func (b *Branch) Parent() (*Branch, bool) {
	if b.ParentID == nil {
		return nil, false
	}
	return b.resolver.Resolve(*b.ParentID)
}

func (b *Branch) solLength() int {
	return b.params.SolLength
}

func (b *Branch) headerSize() int {
	return b.params.HeaderSize()
}

// ReadHeader returns the header stored at the given absolute height. A
// height below this branch's window is delegated to the parent. It returns
// nil if height is negative or above the tip, or if the stored record is
// the all-zero sentinel for an unfilled slot.
func (b *Branch) ReadHeader(height int64) (*wire.BlockHeader, error) {
	if height < 0 {
		return nil, nil
	}
	if height > b.Height() {
		return nil, nil
	}
	if height < b.Checkpoint {
		parent, ok := b.Parent()
		if !ok {
			return nil, bpqerr.New(bpqerr.ErrNotFound, "branch has no parent to delegate to")
		}
		return parent.ReadHeader(height)
	}

	offset := (height - b.Checkpoint) * int64(b.headerSize())
	data, err := b.File.ReadAt(offset, b.headerSize())
	if err != nil {
		return nil, err
	}
	if wire.IsAllZero(data) {
		return nil, nil
	}
	return wire.Deserialize(data, height, b.solLength())
}

// SaveHeader appends h, which must extend this branch's current tip by
// exactly one (h.BlockHeight == Height()+1), then gives the registry a
// chance to promote this branch over its parent.
func (b *Branch) SaveHeader(h *wire.BlockHeader) error {
	if h.BlockHeight != b.Height()+1 {
		return bpqerr.New(bpqerr.ErrLinkage, "save_header: header does not extend branch tip")
	}

	data, err := wire.Serialize(h, b.solLength(), false)
	if err != nil {
		return err
	}
	offset := (h.BlockHeight - b.Checkpoint) * int64(b.headerSize())
	if err := b.File.WriteAt(offset, data, true); err != nil {
		return err
	}
	if err := b.Refresh(); err != nil {
		return err
	}

	if b.observer != nil {
		return b.observer.ConsiderSwap(b)
	}
	return nil
}

// GetHash returns the identity hash at the given absolute height,
// preferring the network's checkpoint table when the height falls on a
// checkpointed chunk boundary.
func (b *Branch) GetHash(height int64) (chainhash.Hash, error) {
	if height == -1 {
		return chainhash.Hash{}, nil
	}
	if height == 0 {
		return b.params.Genesis, nil
	}

	chunkSize := int64(chaincfg.ChunkSize())
	if height < int64(len(b.params.Checkpoints))*chunkSize && (height+1)%chunkSize == 0 {
		index := height / chunkSize
		return b.params.Checkpoints[index].Hash, nil
	}

	h, err := b.ReadHeader(height)
	if err != nil {
		return chainhash.Hash{}, err
	}
	if h == nil {
		return chainhash.Hash{}, nil
	}
	return wire.Hash(h, b.solLength(), b.oracle)
}
