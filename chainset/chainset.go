// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainset implements the process-wide registry of header chain
// branches: the main chain plus any forks still being tracked, fork
// creation, and the swap-with-parent reorg that promotes a fork over its
// parent once it has strictly overtaken the parent's suffix.
package chainset

import (
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/EXCCoin/exccd/blockchain"
	"github.com/EXCCoin/exccd/bpqerr"
	"github.com/EXCCoin/exccd/branch"
	"github.com/EXCCoin/exccd/chaincfg"
	"github.com/EXCCoin/exccd/chaincfg/chainhash"
	"github.com/EXCCoin/exccd/chainindex"
	"github.com/EXCCoin/exccd/hashoracle"
	"github.com/EXCCoin/exccd/headerfile"
	"github.com/EXCCoin/exccd/wire"
)

const (
	mainFileName = "blockchain_headers"
	forksDirName = "forks"
	forkPrefix   = "fork_"
	indexDirName = "chainindex"
)

// ChainSet is the registry of every branch rooted (directly or
// transitively) at the main chain's checkpoint 0. It resolves parent
// links for its branches via Resolve and is notified of every successful
// append via ConsiderSwap, satisfying branch.Resolver and
// branch.SaveObserver respectively.
type ChainSet struct {
	datadir string
	params  *chaincfg.Params
	oracle  hashoracle.HashOracle
	verify  *blockchain.Verifier

	mu         sync.Mutex
	branches   map[int64]*branch.Branch // keyed by checkpoint
	lastActive *branch.Branch
	index      *chainindex.Index // optional startup-reconstruction accelerator
}

// New returns a ChainSet rooted at datadir. Call Load before using it.
func New(datadir string, params *chaincfg.Params, oracle hashoracle.HashOracle) *ChainSet {
	return &ChainSet{
		datadir:  datadir,
		params:   params,
		oracle:   oracle,
		verify:   blockchain.New(params, oracle),
		branches: make(map[int64]*branch.Branch),
	}
}

func (cs *ChainSet) mainPath() string {
	return filepath.Join(cs.datadir, mainFileName)
}

func (cs *ChainSet) forksDir() string {
	return filepath.Join(cs.datadir, forksDirName)
}

func (cs *ChainSet) indexPath() string {
	return filepath.Join(cs.datadir, indexDirName)
}

func forkFileName(parentCheckpoint, checkpoint int64) string {
	return forkPrefix + strconv.FormatInt(parentCheckpoint, 10) + "_" + strconv.FormatInt(checkpoint, 10)
}

func (cs *ChainSet) forkPath(parentCheckpoint, checkpoint int64) string {
	return filepath.Join(cs.forksDir(), forkFileName(parentCheckpoint, checkpoint))
}

func parseForkName(name string) (parent, checkpoint int64, ok bool) {
	if !strings.HasPrefix(name, forkPrefix) {
		return 0, 0, false
	}
	rest := strings.TrimPrefix(name, forkPrefix)
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	p, err1 := strconv.ParseInt(parts[0], 10, 64)
	c, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return p, c, true
}

// Resolve implements branch.Resolver.
func (cs *ChainSet) Resolve(checkpoint int64) (*branch.Branch, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	b, ok := cs.branches[checkpoint]
	return b, ok
}

// ConsiderSwap implements branch.SaveObserver: after b's tip changed,
// check whether it has strictly overtaken the parent's suffix it would
// replace, and if so perform the reorg.
func (cs *ChainSet) ConsiderSwap(b *branch.Branch) error {
	if b.IsRoot() {
		return nil
	}
	parent, ok := b.Parent()
	if !ok {
		return nil
	}
	parentBranchSize := parent.Height() - b.Checkpoint + 1
	if parentBranchSize >= b.Size() {
		return nil
	}
	return cs.swapWithParent(b, parent)
}

// Load opens the main chain file (creating it if absent) and reconstructs
// every fork under <datadir>/forks, dropping (and logging) any fork whose
// first header no longer connects to its recorded parent.
func (cs *ChainSet) Load() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	mainFile := headerfile.New(cs.mainPath(), cs.params.HeaderSize())
	if !mainFile.Exists() {
		if err := mainFile.CreateEmpty(); err != nil {
			return err
		}
	}
	if err := mainFile.Refresh(); err != nil {
		return err
	}

	root := branch.New(0, nil, mainFile, cs.params, cs.oracle, cs, cs)
	if err := root.Refresh(); err != nil {
		return err
	}
	cs.branches[0] = root
	cs.lastActive = root

	if err := os.MkdirAll(cs.forksDir(), 0o755); err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "create forks directory", err)
	}
	entries, err := os.ReadDir(cs.forksDir())
	if err != nil {
		return bpqerr.Wrap(bpqerr.ErrIO, "read forks directory", err)
	}

	// The index is a pure accelerator: if it can't be opened (missing
	// permissions, corrupt LOCK file, ...) reconstruction just falls back
	// to validating every fork from its header file, same as if it had
	// never existed.
	idx, err := chainindex.Open(cs.indexPath())
	if err != nil {
		log.Warnf("chainset: chain index unavailable, falling back to full fork scan: %v", err)
		idx = nil
	}
	cs.index = idx

	type forkEntry struct {
		parent, checkpoint int64
		name               string
	}
	var forks []forkEntry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		parent, checkpoint, ok := parseForkName(e.Name())
		if !ok {
			continue
		}
		forks = append(forks, forkEntry{parent, checkpoint, e.Name()})
	}
	sort.Slice(forks, func(i, j int) bool { return forks[i].parent < forks[j].parent })

	for _, fe := range forks {
		parentID := fe.parent
		f := headerfile.New(filepath.Join(cs.forksDir(), fe.name), cs.params.HeaderSize())
		if err := f.Refresh(); err != nil {
			log.Warnf("chainset: skipping fork %s: %v", fe.name, err)
			continue
		}

		b := branch.New(fe.checkpoint, &parentID, f, cs.params, cs.oracle, cs, cs)
		if err := b.Refresh(); err != nil {
			log.Warnf("chainset: skipping fork %s: %v", fe.name, err)
			continue
		}

		parent, ok := cs.branches[parentID]
		if !ok {
			log.Warnf("chainset: dropping fork %s: parent checkpoint %d not loaded", fe.name, parentID)
			cs.quarantineFork(f, fe.name)
			continue
		}

		if cs.indexConfirms(fe.checkpoint, parentID, b.Size()) {
			cs.branches[fe.checkpoint] = b
			continue
		}

		first, err := b.ReadHeader(fe.checkpoint)
		if err != nil || first == nil {
			log.Warnf("chainset: dropping fork %s: cannot read first header", fe.name)
			continue
		}
		if err := cs.validateForkEntry(parent, first); err != nil {
			log.Warnf("chainset: dropping fork %s: %v", fe.name, err)
			cs.quarantineFork(f, fe.name)
			continue
		}

		cs.branches[fe.checkpoint] = b
		cs.recordValidated(fe.checkpoint, parentID, b.Size())
	}

	return nil
}

// quarantineFork renames a fork file that reconstruction decided to drop,
// tagging it with an ".orphaned" suffix so an operator inspecting the forks
// directory later can tell a deliberately abandoned fork from one that
// simply hasn't been picked up yet. Best-effort: a failure here only costs
// the audit trail, not correctness, so it is logged and otherwise ignored.
func (cs *ChainSet) quarantineFork(f *headerfile.HeaderFile, name string) {
	newPath := filepath.Join(cs.forksDir(), name+".orphaned")
	if err := f.Rename(newPath); err != nil {
		log.Warnf("chainset: could not quarantine dropped fork %s: %v", name, err)
	}
}

// indexConfirms reports whether the chain index already recorded fork as
// validated against parentID at exactly its current size, letting Load
// skip re-reading the fork's first header and walking its parent's hash
// chain. Any miss (no index, no entry, size drifted since) falls through
// to full validation.
func (cs *ChainSet) indexConfirms(checkpoint, parentID, size int64) bool {
	if cs.index == nil {
		return false
	}
	entry, ok, err := cs.index.Get(checkpoint)
	if err != nil || !ok {
		return false
	}
	return entry.ParentCheckpoint == parentID && entry.ValidatedSize == size
}

// recordValidated best-effort records that checkpoint validated clean
// against parentID at size, for a faster Load next time. A failure here
// never affects correctness: the directory scan remains authoritative.
func (cs *ChainSet) recordValidated(checkpoint, parentID, size int64) {
	if cs.index == nil {
		return
	}
	if err := cs.index.Put(checkpoint, chainindex.Entry{ParentCheckpoint: parentID, ValidatedSize: size}); err != nil {
		log.Warnf("chainset: failed to update chain index for checkpoint %d: %v", checkpoint, err)
	}
}

// validateForkEntry checks that first (a fork's first stored header)
// connects below parent's tip, i.e. parent holds a header at
// first.BlockHeight-1 whose hash equals first.PrevBlock. It corresponds
// to the original's "can_connect(first_header, check_height=false)" used
// during startup reconstruction -- unlike CanConnect, it does not require
// first to extend parent's current tip, only that it forks off parent
// somewhere in its stored range.
func (cs *ChainSet) validateForkEntry(parent *branch.Branch, first *wire.BlockHeader) error {
	if first.BlockHeight <= parent.Checkpoint || first.BlockHeight-1 > parent.Height() {
		return bpqerr.New(bpqerr.ErrLinkage, "fork point outside parent's stored range")
	}
	parentHash, err := parent.GetHash(first.BlockHeight - 1)
	if err != nil {
		return err
	}
	if parentHash != first.PrevBlock {
		return bpqerr.New(bpqerr.ErrLinkage, "fork's first header does not connect to parent")
	}
	return nil
}

// targetForHeight returns the PoW target that applies at height, reading
// chunk-boundary headers (when needed) through chain.
func (cs *ChainSet) targetForHeight(chain blockchain.ChainReader, height int64) (*big.Int, error) {
	chunkSize := int64(chaincfg.ChunkSize())
	index := height / chunkSize
	return cs.verify.GetTarget(chain, index-1)
}

// CheckHeader returns the branch whose tip is at h.BlockHeight-1 and whose
// tip hash equals h's declared parent, without running VerifyHeader (no
// proof-of-work check) -- a cheap lookup a caller can use before
// attempting the fuller CanConnect check.
func (cs *ChainSet) CheckHeader(h *wire.BlockHeader) (*branch.Branch, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, b := range cs.branches {
		if h.BlockHeight != b.Height()+1 {
			continue
		}
		var tipHash chainhash.Hash
		if b.Height() >= 0 {
			hash, err := b.GetHash(b.Height())
			if err != nil {
				return nil, err
			}
			tipHash = hash
		}
		if tipHash == h.PrevBlock {
			return b, nil
		}
	}
	return nil, nil
}

// CanConnect returns the branch that h would successfully extend,
// verifying its linkage and (when enabled) its proof of work. The
// branch that was last appended to is tried first.
func (cs *ChainSet) CanConnect(h *wire.BlockHeader) (*branch.Branch, error) {
	cs.mu.Lock()
	ordered := cs.orderedBranchesLocked()
	cs.mu.Unlock()

	for _, b := range ordered {
		ok, err := cs.headerExtends(b, h)
		if err != nil {
			return nil, err
		}
		if ok {
			return b, nil
		}
	}
	return nil, nil
}

func (cs *ChainSet) orderedBranchesLocked() []*branch.Branch {
	ordered := make([]*branch.Branch, 0, len(cs.branches))
	if cs.lastActive != nil {
		ordered = append(ordered, cs.lastActive)
	}
	for _, b := range cs.branches {
		if b == cs.lastActive {
			continue
		}
		ordered = append(ordered, b)
	}
	return ordered
}

func (cs *ChainSet) headerExtends(b *branch.Branch, h *wire.BlockHeader) (bool, error) {
	if h.BlockHeight != b.Height()+1 {
		return false, nil
	}

	var prevHash chainhash.Hash
	if h.BlockHeight == 0 {
		if h.PrevBlock != (chainhash.Hash{}) {
			return false, nil
		}
	} else {
		hash, err := b.GetHash(b.Height())
		if err != nil {
			return false, err
		}
		prevHash = hash
	}

	target, err := cs.targetForHeight(b, h.BlockHeight)
	if err != nil {
		return false, err
	}
	if err := cs.verify.VerifyHeader(h, prevHash, target); err != nil {
		return false, nil
	}
	return true, nil
}

// ConnectHeader verifies h against whichever branch it extends, appending
// it there; if no branch's tip accepts h but some branch holds a matching
// header below its tip, a new fork branch is created at h.BlockHeight. It
// reports whether h was accepted.
func (cs *ChainSet) ConnectHeader(h *wire.BlockHeader) (bool, error) {
	b, err := cs.CanConnect(h)
	if err != nil {
		return false, err
	}
	if b != nil {
		if err := b.SaveHeader(h); err != nil {
			return false, err
		}
		cs.mu.Lock()
		cs.lastActive = b
		cs.mu.Unlock()
		return true, nil
	}

	cs.mu.Lock()
	candidates := make([]*branch.Branch, 0, len(cs.branches))
	for _, br := range cs.branches {
		candidates = append(candidates, br)
	}
	cs.mu.Unlock()

	for _, parent := range candidates {
		if h.BlockHeight <= parent.Checkpoint || h.BlockHeight-1 > parent.Height() {
			continue
		}
		parentHash, err := parent.GetHash(h.BlockHeight - 1)
		if err != nil {
			continue
		}
		if parentHash != h.PrevBlock {
			continue
		}
		target, err := cs.targetForHeight(parent, h.BlockHeight)
		if err != nil {
			return false, err
		}
		if err := cs.verify.VerifyHeader(h, parentHash, target); err != nil {
			continue
		}

		newBranch, err := cs.fork(parent, h)
		if err != nil {
			return false, err
		}
		cs.mu.Lock()
		cs.lastActive = newBranch
		cs.mu.Unlock()
		log.Infof("chainset: created fork at checkpoint %d off parent checkpoint %d", h.BlockHeight, parent.Checkpoint)
		return true, nil
	}

	return false, nil
}

func (cs *ChainSet) fork(parent *branch.Branch, h *wire.BlockHeader) (*branch.Branch, error) {
	checkpoint := h.BlockHeight
	parentCheckpoint := parent.Checkpoint

	if err := os.MkdirAll(cs.forksDir(), 0o755); err != nil {
		return nil, bpqerr.Wrap(bpqerr.ErrIO, "create forks directory", err)
	}

	f := headerfile.New(cs.forkPath(parentCheckpoint, checkpoint), cs.params.HeaderSize())
	if err := f.CreateEmpty(); err != nil {
		return nil, err
	}

	parentID := parentCheckpoint
	b := branch.New(checkpoint, &parentID, f, cs.params, cs.oracle, cs, cs)
	if err := b.Refresh(); err != nil {
		return nil, err
	}
	if err := b.SaveHeader(h); err != nil {
		return nil, err
	}

	cs.mu.Lock()
	cs.branches[checkpoint] = b
	cs.mu.Unlock()
	cs.recordValidated(checkpoint, parentCheckpoint, b.Size())

	return b, nil
}

// ConnectChunk verifies and appends a full chunkSize-header chunk (the
// concatenation of chunkSize serialized records) at chunk index, to
// whichever branch's tail it extends. It reports whether the chunk was
// accepted.
func (cs *ChainSet) ConnectChunk(index int64, data []byte) (bool, error) {
	headerSize := cs.params.HeaderSize()
	chunkSize := int64(chaincfg.ChunkSize())
	if int64(len(data)) != chunkSize*int64(headerSize) {
		return false, bpqerr.New(bpqerr.ErrLengthMismatch, "connect_chunk: wrong chunk length")
	}
	startHeight := index * chunkSize

	headers := make([]*wire.BlockHeader, chunkSize)
	for i := int64(0); i < chunkSize; i++ {
		raw := data[i*int64(headerSize) : (i+1)*int64(headerSize)]
		h, err := wire.Deserialize(raw, startHeight+i, cs.params.SolLength)
		if err != nil {
			return false, err
		}
		reser, err := wire.Serialize(h, cs.params.SolLength, false)
		if err != nil {
			return false, err
		}
		if string(reser) != string(raw) {
			return false, bpqerr.New(bpqerr.ErrLengthMismatch, "connect_chunk: header does not round-trip bit-exactly")
		}
		headers[i] = h
	}

	cs.mu.Lock()
	ordered := cs.orderedBranchesLocked()
	cs.mu.Unlock()

	// Try the last-active branch first; on failure, move on to the next
	// candidate instead of aborting the whole call.
	var chosen *branch.Branch
	for _, b := range ordered {
		if startHeight-1 > b.Height() {
			continue
		}
		prevHash, err := b.GetHash(startHeight - 1)
		if err != nil {
			continue
		}
		target, err := cs.verify.GetTarget(b, index-1)
		if err != nil {
			continue
		}
		if err := cs.verify.VerifyChunk(b, index, prevHash, target, headers); err != nil {
			continue
		}
		chosen = b
		break
	}
	if chosen == nil {
		return false, nil
	}

	offset := (startHeight - chosen.Checkpoint) * int64(headerSize)
	writeData := data
	if offset < 0 {
		trimRecords := -offset / int64(headerSize)
		writeData = data[trimRecords*int64(headerSize):]
		offset = 0
	}
	truncate := index >= int64(len(cs.params.Checkpoints))
	if err := chosen.File.WriteAt(offset, writeData, truncate); err != nil {
		return false, err
	}
	if err := chosen.Refresh(); err != nil {
		return false, err
	}

	cs.mu.Lock()
	cs.lastActive = chosen
	cs.mu.Unlock()

	if err := cs.ConsiderSwap(chosen); err != nil {
		return false, err
	}
	return true, nil
}

// swapWithParent promotes child over parent once child has strictly
// overtaken the parent suffix it would replace: it copies child's records
// into parent's file (overwriting that suffix) and copies the displaced
// suffix into child's file. Because both branches' Checkpoint and
// ParentID describe ranges relative to their own file, and neither range
// moves (only its contents), no identity fields need to change -- only
// the cached sizes, refreshed below.
func (cs *ChainSet) swapWithParent(child, parent *branch.Branch) error {
	headerSize := int64(cs.params.HeaderSize())

	myData, err := child.File.ReadAt(0, int(child.Size()*headerSize))
	if err != nil {
		return err
	}

	parentOffset := (child.Checkpoint - parent.Checkpoint) * headerSize
	replaceLen := (parent.Height() + 1 - child.Checkpoint) * headerSize
	parentData, err := parent.File.ReadAt(parentOffset, int(replaceLen))
	if err != nil {
		return err
	}

	if err := child.File.WriteAt(0, parentData, true); err != nil {
		return err
	}
	if err := parent.File.WriteAt(parentOffset, myData, true); err != nil {
		return err
	}

	if err := child.Refresh(); err != nil {
		return err
	}
	if err := parent.Refresh(); err != nil {
		return err
	}

	// Both files' contents changed underneath their unchanged checkpoints,
	// so any cached validation for either is stale; the size mismatch
	// alone would cause indexConfirms to miss on the next Load, but
	// dropping them now keeps the index from holding dead entries.
	if cs.index != nil {
		_ = cs.index.Delete(child.Checkpoint)
		_ = cs.index.Delete(parent.Checkpoint)
	}

	log.Infof("chainset: swapped branch at checkpoint %d with parent at checkpoint %d (new parent height %d)",
		child.Checkpoint, parent.Checkpoint, parent.Height())
	return nil
}

// Close releases resources held by cs, including the optional chain
// index opened by Load.
func (cs *ChainSet) Close() error {
	cs.mu.Lock()
	idx := cs.index
	cs.index = nil
	cs.mu.Unlock()
	if idx == nil {
		return nil
	}
	return idx.Close()
}

// Checkpoints rebuilds the full checkpoint table -- (hash, target) for
// every complete chunkSize-header chunk in b's chain, oldest first --
// for a client syncing from scratch. It corresponds to the original's
// get_checkpoints().
func (cs *ChainSet) Checkpoints(b *branch.Branch) ([]chaincfg.Checkpoint, error) {
	chunkSize := int64(chaincfg.ChunkSize())
	chunks := (b.Height() + 1) / chunkSize

	out := make([]chaincfg.Checkpoint, 0, chunks)
	for index := int64(0); index < chunks; index++ {
		if index < int64(len(cs.params.Checkpoints)) {
			out = append(out, cs.params.Checkpoints[index])
			continue
		}
		height := index*chunkSize + chunkSize - 1
		hash, err := b.GetHash(height)
		if err != nil {
			return nil, err
		}
		target, err := cs.verify.GetTarget(b, index)
		if err != nil {
			return nil, err
		}
		out = append(out, chaincfg.Checkpoint{Hash: hash, Target: target})
	}
	return out, nil
}

// ReadHeader reads the header at height from the main chain branch.
func (cs *ChainSet) ReadHeader(height int64) (*wire.BlockHeader, error) {
	cs.mu.Lock()
	root, ok := cs.branches[0]
	cs.mu.Unlock()
	if !ok {
		return nil, bpqerr.New(bpqerr.ErrNotFound, "read_header: chain set not loaded")
	}
	return root.ReadHeader(height)
}

// MaxChild returns the known child of b with the greatest checkpoint, or
// (nil, false) if b has no registered children.
func (cs *ChainSet) MaxChild(b *branch.Branch) (*branch.Branch, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var best *branch.Branch
	for _, candidate := range cs.branches {
		if candidate.ParentID == nil || *candidate.ParentID != b.Checkpoint {
			continue
		}
		if best == nil || candidate.Checkpoint > best.Checkpoint {
			best = candidate
		}
	}
	return best, best != nil
}

// EffectiveCheckpoint returns the checkpoint of b's highest-checkpointed
// child, if any, or b.Checkpoint itself when b has no children. A branch
// whose suffix has already been forked off is still "named" by the fork
// point its own history continues to serve, not its nominal checkpoint.
func (cs *ChainSet) EffectiveCheckpoint(b *branch.Branch) int64 {
	child, ok := cs.MaxChild(b)
	if !ok {
		return b.Checkpoint
	}
	return child.Checkpoint
}

// BranchSize returns the length of b's history, measured from its
// effective checkpoint rather than its own, since any child branch forked
// off above that point already claims that suffix for itself.
func (cs *ChainSet) BranchSize(b *branch.Branch) int64 {
	return b.Height() - cs.EffectiveCheckpoint(b) + 1
}

// BranchName returns a human-readable identifier for b, for diagnostics:
// the root branch is named "main" while it has no registered children;
// every fork, and a root with children, is named "branch-" followed by its
// effective checkpoint.
func (cs *ChainSet) BranchName(b *branch.Branch) string {
	if b.IsRoot() && cs.EffectiveCheckpoint(b) == b.Checkpoint {
		return "main"
	}
	return "branch-" + strconv.FormatInt(cs.EffectiveCheckpoint(b), 10)
}
