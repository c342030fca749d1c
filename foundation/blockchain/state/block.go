package state

import (
	"errors"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// Set of errors returned when a block is not accepted.
var (
	ErrBlockRejected = errors.New("block rejected")
	ErrChainForked   = errors.New("blockchain forked, start resync")
)

// TryAppend attempts to append the specified block to the end of the chain
// using the proof as its hash. It reports whether the block was accepted.
// The block's Hash field is ignored and replaced by the proof.
func (s *State) TryAppend(block database.Block, proof string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tryAppend(block, proof)
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. A block that was
// already seen is ignored.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PreviousHash, block.Hash, len(block.Transactions))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	s.mu.Lock()

	if _, exists := s.seenBlocks[block.Hash]; exists {
		s.mu.Unlock()
		s.evHandler("state: ProcessProposedBlock: block already seen: blk[%s]", block.Hash)
		return nil
	}

	if !s.tryAppend(block, block.Hash) {
		tip := s.chain[len(s.chain)-1]
		s.mu.Unlock()

		// If the peer is further ahead than we are, our chain has fallen
		// behind or forked and needs to be resolved against the network.
		if block.Index > tip.Index+1 || (block.Index == tip.Index+1 && block.PreviousHash != tip.Hash) {
			s.evHandler("state: ProcessProposedBlock: WARNING: chain behind or forked: tip[%d]: blk[%d]", tip.Index, block.Index)
			s.Worker.SignalResync()
			return ErrChainForked
		}

		return ErrBlockRejected
	}

	// The transactions in this block are committed and no longer need
	// to be mined by this node.
	s.mempool.Delete(block.Transactions)

	s.mu.Unlock()

	// Any mining in progress is now building on a stale tip.
	s.Worker.SignalCancelMining()

	return nil
}

// =============================================================================

// tryAppend performs the append under the caller's lock. The block is
// persisted before the in-memory chain is updated so a storage failure
// leaves the chain untouched.
func (s *State) tryAppend(block database.Block, proof string) bool {
	tip := s.chain[len(s.chain)-1]

	if block.PreviousHash != tip.Hash {
		s.evHandler("state: tryAppend: rejected: blk[%d]: previous hash doesn't match tip", block.Index)
		return false
	}

	if !database.IsValidProof(block, proof, s.genesis.Difficulty) {
		s.evHandler("state: tryAppend: rejected: blk[%d]: invalid proof[%s]", block.Index, proof)
		return false
	}

	nb := block.Copy()
	nb.Hash = proof

	if err := s.storage.Write(uint64(len(s.chain)), nb); err != nil {
		s.evHandler("state: tryAppend: ERROR: writing blk[%d]: %s", nb.Index, err)
		return false
	}

	s.chain = append(s.chain, nb)
	s.seenBlocks[nb.Hash] = struct{}{}
	s.mempool.MarkSeen(nb.Transactions)

	s.evHandler("state: tryAppend: accepted: blk[%d]: hash[%s]", nb.Index, nb.Hash)

	return true
}
