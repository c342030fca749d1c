package state

import (
	"context"
	"math/big"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
	"github.com/ethereum/go-ethereum/common/math"
)

// ResolveConflicts fetches the chain held by each of the specified peers, in
// order, and replaces the local chain when a valid candidate is found that is
// longer than the local chain. Among the valid candidates the one with the
// numerically lowest tip hash is chosen. It reports whether the local chain
// was replaced.
//
// CORE NOTE: The lowest tip hash is picked across every valid candidate
// before the length check is applied. A longer valid chain can lose to a
// shorter one with a lower tip, which then fails the length check.
func (s *State) ResolveConflicts(ctx context.Context, peers []peer.Peer) bool {
	s.evHandler("state: ResolveConflicts: started: peers[%d]", len(peers))
	defer s.evHandler("state: ResolveConflicts: completed")

	var best []database.Block
	var bestTip *big.Int

	for _, pr := range peers {
		blocks, err := s.fetchChain(ctx, pr)
		if err != nil {
			s.evHandler("state: ResolveConflicts: WARNING: peer[%s]: fetch: %s", pr, err)
			continue
		}

		if err := database.CheckChain(blocks, s.genesis.Difficulty); err != nil {
			s.evHandler("state: ResolveConflicts: WARNING: peer[%s]: invalid chain: %s", pr, err)
			continue
		}

		tip, ok := tipValue(blocks)
		if !ok {
			s.evHandler("state: ResolveConflicts: WARNING: peer[%s]: tip hash is not a number", pr)
			continue
		}

		if bestTip == nil || tip.Cmp(bestTip) < 0 {
			best = blocks
			bestTip = tip
		}

		s.evHandler("state: ResolveConflicts: peer[%s]: valid chain: blocks[%d]", pr, len(blocks))
	}

	if best == nil {
		return false
	}

	return s.replaceChain(best)
}

// =============================================================================

// fetchChain retrieves the peer's chain using the configured fetcher. The
// per peer timeout only applies when one is configured.
func (s *State) fetchChain(ctx context.Context, pr peer.Peer) ([]database.Block, error) {
	if s.peerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.peerTimeout)
		defer cancel()
	}

	return s.fetcher.FetchChain(ctx, pr)
}

// replaceChain swaps the local chain for the candidate if the candidate is
// longer. The storage is rewritten first and restored if that fails so the
// chain in memory always matches what is stored.
func (s *State) replaceChain(blocks []database.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(blocks) <= len(s.chain) {
		s.evHandler("state: replaceChain: candidate not longer: candidate[%d]: local[%d]", len(blocks), len(s.chain))
		return false
	}

	chain := make([]database.Block, len(blocks))
	for i, block := range blocks {
		chain[i] = block.Copy()
	}

	if err := s.rewriteStorage(chain); err != nil {
		s.evHandler("state: replaceChain: ERROR: %s", err)

		if err := s.rewriteStorage(s.chain); err != nil {
			s.evHandler("state: replaceChain: ERROR: restoring storage: %s", err)
		}
		return false
	}

	s.chain = chain
	s.markSeen(chain)

	s.evHandler("viewer: replaceChain: chain replaced: blocks[%d]: tip[%s]", len(chain), chain[len(chain)-1].Hash)

	// Any mining in progress is now building on a stale tip.
	s.Worker.SignalCancelMining()

	return true
}

// rewriteStorage clears the storage and writes the specified blocks.
func (s *State) rewriteStorage(blocks []database.Block) error {
	if err := s.storage.Reset(); err != nil {
		return err
	}

	return database.WriteAll(s.storage, blocks)
}

// tipValue interprets the hash of the last block as a 256 bit integer.
func tipValue(blocks []database.Block) (*big.Int, bool) {
	return math.ParseBig256("0x" + blocks[len(blocks)-1].Hash)
}
