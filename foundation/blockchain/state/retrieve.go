package state

import (
	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/genesis"
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// Difficulty returns the number of leading zero hex digits required of an
// accepted block's hash.
func (s *State) Difficulty() uint {
	return s.genesis.Difficulty
}

// RetrieveChain returns a copy of every block in the chain.
func (s *State) RetrieveChain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]database.Block, len(s.chain))
	for i, block := range s.chain {
		blocks[i] = block.Copy()
	}

	return blocks
}

// RetrieveLatestBlock returns a copy of the current tip of the chain.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain[len(s.chain)-1].Copy()
}

// ChainLength returns the number of blocks in the chain, genesis included.
func (s *State) ChainLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chain)
}

// RetrieveMempool returns a copy of the mempool in submission order.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status this node reports to its peers.
func (s *State) RetrieveStatus() peer.PeerStatus {
	latest := s.RetrieveLatestBlock()

	return peer.PeerStatus{
		LatestBlockHash:  latest.Hash,
		LatestBlockIndex: latest.Index,
		ChainLength:      s.ChainLength(),
		Uncommitted:      s.QueryMempoolLength(),
		KnownPeers:       s.RetrieveKnownPeers(),
	}
}
