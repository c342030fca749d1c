package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// MineNewBlock attempts to create a new block with all the transactions
// currently in the mempool. The mempool is left untouched unless the new
// block is accepted onto the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	defer s.evHandler("viewer: MineNewBlock: MINING: completed")

	// Only one mining attempt may run at a time so the snapshot taken here
	// is exactly what is removed from the mempool on success.
	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	trans := s.mempool.Copy()
	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// The proof of work runs without holding the state lock so the node
	// stays responsive while the search is in progress.
	nb, proof, err := database.POW(ctx, database.POWArgs{
		Difficulty: s.genesis.Difficulty,
		PrevBlock:  s.RetrieveLatestBlock(),
		Trans:      trans,
		EvHandler:  s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: append block")

	s.mu.Lock()
	defer s.mu.Unlock()

	// The tip may have moved while the search was running. In that case the
	// block no longer links and the transactions stay in the mempool.
	if !s.tryAppend(nb, proof) {
		return database.Block{}, ErrBlockRejected
	}

	s.mempool.Delete(trans)

	nb.Hash = proof

	s.evHandler("viewer: MineNewBlock: MINING: blk[%d]: hash[%s]: numTrans[%d]", nb.Index, nb.Hash, len(nb.Transactions))

	return nb, nil
}
