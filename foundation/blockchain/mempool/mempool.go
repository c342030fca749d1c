// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// Mempool represents the ordered queue of transactions waiting to be
// included in a block. It also remembers the digest of every transaction
// it has ever accepted so the same transaction is never queued twice.
//
// CORE NOTE: The seen set has no eviction. It grows with every distinct
// transaction this node has observed.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Tx
	seen map[string]struct{}
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		seen: make(map[string]struct{}),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds the transaction to the end of the pool if it has never been
// seen before. It returns false when the transaction is a duplicate, which
// is not an error.
func (mp *Mempool) Upsert(tx database.Tx) bool {
	key := tx.Digest()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.seen[key]; exists {
		return false
	}

	mp.pool = append(mp.pool, tx)
	mp.seen[key] = struct{}{}

	return true
}

// MarkSeen records the transactions as observed without queueing them.
// This is used for transactions that arrive inside blocks.
func (mp *Mempool) MarkSeen(trans []database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range trans {
		mp.seen[tx.Digest()] = struct{}{}
	}
}

// Copy returns a snapshot of the pool in insertion order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.Tx, len(mp.pool))
	copy(trans, mp.pool)

	return trans
}

// Delete removes the specified transactions from the pool, keeping the
// order of the remaining transactions. They stay in the seen set.
func (mp *Mempool) Delete(trans []database.Tx) {
	remove := make(map[string]struct{}, len(trans))
	for _, tx := range trans {
		remove[tx.Digest()] = struct{}{}
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	var pool []database.Tx
	for _, tx := range mp.pool {
		if _, exists := remove[tx.Digest()]; !exists {
			pool = append(pool, tx)
		}
	}
	mp.pool = pool
}
