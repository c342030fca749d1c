package state

import (
	"github.com/ardanlabs/minichain/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction from a client for inclusion in a
// future block. Submitting a transaction that was already seen is a no-op
// and reports false.
func (s *State) SubmitTransaction(tx database.Tx) bool {
	s.evHandler("state: SubmitTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: SubmitTransaction: completed")

	if !s.mempool.Upsert(tx) {
		s.evHandler("state: SubmitTransaction: duplicate: tx[%s]", tx)
		return false
	}

	s.Worker.SignalShareTx(tx)
	s.Worker.SignalStartMining()

	return true
}

// UpsertNodeTransaction accepts a transaction shared by a peer. The
// transaction is not shared again, which keeps transactions from bouncing
// around the network.
func (s *State) UpsertNodeTransaction(tx database.Tx) bool {
	s.evHandler("state: UpsertNodeTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: UpsertNodeTransaction: completed")

	if !s.mempool.Upsert(tx) {
		return false
	}

	s.Worker.SignalStartMining()

	return true
}
