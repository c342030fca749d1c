package worker

import (
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
)

// syncOperations handles finding new peers and resolving conflicts with
// their chains, on every tick and whenever a resync is signaled.
func (w *Worker) syncOperations() {
	w.evHandler("worker: syncOperations: G started")
	defer w.evHandler("worker: syncOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.resync:
			if !w.isShutdown() {
				w.Sync()
			}
		case <-w.shut:
			w.evHandler("worker: syncOperations: received shut signal")
			return
		}
	}
}

// Sync updates the peer list, resolves conflicts with the peers' chains and
// lets the peers know this node is available.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(w.ctx, pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			w.peerFailed(pr)
			continue
		}
		w.peerResponded(pr)

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)
	}

	peers := w.state.RetrieveKnownPeers()

	if w.state.ResolveConflicts(w.ctx, peers) {
		w.evHandler("worker: sync: chain replaced: blocks[%d]", w.state.ChainLength())
	}

	// Let the peers know this node is available to chat.
	for _, pr := range peers {
		if err := w.state.NetRequestAddPeer(w.ctx, pr); err != nil {
			w.evHandler("worker: sync: addPeer: %s: ERROR: %s", pr.Host, err)
		}
	}
}

// addNewPeers takes the list of known peers and makes sure they are included
// in the nodes list of know peers.
func (w *Worker) addNewPeers(knownPeers []peer.Peer) {
	for _, pr := range knownPeers {
		if w.state.AddKnownPeer(pr) {
			w.evHandler("worker: sync: addNewPeers: adding peer-node %s", pr)
		}
	}
}

// peerFailed records a failed status request and drops the peer once it
// has failed too many times in a row.
func (w *Worker) peerFailed(pr peer.Peer) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.peerFailures[pr]++
	if w.peerFailures[pr] < w.maxPeerFailures {
		return
	}

	delete(w.peerFailures, pr)
	w.state.RemoveKnownPeer(pr)
	w.evHandler("worker: sync: removing unreachable peer-node %s", pr)
}

// peerResponded clears the failure count for the peer.
func (w *Worker) peerResponded(pr peer.Peer) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.peerFailures, pr)
}
