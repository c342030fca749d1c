package state

import (
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
)

// AddKnownPeer provides the ability to add a new peer to
// the known peer list. The node's own host is never added.
func (s *State) AddKnownPeer(pr peer.Peer) bool {
	if pr.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(pr)
}

// RemoveKnownPeer provides the ability to remove a peer from
// the known peer list.
func (s *State) RemoveKnownPeer(pr peer.Peer) {
	s.knownPeers.Remove(pr)
}
