// Package peer maintains the peer related information such as the set
// of known peers and their status.
package peer

import (
	"strings"
	"sync"
)

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New constructs a new peer value. Any scheme and trailing slash are
// removed so the same node always maps to the same peer.
func New(host string) Peer {
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimSuffix(host, "/")

	return Peer{
		Host: host,
	}
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == New(host).Host
}

// String implements the Stringer interface.
func (p Peer) String() string {
	return p.Host
}

// =============================================================================

// PeerStatus represents information about the status
// of any given peer.
type PeerStatus struct {
	LatestBlockHash  string `json:"latest_block_hash"`
	LatestBlockIndex uint64 `json:"latest_block_index"`
	ChainLength      int    `json:"chain_length"`
	Uncommitted      int    `json:"uncommitted"`
	KnownPeers       []Peer `json:"known_peers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known
// peers. Registration order is preserved since conflict resolution visits
// peers in that order.
type PeerSet struct {
	mu    sync.RWMutex
	set   map[Peer]struct{}
	order []Peer
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set.
func (ps *PeerSet) Add(peer Peer) bool {
	if peer.Host == "" {
		return false
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer]; exists {
		return false
	}

	ps.set[peer] = struct{}{}
	ps.order = append(ps.order, peer)

	return true
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, exists := ps.set[peer]; !exists {
		return
	}

	delete(ps.set, peer)
	for i, p := range ps.order {
		if p == peer {
			ps.order = append(ps.order[:i:i], ps.order[i+1:]...)
			break
		}
	}
}

// Copy returns a list of the known peers in registration order, excluding
// the specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for _, peer := range ps.order {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	return peers
}
