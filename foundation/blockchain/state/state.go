// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/genesis"
	"github.com/ardanlabs/minichain/foundation/blockchain/mempool"
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	Sync()
	SignalResync()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx database.Tx)
}

// Fetcher interface represents the behavior required to retrieve the full
// chain held by a peer.
type Fetcher interface {
	FetchChain(ctx context.Context, pr peer.Peer) ([]database.Block, error)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host        string
	Genesis     genesis.Genesis
	Storage     database.Storage
	KnownPeers  *peer.PeerSet
	Fetcher     Fetcher
	PeerTimeout time.Duration
	EvHandler   EventHandler
}

// State manages the blockchain database. All mutation of the chain and the
// mempool is routed through its methods.
type State struct {
	mu       sync.RWMutex
	miningMu sync.Mutex

	host      string
	evHandler EventHandler

	genesis     genesis.Genesis
	chain       []database.Block
	seenBlocks  map[string]struct{}
	mempool     *mempool.Mempool
	storage     database.Storage
	knownPeers  *peer.PeerSet
	fetcher     Fetcher
	peerTimeout time.Duration

	Worker Worker
}

// New constructs a new blockchain for data management. If the storage holds
// a valid chain it is loaded, otherwise the chain starts with a freshly
// synthesized genesis block.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}

	state := State{
		host:        cfg.Host,
		evHandler:   ev,
		genesis:     cfg.Genesis,
		seenBlocks:  make(map[string]struct{}),
		mempool:     mempool.New(),
		storage:     cfg.Storage,
		knownPeers:  knownPeers,
		fetcher:     fetcher,
		peerTimeout: cfg.PeerTimeout,
		Worker:      nopWorker{},
	}

	// Load all existing blocks from storage into memory for processing.
	blocks, err := database.ReadAll(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("reading stored chain: %w", err)
	}

	if len(blocks) > 0 {
		err := database.CheckChain(blocks, cfg.Genesis.Difficulty)
		if err == nil {
			ev("state: New: loaded stored chain: blocks[%d]", len(blocks))
			state.chain = blocks
			state.markSeen(blocks)
			return &state, nil
		}

		ev("state: New: WARNING: stored chain is invalid, starting over: %s", err)
	}

	// Synthesize the genesis block and make it the start of the chain.
	if err := cfg.Storage.Reset(); err != nil {
		return nil, fmt.Errorf("resetting storage: %w", err)
	}

	gb := cfg.Genesis.Block()
	if err := cfg.Storage.Write(0, gb); err != nil {
		return nil, fmt.Errorf("writing genesis block: %w", err)
	}

	state.chain = []database.Block{gb}
	state.seenBlocks[gb.Hash] = struct{}{}

	ev("state: New: genesis block created: blk[%s]", gb.Hash)

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	// Make sure the database is properly closed.
	return s.storage.Close()
}

// =============================================================================

// markSeen records the digests of every block and transaction in the
// specified blocks. The caller must hold the lock or own the state.
func (s *State) markSeen(blocks []database.Block) {
	for _, block := range blocks {
		s.seenBlocks[block.Hash] = struct{}{}
		s.mempool.MarkSeen(block.Transactions)
	}
}

// nopWorker is used until a worker registers itself with the state.
type nopWorker struct{}

func (nopWorker) Shutdown()                    {}
func (nopWorker) Sync()                        {}
func (nopWorker) SignalResync()                {}
func (nopWorker) SignalStartMining()           {}
func (nopWorker) SignalCancelMining()          {}
func (nopWorker) SignalShareTx(tx database.Tx) {}
