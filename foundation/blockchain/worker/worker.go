// Package worker implements mining, peer updates, and transaction sharing for
// the blockchain.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/minichain/foundation/blockchain/database"
	"github.com/ardanlabs/minichain/foundation/blockchain/peer"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
)

// defaultSyncInterval represents the interval of finding new peer nodes
// and resolving conflicts with their chains.
const defaultSyncInterval = time.Minute

// defaultMaxPeerFailures represents the number of consecutive failed status
// requests before a peer is dropped from the known peer list.
const defaultMaxPeerFailures = 3

// Config represents the settings for the background operations.
type Config struct {
	SyncInterval    time.Duration
	MaxPeerFailures int
	AutoMine        bool
	EvHandler       state.EventHandler
}

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	ticker       *time.Ticker
	shut         chan struct{}
	resync       chan bool
	startMining  chan bool
	cancelMining chan bool
	txSharing    chan database.Tx
	autoMine     bool
	evHandler    state.EventHandler

	mu              sync.Mutex
	peerFailures    map[peer.Peer]int
	maxPeerFailures int
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, cfg Config) *Worker {
	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	maxFailures := cfg.MaxPeerFailures
	if maxFailures <= 0 {
		maxFailures = defaultMaxPeerFailures
	}

	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:           st,
		ctx:             ctx,
		cancel:          cancel,
		ticker:          time.NewTicker(interval),
		shut:            make(chan struct{}),
		resync:          make(chan bool, 1),
		startMining:     make(chan bool, 1),
		cancelMining:    make(chan bool, 1),
		txSharing:       make(chan database.Tx, maxTxShareRequests),
		autoMine:        cfg.AutoMine,
		evHandler:       ev,
		peerFailures:    make(map[peer.Peer]int),
		maxPeerFailures: maxFailures,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	// Load the set of operations we need to run.
	operations := []func(){
		w.syncOperations,
		w.miningOperations,
		w.shareTxOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Pick up anything that was submitted before the worker registered.
	if st.QueryMempoolLength() > 0 {
		w.SignalStartMining()
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.cancel()
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	if !w.autoMine {
		return
	}

	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// SignalResync requests conflict resolution to run outside of the regular
// sync interval.
func (w *Worker) SignalResync() {
	select {
	case w.resync <- true:
	default:
	}
	w.evHandler("worker: SignalResync: resync signaled")
}

// SignalShareTx signals a share transaction operation. If
// maxTxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.Tx) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
