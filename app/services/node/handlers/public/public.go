// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ardanlabs/minichain/business/web/errs"
	"github.com/ardanlabs/minichain/foundation/blockchain/state"
	"github.com/ardanlabs/minichain/foundation/events"
	"github.com/ardanlabs/minichain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Chain returns every block in the chain including each block's hash.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// Mine mines the transactions in the mempool into a new block. The call
// returns once the block is accepted or there is nothing to mine.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions):
			return web.Respond(ctx, w, status{Status: "no transactions to mine"}, http.StatusOK)

		case errors.Is(err, state.ErrBlockRejected):
			return errs.NewTrusted(errors.New("chain changed while mining, try again"), http.StatusConflict)

		case ctx.Err() != nil:
			return errs.NewTrusted(errors.New("mining cancelled"), http.StatusServiceUnavailable)
		}

		return err
	}

	// Propose the new block to the network. Log the error, but that's it.
	if err := h.State.NetSendBlockToPeers(ctx, block); err != nil {
		h.Log.Infow("mine", "traceid", web.GetTraceID(ctx), "status", "propose block to peers", "WARNING", err)
	}

	resp := mined{
		Index:        block.Index,
		Hash:         block.Hash,
		Nonce:        block.Nonce,
		Transactions: len(block.Transactions),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tx := ntx.toTx()

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "tx", tx, "digest", tx.Digest())

	resp := status{
		Status: "transaction added to mempool",
	}
	if !h.State.SubmitTransaction(tx) {
		resp.Status = "transaction already seen"
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}
